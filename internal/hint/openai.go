package hint

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// aiVersion labels hints produced by the model-backed generator.
const aiVersion = "ai-1.0"

var stylePrompts = map[Type]string{
	TypePoem: "Write the hint as a short, mysterious poem. Use metaphor and " +
		"symbolism. Never mention place names or coordinates.",
	TypeRiddle: "Write the hint as a riddle with condition-based clues " +
		"(e.g. \"where water stops and stone speaks\"). Never state the answer directly.",
	TypeDirection: "Write the hint using indirect directional cues: north or " +
		"south of features, elevation, slope. Never give coordinates or distances.",
	TypeEnvironmental: "Write the hint as environmental observations: road " +
		"shapes, nearby forest, desert, cliffs or rivers. Use metaphor, never name the place.",
	TypeNegative: "Write the hint mostly as negations (\"this is not a crowded " +
		"place\", \"no ocean touches it\") with one or two positive clues.",
}

// AIComposer generates hints with a chat model. It implements the same
// contract as Composer: the output must not reveal the location.
type AIComposer struct {
	client *openai.Client
	model  string
}

func NewAIComposer(apiKey string) *AIComposer {
	return &AIComposer{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4oMini,
	}
}

// Compose asks the model for a hint in the requested style.
func (a *AIComposer) Compose(ctx context.Context, s Summary, t Type) (Hint, error) {
	if !t.Valid() {
		return Hint{}, fmt.Errorf("unknown hint type %q", t)
	}

	prompt := buildPrompt(s, t)
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You write cryptic location hints for a global " +
					"treasure-hunt game. Hints must never contain coordinates, " +
					"place names, country names, or anything that identifies the " +
					"location directly. Four lines maximum.",
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return Hint{}, fmt.Errorf("generating hint: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Hint{}, fmt.Errorf("generating hint: empty completion")
	}

	return Hint{
		Text:    strings.TrimSpace(resp.Choices[0].Message.Content),
		Type:    t,
		Version: aiVersion,
		Prompt:  prompt,
	}, nil
}

func buildPrompt(s Summary, t Type) string {
	var facts []string
	if s.Country != "" {
		region := s.Country
		if s.AdministrativeArea != "" {
			region += ", " + s.AdministrativeArea
		}
		if s.Locality != "" {
			region += ", " + s.Locality
		}
		facts = append(facts, "Region (do NOT reveal): "+region)
	}
	if s.Elevation != nil {
		facts = append(facts, fmt.Sprintf("Elevation: about %.0f m", *s.Elevation))
	}
	if len(s.PlaceTypes) > 0 {
		facts = append(facts, "Place types: "+strings.Join(s.PlaceTypes, ", "))
	}
	if len(facts) == 0 {
		facts = append(facts, "An unremarkable random location")
	}

	return stylePrompts[t] + "\n\nLocation facts:\n" + strings.Join(facts, "\n")
}
