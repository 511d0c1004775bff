// Package hint turns precise place metadata into ambiguous natural-language
// clues. Composition is a one-way reduction: a hint never contains the
// coordinate pair or an exact place name.
package hint

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/playgeo/geohunt/internal/oracle"
)

// Type is one of the five hint styles.
type Type string

const (
	TypePoem          Type = "poem"
	TypeRiddle        Type = "riddle"
	TypeDirection     Type = "direction"
	TypeEnvironmental Type = "environmental"
	TypeNegative      Type = "negative"
)

// Types returns all hint styles.
func Types() []Type {
	return []Type{TypePoem, TypeRiddle, TypeDirection, TypeEnvironmental, TypeNegative}
}

// Valid reports whether t is a known hint style.
func (t Type) Valid() bool {
	switch t {
	case TypePoem, TypeRiddle, TypeDirection, TypeEnvironmental, TypeNegative:
		return true
	}
	return false
}

// RandomType picks a style uniformly.
func RandomType() Type {
	types := Types()
	return types[rand.IntN(len(types))]
}

// Summary is the reduced view of a location that hint generation may see.
// Names are used only to derive indirect descriptors, never echoed.
type Summary struct {
	Country            string
	AdministrativeArea string
	Locality           string
	Elevation          *float64
	PlaceTypes         []string
}

// Summarize reduces oracle metadata to the hint-generation view. A nil info
// yields an empty summary, which still composes a (vaguer) hint.
func Summarize(info *oracle.LocationInfo) Summary {
	if info == nil {
		return Summary{}
	}
	return Summary{
		Country:            info.Country,
		AdministrativeArea: info.AdministrativeArea,
		Locality:           info.Locality,
		Elevation:          info.Elevation,
		PlaceTypes:         info.PlaceTypes,
	}
}

// Hint is one generated clue.
type Hint struct {
	Text    string
	Type    Type
	Version string
	// Prompt records the generation input for admin debugging. Empty for
	// the deterministic template composer.
	Prompt string
}

// templateVersion labels hints produced by the deterministic composer.
const templateVersion = "1.0"

// Composer builds hints from fixed templates filled with indirect
// descriptors derived from the summary. Deterministic for a given
// (summary, type) pair.
type Composer struct{}

// Compose renders the template for the requested style.
func (Composer) Compose(s Summary, t Type) (Hint, error) {
	if !t.Valid() {
		return Hint{}, fmt.Errorf("unknown hint type %q", t)
	}

	elev := elevationPhrase(s.Elevation)
	road := roadPhrase(s.PlaceTypes)
	crowd := crowdPhrase(s.PlaceTypes)

	var text string
	switch t {
	case TypePoem:
		text = strings.Join([]string{
			"Where " + elev + ",",
			"and " + road + ",",
			"the wind keeps a secret for the patient;",
			"follow it, and the ground will answer.",
		}, "\n")
	case TypeRiddle:
		text = strings.Join([]string{
			"I stand " + elev + ".",
			"Here " + road + ", yet " + crowd + ".",
			"Name the ground beneath me.",
		}, "\n")
	case TypeDirection:
		text = strings.Join([]string{
			"Seek a place " + elev + ".",
			"Approach where " + road + ";",
			"the last steps are yours alone.",
		}, "\n")
	case TypeEnvironmental:
		text = strings.Join([]string{
			"Look around: " + road + ",",
			crowd + ",",
			"and the land sits " + elev + ".",
		}, "\n")
	case TypeNegative:
		text = strings.Join([]string{
			"This is not the open sea.",
			negate(crowd) + ".",
			"It does not lie " + oppositeElevation(s.Elevation) + ".",
			"But " + road + ".",
		}, "\n")
	}

	return Hint{Text: text, Type: t, Version: templateVersion}, nil
}

func elevationPhrase(elev *float64) string {
	switch {
	case elev == nil:
		return "the land keeps its height to itself"
	case *elev < 10:
		return "the sea's breath is near"
	case *elev < 200:
		return "the ground rises gently above the water"
	case *elev < 1000:
		return "the air begins to thin on high ground"
	default:
		return "mountains hold the sky close"
	}
}

func oppositeElevation(elev *float64) string {
	if elev != nil && *elev >= 200 {
		return "by the water's edge"
	}
	return "among the high peaks"
}

func roadPhrase(placeTypes []string) string {
	if hasAny(placeTypes, "street_address", "route", "premise", "intersection") {
		return "named roads carry travelers past"
	}
	if hasAny(placeTypes, "plus_code") {
		return "no road bears a name here"
	}
	return "paths cross without ceremony"
}

func crowdPhrase(placeTypes []string) string {
	if hasAny(placeTypes, "locality", "sublocality", "neighborhood", "establishment", "point_of_interest") {
		return "many lives pass through each day"
	}
	return "few footsteps disturb the quiet"
}

func negate(phrase string) string {
	if phrase == "many lives pass through each day" {
		return "This is not an empty wilderness"
	}
	return "This is not a crowded place"
}

func hasAny(list []string, candidates ...string) bool {
	for _, v := range list {
		for _, c := range candidates {
			if v == c {
				return true
			}
		}
	}
	return false
}
