package hint

import (
	"strings"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func TestComposeAllTypes(t *testing.T) {
	s := Summary{
		Country:            "South Korea",
		AdministrativeArea: "Seoul",
		Locality:           "Jung-gu",
		Elevation:          floatPtr(38.2),
		PlaceTypes:         []string{"street_address", "locality"},
	}

	c := Composer{}
	for _, typ := range Types() {
		h, err := c.Compose(s, typ)
		if err != nil {
			t.Fatalf("Compose(%s): %v", typ, err)
		}
		if h.Text == "" {
			t.Errorf("Compose(%s): empty text", typ)
		}
		if h.Type != typ {
			t.Errorf("Compose(%s): type = %s", typ, h.Type)
		}
		if h.Version != templateVersion {
			t.Errorf("Compose(%s): version = %s", typ, h.Version)
		}
	}
}

func TestComposeNeverRevealsLocation(t *testing.T) {
	s := Summary{
		Country:            "Mongolia",
		AdministrativeArea: "Ulaanbaatar",
		Locality:           "Sukhbaatar",
		Elevation:          floatPtr(1350),
		PlaceTypes:         []string{"plus_code"},
	}

	c := Composer{}
	for _, typ := range Types() {
		h, err := c.Compose(s, typ)
		if err != nil {
			t.Fatalf("Compose(%s): %v", typ, err)
		}
		for _, name := range []string{"Mongolia", "Ulaanbaatar", "Sukhbaatar", "1350"} {
			if strings.Contains(h.Text, name) {
				t.Errorf("Compose(%s) leaked %q in: %s", typ, name, h.Text)
			}
		}
	}
}

func TestComposeDeterministic(t *testing.T) {
	s := Summary{Country: "France", Elevation: floatPtr(120), PlaceTypes: []string{"route"}}

	c := Composer{}
	a, _ := c.Compose(s, TypeRiddle)
	b, _ := c.Compose(s, TypeRiddle)
	if a.Text != b.Text {
		t.Error("same summary and type should compose the same hint")
	}
}

func TestComposeEmptySummary(t *testing.T) {
	h, err := Composer{}.Compose(Summary{}, TypePoem)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if h.Text == "" {
		t.Error("empty summary should still compose a hint")
	}
}

func TestComposeRejectsUnknownType(t *testing.T) {
	if _, err := (Composer{}).Compose(Summary{}, Type("haiku")); err == nil {
		t.Fatal("expected error for unknown hint type")
	}
}

func TestRandomTypeCoversAllStyles(t *testing.T) {
	seen := map[Type]bool{}
	for i := 0; i < 1000; i++ {
		typ := RandomType()
		if !typ.Valid() {
			t.Fatalf("RandomType returned invalid type %q", typ)
		}
		seen[typ] = true
	}
	if len(seen) != 5 {
		t.Errorf("1000 draws hit %d styles, want all 5", len(seen))
	}
}

func TestBuildPromptRedactsNothingButWarns(t *testing.T) {
	s := Summary{Country: "Japan", Elevation: floatPtr(12)}
	p := buildPrompt(s, TypePoem)
	if !strings.Contains(p, "do NOT reveal") {
		t.Error("prompt should mark the region as non-revealable")
	}
	if !strings.Contains(p, "Elevation") {
		t.Error("prompt should carry the elevation fact")
	}
}
