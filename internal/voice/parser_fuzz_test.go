package voice

import (
	"strings"
	"testing"
)

func FuzzParse(f *testing.F) {
	f.Add("spent 42.50 on food at cash")
	f.Add("received salary 3000 dbs")
	f.Add("")
	f.Add("   ")
	f.Add("1.2.3.4")
	f.Add("paid paid paid 5 5 5")
	f.Add("ÉXPENSE 12 Çafé")

	cards := []string{"DBS", "OCBC Visa"}
	categories := []string{"Food", "Income"}

	f.Fuzz(func(t *testing.T, input string) {
		cmd := Parse(input, cards, categories)

		// Invariant 1: description is trimmed with no runs of whitespace.
		if cmd.Description != strings.TrimSpace(cmd.Description) {
			t.Errorf("Parse(%q) description %q not trimmed", input, cmd.Description)
		}
		if strings.Contains(cmd.Description, "  ") {
			t.Errorf("Parse(%q) description %q has repeated spaces", input, cmd.Description)
		}

		// Invariant 2: amounts are never negative.
		if cmd.Amount != nil && cmd.Amount.IsNegative() {
			t.Errorf("Parse(%q) returned negative amount %s", input, cmd.Amount)
		}

		// Invariant 3: parsing is deterministic.
		again := Parse(input, cards, categories)
		if again.Description != cmd.Description {
			t.Errorf("Parse(%q) not deterministic", input)
		}
	})
}
