/*
Copyright © 2026 the plasmakin authors.
This file is part of plasmakin.

plasmakin is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

plasmakin is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with plasmakin.  If not, see <http://www.gnu.org/licenses/>.
*/

package plasmakin

import (
	"errors"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

const argonText = `
# electron impact
em + Ar -> em + em + Ar+ : EEDF [15.76] (C2_Ar_Ionization)
em + Ar -> em + Ar       : EEDF [elastic]
Ar* + Ar* -> Ar+ + Ar + em : 1.2e-15
Ar+ + em + em -> Ar + em : {8.75e-39*Te^(-4.5)}  # three-body
em + Ar <-> em + Ar*     : EEDF [11.56]
`

func TestParseNetwork(t *testing.T) {
	specs, err := ParseNetwork(strings.NewReader(argonText))
	if err != nil {
		t.Fatal(err)
	}
	want := []ReactionSpec{
		{Equation: "em + Ar -> em + em + Ar+", Rate: "EEDF", EnergyChange: true, Threshold: 15.76},
		{Equation: "em + Ar -> em + Ar", Rate: "EEDF", Elastic: true},
		{Equation: "Ar* + Ar* -> Ar+ + Ar + em", Rate: "Constant", Value: 1.2e-15},
		{Equation: "Ar+ + em + em -> Ar + em", Rate: "Equation", Expression: "8.75e-39*Te^(-4.5)"},
		{Equation: "em + Ar -> em + Ar*", Rate: "EEDF", EnergyChange: true, Threshold: 11.56},
		{Equation: "em + Ar* -> em + Ar", EnergyChange: true, Threshold: -11.56, Superelastic: true, Source: 4},
	}
	if diff := pretty.Diff(specs, want); len(diff) > 0 {
		t.Errorf("parsed network differs:\n%s", strings.Join(diff, "\n"))
	}
}

func TestParseNetworkErrors(t *testing.T) {
	for _, line := range []string{
		"A -> B",
		"A -> B :",
		"A -> B : fast",
		"A -> B : {2*T",
		"A -> B : 1 [high]",
		"A -> B : 1 [2",
		"A -> B : 1 extra",
		"A <-> B <-> C : 1",
		"em + Ar <-> em + Ar : EEDF [elastic]",
	} {
		_, err := ParseNetwork(strings.NewReader(line))
		if err == nil {
			t.Errorf("%q: expected an error", line)
			continue
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%q: have %v, want a parse error", line, err)
		}
		if !strings.Contains(err.Error(), "line 1") {
			t.Errorf("%q: the error does not name the line: %v", line, err)
		}
	}
}

// Reactions from network text follow the listed reactions, and
// superelastic sources are shifted accordingly.
func TestNetworkTextOffset(t *testing.T) {
	n := mustBuild(t, &Config{
		Reactions: []ReactionSpec{{Equation: "A -> B", Rate: "Constant", Value: 1}},
		NetworkText: `
em + Ar <-> em + Ar* : 2 [11.56]
`,
		Species: []string{"A", "B", "em", "Ar*"},
	})
	rs := n.Reactions()
	if len(rs) != 3 {
		t.Fatalf("have %d reactions, want 3", len(rs))
	}
	if !rs[2].Superelastic || rs[2].Source != 1 {
		t.Errorf("reverse reaction: %+v", rs[2])
	}
	if k, _ := n.Coefficient(2).Eval(&Point{}, ""); k != 2 {
		t.Errorf("reverse coefficient: have %g, want 2", k)
	}
}
