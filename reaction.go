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
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseError is returned when a reaction string cannot be parsed.
type ParseError struct {
	Reaction string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("plasmakin: invalid reaction %q: %s", e.Reaction, e.Reason)
}

// Participant is one species on one side of a reaction, with
// duplicate mentions collapsed into Count.
type Participant struct {
	Species string
	Count   int
}

// Reaction is a single parsed one-way reaction. It is not modified
// after construction.
type Reaction struct {
	// Equation is the normalized reaction string, e.g. "em + Ar -> em + em + Ar+".
	Equation string

	Reactants []Participant
	Products  []Participant

	Rate RateSpec

	// Elastic marks an elastic electron collision.
	Elastic bool

	// EnergyChange is set when the reaction carries a threshold
	// energy; Threshold is in eV and positive values are an energy cost.
	EnergyChange bool
	Threshold    float64

	// Superelastic reactions take their coefficient from the reaction
	// at index Source through detailed balance.
	Superelastic bool
	Source       int

	net map[string]int
}

// ParseReaction parses a reaction string of the form
// "A + 2B -> C + D". Species on the same side that appear more than
// once are collapsed into one Participant.
func ParseReaction(s string) (*Reaction, error) {
	if strings.Contains(s, "<->") {
		return nil, &ParseError{Reaction: s, Reason: "reversible arrow '<->' must be split before parsing"}
	}
	sides := strings.Split(s, "->")
	if len(sides) != 2 {
		return nil, &ParseError{Reaction: s, Reason: "expected exactly one '->'"}
	}
	reactants, err := parseSide(s, sides[0])
	if err != nil {
		return nil, err
	}
	if len(reactants) == 0 {
		return nil, &ParseError{Reaction: s, Reason: "no reactants"}
	}
	products, err := parseSide(s, sides[1])
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, &ParseError{Reaction: s, Reason: "no products"}
	}
	r := &Reaction{
		Reactants: reactants,
		Products:  products,
		net:       make(map[string]int),
	}
	for _, p := range reactants {
		r.net[p.Species] -= p.Count
	}
	for _, p := range products {
		r.net[p.Species] += p.Count
	}
	r.Equation = formatSide(reactants) + " -> " + formatSide(products)
	return r, nil
}

// parseSide parses one side of a reaction. Tokens are separated by
// white space so that charged species such as "Ar+" are unambiguous.
// An entirely blank side returns no participants and no error so that
// the caller can report it.
func parseSide(reaction, side string) ([]Participant, error) {
	fields := strings.Fields(side)
	if len(fields) == 0 {
		return nil, nil
	}
	var out []Participant
	index := make(map[string]int)
	expectSpecies := true
	pending := 0
	for _, f := range fields {
		if f == "+" {
			if expectSpecies {
				return nil, &ParseError{Reaction: reaction, Reason: "empty species name"}
			}
			expectSpecies = true
			continue
		}
		if !expectSpecies {
			return nil, &ParseError{Reaction: reaction, Reason: fmt.Sprintf("missing '+' before %q", f)}
		}
		if isInteger(f) {
			if pending != 0 {
				return nil, &ParseError{Reaction: reaction, Reason: fmt.Sprintf("multiplier %q has no species", f)}
			}
			n, err := strconv.Atoi(f)
			if err != nil || n < 1 {
				return nil, &ParseError{Reaction: reaction, Reason: fmt.Sprintf("invalid multiplier %q", f)}
			}
			pending = n
			continue
		}
		count, name, err := splitMultiplier(f)
		if err != nil {
			return nil, &ParseError{Reaction: reaction, Reason: err.Error()}
		}
		if pending != 0 {
			if count != 1 || name != f {
				return nil, &ParseError{Reaction: reaction, Reason: fmt.Sprintf("double multiplier on %q", f)}
			}
			count = pending
			pending = 0
		}
		expectSpecies = false
		if i, ok := index[name]; ok {
			out[i].Count += count
			continue
		}
		index[name] = len(out)
		out = append(out, Participant{Species: name, Count: count})
	}
	if expectSpecies {
		return nil, &ParseError{Reaction: reaction, Reason: "dangling '+' or multiplier"}
	}
	return out, nil
}

func isInteger(s string) bool {
	for _, c := range s {
		if !unicode.IsDigit(c) {
			return false
		}
	}
	return s != ""
}

// splitMultiplier separates an optional leading integer multiplier
// from a species token, so that "2Ar" and "Ar" are both accepted.
func splitMultiplier(tok string) (int, string, error) {
	i := 0
	for i < len(tok) && unicode.IsDigit(rune(tok[i])) {
		i++
	}
	if i == 0 {
		return 1, tok, nil
	}
	n, err := strconv.Atoi(tok[:i])
	if err != nil || n < 1 {
		return 0, "", fmt.Errorf("invalid multiplier in %q", tok)
	}
	return n, tok[i:], nil
}

func formatSide(ps []Participant) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		for i := 0; i < p.Count; i++ {
			parts = append(parts, p.Species)
		}
	}
	return strings.Join(parts, " + ")
}

// Net returns the net change in the number of molecules of species
// per reaction event: negative when consumed, positive when produced
// and zero when not involved or unchanged.
func (r *Reaction) Net(species string) int {
	return r.net[species]
}

// Order returns the number of distinct reactant species.
func (r *Reaction) Order() int {
	return len(r.Reactants)
}

// ReactantNames returns the distinct reactant species in order.
func (r *Reaction) ReactantNames() []string {
	return names(r.Reactants)
}

// ProductNames returns the distinct product species in order.
func (r *Reaction) ProductNames() []string {
	return names(r.Products)
}

// Participants returns every distinct species in the reaction,
// reactants first.
func (r *Reaction) Participants() []string {
	out := r.ReactantNames()
	for _, p := range r.Products {
		if _, ok := r.reactantCount(p.Species); !ok {
			out = append(out, p.Species)
		}
	}
	return out
}

func (r *Reaction) reactantCount(species string) (int, bool) {
	for _, p := range r.Reactants {
		if p.Species == species {
			return p.Count, true
		}
	}
	return 0, false
}

func names(ps []Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Species
	}
	return out
}

func (r *Reaction) String() string { return r.Equation }
