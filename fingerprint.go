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

	"github.com/spatialmodel/plasmakin/internal/hash"
)

// ReactionSummary describes one resolved reaction.
type ReactionSummary struct {
	Equation     string
	Rate         string
	Value        float64
	Expression   string
	Threshold    float64
	Elastic      bool
	Superelastic bool
	Source       int
}

// TermSummary describes one generated term.
type TermSummary struct {
	Name     string
	Variable string
	Family   string
	Reaction int
	Coeff    float64
	Coupled  []string
}

// Summary is a plain description of a network.
type Summary struct {
	Reactions []ReactionSummary
	Terms     []TermSummary
	Aux       []string
	Solved    []string

	// Stabilization lists the log stabilization kernels.
	Stabilization []string
}

// Summary describes the network in terms of plain values.
func (n *Network) Summary() Summary {
	var s Summary
	for _, r := range n.reactions {
		rs := ReactionSummary{
			Equation:     r.Equation,
			Threshold:    r.Threshold,
			Elastic:      r.Elastic,
			Superelastic: r.Superelastic,
			Source:       -1,
		}
		if r.Superelastic {
			rs.Rate = "Superelastic"
			rs.Source = r.Source
		} else {
			rs.Rate = r.Rate.Kind.String()
			rs.Value = r.Rate.Value
			rs.Expression = r.Rate.Expression
		}
		s.Reactions = append(s.Reactions, rs)
	}
	for _, t := range n.terms {
		s.Terms = append(s.Terms, TermSummary{
			Name:     t.name,
			Variable: t.variable,
			Family:   t.Family.String(),
			Reaction: t.Reaction,
			Coeff:    t.Coeff,
			Coupled:  t.Coupled(),
		})
	}
	for _, a := range n.aux {
		s.Aux = append(s.Aux, a.Variable())
	}
	for _, st := range n.stabilizers {
		s.Stabilization = append(s.Stabilization, fmt.Sprintf("%s %g", st.name, st.Offset))
	}
	s.Solved = n.Solved()
	return s
}

// Fingerprint returns a hash of the network's summary. Networks that
// resolve to the same reactions and terms have the same fingerprint.
func (n *Network) Fingerprint() string {
	return hash.Sum(n.Summary())
}
