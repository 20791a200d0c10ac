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
	"math"

	"gonum.org/v1/gonum/floats"
)

// RateKernel computes the volumetric rate k * Π n_i^e_i of one
// reaction, in linear units regardless of log mode.
type RateKernel struct {
	name     string
	variable string

	// Reaction is the index of the reaction in the network.
	Reaction int

	slots   []Slot
	density densityFunc
	rate    Coefficient
}

// Name implements AuxKernel.
func (r *RateKernel) Name() string { return r.name }

// Variable implements AuxKernel.
func (r *RateKernel) Variable() string { return r.variable }

// Value implements AuxKernel.
func (r *RateKernel) Value(p *Point) float64 {
	k, _ := r.rate.Eval(p, "")
	prod, _ := massAction(p, r.slots, r.density, "")
	return k * prod
}

// VariableSum is an auxiliary variable holding the sum of other
// variables, such as the total ion density.
type VariableSum struct {
	name     string
	variable string

	// Args are the summed variables.
	Args []string

	// logArgs marks arguments stored as logarithms; they are
	// exponentiated before summing.
	logArgs []bool
}

// Name implements AuxKernel.
func (s *VariableSum) Name() string { return s.name }

// Variable implements AuxKernel.
func (s *VariableSum) Variable() string { return s.variable }

// Value implements AuxKernel.
func (s *VariableSum) Value(p *Point) float64 {
	v := make([]float64, len(s.Args))
	for i, a := range s.Args {
		v[i] = p.Value(a)
		if s.logArgs[i] {
			v[i] = math.Exp(v[i])
		}
	}
	return floats.Sum(v)
}
