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

import "math"

// Canonical role names of the reactant slots of a term, in reactant order.
var roleNames = [...]string{"v", "w", "x"}

// Slot is one reactant of a term's reaction.
type Slot struct {
	// Role is the canonical name of the slot: "v", "w" or "x".
	Role    string
	Species string
	Class   Class

	// Exponent is the number of molecules of Species consumed per
	// reaction event.
	Exponent int

	// EqU is set when Species is the variable of the term's own
	// equation, i.e. the reaction is autocatalytic in that variable.
	EqU bool
}

// Coupled reports whether the slot contributes a Jacobian entry.
func (s Slot) Coupled() bool { return s.Class == Tracked }

// massAction returns the product of the slot densities raised to
// their exponents, and its derivative with respect to the solved
// variable v.
func massAction(p *Point, slots []Slot, density densityFunc, v string) (float64, float64) {
	var f, df [len(roleNames)]float64
	for i, s := range slots {
		if s.Class == Background {
			f[i] = math.Pow(p.GasDensity, float64(s.Exponent))
			continue
		}
		n, dn := density(p.Value(s.Species))
		e := float64(s.Exponent)
		f[i] = math.Pow(n, e)
		if s.Coupled() && s.Species == v {
			df[i] = e * math.Pow(n, e-1) * dn
		}
	}
	prod, dprod := 1.0, 0.0
	for i := range slots {
		prod *= f[i]
		if df[i] == 0 {
			continue
		}
		d := df[i]
		for j := range slots {
			if j != i {
				d *= f[j]
			}
		}
		dprod += d
	}
	return prod, dprod
}

// Term is the residual contribution of one reaction to one variable's
// equation:
//
//	R = -test * Coeff * w * k * Π n_i^e_i
//
// where k is the reaction's rate coefficient, n_i are the reactant
// densities and w is 1 for species terms or the energy exchanged per
// reaction event for energy terms. A Term holds no mutable state.
type Term struct {
	name     string
	variable string

	Family Family

	// Reaction is the index of the reaction in the network and
	// Equation its normalized reaction string.
	Reaction int
	Equation string

	// Coeff is the signed stoichiometric coefficient for species terms,
	// and the negated energy-role sign for energy terms.
	Coeff float64

	Slots []Slot

	rate    Coefficient
	weight  weight
	density densityFunc
	coupled []string
}

// Name implements Kernel.
func (t *Term) Name() string { return t.name }

// Variable implements Kernel.
func (t *Term) Variable() string { return t.variable }

// Coupled implements Kernel.
func (t *Term) Coupled() []string { return append([]string(nil), t.coupled...) }

// Rate returns the rate coefficient handle the term reads.
func (t *Term) Rate() Coefficient { return t.rate }

// Residual implements Kernel.
func (t *Term) Residual(p *Point) float64 {
	w, _ := t.weight.eval(p, "")
	k, _ := t.rate.Eval(p, "")
	prod, _ := massAction(p, t.Slots, t.density, "")
	return -p.Test * t.Coeff * w * k * prod
}

// Jacobian implements Kernel.
func (t *Term) Jacobian(p *Point) float64 {
	return t.derivative(p, t.variable)
}

// OffDiagJacobian implements Kernel.
func (t *Term) OffDiagJacobian(p *Point, v string) float64 {
	if v == t.variable || !t.isCoupled(v) {
		return 0
	}
	return t.derivative(p, v)
}

func (t *Term) isCoupled(v string) bool {
	for _, c := range t.coupled {
		if c == v {
			return true
		}
	}
	return false
}

// derivative applies the product rule to w * k * Π n_i^e_i.
func (t *Term) derivative(p *Point, v string) float64 {
	w, dw := t.weight.eval(p, v)
	k, dk := t.rate.Eval(p, v)
	prod, dprod := massAction(p, t.Slots, t.density, v)
	return -p.Test * t.Coeff * (dw*k*prod + w*dk*prod + w*k*dprod) * p.Phi
}

// weight is the per-event multiplier of a term.
type weight interface {
	eval(p *Point, v string) (w, dw float64)
	dependsOn() []string
}

// unitWeight is the weight of species terms.
type unitWeight struct{}

func (unitWeight) eval(*Point, string) (float64, float64) { return 1, 0 }
func (unitWeight) dependsOn() []string                    { return nil }
