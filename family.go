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
	"math"
)

// TermKind distinguishes species terms from energy terms.
type TermKind int

// Term kinds.
const (
	ReactantTerm TermKind = iota
	ProductTerm
	EnergyThresholdTerm
	EnergyElasticTerm
)

// Format is the coefficient format of electron-impact reactions.
type Format int

// Coefficient formats.
const (
	FormatRate Format = iota
	FormatTownsend
)

func (f Format) String() string {
	if f == FormatTownsend {
		return "townsend"
	}
	return "rate"
}

// ParseFormat converts "rate" or "townsend" into a Format. The empty
// string is treated as "rate".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "rate":
		return FormatRate, nil
	case "townsend":
		return FormatTownsend, nil
	}
	return 0, fmt.Errorf("plasmakin: invalid reaction coefficient format %q; valid options are rate and townsend: %w", s, ErrConfig)
}

// Family selects the residual/Jacobian formula of a term.
type Family struct {
	Kind   TermKind
	Order  int
	Log    bool
	Format Format
}

var orderNames = map[int]string{1: "FirstOrder", 2: "SecondOrder", 3: "ThirdOrder"}

// String returns the conventional name of the family, for example
// "ProductSecondOrderLog" or "EnergyTermElasticTownsend".
func (f Family) String() string {
	var name string
	switch f.Kind {
	case ReactantTerm, ProductTerm:
		side := "Reactant"
		if f.Kind == ProductTerm {
			side = "Product"
		}
		if f.Format == FormatTownsend {
			name = "ElectronImpactReaction" + side
		} else {
			name = side + orderNames[f.Order]
		}
	case EnergyThresholdTerm, EnergyElasticTerm:
		name = "EnergyTerm"
		if f.Kind == EnergyElasticTerm {
			name += "Elastic"
		}
		if f.Format == FormatTownsend {
			name += "Townsend"
		} else {
			name += "Rate"
		}
	}
	if f.Log {
		name += "Log"
	}
	return name
}

// densityFunc converts a stored field value into a density and
// returns the derivative of the density with respect to the stored
// value.
type densityFunc func(u float64) (n, dn float64)

func linearDensity(u float64) (float64, float64) { return u, 1 }

func logDensity(u float64) (float64, float64) {
	n := math.Exp(u)
	return n, n
}

// familyRule holds the pieces of a family's formula.
type familyRule struct {
	density densityFunc

	// sign multiplies the term coefficient; energy terms store the
	// energy-role sign and enter the residual with the opposite sign.
	sign float64
}

// familyRules is the closed dispatch table of term families. Every
// supported family is listed; anything else is rejected at setup.
var familyRules = func() map[Family]familyRule {
	m := make(map[Family]familyRule)
	for _, kind := range []TermKind{ReactantTerm, ProductTerm, EnergyThresholdTerm, EnergyElasticTerm} {
		for order := 1; order <= 3; order++ {
			for _, log := range []bool{false, true} {
				for _, format := range []Format{FormatRate, FormatTownsend} {
					rule := familyRule{density: linearDensity, sign: 1}
					if log {
						rule.density = logDensity
					}
					if kind == EnergyThresholdTerm || kind == EnergyElasticTerm {
						rule.sign = -1
					}
					m[Family{Kind: kind, Order: order, Log: log, Format: format}] = rule
				}
			}
		}
	}
	return m
}()

func lookupFamily(f Family) (familyRule, error) {
	rule, ok := familyRules[f]
	if !ok {
		return familyRule{}, fmt.Errorf("plasmakin: unsupported term family %+v (reaction order must be 1, 2 or 3): %w", f, ErrConfig)
	}
	return rule, nil
}
