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
)

// physical constants
const (
	electronMass = 9.10938356e-31 // kg
	amu          = 1.66053904e-27 // kg per atomic mass unit
)

// EnergyVariable is an energy-density variable that receives energy
// terms.
type EnergyVariable struct {
	Name string

	// Electron is set for the electron energy equation. Energy lost by
	// electrons enters it with the opposite sign of heavy-species
	// energy equations.
	Electron bool
}

// thresholdWeight is the threshold energy exchanged per reaction event.
type thresholdWeight struct {
	energy float64
}

func (w thresholdWeight) eval(*Point, string) (float64, float64) { return w.energy, 0 }
func (w thresholdWeight) dependsOn() []string                    { return nil }

// elasticWeight is the energy transferred in an elastic electron
// collision, 3 * (m_e/M) * mean electron energy.
type elasticWeight struct {
	massRatio  float64
	meanEnergy MeanEnergySampler
}

func (w elasticWeight) eval(p *Point, v string) (float64, float64) {
	e, de := w.meanEnergy.Sample(p, v)
	return 3 * w.massRatio * e, 3 * w.massRatio * de
}

func (w elasticWeight) dependsOn() []string { return w.meanEnergy.DependsOn() }

// energyRoleSign is +1 for the electron energy equation, where a
// positive threshold is an energy loss, and -1 for heavy-species
// energy equations, which gain that energy.
func energyRoleSign(ev EnergyVariable) float64 {
	if ev.Electron {
		return 1
	}
	return -1
}

// energyTerms synthesizes the energy terms of reaction i, one per
// energy variable.
func (b *builder) energyTerms(i int, family Family, slots []Slot) ([]*Term, error) {
	r := b.reactions[i]
	var out []*Term
	for t, ev := range b.energyVars {
		f := family
		var w weight
		prefix := "energy_kernel"
		if r.Elastic {
			f.Kind = EnergyElasticTerm
			prefix = "elastic_kernel"
			ew, err := b.elasticWeight(r)
			if err != nil {
				return nil, err
			}
			w = ew
		} else {
			f.Kind = EnergyThresholdTerm
			w = thresholdWeight{energy: r.Threshold}
		}
		rule, err := lookupFamily(f)
		if err != nil {
			return nil, err
		}
		term := &Term{
			name:     prefix + strconv.Itoa(i) + "_" + strconv.Itoa(t) + "_" + r.Equation,
			variable: ev.Name,
			Family:   f,
			Reaction: i,
			Equation: r.Equation,
			Coeff:    rule.sign * energyRoleSign(ev),
			Slots:    slots,
			rate:     b.coefficients[i],
			weight:   w,
			density:  rule.density,
		}
		term.coupled = b.coupling(term)
		out = append(out, term)
	}
	return out, nil
}

// elasticWeight finds the heavy target of an elastic collision and
// builds the mass-ratio weighted energy transfer.
func (b *builder) elasticWeight(r *Reaction) (weight, error) {
	if b.cfg.ElectronDensity == "" || b.cfg.ElectronEnergy == "" {
		return nil, fmt.Errorf("plasmakin: elastic reaction %q requires ElectronDensity and ElectronEnergy: %w", r.Equation, ErrConfig)
	}
	target := ""
	for _, s := range r.ReactantNames() {
		if s != b.cfg.ElectronDensity {
			target = s
			break
		}
	}
	if target == "" {
		return nil, fmt.Errorf("plasmakin: elastic reaction %q has no heavy target: %w", r.Equation, ErrConfig)
	}
	m, ok := b.cfg.Masses[target]
	if !ok || m <= 0 {
		return nil, fmt.Errorf("plasmakin: elastic reaction %q needs a positive mass for target %q: %w", r.Equation, target, ErrConfig)
	}
	return elasticWeight{
		massRatio: electronMass / (m * amu),
		meanEnergy: MeanEnergySampler{
			Energy:    b.cfg.ElectronEnergy,
			Electrons: b.cfg.ElectronDensity,
			Log:       b.cfg.UseLog,
		},
	}, nil
}
