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

// Sampler computes the driving variable of a tabulated coefficient.
type Sampler interface {
	// Sample returns the driving variable at p and its derivative with
	// respect to the solved variable v.
	Sample(p *Point, v string) (x, dx float64)

	// DependsOn returns the solved variables the driving variable
	// depends on.
	DependsOn() []string
}

// FieldSampler samples a single field, such as the reduced electric
// field.
type FieldSampler struct {
	Name string

	// Solved is set when the field is a solved variable.
	Solved bool
}

// Sample implements Sampler.
func (s FieldSampler) Sample(p *Point, v string) (float64, float64) {
	if s.Solved && v == s.Name {
		return p.Value(s.Name), 1
	}
	return p.Value(s.Name), 0
}

// DependsOn implements Sampler.
func (s FieldSampler) DependsOn() []string {
	if s.Solved {
		return []string{s.Name}
	}
	return nil
}

// MeanEnergySampler samples the mean electron energy, the ratio of
// the electron energy density to the electron density.
type MeanEnergySampler struct {
	Energy, Electrons string

	// Log is set when both variables are stored as logarithms.
	Log bool
}

// Sample implements Sampler.
func (s MeanEnergySampler) Sample(p *Point, v string) (float64, float64) {
	en, em := p.Value(s.Energy), p.Value(s.Electrons)
	if s.Log {
		x := math.Exp(en - em)
		switch v {
		case s.Energy:
			return x, x
		case s.Electrons:
			return x, -x
		}
		return x, 0
	}
	x := en / em
	switch v {
	case s.Energy:
		return x, 1 / em
	case s.Electrons:
		return x, -en / (em * em)
	}
	return x, 0
}

// DependsOn implements Sampler.
func (s MeanEnergySampler) DependsOn() []string {
	return []string{s.Energy, s.Electrons}
}
