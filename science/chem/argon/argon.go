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

// Package argon contains a simplified argon glow-discharge mechanism.
package argon

import (
	"fmt"
	"math"

	"github.com/spatialmodel/plasmakin"
)

// Mechanism is a predefined argon reaction network with synthetic
// electron-impact rate tables.
type Mechanism struct {
	// Log is set when species densities are solved as logarithms.
	Log bool
}

// physical constants
const (
	mwAr = 39.948 // g/mol, molar mass of argon

	// Threshold energies [eV]
	eIonization = 15.76
	eExcitation = 11.56
	eStepwise   = 4.14

	// stabilizationOffset bounds log densities from below near
	// exp(-20) m⁻³.
	stabilizationOffset = 20
)

// Variable names.
const (
	Electrons   = "em"
	Ions        = "Ar+"
	Metastables = "Ar*"
	Energy      = "mean_en"
	Temperature = "Te"
)

// network is the reaction network in the line-oriented network format.
const network = `
# electron impact
em + Ar -> em + em + Ar+   : EEDF [15.76] (ionization)
em + Ar -> em + Ar         : EEDF [elastic]
em + Ar <-> em + Ar*       : EEDF [11.56] (excitation and de-excitation)
em + Ar* -> em + em + Ar+  : EEDF [4.14] (stepwise ionization)

# heavy species
Ar* + Ar* -> Ar+ + Ar + em : 6.2e-16 (metastable pooling)
Ar+ + em + em -> Ar + em   : {8.75e-39*Te^(-4.5)} (three-body recombination)
`

// rateParams are the Arrhenius-like parameters k = k0 * exp(-e0/ε)
// of the synthetic electron-impact tables, keyed by equation.
var rateParams = map[string]struct{ k0, e0 float64 }{
	"em + Ar -> em + em + Ar+":  {k0: 2.3e-14, e0: eIonization},
	"em + Ar -> em + Ar":        {k0: 2.0e-13, e0: 0.1},
	"em + Ar -> em + Ar*":       {k0: 5.0e-15, e0: eExcitation},
	"em + Ar* -> em + em + Ar+": {k0: 6.8e-15, e0: eStepwise},
}

// Species returns the names of the solved species of this mechanism.
func (m Mechanism) Species() []string {
	return []string{Electrons, Ions, Metastables}
}

// Units returns the units of the given variable, or an
// error if the variable name is invalid.
func (m Mechanism) Units(variable string) (string, error) {
	var u string
	switch variable {
	case Electrons, Ions, Metastables:
		u = "m⁻³"
	case Energy:
		u = "eV m⁻³"
	case Temperature:
		return "eV", nil
	default:
		return "", fmt.Errorf("argon: invalid variable name %s; valid names are %v", variable,
			append(m.Species(), Energy, Temperature))
	}
	if m.Log {
		return "ln(" + u + ")", nil
	}
	return u, nil
}

// Tables returns the synthetic rate tables of the electron-impact
// reactions, sampled against the mean electron energy in eV.
func (m Mechanism) Tables() (plasmakin.MapTables, error) {
	const n = 60
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = 0.25 + 0.5*float64(i) // ε from 0.25 to 29.75 eV
	}
	t := plasmakin.MapTables{Rates: make(map[string]plasmakin.Table)}
	for eq, p := range rateParams {
		ys := make([]float64, n)
		for i, x := range xs {
			ys[i] = p.k0 * math.Exp(-p.e0/x)
		}
		tab, err := plasmakin.NewSplineTable(xs, ys)
		if err != nil {
			return t, fmt.Errorf("argon: table for %s: %v", eq, err)
		}
		t.Rates[eq] = tab
	}
	return t, nil
}

// Config returns the network configuration of this mechanism.
func (m Mechanism) Config() (*plasmakin.Config, error) {
	tables, err := m.Tables()
	if err != nil {
		return nil, err
	}
	return &plasmakin.Config{
		NetworkText:            network,
		Species:                m.Species(),
		UseLog:                 m.Log,
		LogStabilization:       m.Log,
		LogStabilizationOffset: stabilizationOffset,
		TrackElectronEnergy:    true,
		ElectronDensity:        Electrons,
		ElectronEnergy:         Energy,
		SamplingFormat:         "electron_energy",
		EquationVariables:      []string{Temperature},
		Masses:                 map[string]float64{"Ar": mwAr},
		StatisticalWeights:     map[string]float64{"Ar": 1, Metastables: 5},
		Sums:                   map[string][]string{"charged": {Electrons, Ions}},
		Tables:                 tables,
	}, nil
}

// Point returns a representative discharge state: electron and ion
// densities of 1e16 m⁻³, metastables at 1e17 m⁻³, a mean electron
// energy of 4 eV and atmospheric gas density.
func (m Mechanism) Point() *plasmakin.Point {
	const (
		ne   = 1e16
		ni   = 1e16
		nm   = 1e17
		mean = 4.0 // eV
	)
	f := map[string]float64{
		Electrons:   ne,
		Ions:        ni,
		Metastables: nm,
		Energy:      ne * mean,
		Temperature: 2. / 3. * mean,
	}
	if m.Log {
		for _, v := range []string{Electrons, Ions, Metastables, Energy} {
			f[v] = math.Log(f[v])
		}
	}
	return &plasmakin.Point{
		Test:       1,
		Phi:        1,
		Fields:     f,
		GasDensity: 2.5e25,
	}
}
