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

// Package plasmakin generates the reaction source terms of a
// plasma-chemistry PDE system. A reaction network is parsed and
// resolved once at setup time into residual/Jacobian kernels, rate
// coefficients and auxiliary kernels that an external finite-element
// assembly loop evaluates at each quadrature point.
package plasmakin

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Version gives the version number.
const Version = "0.1.0"

// ReactionSpec is the input description of one reaction.
type ReactionSpec struct {
	// Equation is the reaction string, e.g. "em + Ar -> em + em + Ar+".
	Equation string

	// Rate is the rate coefficient kind: "Constant", "Equation" or "EEDF".
	// It is ignored for superelastic reactions.
	Rate string

	// Value is the coefficient of a Constant reaction.
	Value float64

	// Expression is the expression of an Equation reaction.
	Expression string

	// EnergyChange marks a reaction with a threshold energy, given in
	// eV by Threshold. Positive thresholds are an energy cost.
	EnergyChange bool
	Threshold    float64

	// Elastic marks an elastic electron collision.
	Elastic bool

	// Superelastic reactions take their coefficient from the reaction
	// at index Source.
	Superelastic bool
	Source       int
}

// Config describes a reaction network and how it is coupled into the
// solved system.
type Config struct {
	// Reactions lists the reactions. NetworkText, if not empty, is
	// parsed with ParseNetwork and appended.
	Reactions   []ReactionSpec
	NetworkText string

	// Species are the tracked (solved) species and AuxSpecies the
	// auxiliary ones. Any other participant is background gas.
	Species    []string
	AuxSpecies []string

	// CoefficientFormat is "rate" (default) or "townsend".
	CoefficientFormat string

	// UseLog is set when species densities are solved as ln(density).
	UseLog bool

	// TrackElectronEnergy adds ElectronEnergy as the electron energy
	// variable.
	TrackElectronEnergy bool

	ElectronDensity string
	ElectronEnergy  string

	// SamplingFormat selects the driving variable of EEDF tables:
	// "reduced_field" (default) samples the field SamplingVariable,
	// "electron_energy" samples the mean electron energy.
	SamplingFormat   string
	SamplingVariable string

	// FieldVariable is the electric field magnitude used by Townsend
	// coefficients. It is optional.
	FieldVariable string

	// EquationVariables are the fields Equation reactions may use and
	// EquationConstants the named constants.
	EquationVariables []string
	EquationConstants map[string]float64

	// EnergyVariables receive the energy terms of reactions with an
	// energy change.
	EnergyVariables []EnergyVariable

	// Masses are species masses in atomic mass units, needed for the
	// targets of elastic collisions.
	Masses map[string]float64

	// StatisticalWeights and SuperelasticTemperature (eV) set the
	// detailed-balance ratio of superelastic reactions.
	StatisticalWeights      map[string]float64
	SuperelasticTemperature float64

	// GasTemperature requests gas-temperature dependence of the energy
	// change, which is not yet implemented and is skipped with a warning.
	GasTemperature bool

	// LogStabilization adds a LogStabilization kernel with offset
	// LogStabilizationOffset to the equation of every tracked species.
	// It requires UseLog.
	LogStabilization       bool
	LogStabilizationOffset float64

	// Sums declares auxiliary variables holding the sum of other
	// variables, keyed by the auxiliary variable name.
	Sums map[string][]string

	// Tables provides EEDF rate and mobility tables. If it is nil and
	// TableDir is set, tables are read from TableDir.
	Tables   TableProvider `toml:"-"`
	TableDir string

	// Log receives setup diagnostics. It defaults to the logrus
	// standard logger.
	Log logrus.FieldLogger `toml:"-"`
}

// LoadConfig reads a TOML network configuration.
func LoadConfig(r io.Reader) (*Config, error) {
	c := new(Config)
	if _, err := toml.NewDecoder(r).Decode(c); err != nil {
		return nil, fmt.Errorf("plasmakin: reading network configuration: %v", err)
	}
	return c, nil
}

// SpecsFromLists builds reaction specifications from parallel lists of
// reaction strings, rate kinds and parameters. Parameters are parsed as
// a number for Constant reactions, used verbatim for Equation reactions
// and ignored for EEDF reactions.
func SpecsFromLists(reactions, kinds, params []string) ([]ReactionSpec, error) {
	if len(kinds) != len(reactions) || len(params) != len(reactions) {
		return nil, fmt.Errorf("plasmakin: %d reactions but %d rate types and %d parameters: %w",
			len(reactions), len(kinds), len(params), ErrConfig)
	}
	specs := make([]ReactionSpec, len(reactions))
	for i, eq := range reactions {
		kind, err := ParseRateKind(kinds[i])
		if err != nil {
			return nil, err
		}
		specs[i] = ReactionSpec{Equation: eq, Rate: kinds[i]}
		switch kind {
		case RateConstant:
			v, err := strconv.ParseFloat(strings.TrimSpace(params[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("plasmakin: rate constant of %q: %v: %w", eq, err, ErrConfig)
			}
			specs[i].Value = v
		case RateEquation:
			specs[i].Expression = params[i]
		}
	}
	return specs, nil
}

// Binding records how the reactant slots of one reaction are bound.
type Binding struct {
	Reaction int
	Slots    []Slot
}

// Network is a fully resolved reaction network. It is immutable and
// safe for concurrent evaluation.
type Network struct {
	reactions    []*Reaction
	registry     *Registry
	coefficients []Coefficient
	terms        []*Term
	termIndex    map[string]*Term
	aux          []AuxKernel
	stabilizers  []*LogStabilization
	bindings     []Binding
	solved       []string
}

// Reactions returns the parsed reactions.
func (n *Network) Reactions() []*Reaction { return n.reactions }

// Registry returns the species registry.
func (n *Network) Registry() *Registry { return n.registry }

// Coefficient returns the rate coefficient of reaction i.
func (n *Network) Coefficient(i int) Coefficient { return n.coefficients[i] }

// Terms returns all generated terms in generation order.
func (n *Network) Terms() []*Term { return n.terms }

// Term returns the term with the given name.
func (n *Network) Term(name string) (*Term, bool) {
	t, ok := n.termIndex[name]
	return t, ok
}

// TermsFor returns the terms that contribute to the named variable.
func (n *Network) TermsFor(variable string) []*Term {
	var out []*Term
	for _, t := range n.terms {
		if t.variable == variable {
			out = append(out, t)
		}
	}
	return out
}

// Kernels returns the terms followed by the log stabilization
// kernels as host kernels.
func (n *Network) Kernels() []Kernel {
	out := make([]Kernel, 0, len(n.terms)+len(n.stabilizers))
	for _, t := range n.terms {
		out = append(out, t)
	}
	for _, s := range n.stabilizers {
		out = append(out, s)
	}
	return out
}

// Stabilizers returns the log stabilization kernels.
func (n *Network) Stabilizers() []*LogStabilization { return n.stabilizers }

// AuxKernels returns the auxiliary kernels.
func (n *Network) AuxKernels() []AuxKernel { return n.aux }

// Bindings returns the reactant slot bindings of every reaction.
func (n *Network) Bindings() []Binding { return n.bindings }

// Solved returns the names of the solved variables the network
// couples to: the tracked species followed by the energy variables.
func (n *Network) Solved() []string { return append([]string(nil), n.solved...) }

// Participants returns every species that takes part in a reaction,
// tracked species first, then in order of appearance.
func (n *Network) Participants() []string {
	out := n.registry.Tracked()
	for _, r := range n.reactions {
		out = appendUnique(out, r.Participants()...)
	}
	return out
}

// Stoichiometry returns the net stoichiometric matrix, with one row
// per reaction and one column per entry of Participants.
func (n *Network) Stoichiometry() (*mat.Dense, []string) {
	species := n.Participants()
	m := mat.NewDense(len(n.reactions), len(species), nil)
	for i, r := range n.reactions {
		for j, s := range species {
			m.Set(i, j, float64(r.Net(s)))
		}
	}
	return m, species
}
