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
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// builder holds the state of network construction. It is used by a
// single goroutine and discarded once Build returns.
type builder struct {
	cfg        *Config
	log        logrus.FieldLogger
	format     Format
	registry   *Registry
	reactions  []*Reaction
	energyVars []EnergyVariable
	solved     []string
	solvedSet  map[string]bool
	tables     TableProvider

	coefficients []Coefficient
	aux          []AuxKernel
	terms        []*Term
	stabilizers  []*LogStabilization
	bindings     []Binding
}

// Build parses, validates and resolves a reaction network. Setup runs
// in three passes: auxiliary variables, rate coefficients (with
// superelastic coefficients deferred until their source is resolved)
// and terms. Any error aborts the build and no network is returned.
func Build(cfg *Config) (*Network, error) {
	b, err := newBuilder(cfg)
	if err != nil {
		return nil, err
	}
	if err := b.auxPass(); err != nil {
		return nil, err
	}
	if err := b.coefficientPass(); err != nil {
		return nil, err
	}
	if err := b.termPass(); err != nil {
		return nil, err
	}
	if err := b.stabilizationPass(); err != nil {
		return nil, err
	}
	n := &Network{
		reactions:    b.reactions,
		registry:     b.registry,
		coefficients: b.coefficients,
		terms:        b.terms,
		termIndex:    make(map[string]*Term, len(b.terms)),
		aux:          b.aux,
		stabilizers:  b.stabilizers,
		bindings:     b.bindings,
		solved:       b.solved,
	}
	for _, t := range b.terms {
		if _, ok := n.termIndex[t.name]; ok {
			return nil, fmt.Errorf("plasmakin: duplicate term %q; is a reaction listed twice?: %w", t.name, ErrConfig)
		}
		n.termIndex[t.name] = t
	}
	b.log.WithFields(logrus.Fields{
		"reactions": len(n.reactions),
		"terms":     len(n.terms),
		"aux":       len(n.aux),
	}).Info("plasmakin: reaction network built")
	return n, nil
}

func newBuilder(cfg *Config) (*builder, error) {
	b := &builder{cfg: cfg, log: cfg.Log, tables: cfg.Tables}
	if b.log == nil {
		b.log = logrus.StandardLogger()
	}
	if b.tables == nil && cfg.TableDir != "" {
		b.tables = &DirTables{Dir: cfg.TableDir}
	}
	var err error
	if b.format, err = ParseFormat(cfg.CoefficientFormat); err != nil {
		return nil, err
	}
	if b.format == FormatTownsend {
		if cfg.ElectronDensity == "" {
			return nil, fmt.Errorf("plasmakin: coefficient format 'townsend' requires ElectronDensity: %w", ErrConfig)
		}
		if cfg.ElectronEnergy == "" {
			return nil, fmt.Errorf("plasmakin: coefficient format 'townsend' requires ElectronEnergy: %w", ErrConfig)
		}
	}
	switch cfg.SamplingFormat {
	case "", "reduced_field":
	case "electron_energy":
		if cfg.ElectronDensity == "" || cfg.ElectronEnergy == "" {
			return nil, fmt.Errorf("plasmakin: sampling format 'electron_energy' requires ElectronDensity and ElectronEnergy: %w", ErrConfig)
		}
	default:
		return nil, fmt.Errorf("plasmakin: invalid sampling format %q; valid options are reduced_field and electron_energy: %w", cfg.SamplingFormat, ErrConfig)
	}
	if b.registry, err = NewRegistry(cfg.Species, cfg.AuxSpecies); err != nil {
		return nil, err
	}

	b.energyVars = append(b.energyVars, cfg.EnergyVariables...)
	if cfg.TrackElectronEnergy {
		if cfg.ElectronEnergy == "" {
			return nil, fmt.Errorf("plasmakin: TrackElectronEnergy requires ElectronEnergy: %w", ErrConfig)
		}
		found := false
		for _, ev := range b.energyVars {
			if ev.Name == cfg.ElectronEnergy {
				found = true
			}
		}
		if !found {
			b.energyVars = append(b.energyVars, EnergyVariable{Name: cfg.ElectronEnergy, Electron: true})
		}
	}
	b.solved = b.registry.Tracked()
	for _, ev := range b.energyVars {
		if b.registry.HasField(ev.Name) {
			return nil, fmt.Errorf("plasmakin: energy variable %q is also a species: %w", ev.Name, ErrConfig)
		}
		b.solved = appendUnique(b.solved, ev.Name)
	}
	b.solvedSet = make(map[string]bool, len(b.solved))
	for _, v := range b.solved {
		b.solvedSet[v] = true
	}
	for _, v := range []struct{ what, name string }{
		{"field variable", cfg.FieldVariable},
		{"sampling variable", cfg.SamplingVariable},
	} {
		if v.name != "" && !b.declared(v.name) {
			return nil, fmt.Errorf("plasmakin: %s %q is not a species, energy variable or equation variable: %w", v.what, v.name, ErrConfig)
		}
	}

	specs := append([]ReactionSpec(nil), cfg.Reactions...)
	if strings.TrimSpace(cfg.NetworkText) != "" {
		more, err := ParseNetwork(strings.NewReader(cfg.NetworkText))
		if err != nil {
			return nil, err
		}
		offset := len(specs)
		for _, s := range more {
			if s.Superelastic {
				s.Source += offset
			}
			specs = append(specs, s)
		}
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("plasmakin: the network has no reactions: %w", ErrConfig)
	}
	for i, s := range specs {
		r, err := newReaction(s)
		if err != nil {
			return nil, err
		}
		if r.Order() > len(roleNames) {
			return nil, fmt.Errorf("plasmakin: reaction %d %q has %d distinct reactants; at most %d are supported: %w",
				i, r.Equation, r.Order(), len(roleNames), ErrConfig)
		}
		b.reactions = append(b.reactions, r)
	}
	return b, nil
}

// newReaction parses a reaction specification.
func newReaction(s ReactionSpec) (*Reaction, error) {
	r, err := ParseReaction(s.Equation)
	if err != nil {
		return nil, err
	}
	r.Elastic = s.Elastic
	r.EnergyChange = s.EnergyChange
	r.Threshold = s.Threshold
	r.Superelastic = s.Superelastic
	r.Source = s.Source
	if s.Superelastic {
		return r, nil
	}
	kind, err := ParseRateKind(s.Rate)
	if err != nil {
		return nil, fmt.Errorf("plasmakin: reaction %q: %w", r.Equation, err)
	}
	r.Rate = RateSpec{Kind: kind, Value: s.Value, Expression: s.Expression}
	if kind == RateEquation && strings.TrimSpace(s.Expression) == "" {
		return nil, fmt.Errorf("plasmakin: equation reaction %q has no expression: %w", r.Equation, ErrConfig)
	}
	return r, nil
}

func (b *builder) isSolved(v string) bool { return b.solvedSet[v] }

// declared reports whether name is a species, an energy variable or
// one of the configured equation variables.
func (b *builder) declared(name string) bool {
	if b.registry.HasField(name) || b.isSolved(name) {
		return true
	}
	for _, v := range b.cfg.EquationVariables {
		if v == name {
			return true
		}
	}
	return false
}

// auxPass declares one reaction-rate auxiliary variable per reaction
// and the configured variable sums. It must run before the coefficient
// pass; the rate kernels are bound to their coefficients afterwards.
func (b *builder) auxPass() error {
	for i, r := range b.reactions {
		b.aux = append(b.aux, &RateKernel{
			name:     "rate_kernel" + strconv.Itoa(i) + "_" + r.Equation,
			variable: "rate" + strconv.Itoa(i),
			Reaction: i,
			slots:    b.slots(r, ""),
			density:  b.density(),
		})
	}
	names := make([]string, 0, len(b.cfg.Sums))
	for name := range b.cfg.Sums {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		args := b.cfg.Sums[name]
		if len(args) == 0 {
			return fmt.Errorf("plasmakin: variable sum %q has no arguments: %w", name, ErrConfig)
		}
		if b.registry.HasField(name) || b.isSolved(name) {
			return fmt.Errorf("plasmakin: variable sum %q shadows an existing variable: %w", name, ErrConfig)
		}
		var logArgs []bool
		for _, a := range args {
			if !b.registry.HasField(a) && !b.isSolved(a) {
				return fmt.Errorf("plasmakin: variable sum %q uses unknown variable %q: %w", name, a, ErrConfig)
			}
			// Species densities and energy variables are both stored
			// as logarithms in log mode.
			logArgs = append(logArgs, b.cfg.UseLog)
		}
		b.aux = append(b.aux, &VariableSum{
			name:     "sum_" + name,
			variable: name,
			Args:     append([]string(nil), args...),
			logArgs:  logArgs,
		})
	}
	return nil
}

func (b *builder) density() densityFunc {
	if b.cfg.UseLog {
		return logDensity
	}
	return linearDensity
}

// coefficientPass resolves the rate coefficient of every reaction.
// Superelastic reactions are resolved in a second sweep, once every
// other coefficient exists.
func (b *builder) coefficientPass() error {
	b.coefficients = make([]Coefficient, len(b.reactions))
	if b.cfg.GasTemperature {
		var affected []string
		for _, r := range b.reactions {
			if r.EnergyChange {
				affected = append(affected, r.Equation)
			}
		}
		if len(affected) > 0 {
			b.log.WithFields(logrus.Fields{
				"reactions": affected,
			}).Warn("plasmakin: gas temperature dependence of the energy change is not yet implemented; skipping")
		}
	}
	for i, r := range b.reactions {
		if r.Superelastic {
			continue
		}
		c, err := b.resolve(r)
		if err != nil {
			return err
		}
		b.coefficients[i] = c
		b.log.WithFields(logrus.Fields{
			"reaction": r.Equation,
			"kind":     r.Rate.Kind.String(),
		}).Debug("plasmakin: resolved rate coefficient")
	}
	for i, r := range b.reactions {
		if !r.Superelastic {
			continue
		}
		if r.Source < 0 || r.Source >= len(b.reactions) || r.Source == i {
			return fmt.Errorf("plasmakin: superelastic reaction %q references invalid reaction index %d: %w", r.Equation, r.Source, ErrConfig)
		}
		src := b.reactions[r.Source]
		if src.Superelastic {
			return fmt.Errorf("plasmakin: superelastic reaction %q references superelastic reaction %q: %w", r.Equation, src.Equation, ErrConfig)
		}
		ratio, err := DetailedBalanceRatio(r, src, b.cfg.StatisticalWeights, b.cfg.SuperelasticTemperature)
		if err != nil {
			return err
		}
		b.coefficients[i] = &SuperelasticRate{Source: b.coefficients[r.Source], Ratio: ratio}
		b.log.WithFields(logrus.Fields{
			"reaction": r.Equation,
			"source":   src.Equation,
			"ratio":    ratio,
		}).Debug("plasmakin: resolved superelastic rate coefficient")
	}
	for _, a := range b.aux {
		if rk, ok := a.(*RateKernel); ok {
			rk.rate = b.coefficients[rk.Reaction]
		}
	}
	return nil
}

// resolve selects and configures the coefficient of a
// non-superelastic reaction.
func (b *builder) resolve(r *Reaction) (Coefficient, error) {
	switch r.Rate.Kind {
	case RateConstant:
		return &ConstantRate{K: r.Rate.Value}, nil
	case RateEquation:
		return NewEquationRate(r.Rate.Expression, b.cfg.EquationVariables, b.cfg.EquationConstants, b.isSolved)
	case RateEEDF:
		if b.tables == nil {
			return nil, fmt.Errorf("plasmakin: EEDF reaction %q requires rate tables: %w", r.Equation, ErrConfig)
		}
		t, err := b.tables.Rate(r.Equation)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrConfig)
		}
		if b.format == FormatTownsend {
			mu, err := b.tables.Mobility()
			if err != nil {
				return nil, fmt.Errorf("%v: %w", err, ErrConfig)
			}
			return &TownsendRate{
				Alpha:       t,
				Mobility:    mu,
				Sampler:     b.meanEnergySampler(),
				Field:       b.cfg.FieldVariable,
				FieldSolved: b.isSolved(b.cfg.FieldVariable),
			}, nil
		}
		s := b.sampler()
		if fs, ok := s.(FieldSampler); ok && !b.declared(fs.Name) {
			return nil, fmt.Errorf("plasmakin: EEDF reaction %q samples undeclared variable %q: %w", r.Equation, fs.Name, ErrConfig)
		}
		return &TabulatedRate{Table: t, Sampler: s}, nil
	}
	return nil, fmt.Errorf("plasmakin: reaction %q has unknown rate kind %v: %w", r.Equation, r.Rate.Kind, ErrConfig)
}

func (b *builder) meanEnergySampler() MeanEnergySampler {
	return MeanEnergySampler{
		Energy:    b.cfg.ElectronEnergy,
		Electrons: b.cfg.ElectronDensity,
		Log:       b.cfg.UseLog,
	}
}

// sampler returns the driving-variable sampler of rate-format tables.
func (b *builder) sampler() Sampler {
	if b.cfg.SamplingFormat == "electron_energy" {
		return b.meanEnergySampler()
	}
	name := b.cfg.SamplingVariable
	if name == "" {
		name = "reduced_field"
	}
	return FieldSampler{Name: name, Solved: b.isSolved(name)}
}

// electronImpact reports whether reaction i uses an EEDF table,
// directly or through its superelastic source.
func (b *builder) electronImpact(i int) bool {
	r := b.reactions[i]
	if r.Superelastic {
		r = b.reactions[r.Source]
	}
	return r.Rate.Kind == RateEEDF
}

// slots binds the reactants of r to canonical roles. own is the
// variable of the equation the slots are used in.
func (b *builder) slots(r *Reaction, own string) []Slot {
	slots := make([]Slot, len(r.Reactants))
	for k, p := range r.Reactants {
		slots[k] = Slot{
			Role:     roleNames[k],
			Species:  p.Species,
			Class:    b.registry.Classify(p.Species),
			Exponent: p.Count,
			EqU:      own != "" && p.Species == own,
		}
	}
	return slots
}

// coupling lists the solved variables, other than the term's own,
// that the term has Jacobian entries for.
func (b *builder) coupling(t *Term) []string {
	var deps []string
	for _, s := range t.Slots {
		if s.Coupled() {
			deps = appendUnique(deps, s.Species)
		}
	}
	deps = appendUnique(deps, t.rate.DependsOn()...)
	deps = appendUnique(deps, t.weight.dependsOn()...)
	var out []string
	for _, d := range deps {
		if d != t.variable && b.isSolved(d) {
			out = append(out, d)
		}
	}
	return out
}

// termPass synthesizes the species and energy terms of every reaction.
func (b *builder) termPass() error {
	for i, r := range b.reactions {
		family := Family{Order: r.Order(), Log: b.cfg.UseLog, Format: FormatRate}
		if b.format == FormatTownsend && b.electronImpact(i) {
			family.Format = FormatTownsend
		}
		b.bindings = append(b.bindings, Binding{Reaction: i, Slots: b.slots(r, "")})

		if r.EnergyChange || r.Elastic {
			terms, err := b.energyTerms(i, family, b.slots(r, ""))
			if err != nil {
				return err
			}
			b.add(terms...)
		}

		for j, s := range b.registry.tracked {
			net := r.Net(s)
			if net == 0 {
				continue
			}
			f := family
			name := "kernel" + strconv.Itoa(j) + "_" + r.Equation
			f.Kind = ReactantTerm
			if net > 0 {
				f.Kind = ProductTerm
				name = "kernel_prod" + strconv.Itoa(j) + "_" + r.Equation
			}
			rule, err := lookupFamily(f)
			if err != nil {
				return err
			}
			t := &Term{
				name:     name,
				variable: s,
				Family:   f,
				Reaction: i,
				Equation: r.Equation,
				Coeff:    rule.sign * float64(net),
				Slots:    b.slots(r, s),
				rate:     b.coefficients[i],
				weight:   unitWeight{},
				density:  rule.density,
			}
			t.coupled = b.coupling(t)
			b.add(t)
		}
	}
	return nil
}

func (b *builder) add(terms ...*Term) {
	for _, t := range terms {
		b.log.WithFields(logrus.Fields{
			"term":     t.name,
			"family":   t.Family.String(),
			"variable": t.variable,
		}).Debug("plasmakin: added term")
		b.terms = append(b.terms, t)
	}
}
