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
	"regexp"
	"strconv"
	"strings"
)

// RateKind is the declared format of a reaction's rate coefficient.
type RateKind int

// Rate coefficient kinds accepted in reaction input.
const (
	RateConstant RateKind = iota
	RateEquation
	RateEEDF
)

func (k RateKind) String() string {
	switch k {
	case RateConstant:
		return "Constant"
	case RateEquation:
		return "Equation"
	case RateEEDF:
		return "EEDF"
	}
	return fmt.Sprintf("RateKind(%d)", int(k))
}

// ParseRateKind converts a rate kind tag into a RateKind.
func ParseRateKind(s string) (RateKind, error) {
	switch s {
	case "Constant", "constant":
		return RateConstant, nil
	case "Equation", "equation":
		return RateEquation, nil
	case "EEDF", "eedf":
		return RateEEDF, nil
	}
	return 0, fmt.Errorf("plasmakin: invalid rate type %q; valid options are Constant, Equation and EEDF: %w", s, ErrConfig)
}

// RateSpec is a reaction's declared rate coefficient.
type RateSpec struct {
	Kind RateKind

	// Value is the coefficient of a RateConstant reaction.
	Value float64

	// Expression is the algebraic expression of a RateEquation reaction.
	Expression string
}

// Coefficient is a resolved rate coefficient. Implementations are
// read-only after construction and safe for concurrent use.
type Coefficient interface {
	// Eval returns the coefficient at p and its derivative with
	// respect to the solved variable v. The derivative is zero when
	// the coefficient does not depend on v.
	Eval(p *Point, v string) (k, dk float64)

	// DependsOn returns the solved variables the coefficient depends on.
	DependsOn() []string
}

// ConstantRate is a fixed rate coefficient.
type ConstantRate struct {
	K float64
}

// Eval implements Coefficient.
func (c *ConstantRate) Eval(*Point, string) (float64, float64) { return c.K, 0 }

// DependsOn implements Coefficient.
func (c *ConstantRate) DependsOn() []string { return nil }

// EquationRate is a rate coefficient given by an algebraic expression
// of field variables and constants. The expression is parsed into a
// tree that evaluates exact first and second derivatives.
type EquationRate struct {
	Expression string

	root      node
	variables []string
	solved    []string
}

// NewEquationRate parses expression. Identifiers in the expression
// must be either one of variables, which are read from the Point at
// evaluation time, or a key of constants. The subset of variables for
// which isSolved returns true are differentiated.
func NewEquationRate(expression string, variables []string, constants map[string]float64, isSolved func(string) bool) (*EquationRate, error) {
	src, literals := extractLiterals(strings.Replace(expression, "^", "**", -1))
	for k, v := range constants {
		literals[k] = v
	}
	root, fields, err := parseEquation(src, literals)
	if err != nil {
		return nil, fmt.Errorf("plasmakin: parsing rate equation %q: %v: %w", expression, err, ErrConfig)
	}
	declared := make(map[string]bool)
	for _, v := range variables {
		declared[v] = true
	}
	e := &EquationRate{Expression: expression, root: root}
	for _, v := range fields {
		if !declared[v] {
			return nil, fmt.Errorf("plasmakin: rate equation %q uses undeclared variable %q: %w", expression, v, ErrConfig)
		}
		e.variables = append(e.variables, v)
		if isSolved != nil && isSolved(v) {
			e.solved = append(e.solved, v)
		}
	}
	return e, nil
}

// sciLiteral matches numbers in scientific notation that are not
// part of an identifier.
var sciLiteral = regexp.MustCompile(`(^|[^A-Za-z0-9_.])((?:\d+\.?\d*|\.\d+)[eE][+-]?\d+)`)

// extractLiterals replaces numbers in scientific notation, which the
// expression lexer does not read, by named constants.
func extractLiterals(src string) (string, map[string]float64) {
	consts := make(map[string]float64)
	i := 0
	out := sciLiteral.ReplaceAllStringFunc(src, func(m string) string {
		sub := sciLiteral.FindStringSubmatch(m)
		v, err := strconv.ParseFloat(sub[2], 64)
		if err != nil {
			return m
		}
		name := fmt.Sprintf("plasmakinLiteral%d", i)
		i++
		consts[name] = v
		return sub[1] + name
	})
	return out, consts
}

func (e *EquationRate) isSolved(v string) bool {
	for _, s := range e.solved {
		if s == v {
			return true
		}
	}
	return false
}

// Eval implements Coefficient.
func (e *EquationRate) Eval(p *Point, v string) (float64, float64) {
	if !e.isSolved(v) {
		v = ""
	}
	x := e.root.eval(p, v)
	return x.v, x.d
}

// Curvature returns the second derivative of the coefficient with
// respect to the solved variable v.
func (e *EquationRate) Curvature(p *Point, v string) float64 {
	if !e.isSolved(v) {
		return 0
	}
	return e.root.eval(p, v).dd
}

// DependsOn implements Coefficient.
func (e *EquationRate) DependsOn() []string { return e.solved }

// TabulatedRate is a rate coefficient looked up from a table against
// a sampled driving variable.
type TabulatedRate struct {
	Table   Table
	Sampler Sampler
}

// Eval implements Coefficient.
func (t *TabulatedRate) Eval(p *Point, v string) (float64, float64) {
	x, dx := t.Sampler.Sample(p, v)
	k, dkdx := t.Table.Sample(x)
	return k, dkdx * dx
}

// DependsOn implements Coefficient.
func (t *TabulatedRate) DependsOn() []string { return t.Sampler.DependsOn() }

// TownsendRate converts a tabulated Townsend coefficient into a rate
// coefficient: k = alpha(x) * mobility(x) * |E|, where E is the field
// variable (taken as 1 when Field is empty).
type TownsendRate struct {
	Alpha    Table
	Mobility Table
	Sampler  Sampler

	Field       string
	FieldSolved bool
}

// Eval implements Coefficient.
func (t *TownsendRate) Eval(p *Point, v string) (float64, float64) {
	x, dx := t.Sampler.Sample(p, v)
	a, da := t.Alpha.Sample(x)
	mu, dmu := t.Mobility.Sample(x)
	e, de := 1.0, 0.0
	if t.Field != "" {
		f := p.Value(t.Field)
		e = math.Abs(f)
		if t.FieldSolved && v == t.Field {
			if f < 0 {
				de = -1
			} else {
				de = 1
			}
		}
	}
	k := a * mu * e
	dk := (da*mu+a*dmu)*e*dx + a*mu*de
	return k, dk
}

// DependsOn implements Coefficient.
func (t *TownsendRate) DependsOn() []string {
	deps := t.Sampler.DependsOn()
	if t.Field != "" && t.FieldSolved {
		deps = appendUnique(deps, t.Field)
	}
	return deps
}

// SuperelasticRate derives a rate coefficient from another reaction's
// coefficient through detailed balance. The source coefficient is
// evaluated on every call.
type SuperelasticRate struct {
	Source Coefficient
	Ratio  float64
}

// Eval implements Coefficient.
func (s *SuperelasticRate) Eval(p *Point, v string) (float64, float64) {
	k, dk := s.Source.Eval(p, v)
	return s.Ratio * k, s.Ratio * dk
}

// DependsOn implements Coefficient.
func (s *SuperelasticRate) DependsOn() []string { return s.Source.DependsOn() }

// DetailedBalanceRatio returns the ratio of the superelastic rate
// coefficient of r to the coefficient of its source reaction src:
// the product of the statistical weights of r's participants raised
// to their net coefficients, times exp(src.Threshold/temperature).
// The exponential factor is omitted when temperature is zero. Missing
// weights default to 1.
func DetailedBalanceRatio(r, src *Reaction, weights map[string]float64, temperature float64) (float64, error) {
	ratio := 1.0
	for _, s := range r.Participants() {
		n := r.Net(s)
		if n == 0 {
			continue
		}
		g, ok := weights[s]
		if !ok {
			g = 1
		}
		if g <= 0 {
			return 0, fmt.Errorf("plasmakin: statistical weight of %q must be positive, is %g: %w", s, g, ErrConfig)
		}
		ratio *= math.Pow(g, float64(n))
	}
	if temperature > 0 {
		ratio *= math.Exp(src.Threshold / temperature)
	}
	return ratio, nil
}

func appendUnique(s []string, v ...string) []string {
	for _, x := range v {
		found := false
		for _, y := range s {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			s = append(s, x)
		}
	}
	return s
}
