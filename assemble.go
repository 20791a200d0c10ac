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

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
)

// Residual returns the summed residual of every term and stabilization
// kernel that contributes to variable at p.
func (n *Network) Residual(p *Point, variable string) float64 {
	var r float64
	for _, t := range n.terms {
		if t.variable == variable {
			r += t.Residual(p)
		}
	}
	for _, s := range n.stabilizers {
		if s.variable == variable {
			r += s.Residual(p)
		}
	}
	return r
}

// Jacobian returns the summed derivative of variable's residual with
// respect to the solved variable wrt.
func (n *Network) Jacobian(p *Point, variable, wrt string) float64 {
	var j float64
	for _, t := range n.terms {
		if t.variable != variable {
			continue
		}
		if wrt == variable {
			j += t.Jacobian(p)
		} else {
			j += t.OffDiagJacobian(p, wrt)
		}
	}
	for _, s := range n.stabilizers {
		if s.variable == variable && wrt == variable {
			j += s.Jacobian(p)
		}
	}
	return j
}

// JacobianCheck compares the analytic and finite-difference
// derivatives of a kernel residual with respect to one variable.
type JacobianCheck struct {
	Variable string
	Analytic float64
	Numeric  float64
	RelErr   float64
}

// CheckJacobian differentiates the residual of k numerically with
// respect to each of vars and compares the result with the analytic
// Jacobian. It returns the maximum relative error and the individual
// comparisons. p is not modified.
func CheckJacobian(k Kernel, p *Point, vars []string) (float64, []JacobianCheck) {
	q := &Point{
		Test:       p.Test,
		Phi:        1,
		Fields:     make(map[string]float64, len(p.Fields)),
		GasDensity: p.GasDensity,
	}
	for name, v := range p.Fields {
		q.Fields[name] = v
	}
	checks := make([]JacobianCheck, len(vars))
	errs := make([]float64, len(vars))
	for i, v := range vars {
		var a float64
		if v == k.Variable() {
			a = k.Jacobian(q)
		} else {
			a = k.OffDiagJacobian(q, v)
		}
		x := q.Fields[v]
		num := fd.Derivative(func(x float64) float64 {
			q.Fields[v] = x
			return k.Residual(q)
		}, x, &fd.Settings{
			Formula: fd.Central,
			Step:    fdStep(x),
		})
		q.Fields[v] = x
		errs[i] = relErr(a, num)
		checks[i] = JacobianCheck{Variable: v, Analytic: a, Numeric: num, RelErr: errs[i]}
	}
	if len(errs) == 0 {
		return 0, checks
	}
	return floats.Max(errs), checks
}

// relErr is the difference of a and b relative to the larger of them.
// Two values that are both zero have no error.
func relErr(a, b float64) float64 {
	d := math.Abs(a - b)
	if d == 0 {
		return 0
	}
	return d / math.Max(math.Abs(a), math.Abs(b))
}

// fdStep is the finite-difference step for a variable with value x.
func fdStep(x float64) float64 {
	if x == 0 {
		return 1e-6
	}
	return 1e-6 * math.Abs(x)
}
