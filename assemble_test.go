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

import "testing"

// wrongKernel has a residual of x*y but reports the Jacobian of x*x.
type wrongKernel struct{}

func (wrongKernel) Name() string     { return "wrong" }
func (wrongKernel) Variable() string { return "x" }
func (wrongKernel) Residual(p *Point) float64 {
	return p.Test * p.Value("x") * p.Value("y")
}
func (wrongKernel) Jacobian(p *Point) float64 { return p.Test * 2 * p.Value("x") * p.Phi }
func (wrongKernel) OffDiagJacobian(p *Point, v string) float64 {
	if v == "y" {
		return p.Test * p.Value("x") * p.Phi
	}
	return 0
}
func (wrongKernel) Coupled() []string { return []string{"y"} }

func TestCheckJacobian(t *testing.T) {
	p := &Point{Test: 1, Phi: 0.25, Fields: map[string]float64{"x": 2, "y": 3}}
	e, checks := CheckJacobian(wrongKernel{}, p, []string{"x", "y"})
	if len(checks) != 2 {
		t.Fatalf("have %d checks, want 2", len(checks))
	}
	if checks[1].RelErr > 1e-8 {
		t.Errorf("y: %+v", checks[1])
	}
	if different(checks[0].Analytic, 4, 1e-12) || different(checks[0].Numeric, 3, 1e-6) {
		t.Errorf("x: %+v", checks[0])
	}
	if different(e, 0.25, 1e-6) {
		t.Errorf("max error: have %g, want 0.25", e)
	}
	if p.Fields["x"] != 2 || p.Phi != 0.25 {
		t.Error("the point was modified")
	}
}

func TestNetworkAssembly(t *testing.T) {
	n := mustBuild(t, &Config{
		Reactions: []ReactionSpec{
			{Equation: "A + B -> C", Rate: "Constant", Value: 2},
			{Equation: "C -> A", Rate: "Constant", Value: 5},
		},
		Species: []string{"A", "B", "C"},
	})
	p := &Point{Test: 1, Phi: 1, Fields: map[string]float64{"A": 3, "B": 4, "C": 6}}
	// dA/dt = -2AB + 5C, and the residual is its negative.
	if r := n.Residual(p, "A"); r != 2*3*4-5*6 {
		t.Errorf("A residual: have %g, want %g", r, 2.*3*4-5*6)
	}
	if j := n.Jacobian(p, "A", "A"); j != 2*4 {
		t.Errorf("dA/dA: have %g, want 8", j)
	}
	if j := n.Jacobian(p, "A", "C"); j != -5 {
		t.Errorf("dA/dC: have %g, want -5", j)
	}
	if j := n.Jacobian(p, "C", "B"); j != -2*3 {
		t.Errorf("dC/dB: have %g, want -6", j)
	}
}
