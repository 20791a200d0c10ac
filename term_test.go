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
	"io/ioutil"
	"math"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

func mustBuild(t *testing.T, c *Config) *Network {
	t.Helper()
	if c.Log == nil {
		c.Log = quietLog()
	}
	n, err := Build(c)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func mustTerm(t *testing.T, n *Network, name string) *Term {
	t.Helper()
	term, ok := n.Term(name)
	if !ok {
		var names []string
		for _, tt := range n.Terms() {
			names = append(names, tt.Name())
		}
		t.Fatalf("no term %q; have %v", name, names)
	}
	return term
}

func TestSecondOrderTerms(t *testing.T) {
	n := mustBuild(t, &Config{
		Reactions: []ReactionSpec{{Equation: "A + B -> C", Rate: "Constant", Value: 2}},
		Species:   []string{"A", "B", "C"},
	})
	if len(n.Terms()) != 3 {
		t.Fatalf("have %d terms, want 3", len(n.Terms()))
	}
	p := &Point{Test: 1, Phi: 1, Fields: map[string]float64{"A": 3, "B": 5, "C": 7}}

	a := mustTerm(t, n, "kernel0_A + B -> C")
	if a.Family.String() != "ReactantSecondOrder" {
		t.Errorf("family: have %s", a.Family)
	}
	if r := a.Residual(p); r != 30 {
		t.Errorf("A residual: have %g, want 30", r)
	}
	if j := a.Jacobian(p); j != 10 {
		t.Errorf("A Jacobian: have %g, want 10", j)
	}
	if j := a.OffDiagJacobian(p, "B"); j != 6 {
		t.Errorf("A off-diagonal Jacobian: have %g, want 6", j)
	}
	if j := a.OffDiagJacobian(p, "C"); j != 0 {
		t.Errorf("A is not coupled to C, but the Jacobian is %g", j)
	}

	c := mustTerm(t, n, "kernel_prod2_A + B -> C")
	if c.Family.String() != "ProductSecondOrder" {
		t.Errorf("family: have %s", c.Family)
	}
	if r := c.Residual(p); r != -30 {
		t.Errorf("C residual: have %g, want -30", r)
	}
	if j := c.Jacobian(p); j != 0 {
		t.Errorf("C Jacobian: have %g, want 0", j)
	}
	if j := c.OffDiagJacobian(p, "A"); j != -10 {
		t.Errorf("C off-diagonal Jacobian wrt A: have %g, want -10", j)
	}
	if j := c.OffDiagJacobian(p, "B"); j != -6 {
		t.Errorf("C off-diagonal Jacobian wrt B: have %g, want -6", j)
	}

	// The Jacobian scales with the trial function.
	p.Phi = 0.5
	if j := a.Jacobian(p); j != 5 {
		t.Errorf("scaled Jacobian: have %g, want 5", j)
	}
}

func TestRepeatedReactant(t *testing.T) {
	const k = 1.5
	n := mustBuild(t, &Config{
		Reactions: []ReactionSpec{{Equation: "2A -> B", Rate: "Constant", Value: k}},
		Species:   []string{"A", "B"},
	})
	p := &Point{Test: 1, Phi: 1, Fields: map[string]float64{"A": 4, "B": 1}}
	a := mustTerm(t, n, "kernel0_A + A -> B")
	if a.Family.Order != 1 {
		t.Errorf("order: have %d, want 1", a.Family.Order)
	}
	if r := a.Residual(p); different(r, 2*k*16, 1e-12) {
		t.Errorf("residual: have %g, want %g", r, 2*k*16)
	}
	if j := a.Jacobian(p); different(j, 4*k*4, 1e-12) {
		t.Errorf("Jacobian: have %g, want %g", j, 4*k*4)
	}
	b := mustTerm(t, n, "kernel_prod1_A + A -> B")
	if r := b.Residual(p); different(r, -k*16, 1e-12) {
		t.Errorf("product residual: have %g, want %g", r, -k*16)
	}
}

func TestLogTerms(t *testing.T) {
	const k = 2e-15
	n := mustBuild(t, &Config{
		Reactions: []ReactionSpec{{Equation: "A + B -> C", Rate: "Constant", Value: k}},
		Species:   []string{"A", "B", "C"},
		UseLog:    true,
	})
	p := &Point{Test: 0.7, Phi: 1, Fields: map[string]float64{
		"A": math.Log(1e16), "B": math.Log(3e15), "C": math.Log(1e14),
	}}
	c := mustTerm(t, n, "kernel_prod2_A + B -> C")
	if c.Family.String() != "ProductSecondOrderLog" {
		t.Errorf("family: have %s", c.Family)
	}
	if r, want := c.Residual(p), -0.7*k*1e16*3e15; different(r, want, 1e-10) {
		t.Errorf("residual: have %g, want %g", r, want)
	}
	for _, term := range n.Terms() {
		vars := append([]string{term.Variable()}, term.Coupled()...)
		if e, checks := CheckJacobian(term, p, vars); e > 1e-6 {
			t.Errorf("%s: %+v", term.Name(), checks)
		}
	}
}

func TestBackgroundGas(t *testing.T) {
	const k = 3e-16
	n := mustBuild(t, &Config{
		Reactions: []ReactionSpec{{Equation: "em + Ar -> em + em + Ar+", Rate: "Constant", Value: k}},
		Species:   []string{"em", "Ar+"},
	})
	p := &Point{Test: 1, Phi: 1, Fields: map[string]float64{"em": 1e15, "Ar+": 1e15}, GasDensity: 2.5e25}
	e := mustTerm(t, n, "kernel_prod0_em + Ar -> em + em + Ar+")
	if r, want := e.Residual(p), -k*1e15*2.5e25; different(r, want, 1e-12) {
		t.Errorf("residual: have %g, want %g", r, want)
	}
	if j, want := e.Jacobian(p), -k*2.5e25; different(j, want, 1e-12) {
		t.Errorf("Jacobian: have %g, want %g", j, want)
	}
	if j := e.OffDiagJacobian(p, "Ar"); j != 0 {
		t.Errorf("background Jacobian: have %g, want 0", j)
	}
	for _, s := range e.Slots {
		if s.Species == "Ar" && (s.Class != Background || s.Coupled()) {
			t.Errorf("Ar slot: %+v", s)
		}
		if s.Species == "em" && !s.EqU {
			t.Errorf("em slot should be flagged as the term's own variable: %+v", s)
		}
	}
	ion := mustTerm(t, n, "kernel_prod1_em + Ar -> em + em + Ar+")
	if c := ion.Coupled(); len(c) != 1 || c[0] != "em" {
		t.Errorf("ion coupling: have %v, want [em]", c)
	}
}

func TestAuxiliarySpecies(t *testing.T) {
	n := mustBuild(t, &Config{
		Reactions:  []ReactionSpec{{Equation: "em + Ar* -> em + em + Ar+", Rate: "Constant", Value: 1}},
		Species:    []string{"em", "Ar+"},
		AuxSpecies: []string{"Ar*"},
	})
	p := &Point{Test: 1, Phi: 1, Fields: map[string]float64{"em": 2, "Ar*": 3, "Ar+": 1}}
	ion := mustTerm(t, n, "kernel_prod1_em + Ar* -> em + em + Ar+")
	if r := ion.Residual(p); r != -6 {
		t.Errorf("residual: have %g, want -6", r)
	}
	if j := ion.OffDiagJacobian(p, "Ar*"); j != 0 {
		t.Errorf("auxiliary Jacobian: have %g, want 0", j)
	}
	if j := ion.OffDiagJacobian(p, "em"); j != -3 {
		t.Errorf("em Jacobian: have %g, want -3", j)
	}
}

func TestEnergyTerms(t *testing.T) {
	const (
		k  = 1e-15
		dE = 11.56
		ng = 1e25
		ne = 1e16
	)
	n := mustBuild(t, &Config{
		Reactions: []ReactionSpec{{
			Equation: "em + Ar -> em + Ar*", Rate: "Constant", Value: k,
			EnergyChange: true, Threshold: dE,
		}},
		Species:         []string{"em", "Ar*"},
		EnergyVariables: []EnergyVariable{{Name: "en", Electron: true}, {Name: "heat"}},
	})
	p := &Point{Test: 1, Phi: 1, Fields: map[string]float64{"em": ne, "Ar*": 0, "en": 3 * ne}, GasDensity: ng}
	e := mustTerm(t, n, "energy_kernel0_0_em + Ar -> em + Ar*")
	if e.Family.String() != "EnergyTermRate" {
		t.Errorf("family: have %s", e.Family)
	}
	if r, want := e.Residual(p), dE*k*ne*ng; different(r, want, 1e-12) {
		t.Errorf("electron energy residual: have %g, want %g", r, want)
	}
	if j, want := e.OffDiagJacobian(p, "em"), dE*k*ng; different(j, want, 1e-12) {
		t.Errorf("electron energy Jacobian: have %g, want %g", j, want)
	}
	h := mustTerm(t, n, "energy_kernel0_1_em + Ar -> em + Ar*")
	if r, want := h.Residual(p), -dE*k*ne*ng; different(r, want, 1e-12) {
		t.Errorf("heavy-species energy residual: have %g, want %g", r, want)
	}
	if e.Variable() != "en" || h.Variable() != "heat" {
		t.Errorf("variables: %s, %s", e.Variable(), h.Variable())
	}
}

// Energy terms carry the same sign convention for every reaction order.
func TestEnergyTermSignByOrder(t *testing.T) {
	const (
		k  = 2e-15
		dE = 4.5
		ng = 1e25
	)
	n := mustBuild(t, &Config{
		Reactions: []ReactionSpec{
			{Equation: "Ar* -> Ar", Rate: "Constant", Value: k, EnergyChange: true, Threshold: dE},
			{Equation: "em + Ar* -> em + Ar", Rate: "Constant", Value: k, EnergyChange: true, Threshold: dE},
			{Equation: "Ar+ + em + Ar -> Ar + Ar", Rate: "Constant", Value: k, EnergyChange: true, Threshold: dE},
		},
		Species:         []string{"em", "Ar*", "Ar+"},
		EnergyVariables: []EnergyVariable{{Name: "en", Electron: true}, {Name: "heat"}},
	})
	f := map[string]float64{"em": 2e16, "Ar*": 3e17, "Ar+": 5e16, "en": 6e16}
	p := &Point{Test: 1, Phi: 1, Fields: f, GasDensity: ng}
	products := []float64{f["Ar*"], f["em"] * f["Ar*"], f["Ar+"] * f["em"] * ng}
	for i, r := range n.Reactions() {
		if r.Order() != i+1 {
			t.Fatalf("%s: order %d, want %d", r.Equation, r.Order(), i+1)
		}
		want := dE * k * products[i]
		e := mustTerm(t, n, fmt.Sprintf("energy_kernel%d_0_%s", i, r.Equation))
		if res := e.Residual(p); different(res, want, 1e-12) {
			t.Errorf("order %d electron energy: have %g, want %g", i+1, res, want)
		}
		h := mustTerm(t, n, fmt.Sprintf("energy_kernel%d_1_%s", i, r.Equation))
		if res := h.Residual(p); different(res, -want, 1e-12) {
			t.Errorf("order %d heavy-species energy: have %g, want %g", i+1, res, -want)
		}
	}
}

func TestElasticTerm(t *testing.T) {
	const (
		k  = 2e-13
		ng = 1e25
		ne = 1e16
	)
	n := mustBuild(t, &Config{
		Reactions: []ReactionSpec{{
			Equation: "em + Ar -> em + Ar", Rate: "Constant", Value: k, Elastic: true,
		}},
		Species:             []string{"em"},
		ElectronDensity:     "em",
		ElectronEnergy:      "en",
		TrackElectronEnergy: true,
		Masses:              map[string]float64{"Ar": 39.948},
	})
	if len(n.Terms()) != 1 {
		t.Fatalf("have %d terms, want only the elastic energy term", len(n.Terms()))
	}
	e := mustTerm(t, n, "elastic_kernel0_0_em + Ar -> em + Ar")
	if e.Family.String() != "EnergyTermElasticRate" {
		t.Errorf("family: have %s", e.Family)
	}
	p := &Point{Test: 1, Phi: 1, Fields: map[string]float64{"em": ne, "en": 4 * ne}, GasDensity: ng}
	ratio := electronMass / (39.948 * amu)
	if r, want := e.Residual(p), 3*ratio*4*k*ne*ng; different(r, want, 1e-12) {
		t.Errorf("residual: have %g, want %g", r, want)
	}
	if maxErr, checks := CheckJacobian(e, p, []string{"en"}); maxErr > 1e-6 {
		t.Errorf("Jacobian: %+v", checks)
	}
}

// Terms hold no mutable state and can be evaluated from many
// goroutines at once.
func TestConcurrentEvaluation(t *testing.T) {
	n := mustBuild(t, &Config{
		Reactions: []ReactionSpec{
			{Equation: "A + B -> C", Rate: "Constant", Value: 2},
			{Equation: "C -> A + B", Rate: "Equation", Expression: "0.1*T"},
		},
		Species:           []string{"A", "B", "C"},
		EquationVariables: []string{"T"},
	})
	points := make([]*Point, 64)
	want := make([][]float64, len(points))
	for i := range points {
		x := float64(i + 1)
		points[i] = &Point{Test: 1, Phi: 1, Fields: map[string]float64{"A": x, "B": 2 * x, "C": 3 * x, "T": x}}
		for _, term := range n.Terms() {
			want[i] = append(want[i], term.Residual(points[i]), term.Jacobian(points[i]))
		}
	}
	var wg sync.WaitGroup
	have := make([][]float64, len(points))
	for i := range points {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for _, term := range n.Terms() {
				have[i] = append(have[i], term.Residual(points[i]), term.Jacobian(points[i]))
			}
		}(i)
	}
	wg.Wait()
	for i := range want {
		for j := range want[i] {
			if have[i][j] != want[i][j] {
				t.Errorf("point %d value %d: have %g, want %g", i, j, have[i][j], want[i][j])
			}
		}
	}
}
