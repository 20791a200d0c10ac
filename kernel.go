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

import "errors"

// ErrConfig is wrapped by every setup-time configuration error.
var ErrConfig = errors.New("invalid network configuration")

// Point is a read-only snapshot of the solution at one quadrature
// point, supplied by the assembly host for each evaluation call.
// Kernels never modify a Point.
type Point struct {
	// Test is the value of the current test function.
	Test float64

	// Phi is the value of the current trial (shape) function.
	Phi float64

	// Fields holds the current values of the solved and auxiliary
	// variables, by variable name. In log mode, species densities are
	// stored as ln(density).
	Fields map[string]float64

	// GasDensity is the background gas number density.
	GasDensity float64
}

// Value returns the value of the named field.
func (p *Point) Value(name string) float64 {
	return p.Fields[name]
}

// Kernel is a residual contribution to one solved variable's equation.
// Implementations must be safe for concurrent use.
type Kernel interface {
	// Name returns the unique name of the kernel.
	Name() string

	// Variable returns the name of the variable whose equation this
	// kernel contributes to.
	Variable() string

	// Residual returns the residual contribution at p.
	Residual(p *Point) float64

	// Jacobian returns the derivative of the residual with respect to
	// the kernel's own variable.
	Jacobian(p *Point) float64

	// OffDiagJacobian returns the derivative of the residual with
	// respect to another solved variable. It returns zero for
	// variables the kernel is not coupled to.
	OffDiagJacobian(p *Point, v string) float64

	// Coupled returns the solved variables, other than Variable(),
	// that the kernel has Jacobian entries for.
	Coupled() []string
}

// AuxKernel computes the value of an auxiliary (not solved) variable.
type AuxKernel interface {
	Name() string
	Variable() string
	Value(p *Point) float64
}
