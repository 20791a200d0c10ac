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
)

// LogStabilization keeps a log-density variable u bounded from below
// by adding the residual -test * exp(-(Offset + u)). The contribution
// is negligible while u is well above -Offset.
type LogStabilization struct {
	name     string
	variable string

	Offset float64
}

// NewLogStabilization returns the stabilization kernel of variable.
func NewLogStabilization(variable string, offset float64) *LogStabilization {
	return &LogStabilization{
		name:     "log_stabilization_" + variable,
		variable: variable,
		Offset:   offset,
	}
}

// Name implements Kernel.
func (s *LogStabilization) Name() string { return s.name }

// Variable implements Kernel.
func (s *LogStabilization) Variable() string { return s.variable }

// Residual implements Kernel.
func (s *LogStabilization) Residual(p *Point) float64 {
	return -p.Test * math.Exp(-(s.Offset + p.Value(s.variable)))
}

// Jacobian implements Kernel.
func (s *LogStabilization) Jacobian(p *Point) float64 {
	return p.Test * math.Exp(-(s.Offset + p.Value(s.variable))) * p.Phi
}

// OffDiagJacobian implements Kernel.
func (s *LogStabilization) OffDiagJacobian(*Point, string) float64 { return 0 }

// Coupled implements Kernel.
func (s *LogStabilization) Coupled() []string { return nil }

// stabilizationPass adds a LogStabilization kernel for every tracked
// species when requested.
func (b *builder) stabilizationPass() error {
	if !b.cfg.LogStabilization {
		return nil
	}
	if !b.cfg.UseLog {
		return fmt.Errorf("plasmakin: LogStabilization requires UseLog: %w", ErrConfig)
	}
	for _, s := range b.registry.tracked {
		b.stabilizers = append(b.stabilizers, NewLogStabilization(s, b.cfg.LogStabilizationOffset))
	}
	return nil
}
