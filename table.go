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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/groupcache/lru"
	"gonum.org/v1/gonum/interp"
)

// Table is a one-dimensional lookup of a rate coefficient (or
// mobility) against its driving variable.
type Table interface {
	// Sample returns the tabulated value at x and its derivative
	// with respect to x.
	Sample(x float64) (y, dy float64)
}

// TableFunc adapts a function to the Table interface.
type TableFunc func(x float64) (float64, float64)

// Sample implements Table.
func (f TableFunc) Sample(x float64) (float64, float64) { return f(x) }

// SplineTable is a natural cubic spline through tabulated data.
// Outside of the tabulated range the value is held at the end point
// and the derivative is zero.
type SplineTable struct {
	spline   interp.NaturalCubic
	xlo, xhi float64
	ylo, yhi float64
}

// NewSplineTable fits a spline to the given data. xs must be strictly
// increasing and contain at least three points.
func NewSplineTable(xs, ys []float64) (*SplineTable, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("plasmakin: table has %d abscissae but %d values", len(xs), len(ys))
	}
	if len(xs) < 3 {
		return nil, fmt.Errorf("plasmakin: table needs at least 3 points, has %d", len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("plasmakin: table abscissae are not strictly increasing at row %d", i)
		}
	}
	t := &SplineTable{
		xlo: xs[0], xhi: xs[len(xs)-1],
		ylo: ys[0], yhi: ys[len(ys)-1],
	}
	if err := t.spline.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("plasmakin: fitting table: %v", err)
	}
	return t, nil
}

// Sample implements Table.
func (t *SplineTable) Sample(x float64) (float64, float64) {
	switch {
	case x <= t.xlo:
		return t.ylo, 0
	case x >= t.xhi:
		return t.yhi, 0
	}
	return t.spline.Predict(x), t.spline.PredictDerivative(x)
}

// ReadTable reads a two-column, white-space separated table. Blank
// lines and lines starting with '#' are skipped.
func ReadTable(r io.Reader) (*SplineTable, error) {
	var xs, ys []float64
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		l := strings.TrimSpace(s.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		f := strings.Fields(l)
		if len(f) < 2 {
			return nil, fmt.Errorf("plasmakin: table line %d: expected 2 columns, got %d", line, len(f))
		}
		x, err := strconv.ParseFloat(f[0], 64)
		if err != nil {
			return nil, fmt.Errorf("plasmakin: table line %d: %v", line, err)
		}
		y, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return nil, fmt.Errorf("plasmakin: table line %d: %v", line, err)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return NewSplineTable(xs, ys)
}

// TableProvider supplies the tabulated data for EEDF-type reactions.
type TableProvider interface {
	// Rate returns the table for the reaction with the given
	// normalized equation.
	Rate(equation string) (Table, error)

	// Mobility returns the electron mobility table used to convert
	// Townsend coefficients into rate coefficients.
	Mobility() (Table, error)
}

// DirTables reads tables from files in a directory. Reaction tables
// are named "reaction_<equation>.txt" and the mobility table is
// "electron_mobility.txt". Parsed tables are cached, so a table shared
// by several reactions is read once. DirTables is not safe for
// concurrent use.
type DirTables struct {
	Dir string

	cache *lru.Cache
}

// maxCachedTables is the max number of parsed tables DirTables keeps.
const maxCachedTables = 64

// Rate implements TableProvider.
func (d *DirTables) Rate(equation string) (Table, error) {
	return d.read("reaction_" + equation + ".txt")
}

// Mobility implements TableProvider.
func (d *DirTables) Mobility() (Table, error) {
	return d.read("electron_mobility.txt")
}

func (d *DirTables) read(name string) (Table, error) {
	if d.cache == nil {
		d.cache = lru.New(maxCachedTables)
	}
	if t, ok := d.cache.Get(name); ok {
		return t.(Table), nil
	}
	f, err := os.Open(filepath.Join(d.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("plasmakin: opening rate table: %v", err)
	}
	defer f.Close()
	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%v (file %s)", err, name)
	}
	d.cache.Add(name, t)
	return t, nil
}

// MapTables is an in-memory TableProvider.
type MapTables struct {
	Rates       map[string]Table
	MobilityTab Table
}

// Rate implements TableProvider.
func (m MapTables) Rate(equation string) (Table, error) {
	t, ok := m.Rates[equation]
	if !ok {
		return nil, fmt.Errorf("plasmakin: no rate table for reaction %q", equation)
	}
	return t, nil
}

// Mobility implements TableProvider.
func (m MapTables) Mobility() (Table, error) {
	if m.MobilityTab == nil {
		return nil, fmt.Errorf("plasmakin: no electron mobility table")
	}
	return m.MobilityTab, nil
}
