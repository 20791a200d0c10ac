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

import "fmt"

// Class is the role a species plays in the solved system.
type Class int

// Species classes.
const (
	// Background species are not represented by any field; their
	// density is the background gas density.
	Background Class = iota

	// Tracked species are solved nonlinear variables.
	Tracked

	// Auxiliary species are fields that are read but not solved for.
	Auxiliary
)

func (c Class) String() string {
	switch c {
	case Tracked:
		return "tracked"
	case Auxiliary:
		return "auxiliary"
	default:
		return "background"
	}
}

// Registry classifies species names.
type Registry struct {
	tracked []string
	aux     []string
	class   map[string]Class
	index   map[string]int
}

// NewRegistry creates a registry from the tracked and auxiliary species
// lists. Any other name is classified as background gas.
func NewRegistry(tracked, aux []string) (*Registry, error) {
	r := &Registry{
		class: make(map[string]Class),
		index: make(map[string]int),
	}
	for _, s := range tracked {
		if _, ok := r.class[s]; ok {
			return nil, fmt.Errorf("plasmakin: species %q is listed more than once: %w", s, ErrConfig)
		}
		r.class[s] = Tracked
		r.index[s] = len(r.tracked)
		r.tracked = append(r.tracked, s)
	}
	for _, s := range aux {
		if c, ok := r.class[s]; ok {
			return nil, fmt.Errorf("plasmakin: species %q is both %v and auxiliary: %w", s, c, ErrConfig)
		}
		r.class[s] = Auxiliary
		r.aux = append(r.aux, s)
	}
	return r, nil
}

// Classify returns the class of the named species.
func (r *Registry) Classify(name string) Class {
	return r.class[name]
}

// Index returns the position of a tracked species in the tracked list,
// or -1 if the species is not tracked.
func (r *Registry) Index(name string) int {
	i, ok := r.index[name]
	if !ok {
		return -1
	}
	return i
}

// Tracked returns the tracked species in declaration order.
func (r *Registry) Tracked() []string { return append([]string(nil), r.tracked...) }

// Auxiliary returns the auxiliary species in declaration order.
func (r *Registry) Auxiliary() []string { return append([]string(nil), r.aux...) }

// HasField reports whether name is backed by a field, i.e. whether it
// is tracked or auxiliary.
func (r *Registry) HasField(name string) bool {
	_, ok := r.class[name]
	return ok
}
