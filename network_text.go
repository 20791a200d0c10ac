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
	"strconv"
	"strings"
)

// ParseNetwork reads reactions in the line-oriented network format:
//
//	em + Ar -> em + em + Ar+ : EEDF [15.76] (C2_Ar_Ionization)
//	em + Ar -> em + Ar       : EEDF [elastic]
//	Ar* + Ar* -> Ar+ + Ar + em : 1.2e-15
//	Ar+ + em + em -> Ar + em : {8.75e-39*Te^(-4.5)}
//	em + Ar <-> em + Ar*     : EEDF [11.56]
//
// The rate after the colon is a number (Constant), EEDF, or an
// expression in braces (Equation). An optional bracketed value is the
// threshold energy in eV, or "elastic". A trailing parenthesized label
// is ignored. '#' starts a comment.
//
// A reversible reaction is returned as its forward reaction followed by
// a superelastic reverse reaction whose Source is the forward index
// and whose threshold is negated.
func ParseNetwork(r io.Reader) ([]ReactionSpec, error) {
	var specs []ReactionSpec
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fwd, reversible, err := parseNetworkLine(line)
		if err != nil {
			return nil, fmt.Errorf("plasmakin: network line %d: %w", lineNum, err)
		}
		specs = append(specs, fwd)
		if reversible {
			rev, err := reverseSpec(fwd, len(specs)-1)
			if err != nil {
				return nil, fmt.Errorf("plasmakin: network line %d: %w", lineNum, err)
			}
			specs = append(specs, rev)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("plasmakin: reading network: %v", err)
	}
	return specs, nil
}

func parseNetworkLine(line string) (ReactionSpec, bool, error) {
	var s ReactionSpec
	colon := strings.Index(line, ":")
	if colon < 0 {
		return s, false, &ParseError{Reaction: line, Reason: "missing ':' before the rate"}
	}
	eq := strings.TrimSpace(line[:colon])
	reversible := strings.Contains(eq, "<->")
	if reversible {
		if strings.Count(eq, "<->") != 1 {
			return s, false, &ParseError{Reaction: eq, Reason: "expected exactly one '<->'"}
		}
		eq = strings.Replace(eq, "<->", "->", 1)
	}
	s.Equation = eq

	rest := strings.TrimSpace(line[colon+1:])
	switch {
	case strings.HasPrefix(rest, "{"):
		end := strings.Index(rest, "}")
		if end < 0 {
			return s, false, &ParseError{Reaction: eq, Reason: "unterminated '{' in rate expression"}
		}
		s.Rate = RateEquation.String()
		s.Expression = strings.TrimSpace(rest[1:end])
		rest = rest[end+1:]
	default:
		end := strings.IndexAny(rest, " \t[(")
		if end < 0 {
			end = len(rest)
		}
		tok := rest[:end]
		rest = rest[end:]
		if tok == "" {
			return s, false, &ParseError{Reaction: eq, Reason: "missing rate"}
		}
		if strings.EqualFold(tok, "EEDF") {
			s.Rate = RateEEDF.String()
			break
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return s, false, &ParseError{Reaction: eq, Reason: fmt.Sprintf("invalid rate %q", tok)}
		}
		s.Rate = RateConstant.String()
		s.Value = v
	}

	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return s, false, &ParseError{Reaction: eq, Reason: "unterminated '['"}
		}
		tag := strings.TrimSpace(rest[1:end])
		if strings.EqualFold(tag, "elastic") {
			s.Elastic = true
		} else {
			v, err := strconv.ParseFloat(tag, 64)
			if err != nil {
				return s, false, &ParseError{Reaction: eq, Reason: fmt.Sprintf("invalid threshold energy %q", tag)}
			}
			s.EnergyChange = true
			s.Threshold = v
		}
		rest = strings.TrimSpace(rest[end+1:])
	}
	if strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") {
		rest = ""
	}
	if rest != "" {
		return s, false, &ParseError{Reaction: eq, Reason: fmt.Sprintf("unexpected text %q after the rate", rest)}
	}
	return s, reversible, nil
}

// reverseSpec builds the superelastic reverse of the reaction at index
// source.
func reverseSpec(fwd ReactionSpec, source int) (ReactionSpec, error) {
	if fwd.Elastic {
		return ReactionSpec{}, &ParseError{Reaction: fwd.Equation, Reason: "an elastic collision cannot be reversible"}
	}
	sides := strings.SplitN(fwd.Equation, "->", 2)
	if len(sides) != 2 {
		return ReactionSpec{}, &ParseError{Reaction: fwd.Equation, Reason: "expected exactly one '->'"}
	}
	return ReactionSpec{
		Equation:     strings.TrimSpace(sides[1]) + " -> " + strings.TrimSpace(sides[0]),
		EnergyChange: fwd.EnergyChange,
		Threshold:    -fwd.Threshold,
		Superelastic: true,
		Source:       source,
	}, nil
}
