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

	"github.com/Knetic/govaluate"
)

// dual carries a value with its first and second derivatives with
// respect to one variable.
type dual struct {
	v, d, dd float64
}

func (a dual) add(b dual) dual { return dual{a.v + b.v, a.d + b.d, a.dd + b.dd} }
func (a dual) sub(b dual) dual { return dual{a.v - b.v, a.d - b.d, a.dd - b.dd} }
func (a dual) neg() dual       { return dual{-a.v, -a.d, -a.dd} }

func (a dual) mul(b dual) dual {
	return dual{
		v:  a.v * b.v,
		d:  a.d*b.v + a.v*b.d,
		dd: a.dd*b.v + 2*a.d*b.d + a.v*b.dd,
	}
}

func (a dual) div(b dual) dual {
	return a.mul(b.apply(1/b.v, -1/(b.v*b.v), 2/(b.v*b.v*b.v)))
}

// apply composes a function with value f0 and derivatives f1, f2 at
// a.v with a, by the chain rule.
func (a dual) apply(f0, f1, f2 float64) dual {
	return dual{
		v:  f0,
		d:  f1 * a.d,
		dd: f2*a.d*a.d + f1*a.dd,
	}
}

func (a dual) constant() bool { return a.d == 0 && a.dd == 0 }

func (a dual) pow(b dual) dual {
	if b.constant() {
		n := b.v
		switch n {
		case 0:
			return dual{v: 1}
		case 1:
			return a
		}
		return a.apply(math.Pow(a.v, n), n*math.Pow(a.v, n-1), n*(n-1)*math.Pow(a.v, n-2))
	}
	// a^b = exp(b ln a)
	return b.mul(a.log()).exp()
}

func (a dual) exp() dual {
	e := math.Exp(a.v)
	return a.apply(e, e, e)
}

func (a dual) log() dual {
	return a.apply(math.Log(a.v), 1/a.v, -1/(a.v*a.v))
}

func (a dual) sqrt() dual {
	s := math.Sqrt(a.v)
	return a.apply(s, 0.5/s, -0.25/(s*a.v))
}

func (a dual) abs() dual {
	if a.v < 0 {
		return a.neg()
	}
	return a
}

// node is a parsed rate equation. Eval returns the value at p and its
// derivatives with respect to the field wrt.
type node interface {
	eval(p *Point, wrt string) dual
}

type numberNode float64

func (n numberNode) eval(*Point, string) dual { return dual{v: float64(n)} }

type fieldNode string

func (f fieldNode) eval(p *Point, wrt string) dual {
	x := dual{v: p.Value(string(f))}
	if string(f) == wrt {
		x.d = 1
	}
	return x
}

type negNode struct{ x node }

func (n negNode) eval(p *Point, wrt string) dual { return n.x.eval(p, wrt).neg() }

type binaryNode struct {
	op   string
	l, r node
}

func (b binaryNode) eval(p *Point, wrt string) dual {
	l, r := b.l.eval(p, wrt), b.r.eval(p, wrt)
	switch b.op {
	case "+":
		return l.add(r)
	case "-":
		return l.sub(r)
	case "*":
		return l.mul(r)
	case "/":
		return l.div(r)
	default: // "**"
		return l.pow(r)
	}
}

type callNode struct {
	name string
	args []node
}

func (c callNode) eval(p *Point, wrt string) dual {
	x := c.args[0].eval(p, wrt)
	switch c.name {
	case "exp":
		return x.exp()
	case "log":
		return x.log()
	case "sqrt":
		return x.sqrt()
	case "abs":
		return x.abs()
	default: // "pow"
		return x.pow(c.args[1].eval(p, wrt))
	}
}

// equationArity is the number of arguments of each function
// available in rate equations.
var equationArity = map[string]int{
	"exp":  1,
	"log":  1,
	"sqrt": 1,
	"abs":  1,
	"pow":  2,
}

// equationFunctions registers the rate-equation functions with the
// expression lexer. Evaluation goes through the parsed tree.
var equationFunctions = func() map[string]govaluate.ExpressionFunction {
	m := make(map[string]govaluate.ExpressionFunction, len(equationArity))
	for name := range equationArity {
		name := name
		m[name] = func(args ...interface{}) (interface{}, error) {
			return nil, fmt.Errorf("plasmakin: function %s is evaluated by the rate equation tree", name)
		}
	}
	return m
}()

// callName matches a function name followed by its opening parenthesis.
var callName = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// equationParser builds a node tree from the lexer tokens of a rate
// equation. Identifiers found in constants become numbers.
type equationParser struct {
	tokens    []govaluate.ExpressionToken
	pos       int
	funcs     []string
	constants map[string]float64

	// fields are the field identifiers, in order of appearance.
	fields []string
}

// parseEquation lexes src with govaluate and parses the tokens into a
// tree. It also returns the field identifiers the tree reads.
func parseEquation(src string, constants map[string]float64) (node, []string, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(src, equationFunctions)
	if err != nil {
		return nil, nil, err
	}
	// FUNCTION tokens carry the function value, not its name; the
	// names are recovered from the source in order of appearance.
	var funcs []string
	for _, m := range callName.FindAllStringSubmatch(src, -1) {
		if _, ok := equationArity[m[1]]; ok {
			funcs = append(funcs, m[1])
		}
	}
	ep := &equationParser{tokens: expr.Tokens(), funcs: funcs, constants: constants}
	n, err := ep.sum()
	if err != nil {
		return nil, nil, err
	}
	if ep.pos != len(ep.tokens) {
		return nil, nil, fmt.Errorf("unexpected token %v", ep.tokens[ep.pos].Value)
	}
	return n, ep.fields, nil
}

func (ep *equationParser) peek() (govaluate.ExpressionToken, bool) {
	if ep.pos >= len(ep.tokens) {
		return govaluate.ExpressionToken{}, false
	}
	return ep.tokens[ep.pos], true
}

// modifier reports whether the next token is one of the operators ops.
func (ep *equationParser) modifier(ops ...string) (string, bool) {
	t, ok := ep.peek()
	if !ok || t.Kind != govaluate.MODIFIER {
		return "", false
	}
	s := t.Value.(string)
	for _, op := range ops {
		if s == op {
			return s, true
		}
	}
	return "", false
}

func (ep *equationParser) sum() (node, error) {
	l, err := ep.product()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ep.modifier("+", "-")
		if !ok {
			return l, nil
		}
		ep.pos++
		r, err := ep.product()
		if err != nil {
			return nil, err
		}
		l = binaryNode{op: op, l: l, r: r}
	}
}

func (ep *equationParser) product() (node, error) {
	l, err := ep.unary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ep.modifier("*", "/")
		if !ok {
			return l, nil
		}
		ep.pos++
		r, err := ep.unary()
		if err != nil {
			return nil, err
		}
		l = binaryNode{op: op, l: l, r: r}
	}
}

func (ep *equationParser) unary() (node, error) {
	if t, ok := ep.peek(); ok && t.Kind == govaluate.PREFIX {
		if t.Value.(string) != "-" {
			return nil, fmt.Errorf("unsupported operator %v", t.Value)
		}
		ep.pos++
		x, err := ep.unary()
		if err != nil {
			return nil, err
		}
		return negNode{x}, nil
	}
	return ep.power()
}

// power is right associative: a**b**c is a**(b**c).
func (ep *equationParser) power() (node, error) {
	base, err := ep.primary()
	if err != nil {
		return nil, err
	}
	if _, ok := ep.modifier("**"); !ok {
		if t, ok := ep.peek(); ok && t.Kind == govaluate.MODIFIER {
			if _, ok := ep.modifier("+", "-", "*", "/"); !ok {
				return nil, fmt.Errorf("unsupported operator %v", t.Value)
			}
		}
		return base, nil
	}
	ep.pos++
	exp, err := ep.unary()
	if err != nil {
		return nil, err
	}
	return binaryNode{op: "**", l: base, r: exp}, nil
}

func (ep *equationParser) primary() (node, error) {
	t, ok := ep.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	ep.pos++
	switch t.Kind {
	case govaluate.NUMERIC:
		return numberNode(t.Value.(float64)), nil
	case govaluate.VARIABLE:
		name := t.Value.(string)
		if c, ok := ep.constants[name]; ok {
			return numberNode(c), nil
		}
		ep.fields = appendUnique(ep.fields, name)
		return fieldNode(name), nil
	case govaluate.CLAUSE:
		n, err := ep.sum()
		if err != nil {
			return nil, err
		}
		if err := ep.closeClause(); err != nil {
			return nil, err
		}
		return n, nil
	case govaluate.FUNCTION:
		if len(ep.funcs) == 0 {
			return nil, fmt.Errorf("unknown function")
		}
		name := ep.funcs[0]
		ep.funcs = ep.funcs[1:]
		return ep.call(name)
	}
	return nil, fmt.Errorf("unsupported token %v", t.Value)
}

func (ep *equationParser) closeClause() error {
	t, ok := ep.peek()
	if !ok || t.Kind != govaluate.CLAUSE_CLOSE {
		return fmt.Errorf("missing ')'")
	}
	ep.pos++
	return nil
}

func (ep *equationParser) call(name string) (node, error) {
	if t, ok := ep.peek(); !ok || t.Kind != govaluate.CLAUSE {
		return nil, fmt.Errorf("missing '(' after %s", name)
	}
	ep.pos++
	c := callNode{name: name}
	for {
		arg, err := ep.sum()
		if err != nil {
			return nil, err
		}
		c.args = append(c.args, arg)
		if t, ok := ep.peek(); ok && t.Kind == govaluate.SEPARATOR {
			ep.pos++
			continue
		}
		break
	}
	if err := ep.closeClause(); err != nil {
		return nil, err
	}
	if len(c.args) != equationArity[name] {
		return nil, fmt.Errorf("got %d arguments for function '%s', but needs %d", len(c.args), name, equationArity[name])
	}
	return c, nil
}
