package datatype

import (
	"fmt"
	"strconv"

	"github.com/INLOpen/mergetree/core"
)

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// Parse parses a type name such as "Array(Nullable(String))".
func Parse(name string) (DataType, error) {
	p := &parser{s: name}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos != len(p.s) {
		return nil, p.errorf("unexpected trailing input %q", p.s[p.pos:])
	}
	return t, nil
}

// MustParse is like Parse but panics on error. For tests and static tables.
func MustParse(name string) DataType {
	t, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	s   string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &core.UnsupportedTypeError{Message: fmt.Sprintf("type %q at %d: %s", p.s, p.pos, fmt.Sprintf(format, args...))}
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) ident() string {
	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '(' || c == ')' || c == ',' || c == ' ' {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *parser) expect(c byte) error {
	p.skipSpaces()
	if p.pos >= len(p.s) || p.s[p.pos] != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *parser) peek(c byte) bool {
	p.skipSpaces()
	return p.pos < len(p.s) && p.s[p.pos] == c
}

func (p *parser) parseType() (DataType, error) {
	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected type name")
	}
	if k, ok := kindsByName[name]; ok {
		return Numeric{Kind: k}, nil
	}

	switch name {
	case "String":
		return String{}, nil
	case "FixedString":
		if err := p.expect('('); err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(p.ident())
		if err != nil || n <= 0 {
			return nil, p.errorf("FixedString length must be a positive integer")
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return FixedString{N: n}, nil
	case "Array", "Nullable":
		if err := p.expect('('); err != nil {
			return nil, err
		}
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		if name == "Array" {
			return Array{Elem: inner}, nil
		}
		switch inner.(type) {
		case Array, Nullable, Tuple:
			return nil, p.errorf("nested type %s cannot be inside Nullable", inner.Name())
		}
		return Nullable{Nested: inner}, nil
	case "Tuple":
		if err := p.expect('('); err != nil {
			return nil, err
		}
		var elems []DataType
		for {
			e, err := p.parseType()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if !p.peek(',') {
				break
			}
			p.pos++
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return Tuple{Elems: elems}, nil
	}
	return nil, p.errorf("unknown type %q", name)
}
