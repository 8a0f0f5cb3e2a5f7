package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrValidation reports a joint-action element outside the legal action set
// or text that does not follow the joint-action grammar.
var ErrValidation = errors.New("invalid joint action")

// ValidationError carries the offending input and element position.
type ValidationError struct {
	Input   string
	Element int
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Element >= 0 {
		return fmt.Sprintf("%s: element %d of %q: %s", ErrValidation, e.Element, e.Input, e.Reason)
	}
	return fmt.Sprintf("%s: %q: %s", ErrValidation, e.Input, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Parser decodes persisted joint actions. The grammar accepts JSON arrays and
// bracketed literals of the same shape:
//
//	joint := open elem ',' elem close
//	elem  := open int ',' int close | string
//	open  := '[' | '('    close := ']' | ')'
//
// Strings may be single or double quoted, and the whole value may itself be a
// JSON string wrapping this text. Pairs normalize to direction tuples; strings
// are lowercased and resolved through Aliases.
type Parser struct {
	Aliases map[string]Action
}

var defaultParser = NewParser()

// NewParser returns a parser over the default alias table.
func NewParser() *Parser {
	return &Parser{Aliases: DefaultAliases()}
}

// ParseJoint parses text with the default alias table.
func ParseJoint(text string) (Joint, error) {
	return defaultParser.ParseJoint(text)
}

func (p *Parser) ParseJoint(text string) (Joint, error) {
	input := strings.TrimSpace(text)
	if unwrapped, ok := unwrapJSONString(input); ok {
		input = unwrapped
	}

	root, err := parseValue(input)
	if err != nil {
		return Joint{}, &ValidationError{Input: text, Element: -1, Reason: err.Error()}
	}
	if !root.isList() || len(root.list) != 2 {
		return Joint{}, &ValidationError{Input: text, Element: -1, Reason: "expected a pair of actions"}
	}

	var joint Joint
	for i, elem := range root.list {
		act, reason := p.resolve(elem)
		if reason != "" {
			return Joint{}, &ValidationError{Input: text, Element: i, Reason: reason}
		}
		joint[i] = act
	}
	return joint, nil
}

func (p *Parser) parseElement(text string) (Action, error) {
	v, err := parseValue(strings.TrimSpace(text))
	if err != nil {
		return 0, &ValidationError{Input: text, Element: -1, Reason: err.Error()}
	}
	act, reason := p.resolve(v)
	if reason != "" {
		return 0, &ValidationError{Input: text, Element: 0, Reason: reason}
	}
	return act, nil
}

func (p *Parser) resolve(v value) (Action, string) {
	switch {
	case v.isList():
		if len(v.list) != 2 || !v.list[0].isInt() || !v.list[1].isInt() {
			return 0, "direction must be a pair of integers"
		}
		act, ok := fromDirection(v.list[0].num, v.list[1].num)
		if !ok {
			return 0, fmt.Sprintf("(%d,%d) is not a legal direction", v.list[0].num, v.list[1].num)
		}
		return act, ""
	case v.isString():
		alias := CanonicalAlias(v.str)
		act, ok := p.Aliases[alias]
		if !ok {
			return 0, fmt.Sprintf("%q is not a registered action alias", alias)
		}
		return act, ""
	default:
		return 0, "expected a direction pair or an action alias"
	}
}

func unwrapJSONString(input string) (string, bool) {
	if !strings.HasPrefix(input, `"`) {
		return "", false
	}
	var inner string
	if err := json.Unmarshal([]byte(input), &inner); err != nil {
		return "", false
	}
	trimmed := strings.TrimSpace(inner)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "(") {
		return trimmed, true
	}
	return "", false
}

type valueKind int

const (
	kindInt valueKind = iota + 1
	kindString
	kindList
)

type value struct {
	kind valueKind
	num  int
	str  string
	list []value
}

func (v value) isInt() bool    { return v.kind == kindInt }
func (v value) isString() bool { return v.kind == kindString }
func (v value) isList() bool   { return v.kind == kindList }

// maxDepth is the deepest legal nesting: a joint holding direction pairs.
const maxDepth = 2

type scanner struct {
	src   []rune
	pos   int
	depth int
}

func parseValue(input string) (value, error) {
	s := &scanner{src: []rune(input)}
	v, err := s.value()
	if err != nil {
		return value{}, err
	}
	s.skipSpace()
	if s.pos != len(s.src) {
		return value{}, fmt.Errorf("unexpected trailing input at offset %d", s.pos)
	}
	return v, nil
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && strings.ContainsRune(" \t\r\n", s.src[s.pos]) {
		s.pos++
	}
}

func (s *scanner) value() (value, error) {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return value{}, errors.New("unexpected end of input")
	}
	switch c := s.src[s.pos]; {
	case c == '[' || c == '(':
		return s.sequence()
	case c == '"' || c == '\'':
		return s.quoted()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return s.integer()
	default:
		return value{}, fmt.Errorf("unexpected %q at offset %d", c, s.pos)
	}
}

func (s *scanner) sequence() (value, error) {
	open := s.src[s.pos]
	closing := ']'
	if open == '(' {
		closing = ')'
	}
	if s.depth == maxDepth {
		return value{}, fmt.Errorf("nesting deeper than %d at offset %d", maxDepth, s.pos)
	}
	s.depth++
	defer func() { s.depth-- }()
	s.pos++

	out := value{kind: kindList}
	for {
		s.skipSpace()
		if s.pos >= len(s.src) {
			return value{}, fmt.Errorf("unterminated %q", open)
		}
		if s.src[s.pos] == closing {
			s.pos++
			return out, nil
		}
		if len(out.list) > 0 {
			if s.src[s.pos] != ',' {
				return value{}, fmt.Errorf("expected ',' at offset %d", s.pos)
			}
			s.pos++
			s.skipSpace()
			// a trailing comma is legal in tuple literals
			if s.pos < len(s.src) && s.src[s.pos] == closing {
				s.pos++
				return out, nil
			}
		}
		elem, err := s.value()
		if err != nil {
			return value{}, err
		}
		out.list = append(out.list, elem)
	}
}

func (s *scanner) quoted() (value, error) {
	quote := s.src[s.pos]
	s.pos++
	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\\' && s.pos+1 < len(s.src):
			b.WriteRune(s.src[s.pos+1])
			s.pos += 2
		case c == quote:
			s.pos++
			return value{kind: kindString, str: b.String()}, nil
		default:
			b.WriteRune(c)
			s.pos++
		}
	}
	return value{}, errors.New("unterminated string")
}

func (s *scanner) integer() (value, error) {
	start := s.pos
	if s.src[s.pos] == '-' || s.src[s.pos] == '+' {
		s.pos++
	}
	for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
		s.pos++
	}
	n, err := strconv.Atoi(string(s.src[start:s.pos]))
	if err != nil {
		return value{}, fmt.Errorf("bad integer at offset %d", start)
	}
	return value{kind: kindInt, num: n}, nil
}
