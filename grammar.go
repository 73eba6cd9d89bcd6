package peg

import "strings"

// Grammar is a named collection of rules built from a textual PEG
// description, the "grammar construction" component supplementing
// the core recovery algorithm: grammars are still ordinary
// Matcher trees, so nothing downstream needs to know a rule was ever
// spelled out as text rather than assembled with the New* constructors
// directly.
type Grammar struct {
	rules []ruleDef
	byName map[string]Matcher
	start  string
}

type ruleDef struct {
	name string
	body Matcher
}

// Rule looks up a named rule's matcher, or nil if undefined.
func (g *Grammar) Rule(name string) Matcher { return g.byName[name] }

// Start returns the matcher for the grammar's first definition, the
// conventional entry point.
func (g *Grammar) Start() Matcher { return g.byName[g.start] }

// StartName returns the name of the grammar's first definition.
func (g *Grammar) StartName() string { return g.start }

// RuleRefMatcher stands in for a named rule until Grammar finishes
// parsing every definition, resolving the reference by name at match
// time rather than by pointer, since PEG rules may be mutually or
// directly self-recursive.
//
// The five recovery visitors treat a RuleRefMatcher as an opaque
// terminal (their type switches have no case for it), which is a
// deliberate scope boundary: those visitors are specified over the
// matcher variants the recovery core works over, and rule
// references are a construction-layer convenience layered on top.
// GetStarterChar/IsStarterChar/CollectResyncActions consequently can't
// see through a named rule the way they see through an inline
// Sequence; a grammar wanting sharp resync behaviour around a
// recursive rule should inline it instead of naming it.
type RuleRefMatcher struct {
	baseMatcher
	name    string
	grammar *Grammar
}

func (m *RuleRefMatcher) Match(ctx *MatcherContext) bool {
	target := m.grammar.byName[m.name]
	if target == nil {
		panic(NewInvalidGrammarError("undefined rule: " + m.name))
	}
	sub := ctx.SubContext(target)
	if !ctx.handler().Match(sub) {
		return false
	}
	ctx.SetCurrentIndex(sub.CurrentIndex)
	return true
}

// ParseGrammar reads a PEG grammar description and builds a Grammar
// whose rules are ready to run through a RecoveringRunner. It accepts
// either arrow spelling for a definition, `<-` or `:=`, since both
// appear in grammar descriptions in the wild.
func ParseGrammar(src string) (*Grammar, error) {
	p := &grammarParser{cursor: newTextCursor(src), g: &Grammar{byName: map[string]Matcher{}}}
	if err := p.parseGrammar(); err != nil {
		return nil, err
	}
	return p.g, nil
}

type grammarParser struct {
	cursor *textCursor
	g      *Grammar
}

// GR: Grammar <- Spacing Definition+ EndOfFile
func (p *grammarParser) parseGrammar() error {
	p.parseSpacing()
	defs, err := oneOrMore(p.cursor, p.parseDefinition)
	if err != nil {
		return err
	}
	if err := lookaheadNot(p.cursor, func() (rune, error) { return p.cursor.Any() }); err != nil {
		return p.cursor.NewError("trailing content after last definition")
	}
	for _, d := range defs {
		if _, exists := p.g.byName[d.name]; exists {
			return &InvalidGrammarError{Message: "duplicate rule: " + d.name}
		}
		p.g.rules = append(p.g.rules, d)
		p.g.byName[d.name] = d.body
	}
	p.g.start = defs[0].name
	return nil
}

// GR: Definition <- Identifier LEFTARROW Expression
func (p *grammarParser) parseDefinition() (ruleDef, error) {
	name, err := p.parseIdentifier()
	if err != nil {
		return ruleDef{}, err
	}
	if err := p.parseLeftArrow(); err != nil {
		return ruleDef{}, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return ruleDef{}, err
	}
	return ruleDef{name: name, body: body}, nil
}

// GR: Expression <- Sequence (SLASH Sequence)*
func (p *grammarParser) parseExpression() (Matcher, error) {
	head, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	tail := zeroOrMore(p.cursor, func() (Matcher, error) {
		if err := p.expectSpaced('/'); err != nil {
			return nil, err
		}
		return p.parseSequence()
	})
	if len(tail) == 0 {
		return head, nil
	}
	return NewFirstOf(append([]Matcher{head}, tail...)...), nil
}

// GR: Sequence <- Prefix*
func (p *grammarParser) parseSequence() (Matcher, error) {
	items := zeroOrMore(p.cursor, p.parsePrefix)
	switch len(items) {
	case 0:
		return NewEmpty(), nil
	case 1:
		return items[0], nil
	default:
		return NewSequence(items...), nil
	}
}

// GR: Prefix <- (AND / NOT)? Suffix
func (p *grammarParser) parsePrefix() (Matcher, error) {
	pos := p.cursor.Location()
	if err := p.expectSpaced('&'); err == nil {
		body, err := p.parseSuffix()
		if err != nil {
			return nil, err
		}
		return NewTest(body), nil
	}
	p.cursor.Backtrack(pos)
	if err := p.expectSpaced('!'); err == nil {
		body, err := p.parseSuffix()
		if err != nil {
			return nil, err
		}
		return NewTestNot(body), nil
	}
	p.cursor.Backtrack(pos)
	return p.parseSuffix()
}

// GR: Suffix <- Primary (QUESTION / STAR / PLUS)?
func (p *grammarParser) parseSuffix() (Matcher, error) {
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	switch {
	case p.expectSpaced('?') == nil:
		return NewOptional(primary), nil
	case p.expectSpaced('*') == nil:
		return NewZeroOrMore(primary), nil
	case p.expectSpaced('+') == nil:
		return NewOneOrMore(primary), nil
	default:
		return primary, nil
	}
}

// GR: Primary <- Identifier !LEFTARROW / OPEN Expression CLOSE / Literal / Class / DOT
func (p *grammarParser) parsePrimary() (Matcher, error) {
	pos := p.cursor.Location()

	if name, err := p.parseIdentifier(); err == nil {
		checkArrow := p.cursor.Location()
		arrowErr := p.parseLeftArrow()
		p.cursor.Backtrack(checkArrow)
		if arrowErr != nil {
			return &RuleRefMatcher{baseMatcher: baseMatcher{label: "Ref(" + name + ")"}, name: name, grammar: p.g}, nil
		}
	}
	p.cursor.Backtrack(pos)

	if err := p.expectSpaced('('); err == nil {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectSpaced(')'); err != nil {
			return nil, err
		}
		return expr, nil
	}
	p.cursor.Backtrack(pos)

	if m, err := p.parseLiteral(); err == nil {
		return m, nil
	}
	p.cursor.Backtrack(pos)

	if m, err := p.parseClass(); err == nil {
		return m, nil
	}
	p.cursor.Backtrack(pos)

	if err := p.expectSpaced('.'); err == nil {
		return NewAny(), nil
	}
	p.cursor.Backtrack(pos)

	return nil, p.cursor.NewError("expected identifier, group, literal, class or '.'")
}

func (p *grammarParser) parseIdentifier() (string, error) {
	var sb strings.Builder
	c := p.cursor.Peek()
	if !isIdentStart(c) {
		return "", p.cursor.NewError("expected identifier")
	}
	r, _ := p.cursor.Any()
	sb.WriteRune(r)
	for isIdentCont(p.cursor.Peek()) {
		r, _ := p.cursor.Any()
		sb.WriteRune(r)
	}
	p.parseSpacing()
	return sb.String(), nil
}

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c rune) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// GR: Literal <- ['] (!['] Char)* ['] Spacing / ["] (!["] Char)* ["] Spacing
func (p *grammarParser) parseLiteral() (Matcher, error) {
	for _, quote := range []rune{'\'', '"'} {
		pos := p.cursor.Location()
		if _, err := p.cursor.ExpectRune(quote); err != nil {
			p.cursor.Backtrack(pos)
			continue
		}
		var runes []rune
		for p.cursor.Peek() != quote && p.cursor.Peek() != runeEOF {
			c, err := p.parseLiteralChar()
			if err != nil {
				return nil, err
			}
			runes = append(runes, c)
		}
		if _, err := p.cursor.ExpectRune(quote); err != nil {
			p.cursor.Backtrack(pos)
			continue
		}
		p.parseSpacing()
		switch len(runes) {
		case 0:
			return NewEmpty(), nil
		case 1:
			return NewChar(runes[0]), nil
		default:
			return NewString(string(runes)), nil
		}
	}
	return nil, p.cursor.NewError("expected string literal")
}

// GR: Class <- '[' (!']' Range)* ']' Spacing
func (p *grammarParser) parseClass() (Matcher, error) {
	pos := p.cursor.Location()
	if _, err := p.cursor.ExpectRune('['); err != nil {
		return nil, err
	}
	var singles []rune
	var ranges []*CharRangeMatcher
	for p.cursor.Peek() != ']' && p.cursor.Peek() != runeEOF {
		lo, err := p.parseLiteralChar()
		if err != nil {
			p.cursor.Backtrack(pos)
			return nil, err
		}
		if p.cursor.Peek() == '-' {
			dashPos := p.cursor.Location()
			p.cursor.Any()
			if p.cursor.Peek() == ']' {
				p.cursor.Backtrack(dashPos)
				singles = append(singles, lo)
				continue
			}
			hi, err := p.parseLiteralChar()
			if err != nil {
				p.cursor.Backtrack(pos)
				return nil, err
			}
			ranges = append(ranges, NewCharRange(lo, hi))
			continue
		}
		singles = append(singles, lo)
	}
	if _, err := p.cursor.ExpectRune(']'); err != nil {
		p.cursor.Backtrack(pos)
		return nil, err
	}
	p.parseSpacing()

	var alts []Matcher
	if len(singles) > 0 {
		alts = append(alts, NewAnyOf(singles...))
	}
	for _, r := range ranges {
		alts = append(alts, r)
	}
	switch len(alts) {
	case 0:
		return NewNothing(), nil
	case 1:
		return alts[0], nil
	default:
		return NewFirstOf(alts...), nil
	}
}

// GR: Char <- '\\' . / !'\\' .
// \n, \r and \t are control characters; any other escaped character
// stands for itself.
func (p *grammarParser) parseLiteralChar() (rune, error) {
	if p.cursor.Peek() == '\\' {
		p.cursor.Any()
		c, err := p.cursor.Any()
		if err != nil {
			return 0, err
		}
		switch c {
		case 'n':
			return '\n', nil
		case 'r':
			return '\r', nil
		case 't':
			return '\t', nil
		default:
			return c, nil
		}
	}
	return p.cursor.Any()
}

// LEFTARROW <- ('<-' / ':=') Spacing
func (p *grammarParser) parseLeftArrow() error {
	pos := p.cursor.Location()
	if _, err := p.cursor.ExpectRune('<'); err == nil {
		if _, err := p.cursor.ExpectRune('-'); err == nil {
			p.parseSpacing()
			return nil
		}
	}
	p.cursor.Backtrack(pos)
	if _, err := p.cursor.ExpectRune(':'); err == nil {
		if _, err := p.cursor.ExpectRune('='); err == nil {
			p.parseSpacing()
			return nil
		}
	}
	p.cursor.Backtrack(pos)
	return p.cursor.NewError("expected '<-' or ':='")
}

func (p *grammarParser) expectSpaced(c rune) error {
	if _, err := p.cursor.ExpectRune(c); err != nil {
		return err
	}
	p.parseSpacing()
	return nil
}

// Spacing <- (Space / Comment)*
func (p *grammarParser) parseSpacing() {
	for {
		switch p.cursor.Peek() {
		case ' ', '\t', '\n', '\r':
			p.cursor.Any()
		case '#':
			for p.cursor.Peek() != '\n' && p.cursor.Peek() != runeEOF {
				p.cursor.Any()
			}
		default:
			return
		}
	}
}
