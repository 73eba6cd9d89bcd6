package peg

import "strings"

// ParseGrammarRecovering parses src the way ParseGrammar does, except
// that a malformed rule header (a broken or missing arrow) is repaired
// through the same Matcher/RecoveringRunner stack the core engine uses
// on ordinary input, rather than aborting the whole grammar on the
// first syntax error.
//
// The description is first split into one chunk per rule by a
// lenient, purely lexical scan (splitDefinitions): it only needs to
// find where each rule header starts, not to validate it, so a rule
// whose arrow is missing or garbled still gets its own chunk. Each
// chunk's name and arrow are then recovered by running a small,
// flat grammar - definitionMatcher - through a RecoveringRunner: its
// characters are all single-character matchers, so a wrong or missing
// arrow character is exactly the shape of defect the deletion/
// insertion/replacement repair already handles. The recovered body
// text is compiled the same way ParseGrammar compiles any rule body;
// a body that still doesn't parse falls back to NewNothing with a
// diagnostic instead of discarding the rest of the grammar.
func ParseGrammarRecovering(src string) (*Grammar, []error) {
	chunks := splitDefinitions(src)
	if len(chunks) == 0 {
		return nil, []error{&InvalidGrammarError{Message: "no rule definitions found"}}
	}

	g := &Grammar{byName: map[string]Matcher{}}
	def := definitionMatcher()
	var diagnostics []error

	for _, chunk := range chunks {
		runner := NewRecoveringRunner(def, 0)
		result, err := runner.Run(chunk)
		if err != nil {
			diagnostics = append(diagnostics, err)
			continue
		}
		for _, e := range result.Errors {
			diagnostics = append(diagnostics, e)
		}

		spans, ok := lastDefinitionSpans(result.Stack)
		if !ok || spans.Name == "" {
			diagnostics = append(diagnostics, &InvalidGrammarError{
				Message: "could not recover a rule name from: " + strings.TrimSpace(chunk),
			})
			continue
		}
		if _, exists := g.byName[spans.Name]; exists {
			diagnostics = append(diagnostics, &InvalidGrammarError{Message: "duplicate rule: " + spans.Name})
			continue
		}

		body, err := compileExpression(spans.Body, g)
		if err != nil {
			diagnostics = append(diagnostics, err)
			body = NewNothing()
		}

		g.rules = append(g.rules, ruleDef{name: spans.Name, body: body})
		g.byName[spans.Name] = body
	}

	if len(g.rules) == 0 {
		return nil, append(diagnostics, &InvalidGrammarError{Message: "no rule could be recovered"})
	}
	g.start = g.rules[0].name
	return g, diagnostics
}

// definitionSpans is the raw (name, body) text pair a recovered
// definition chunk yields, before the body is compiled into a real
// Matcher.
type definitionSpans struct {
	Name string
	Body string
}

func (v definitionSpans) String() string { return v.Name + " <- " + v.Body }

func lastDefinitionSpans(stack []Value) (definitionSpans, bool) {
	if len(stack) == 0 {
		return definitionSpans{}, false
	}
	spans, ok := stack[len(stack)-1].(definitionSpans)
	return spans, ok
}

// markerValue records a buffer position for a later Action in the
// same sequence to measure a span from.
type markerValue struct{ index int }

func (v markerValue) String() string { return "@marker" }

// markStart and captureSince together implement span capture as a
// pair of plain ActionMatchers rather than a bespoke matcher kind.
// CollectResyncActions, the visitor that keeps the value stack
// consistent across a resync replay, only knows how to replay
// *ActionMatcher; a new matcher kind that pushed to the stack outside
// of that would be invisible to it.
func markStart() *ActionMatcher {
	return NewAction("mark", func(ctx *MatcherContext) bool {
		ctx.Stack().Push(markerValue{index: ctx.StartIndex})
		return true
	})
}

func captureSince(label string) *ActionMatcher {
	return NewAction(label, func(ctx *MatcherContext) bool {
		mark := ctx.Stack().Pop().(markerValue)
		ctx.Stack().Push(NewTextValue(ctx.Buffer().Extract(mark.index, ctx.StartIndex)))
		return true
	})
}

// definitionMatcher builds the flat recovering grammar used to pull a
// name and a raw body span out of one rule-definition chunk. It is
// built once and shared across chunks: Match never mutates the tree,
// only the per-run context threaded through it.
//
// Every leaf here is a single-character matcher (Char/CharRange/
// AnyOf), never StringMatcher: only single-character matchers are
// visible to matchSingleChar, the place the repair loop's deletion/
// insertion/replacement trials actually take effect. Building the
// arrow out of two CharMatchers instead of one StringMatcher("<-") is
// what lets a garbled arrow be fixed one character at a time instead
// of only ever being eligible for a resync.
func definitionMatcher() Matcher {
	identStart := NewFirstOf(NewChar('_'), NewCharRange('a', 'z'), NewCharRange('A', 'Z'))
	identCont := NewFirstOf(NewChar('_'), NewCharRange('a', 'z'), NewCharRange('A', 'Z'), NewCharRange('0', '9'))
	identSpan := NewSequence(identStart, NewZeroOrMore(identCont))

	comment := NewSequence(NewChar('#'), NewZeroOrMore(NewSequence(NewTestNot(NewChar('\n')), NewAny())))
	spacing := NewZeroOrMore(NewFirstOf(NewAnyOf(' ', '\t', '\n', '\r'), comment))

	arrow := NewSequence(
		NewFirstOf(
			NewSequence(NewChar('<'), NewChar('-')),
			NewSequence(NewChar(':'), NewChar('=')),
		),
		spacing,
	)

	return NewSequence(
		markStart(),
		identSpan,
		captureSince("name"),
		spacing,
		arrow,
		markStart(),
		NewZeroOrMore(NewAny()),
		captureSince("body"),
		NewAction("definition", func(ctx *MatcherContext) bool {
			body := ctx.Stack().Pop().(TextValue)
			name := ctx.Stack().Pop().(TextValue)
			ctx.Stack().Push(definitionSpans{Name: name.Text, Body: body.Text})
			return true
		}),
	)
}

// compileExpression compiles one rule body into a Matcher using the
// same recursive-descent expression grammar ParseGrammar uses,
// resolving rule references against g so a recovered rule can still
// refer to (or be referred to by) any other rule in the grammar.
func compileExpression(src string, g *Grammar) (Matcher, error) {
	p := &grammarParser{cursor: newTextCursor(src), g: g}
	p.parseSpacing()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := lookaheadNot(p.cursor, func() (rune, error) { return p.cursor.Any() }); err != nil {
		return nil, p.cursor.NewError("trailing content in rule body")
	}
	return expr, nil
}

// splitDefinitions finds where each rule definition starts by looking
// for an identifier at the start of a line, outside any comment,
// string literal or character class. It deliberately does not check
// what follows the identifier: a rule header with a missing or
// garbled arrow still needs its own chunk, so that definitionMatcher
// gets a chance to recover it instead of the malformed text being
// silently swallowed into the previous rule's body.
func splitDefinitions(src string) []string {
	runes := []rune(src)
	n := len(runes)

	var starts []int
	inSingle, inDouble, inClass, inComment := false, false, false, false
	atLineStart := true

	i := 0
	for i < n {
		c := runes[i]

		if inComment {
			if c == '\n' {
				inComment = false
				atLineStart = true
			}
			i++
			continue
		}
		if inSingle || inDouble || inClass {
			if c == '\\' && i+1 < n {
				i += 2
				continue
			}
			if (inSingle && c == '\'') || (inDouble && c == '"') || (inClass && c == ']') {
				inSingle, inDouble, inClass = false, false, false
			}
			atLineStart = false
			i++
			continue
		}

		switch c {
		case '\n':
			atLineStart = true
			i++
			continue
		case ' ', '\t', '\r':
			i++
			continue
		case '#':
			inComment = true
			atLineStart = false
			i++
			continue
		case '\'':
			inSingle = true
			atLineStart = false
			i++
			continue
		case '"':
			inDouble = true
			atLineStart = false
			i++
			continue
		case '[':
			inClass = true
			atLineStart = false
			i++
			continue
		}

		if atLineStart && isIdentStart(c) {
			starts = append(starts, i)
		}
		atLineStart = false
		i++
	}

	if len(starts) == 0 {
		return nil
	}
	chunks := make([]string, len(starts))
	for idx, start := range starts {
		end := n
		if idx+1 < len(starts) {
			end = starts[idx+1]
		}
		chunks[idx] = string(runes[start:end])
	}
	return chunks
}
