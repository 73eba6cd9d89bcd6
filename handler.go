package peg

// MatchHandler is consulted by the engine at every matcher
// activation instead of calling matcher.Match directly, so recovery
// logic (or listener dispatch) can be spliced in without the matcher
// tree itself knowing recovery exists.
type MatchHandler interface {
	Match(ctx *MatcherContext) bool
}

// BasicHandler forwards every call straight to the matcher, the
// handler the Basic run uses.
type BasicHandler struct{}

func (BasicHandler) Match(ctx *MatcherContext) bool {
	return ctx.Matcher().Match(ctx)
}
