package peg

// Listener is the synchronous observer contract the runner dispatches
// parse lifecycle events to via RegisterListener. Tracing, JSON
// export, and similar collaborators are external to this
// core; it only guarantees the dispatch points and the rethrow
// semantics below, not any particular listener implementation.
type Listener interface {
	PreParse(buffer InputBuffer)
	PreMatch(ctx *MatcherContext)
	MatchSuccess(ctx *MatcherContext)
	MatchFailure(ctx *MatcherContext)
	PostParse(result *ParseResult)
}

// listenerSet dispatches to a fixed list of Listeners in registration
// order. A panic raised by a listener is captured rather than left to
// unwind through the matcher engine, and rethrown as a *ListenerError
// at the next synchronous boundary so the failure is attributable to
// the phase it actually happened in.
type listenerSet struct {
	listeners []Listener
	pending   *ListenerError
}

func newListenerSet() *listenerSet { return &listenerSet{} }

func (s *listenerSet) register(l Listener) { s.listeners = append(s.listeners, l) }

func (s *listenerSet) hasListeners() bool { return len(s.listeners) > 0 }

func (s *listenerSet) capture(phase string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = NewInvariantViolation("listener panic: " + formatRecovered(r))
			}
			if s.pending == nil {
				s.pending = &ListenerError{Phase: phase, Cause: err}
			}
		}
	}()
	fn()
}

func (s *listenerSet) preParse(buffer InputBuffer) {
	s.capture("pre-parse", func() {
		for _, l := range s.listeners {
			l.PreParse(buffer)
		}
	})
}

func (s *listenerSet) preMatch(ctx *MatcherContext) {
	s.capture("pre-match", func() {
		for _, l := range s.listeners {
			l.PreMatch(ctx)
		}
	})
}

func (s *listenerSet) matchSuccess(ctx *MatcherContext) {
	s.capture("post-match", func() {
		for _, l := range s.listeners {
			l.MatchSuccess(ctx)
		}
	})
}

func (s *listenerSet) matchFailure(ctx *MatcherContext) {
	s.capture("post-match", func() {
		for _, l := range s.listeners {
			l.MatchFailure(ctx)
		}
	})
}

func (s *listenerSet) postParse(result *ParseResult) {
	s.capture("post-parse", func() {
		for _, l := range s.listeners {
			l.PostParse(result)
		}
	})
}

// takeError returns and clears any ListenerError captured since the
// last call, the "rethrow at the next synchronous boundary" step the
// runner performs after preParse and postParse, and listenerHandler
// performs after every matcher activation (covering preMatch/
// matchSuccess/matchFailure).
func (s *listenerSet) takeError() *ListenerError {
	err := s.pending
	s.pending = nil
	return err
}

// listenerHandler decorates another MatchHandler with PreMatch /
// MatchSuccess / MatchFailure dispatch around every matcher
// activation, keeping the listener contract entirely out of the
// handlers in handler.go and runner.go.
type listenerHandler struct {
	inner     MatchHandler
	listeners *listenerSet
}

func (h *listenerHandler) Match(ctx *MatcherContext) bool {
	h.listeners.preMatch(ctx)
	matched := h.inner.Match(ctx)
	if matched {
		h.listeners.matchSuccess(ctx)
	} else {
		h.listeners.matchFailure(ctx)
	}
	// post-match is a synchronous boundary: rethrow what was captured;
	// RunBuffer's recover turns it into the returned error.
	if lerr := h.listeners.takeError(); lerr != nil {
		panic(lerr)
	}
	return matched
}

func formatRecovered(r any) string {
	if s, ok := r.(string); ok {
		return s
	}
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return "non-error panic value"
}
