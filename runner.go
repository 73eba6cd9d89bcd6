package peg

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// rank orders locating-run results for the "which fix progressed
// furthest" comparison: -1 (fully resolved) must outrank every real
// index, not lose to one under plain numeric comparison.
func rank(nextErrorIndex int) int {
	if nextErrorIndex == -1 {
		return math.MaxInt
	}
	return nextErrorIndex
}

// runMode selects which bookkeeping the recovery handler performs.
// The locating, reporting and final runs share the single
// sentinel-interpretation algorithm: they differ only in what they
// record, not in how they walk the grammar.
type runMode int

const (
	modeLocating runMode = iota
	modeReporting
	modeFinal
)

// recoveryHandler is the MatchHandler installed for the locating,
// reporting and final runs. It is the one place that interprets
// sentinel runes; the matcher engine itself never sees them.
type recoveryHandler struct {
	mode    runMode
	cache   *StarterCharCache
	log     *logrus.Logger
	runner  *RecoveringRunner

	fringeIndex   int
	lastMatchPath MatcherPath

	locatingErrorIndex int

	reportErrorIndex int
	reportedPaths    []MatcherPath

	// pendingResync is the InvalidInputError the repair loop created
	// for the error currently being resolved by resynchronisation; its
	// EndIndex is filled in the first time the engine walks over the
	// RESYNC marker that stands for it.
	pendingResync *InvalidInputError

	deadline time.Time
	timedOut bool
}

func newRecoveryHandler(mode runMode, r *RecoveringRunner) *recoveryHandler {
	return &recoveryHandler{
		mode:               mode,
		cache:              r.cache,
		log:                r.log,
		runner:             r,
		locatingErrorIndex: -1,
	}
}

// Match dispatches through the installed handler instead of calling
// matcher.Match directly, which is what lets recovery behaviour be
// spliced in without the grammar tree knowing about it.
func (h *recoveryHandler) Match(ctx *MatcherContext) bool {
	m := ctx.Matcher()

	if IsSingleCharMatcher(m) {
		return h.matchSingleChar(ctx, m)
	}

	if m.Match(ctx) {
		return true
	}

	if seq, ok := m.(*SequenceMatcher); ok {
		switch ctx.CurrentChar() {
		case Resync, ResyncStart, ResyncEOI:
			if h.qualifiesForResync(ctx) {
				return h.resync(ctx, seq)
			}
		}
		if !h.deadline.IsZero() && time.Now().After(h.deadline) {
			h.timedOut = true
			panic(&TimeoutError{Rule: h.runner.root, Buffer: ctx.Buffer()})
		}
	}

	h.recordFailure(ctx)
	return false
}

// matchSingleChar handles DEL_ERROR/INS_ERROR markers directly
// ahead of a single-character matcher, plus ordinary-input
// fringe-tracking.
func (h *recoveryHandler) matchSingleChar(ctx *MatcherContext, m Matcher) bool {
	switch ctx.CurrentChar() {
	case DelError:
		start := ctx.CurrentIndex
		ctx.AdvanceIndex(2) // past the marker and the illegal character
		if m.Match(ctx) {
			ctx.MarkError()
			return true
		}
		ctx.SetCurrentIndex(start)
		h.recordFailure(ctx)
		return false

	case InsError:
		start := ctx.CurrentIndex
		ctx.AdvanceIndex(1) // past the marker
		if m.Match(ctx) {
			ctx.MarkError()
			return true
		}
		ctx.SetCurrentIndex(start)
		h.recordFailure(ctx)
		return false

	case Resync, ResyncStart, ResyncEnd, ResyncEOI:
		// Resync markers are only ever resolved by Sequence handling.
		h.recordFailure(ctx)
		return false

	default:
		ok := m.Match(ctx)
		if ok {
			if ctx.CurrentIndex > h.fringeIndex {
				h.fringeIndex = ctx.CurrentIndex
				h.lastMatchPath = ctx.Path()
			}
			return true
		}
		h.recordFailure(ctx)
		return false
	}
}

// recordFailure is the bookkeeping every failed match attempt feeds,
// specialised per run mode.
func (h *recoveryHandler) recordFailure(ctx *MatcherContext) {
	switch h.mode {
	case modeLocating:
		if ctx.StartIndex > h.locatingErrorIndex {
			h.locatingErrorIndex = ctx.StartIndex
		}
	case modeReporting:
		if ctx.StartIndex == h.reportErrorIndex {
			h.reportedPaths = append(h.reportedPaths, ctx.Path())
		}
	}
}

// qualifiesForResync decides whether the outermost failing sequence
// that owns the failure site is the one allowed to resynchronise.
func (h *recoveryHandler) qualifiesForResync(ctx *MatcherContext) bool {
	matchedSomething := ctx.CurrentIndex > ctx.StartIndex && ctx.Path().IsPrefixOf(h.lastMatchPath)
	if matchedSomething {
		return true
	}
	for p := ctx.Parent(); p != nil; p = p.Parent() {
		if _, isSeq := p.Matcher().(*SequenceMatcher); isSeq {
			return false
		}
	}
	return true
}

// resync handles a sequence ctx that failed at a RESYNC* marker and
// qualifies to absorb it.
func (h *recoveryHandler) resync(ctx *MatcherContext, seq *SequenceMatcher) bool {
	ctx.MarkError()
	markerIndex := ctx.CurrentIndex

	// Step 2: replay with error-action mode.
	ctx.SetCurrentIndex(ctx.StartIndex)
	failed := false
	for _, child := range seq.Children() {
		if !failed {
			sub := ctx.SubContext(child)
			if h.Match(sub) {
				ctx.SetCurrentIndex(sub.CurrentIndex)
				continue
			}
			failed = true
			ctx.SetIntTag(1)
			continue
		}
		actions, ok := CollectResyncActions(child, nil)
		if !ok {
			continue
		}
		for _, action := range actions {
			sub := ctx.SubContext(action)
			sub.SetInErrorRecovery(true)
			action.Match(sub)
		}
	}
	ctx.SetCurrentIndex(markerIndex)

	// Step 3: gobble illegal characters.
	buf := ctx.Buffer()
	switch buf.CharAt(markerIndex) {
	case Resync:
		follow := FollowMatchers(ctx)
		pos := markerIndex + 1
		for {
			c := buf.CharAt(pos)
			if c == EOI || startsAnyFollow(follow, c) {
				break
			}
			pos++
		}
		if h.pendingResync != nil {
			h.pendingResync.EndIndex = pos
		}
		mutable := mustMutable(buf)
		mutable.ReplaceInsertedChar(markerIndex, ResyncStart)
		mutable.InsertChar(pos, ResyncEnd)
		ctx.SetCurrentIndex(pos + 1)

	case ResyncStart:
		pos := markerIndex + 1
		for buf.CharAt(pos) != ResyncEnd {
			if buf.CharAt(pos) == EOI {
				panic(NewInvariantViolation("resync: EOI before matching RESYNC_END"))
			}
			pos++
		}
		ctx.SetCurrentIndex(pos + 1)

	case ResyncEOI:
		ctx.SetCurrentIndex(markerIndex + 1)
	}

	return true
}

func startsAnyFollow(follow []Matcher, c rune) bool {
	for _, m := range follow {
		if IsStarterChar(m, c) {
			return true
		}
	}
	return false
}

func mustMutable(buf InputBuffer) *MutableInputBuffer {
	mutable, ok := buf.(*MutableInputBuffer)
	if !ok {
		panic(NewInvariantViolation("resync requires a mutable input buffer"))
	}
	return mutable
}

// RecoveringRunner coordinates the basic / locating / reporting /
// final runs and the deletion / insertion / replacement /
// resynchronisation repair policy.
type RecoveringRunner struct {
	root      Matcher
	timeout   time.Duration
	listeners *listenerSet
	cache     *StarterCharCache
	log       *logrus.Logger
}

// NewRecoveringRunner builds a runner over root. A non-positive
// timeout means no deadline is enforced.
func NewRecoveringRunner(root Matcher, timeout time.Duration) *RecoveringRunner {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &RecoveringRunner{
		root:      root,
		timeout:   timeout,
		listeners: newListenerSet(),
		cache:     NewStarterCharCache(512),
		log:       log,
	}
}

// RegisterListener subscribes l to this runner's lifecycle events.
func (r *RecoveringRunner) RegisterListener(l Listener) { r.listeners.register(l) }

// Run parses input from scratch, wrapping it in a fresh mutable
// buffer.
func (r *RecoveringRunner) Run(input string) (result *ParseResult, err error) {
	return r.RunBuffer(NewMutableInputBuffer(NewCharSequenceBuffer(input)))
}

// RunBuffer parses buf, which must be a *MutableInputBuffer (as built
// by NewMutableInputBuffer) since the repair loop inserts into it; any
// other InputBuffer makes RunBuffer panic with an InvariantViolation.
func (r *RecoveringRunner) RunBuffer(buf InputBuffer) (result *ParseResult, err error) {
	mutable := mustMutable(buf)
	runID := uuid.New()
	logEntry := r.log.WithField("run_id", runID)

	defer func() {
		if rec := recover(); rec != nil {
			switch e := rec.(type) {
			case error:
				err = e
			default:
				err = NewInvariantViolation("panic during parse")
			}
		}
	}()

	r.listeners.preParse(buf)
	if lerr := r.listeners.takeError(); lerr != nil {
		return nil, lerr
	}

	var deadline time.Time
	if r.timeout > 0 {
		deadline = time.Now().Add(r.timeout)
	}

	matched, _, _ := r.runBasic(mutable, logEntry)
	if matched {
		result = r.finalize(runID, mutable, logEntry)
		r.listeners.postParse(result)
		if lerr := r.listeners.takeError(); lerr != nil {
			return nil, lerr
		}
		return result, nil
	}

	errors := r.repairLoop(mutable, deadline, logEntry)

	res := r.finalize(runID, mutable, logEntry)
	res.Errors = errors
	r.listeners.postParse(res)
	if lerr := r.listeners.takeError(); lerr != nil {
		return nil, lerr
	}
	return res, nil
}

// runBasic is the plain, unrecovering run: the default handler
// forwards every call directly, nothing is recovered.
func (r *RecoveringRunner) runBasic(buf InputBuffer, log *logrus.Entry) (bool, *MatcherContext, *ValueStack) {
	stack := NewValueStack()
	ctx := NewRootContext(buf, r.wrapHandler(BasicHandler{}), stack, r.root)
	matched := ctx.RunMatcher()
	log.WithField("matched", matched).Debug("basic run complete")
	return matched, ctx, stack
}

// wrapHandler adds listener dispatch around handler when at least one
// listener is registered, so the common case of no listeners pays no
// defer/recover cost per matcher activation.
func (r *RecoveringRunner) wrapHandler(handler MatchHandler) MatchHandler {
	if !r.listeners.hasListeners() {
		return handler
	}
	return &listenerHandler{inner: handler, listeners: r.listeners}
}

// runLocating finds the rightmost start index at which a match
// attempt failed, returning -1 once the grammar matches cleanly.
func (r *RecoveringRunner) runLocating(buf InputBuffer, deadline time.Time, pendingResync *InvalidInputError) (errorIndex int, timedOut bool) {
	handler := newRecoveryHandler(modeLocating, r)
	handler.deadline = deadline
	handler.pendingResync = pendingResync
	stack := NewValueStack()
	ctx := NewRootContext(buf, r.wrapHandler(handler), stack, r.root)
	if ctx.RunMatcher() {
		return -1, false
	}
	return handler.locatingErrorIndex, handler.timedOut
}

// runReporting replays the grammar once more, collecting every
// matcher path that failed at errorIndex.
func (r *RecoveringRunner) runReporting(buf InputBuffer, errorIndex int) []MatcherPath {
	handler := newRecoveryHandler(modeReporting, r)
	handler.reportErrorIndex = errorIndex
	stack := NewValueStack()
	ctx := NewRootContext(buf, r.wrapHandler(handler), stack, r.root)
	ctx.RunMatcher()
	return handler.reportedPaths
}

// runFinal runs once more after every error has been repaired. The
// invariant is that it must now succeed.
func (r *RecoveringRunner) runFinal(buf InputBuffer) (*MatcherContext, *ValueStack, bool) {
	handler := newRecoveryHandler(modeFinal, r)
	stack := NewValueStack()
	ctx := NewRootContext(buf, r.wrapHandler(handler), stack, r.root)
	matched := ctx.RunMatcher()
	return ctx, stack, matched
}

func (r *RecoveringRunner) finalize(runID uuid.UUID, buf *MutableInputBuffer, log *logrus.Entry) *ParseResult {
	ctx, stack, matched := r.runFinal(buf)
	if !matched {
		panic(NewInvariantViolation("final run did not match after repair"))
	}
	log.Debug("final run matched")
	return &ParseResult{
		RunID:       runID,
		Matched:     true,
		Root:        ctx,
		Stack:       stack.Snapshot(),
		InputLength: buf.origCount,
	}
}

// repairLoop eliminates error_index at the earliest remaining
// failure until locating reports success.
func (r *RecoveringRunner) repairLoop(buf *MutableInputBuffer, deadline time.Time, log *logrus.Entry) []*InvalidInputError {
	var errors []*InvalidInputError

	errorIndex, _ := r.runLocating(buf, deadline, nil)
	for errorIndex != -1 {
		paths := r.runReporting(buf, errorIndex)
		current := &InvalidInputError{
			StartIndex:     errorIndex,
			EndIndex:       errorIndex,
			FailedMatchers: paths,
			Buffer:         buf,
		}
		errors = append(errors, current)
		log.WithField("error_index", errorIndex).Debug("repairing error")

		errorIndex = r.fix(buf, current, errorIndex, deadline, log)
	}
	return errors
}

// fix performs one iteration of the repair loop against the error
// already recorded as current, returning the next error_index to
// resolve (possibly still the same one if the edit changed the
// surrounding text but left a failure, or -1 once the parse is clean).
func (r *RecoveringRunner) fix(buf *MutableInputBuffer, current *InvalidInputError, errorIndex int, deadline time.Time, log *logrus.Entry) int {
	// Step 1: try single-character deletion.
	buf.InsertChar(errorIndex, DelError)
	nextAfterDel, _ := r.runLocating(buf, deadline, nil)
	if nextAfterDel == -1 {
		current.shiftIndexDeltaBy(1)
		return -1
	}
	buf.UndoCharInsertion(errorIndex)

	// Step 2: try best single-character insertion.
	nextAfterIns, bestIns, insOK := r.bestSingleCharFix(buf, current, errorIndex, deadline, false)

	// Step 3: try best single-character replacement.
	nextAfterRep, bestRep, repOK := r.bestSingleCharFix(buf, current, errorIndex, deadline, true)

	// Step 4: choose the best single-character fix. -1 means "fully
	// resolved" and must outrank every real index, so the three
	// candidates are compared by rank rather than raw value.
	best := nextAfterDel
	kind := "delete"
	if insOK && rank(nextAfterIns) > rank(best) {
		best, kind = nextAfterIns, "insert"
	}
	if repOK && rank(nextAfterRep) > rank(best) {
		best, kind = nextAfterRep, "replace"
	}

	if rank(best) > errorIndex {
		switch kind {
		case "delete":
			buf.InsertChar(errorIndex, DelError)
			current.shiftIndexDeltaBy(1)
			return best
		case "insert":
			buf.InsertChar(errorIndex, bestIns)
			buf.InsertChar(errorIndex, InsError)
			current.shiftIndexDeltaBy(2)
			return best
		case "replace":
			buf.InsertChar(errorIndex, bestRep)
			buf.InsertChar(errorIndex, InsError)
			buf.InsertChar(errorIndex, DelError)
			current.shiftIndexDeltaBy(1)
			return best
		}
	}

	// Fall back to resynchronisation.
	if buf.CharAt(errorIndex) == EOI {
		buf.InsertChar(errorIndex, ResyncEOI)
		current.shiftIndexDeltaBy(1)
		return -1
	}
	buf.InsertChar(errorIndex, Resync)
	current.shiftIndexDeltaBy(1)
	next, _ := r.runLocating(buf, deadline, current)
	log.WithField("next_error_index", next).Debug("resynchronised, locating next error")
	return next
}

// bestSingleCharFix tries every starter character drawn from
// current's failed matcher paths at errorIndex (insertion), or at
// errorIndex+2 behind a DEL_ERROR marker (replacement), keeping
// whichever pushes the next failure furthest right.
func (r *RecoveringRunner) bestSingleCharFix(buf *MutableInputBuffer, current *InvalidInputError, errorIndex int, deadline time.Time, replace bool) (nextErrorIndex int, best rune, ok bool) {
	insertAt := errorIndex
	if replace {
		buf.InsertChar(errorIndex, DelError)
		insertAt = errorIndex + 1
	}
	defer func() {
		if replace {
			buf.UndoCharInsertion(errorIndex)
		}
	}()

	nextErrorIndex = -2 // sentinel "nothing tried yet", always beaten by a real index or -1
	for _, path := range current.FailedMatchers {
		c, starterOK := r.cache.GetStarterChar(path.Leaf().Matcher)
		if !starterOK || c == EOI {
			continue
		}
		buf.InsertChar(insertAt, c)
		buf.InsertChar(insertAt, InsError)
		next, _ := r.runLocating(buf, deadline, nil)
		buf.UndoCharInsertion(insertAt)
		buf.UndoCharInsertion(insertAt)

		if next == -1 {
			return -1, c, true
		}
		if !ok || next > nextErrorIndex {
			nextErrorIndex, best, ok = next, c, true
		}
	}
	if !ok {
		nextErrorIndex = errorIndex
	}
	return nextErrorIndex, best, ok
}
