package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"contexto/internal/types"
)

// DefaultOracleTimeout bounds every call to the ranking service.
const DefaultOracleTimeout = 2 * time.Second

// RankOracle scores a candidate against the target. Rank 1 is an exact
// match; types.RankNotFound means the candidate is not a known word.
type RankOracle interface {
	Rank(ctx context.Context, target, candidate string) (int, error)
}

// TargetSelector picks the hidden word for a new session.
type TargetSelector interface {
	PickTarget(ctx context.Context) (string, error)
}

// Hinter suggests a word closer to the target than the player has found.
type Hinter interface {
	Hint(ctx context.Context, target string, guessed []types.GuessedWord) (types.Hint, error)
}

// Logger is the subset of *log.Logger the game packages write to.
type Logger interface {
	Printf(format string, v ...any)
}

func defaultLogger() Logger {
	return log.Default()
}

type requestIDKey struct{}

// WithRequestID attaches a request id that engine log lines will carry.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored by WithRequestID, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// GuessResult is what a guess produced. Unknown words and repeats are
// ordinary results, not errors.
type GuessResult struct {
	Word       string
	Rank       int
	Win        bool
	Repeat     bool
	Unknown    bool
	GameOver   bool
	TargetWord string
	Guesses    []types.GuessedWord
}

// Option configures an Engine.
type Option func(*Engine)

// WithHinter enables hints. Without one, Hint returns an empty hint.
func WithHinter(h Hinter) Option {
	return func(e *Engine) { e.hinter = h }
}

// WithOracleTimeout overrides DefaultOracleTimeout.
func WithOracleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger routes engine log lines to l.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine owns the session lifecycle. Mutations are serialized per session id;
// different sessions never contend.
type Engine struct {
	repo     Repository
	oracle   RankOracle
	selector TargetSelector
	hinter   Hinter
	locks    *sessionLocks
	timeout  time.Duration
	logger   Logger
	now      func() time.Time
}

// NewEngine builds an engine over the given repository and oracle.
func NewEngine(repo Repository, oracle RankOracle, selector TargetSelector, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		oracle:   oracle,
		selector: selector,
		locks:    newSessionLocks(),
		timeout:  DefaultOracleTimeout,
		logger:   defaultLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewGame starts a fresh session. If previousID names an existing session it
// is superseded; its id is never reused.
func (e *Engine) NewGame(ctx context.Context, previousID string) (*types.Session, error) {
	target, err := callWithTimeout(ctx, e.timeout, e.selector.PickTarget)
	if err != nil {
		e.logf(ctx, "WARN", "Failed to pick target word: %v", err)
		return nil, err
	}
	target = NormalizeWord(target)
	if target == "" {
		return nil, fmt.Errorf("%w: empty target word", ErrOracleUnavailable)
	}

	now := e.now()
	s := &types.Session{
		ID:         uuid.NewString(),
		TargetWord: target,
		Guesses:    []types.GuessedWord{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if previousID != "" {
		unlock := e.locks.lock(previousID)
		defer unlock()
	}
	if err := e.repo.Replace(ctx, previousID, s); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	e.logf(ctx, "INFO", "New game created for session %s (replaces %q)", s.ID, previousID)
	return s.Clone(), nil
}

// Guess ranks word against the session target. A word already guessed
// returns its stored rank without contacting the oracle.
func (e *Engine) Guess(ctx context.Context, sessionID, word string) (GuessResult, error) {
	if sessionID == "" {
		return GuessResult{}, ErrMissingSession
	}
	word = NormalizeWord(word)
	if word == "" {
		return GuessResult{}, ErrEmptyWord
	}

	unlock := e.locks.lock(sessionID)
	defer unlock()

	s, err := e.repo.Get(ctx, sessionID)
	if err != nil {
		return GuessResult{}, err
	}
	if s.GameOver {
		e.logf(ctx, "WARN", "Session %s attempted guess on completed game", sessionID)
		return GuessResult{}, ErrGameOver
	}

	if prev, ok := s.Find(word); ok {
		e.logf(ctx, "INFO", "Session %s repeated guess %q (rank %d)", sessionID, word, prev.Rank)
		return resultFor(s, word, prev.Rank, true, false), nil
	}

	rank, err := callWithTimeout(ctx, e.timeout, func(ctx context.Context) (int, error) {
		return e.oracle.Rank(ctx, s.TargetWord, word)
	})
	if err != nil {
		e.logf(ctx, "WARN", "Ranking %q for session %s failed: %v", word, sessionID, err)
		return GuessResult{}, err
	}
	if rank < 1 {
		e.logf(ctx, "INFO", "Session %s guessed unknown word %q", sessionID, word)
		return resultFor(s, word, types.RankNotFound, false, true), nil
	}

	guess := types.GuessedWord{ID: uuid.NewString(), Text: word, Rank: rank}
	s.Guesses = append(s.Guesses, guess)
	types.SortGuesses(s.Guesses)
	if rank == 1 {
		s.GameOver = true
		e.logf(ctx, "INFO", "Player won session %s! Target word was: %s", sessionID, s.TargetWord)
	}
	s.UpdatedAt = e.now()

	if err := e.repo.Put(ctx, s); err != nil {
		return GuessResult{}, fmt.Errorf("store session: %w", err)
	}
	e.logf(ctx, "INFO", "Session %s guessed %q, rank %d (%d guesses)", sessionID, word, rank, len(s.Guesses))

	res := resultFor(s, word, rank, false, false)
	res.Guesses = lo.Map(res.Guesses, func(g types.GuessedWord, _ int) types.GuessedWord {
		g.IsNewest = g.ID == guess.ID
		return g
	})
	return res, nil
}

// GiveUp ends the game and reveals the target. Calling it on a finished game
// returns the session unchanged.
func (e *Engine) GiveUp(ctx context.Context, sessionID string) (*types.Session, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	unlock := e.locks.lock(sessionID)
	defer unlock()

	s, err := e.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.GameOver {
		return s, nil
	}

	s.GameOver = true
	s.UserGaveUp = true
	s.UpdatedAt = e.now()
	if err := e.repo.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	e.logf(ctx, "INFO", "Player gave up. Session: %s, target word: %s", sessionID, s.TargetWord)
	return s.Clone(), nil
}

// Hint suggests a word without touching the session. Finished games and
// engines without a hinter get an empty hint.
func (e *Engine) Hint(ctx context.Context, sessionID string) (types.Hint, error) {
	s, err := e.State(ctx, sessionID)
	if err != nil {
		return types.Hint{}, err
	}
	if e.hinter == nil || s.GameOver {
		return types.Hint{}, nil
	}
	return callWithTimeout(ctx, e.timeout, func(ctx context.Context) (types.Hint, error) {
		return e.hinter.Hint(ctx, s.TargetWord, s.Guesses)
	})
}

// State returns a snapshot of the session. The caller owns the copy.
func (e *Engine) State(ctx context.Context, sessionID string) (*types.Session, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	return e.repo.Get(ctx, sessionID)
}

func resultFor(s *types.Session, word string, rank int, repeat, unknown bool) GuessResult {
	return GuessResult{
		Word:       word,
		Rank:       rank,
		Win:        rank == 1,
		Repeat:     repeat,
		Unknown:    unknown,
		GameOver:   s.GameOver,
		TargetWord: s.RevealedTarget(),
		Guesses:    s.Clone().Guesses,
	}
}

// callWithTimeout runs fn bounded by d. An fn that ignores its context is
// abandoned when the deadline passes, so callers never hang on it.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	var zero T
	select {
	case r := <-ch:
		if r.err != nil {
			if ctx.Err() != nil {
				return zero, fmt.Errorf("%w: %v", ErrOracleTimeout, r.err)
			}
			return zero, fmt.Errorf("%w: %v", ErrOracleUnavailable, r.err)
		}
		return r.v, nil
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %v", ErrOracleTimeout, ctx.Err())
	}
}

func (e *Engine) logf(ctx context.Context, level, format string, v ...any) {
	if reqID := RequestID(ctx); reqID != "" {
		e.logger.Printf("[%s] [request_id=%s] "+format, append([]any{level, reqID}, v...)...)
		return
	}
	e.logger.Printf("[%s] "+format, append([]any{level}, v...)...)
}
