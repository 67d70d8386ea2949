// Package dispatch routes normalized actions from the voice channel to the
// game engine and turns the outcome into a narration event.
package dispatch

import (
	"context"
	"errors"
	"log"

	"contexto/internal/game"
	"contexto/internal/stats"
	"contexto/internal/types"
)

// Engine is the part of game.Engine the dispatcher drives.
type Engine interface {
	NewGame(ctx context.Context, previousID string) (*types.Session, error)
	Guess(ctx context.Context, sessionID, word string) (game.GuessResult, error)
	GiveUp(ctx context.Context, sessionID string) (*types.Session, error)
	Hint(ctx context.Context, sessionID string) (types.Hint, error)
}

// Result is the outcome of one action. Err carries the underlying failure
// for callers that map it to a status code; Feedback is always set.
type Result struct {
	Action    types.Action
	Handled   bool
	SessionID string
	Feedback  types.Feedback
	Session   *types.Session
	Guess     *game.GuessResult
	Hint      *types.Hint
	Err       error
}

// Dispatcher maps intents to engine calls.
type Dispatcher struct {
	engine     Engine
	thresholds stats.Thresholds
	logger     game.Logger
}

// New creates a dispatcher. A nil logger logs to the standard logger.
func New(engine Engine, thresholds stats.Thresholds, logger game.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{engine: engine, thresholds: thresholds, logger: logger}
}

// Dispatch runs a single action for sessionID. It never panics on bad input:
// unknown intents are logged and ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID string, a types.Action) Result {
	res := Result{Action: a, SessionID: sessionID, Handled: true}

	switch a.Type {
	case types.ActionNewGame:
		s, err := d.engine.NewGame(ctx, sessionID)
		if err != nil {
			return d.fail(res, err, stats.MsgNewGameError)
		}
		res.SessionID = s.ID
		res.Session = s
		res.Feedback = types.Feedback{Kind: types.FeedbackInfo, Text: stats.MsgNewGame}

	case types.ActionGuessWord:
		if a.Word == "" {
			d.logger.Printf("[WARN] guess_word action received without a word")
			res.Feedback = types.Feedback{Kind: types.FeedbackError, Text: stats.MsgMissingWord}
			return res
		}
		gr, err := d.engine.Guess(ctx, sessionID, a.Word)
		if err != nil {
			return d.fail(res, err, stats.MsgGuessFailed)
		}
		res.Guess = &gr
		if gr.Unknown {
			res.Feedback = types.Feedback{Kind: types.FeedbackError, Text: stats.MsgUnknownWord}
		} else {
			res.Feedback = stats.GuessFeedback(gr.Rank, d.thresholds)
		}

	case types.ActionGiveUp:
		s, err := d.engine.GiveUp(ctx, sessionID)
		if err != nil {
			return d.fail(res, err, stats.MsgGiveUpFailed)
		}
		res.Session = s
		res.Feedback = stats.GiveUpFeedback(s.RevealedTarget())

	case types.ActionGetHint:
		h, err := d.engine.Hint(ctx, sessionID)
		if err != nil {
			return d.fail(res, err, stats.MsgNoHint)
		}
		res.Hint = &h
		res.Feedback = stats.HintFeedback(h)

	case types.ActionLog:
		d.logger.Printf("[INFO] client log (session %s): %s", sessionID, a.Word)

	default:
		d.logger.Printf("[WARN] Unhandled action type: %q", a.Type)
		res.Handled = false
	}
	return res
}

func (d *Dispatcher) fail(res Result, err error, fallback string) Result {
	res.Err = err
	text := fallback
	switch {
	case errors.Is(err, game.ErrGameOver):
		text = stats.MsgGameOver
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, game.ErrMissingSession):
		text = stats.MsgNoSession
	}
	d.logger.Printf("[WARN] action %s failed: %v", res.Action.Type, err)
	res.Feedback = types.Feedback{Kind: types.FeedbackError, Text: text}
	return res
}
