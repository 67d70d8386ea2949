package dispatch

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"contexto/internal/game"
	"contexto/internal/stats"
	"contexto/internal/types"
)

// stubEngine records calls and returns canned results.
type stubEngine struct {
	calls    []string
	guess    game.GuessResult
	guessErr error
	session  *types.Session
	newErr   error
	giveErr  error
	hint     types.Hint
}

func (s *stubEngine) NewGame(_ context.Context, previousID string) (*types.Session, error) {
	s.calls = append(s.calls, "new:"+previousID)
	if s.newErr != nil {
		return nil, s.newErr
	}
	return &types.Session{ID: "fresh", TargetWord: "кот"}, nil
}

func (s *stubEngine) Guess(_ context.Context, sessionID, word string) (game.GuessResult, error) {
	s.calls = append(s.calls, "guess:"+word)
	return s.guess, s.guessErr
}

func (s *stubEngine) GiveUp(_ context.Context, sessionID string) (*types.Session, error) {
	s.calls = append(s.calls, "giveup")
	if s.giveErr != nil {
		return nil, s.giveErr
	}
	return s.session, nil
}

func (s *stubEngine) Hint(_ context.Context, sessionID string) (types.Hint, error) {
	s.calls = append(s.calls, "hint")
	return s.hint, nil
}

func newDispatcher(e Engine, out io.Writer) *Dispatcher {
	return New(e, stats.DefaultThresholds, log.New(out, "", 0))
}

func TestDispatchNewGame(t *testing.T) {
	e := &stubEngine{}
	res := newDispatcher(e, io.Discard).Dispatch(context.Background(), "old", types.Action{Type: types.ActionNewGame})

	if !res.Handled || res.Err != nil {
		t.Fatalf("result = %+v", res)
	}
	if res.SessionID != "fresh" {
		t.Errorf("SessionID = %q, want fresh", res.SessionID)
	}
	if len(e.calls) != 1 || e.calls[0] != "new:old" {
		t.Errorf("calls = %v", e.calls)
	}
	if res.Feedback.Text != stats.MsgNewGame {
		t.Errorf("feedback = %+v", res.Feedback)
	}
}

func TestDispatchNewGameFailure(t *testing.T) {
	e := &stubEngine{newErr: game.ErrOracleUnavailable}
	res := newDispatcher(e, io.Discard).Dispatch(context.Background(), "", types.Action{Type: types.ActionNewGame})
	if !errors.Is(res.Err, game.ErrOracleUnavailable) {
		t.Errorf("Err = %v", res.Err)
	}
	if res.Feedback.Kind != types.FeedbackError || res.Feedback.Text != stats.MsgNewGameError {
		t.Errorf("feedback = %+v", res.Feedback)
	}
}

func TestDispatchGuessWithoutWord(t *testing.T) {
	e := &stubEngine{}
	res := newDispatcher(e, io.Discard).Dispatch(context.Background(), "s", types.Action{Type: types.ActionGuessWord})

	if len(e.calls) != 0 {
		t.Errorf("engine called: %v", e.calls)
	}
	if res.Feedback.Kind != types.FeedbackError || res.Feedback.Text != stats.MsgMissingWord {
		t.Errorf("feedback = %+v", res.Feedback)
	}
}

func TestDispatchGuess(t *testing.T) {
	tests := []struct {
		name string
		res  game.GuessResult
		err  error
		kind types.FeedbackKind
		text string
	}{
		{"ranked", game.GuessResult{Word: "дом", Rank: 42}, nil, types.FeedbackInfo, "Холоднее"},
		{"win", game.GuessResult{Word: "кот", Rank: 1, Win: true}, nil, types.FeedbackSuccess, stats.MsgWin},
		{"unknown", game.GuessResult{Word: "ыыы", Rank: types.RankNotFound, Unknown: true}, nil, types.FeedbackError, stats.MsgUnknownWord},
		{"game over", game.GuessResult{}, game.ErrGameOver, types.FeedbackError, stats.MsgGameOver},
		{"no session", game.GuessResult{}, game.ErrSessionNotFound, types.FeedbackError, stats.MsgNoSession},
		{"oracle down", game.GuessResult{}, game.ErrOracleTimeout, types.FeedbackError, stats.MsgGuessFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &stubEngine{guess: tt.res, guessErr: tt.err}
			res := newDispatcher(e, io.Discard).Dispatch(context.Background(), "s", types.Action{Type: types.ActionGuessWord, Word: tt.res.Word + "x"})
			if res.Feedback.Kind != tt.kind || res.Feedback.Text != tt.text {
				t.Errorf("feedback = %+v, want %s %q", res.Feedback, tt.kind, tt.text)
			}
			if !errors.Is(res.Err, tt.err) {
				t.Errorf("Err = %v, want %v", res.Err, tt.err)
			}
		})
	}
}

func TestDispatchGiveUpAndHint(t *testing.T) {
	e := &stubEngine{
		session: &types.Session{ID: "s", TargetWord: "кот", GameOver: true, UserGaveUp: true},
		hint:    types.Hint{Word: "собака", Rank: 8},
	}
	d := newDispatcher(e, io.Discard)

	res := d.Dispatch(context.Background(), "s", types.Action{Type: types.ActionGiveUp})
	if !strings.Contains(res.Feedback.Text, "кот") {
		t.Errorf("give up feedback = %+v", res.Feedback)
	}

	res = d.Dispatch(context.Background(), "s", types.Action{Type: types.ActionGetHint})
	if res.Hint == nil || res.Hint.Word != "собака" {
		t.Errorf("hint = %+v", res.Hint)
	}
}

func TestDispatchGiveUpFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"oracle down", game.ErrOracleUnavailable, stats.MsgGiveUpFailed},
		{"no session", game.ErrSessionNotFound, stats.MsgNoSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatcher(&stubEngine{giveErr: tt.err}, io.Discard)
			res := d.Dispatch(context.Background(), "s", types.Action{Type: types.ActionGiveUp})
			if !errors.Is(res.Err, tt.err) || res.Feedback.Kind != types.FeedbackError || res.Feedback.Text != tt.want {
				t.Errorf("give up failure = %+v, want %q", res, tt.want)
			}
		})
	}
}

func TestDispatchLogAndUnknown(t *testing.T) {
	var buf strings.Builder
	e := &stubEngine{}
	d := newDispatcher(e, &buf)

	res := d.Dispatch(context.Background(), "s", types.Action{Type: types.ActionLog, Word: "client says hi"})
	if !res.Handled || len(e.calls) != 0 {
		t.Errorf("log action: %+v, calls %v", res, e.calls)
	}
	if !strings.Contains(buf.String(), "client says hi") {
		t.Errorf("log output = %q", buf.String())
	}

	res = d.Dispatch(context.Background(), "s", types.Action{Type: "dance"})
	if res.Handled || len(e.calls) != 0 {
		t.Errorf("unknown action: %+v, calls %v", res, e.calls)
	}
	if !strings.Contains(buf.String(), `"dance"`) {
		t.Errorf("unknown action not reported: %q", buf.String())
	}
}
