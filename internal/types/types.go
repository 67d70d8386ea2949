package types

import (
	"slices"
	"time"
)

// RankNotFound marks a candidate the oracle has no ranking for.
const RankNotFound = -1

// GuessedWord is one accepted guess in a session.
type GuessedWord struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Rank     int    `json:"rank"`
	IsNewest bool   `json:"isNewest,omitempty"`
}

// HasRank reports whether the guess carries a real rank rather than the sentinel.
func (g GuessedWord) HasRank() bool {
	return g.Rank >= 1
}

// Session is the logical record of one play-through.
type Session struct {
	ID         string        `json:"id"`
	TargetWord string        `json:"targetWord"`
	Guesses    []GuessedWord `json:"guesses"`
	GameOver   bool          `json:"gameOver"`
	UserGaveUp bool          `json:"userGaveUp"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// GameStatus is the state machine position of a session.
type GameStatus string

const (
	StatusActive GameStatus = "active"
	StatusWon    GameStatus = "won"
	StatusGaveUp GameStatus = "gave_up"
)

// Status derives the state machine position from the record.
func (s *Session) Status() GameStatus {
	switch {
	case s.UserGaveUp:
		return StatusGaveUp
	case s.GameOver:
		return StatusWon
	default:
		return StatusActive
	}
}

// RevealedTarget returns the target word only once the game is over.
func (s *Session) RevealedTarget() string {
	if !s.GameOver {
		return ""
	}
	return s.TargetWord
}

// Find looks up a guess by its normalized text.
func (s *Session) Find(text string) (GuessedWord, bool) {
	i := slices.IndexFunc(s.Guesses, func(g GuessedWord) bool { return g.Text == text })
	if i < 0 {
		return GuessedWord{}, false
	}
	return s.Guesses[i], true
}

// Clone returns a deep copy so callers can read it without holding locks.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Guesses = slices.Clone(s.Guesses)
	return &c
}

// SortGuesses orders guesses ascending by rank, sentinel ranks last, stable on ties.
func SortGuesses(guesses []GuessedWord) {
	slices.SortStableFunc(guesses, func(a, b GuessedWord) int {
		switch {
		case a.HasRank() && !b.HasRank():
			return -1
		case !a.HasRank() && b.HasRank():
			return 1
		case !a.HasRank() && !b.HasRank():
			return 0
		}
		return a.Rank - b.Rank
	})
}

// Hint is a suggested word with its rank against the target.
type Hint struct {
	Word string `json:"word,omitempty"`
	Rank int    `json:"rank,omitempty"`
}

// Empty reports whether no hint is available.
func (h Hint) Empty() bool {
	return h.Word == ""
}

// Action is the normalized intent consumed by the dispatcher.
type Action struct {
	Type string `json:"type"`
	Word string `json:"word,omitempty"`
}

// Action types understood by the dispatcher.
const (
	ActionNewGame   = "new_game"
	ActionGuessWord = "guess_word"
	ActionGiveUp    = "give_up"
	ActionGetHint   = "get_hint"
	ActionLog       = "log"
)

var knownActions = []string{ActionNewGame, ActionGuessWord, ActionGiveUp, ActionGetHint, ActionLog}

// KnownAction reports whether the dispatcher has a route for actionType.
func KnownAction(actionType string) bool {
	return slices.Contains(knownActions, actionType)
}

// FeedbackKind classifies a narration event.
type FeedbackKind string

const (
	FeedbackInfo    FeedbackKind = "feedback"
	FeedbackError   FeedbackKind = "error"
	FeedbackSuccess FeedbackKind = "success"
)

// Feedback is a user-facing narration event.
type Feedback struct {
	Kind FeedbackKind `json:"kind"`
	Text string       `json:"text"`
}
