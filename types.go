package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"contexto/internal/dispatch"
	"contexto/internal/game"
	"contexto/internal/oracle"
	"contexto/internal/stats"
	"contexto/internal/types"
)

// Config is everything read from the environment at startup.
type Config struct {
	Port          string
	IsProduction  bool
	CookieMaxAge  time.Duration
	CORSOrigins   []string
	SessionStore  string // "memory", "file" or "sqlite"
	SessionDir    string
	SessionDBPath string
	SessionTTL    time.Duration
	SweepInterval time.Duration
	MaxSessions   int
	OracleTimeout time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	EmbeddingsPath     string
	DictionaryPath     string
	BlacklistPath      string
	MinWordLength      int
	MaxDictionaryWords int
	PreferredPOS       []string

	Thresholds stats.Thresholds

	HintsEnabled bool
	GCPProjectID string
	GCPRegion    string
}

// App holds the wired service.
type App struct {
	Config     Config
	Engine     *game.Engine
	Dispatcher *dispatch.Dispatcher
	Repo       game.Repository
	Oracle     *oracle.EmbeddingOracle

	LimiterMap   map[string]*rate.Limiter
	LimiterMutex sync.Mutex

	StartTime time.Time
}

// sessionRequest is the body of give-up, hint and new-game requests.
type sessionRequest struct {
	SessionID string `json:"session_id"`
}

// guessRequest is the body of POST /api/guess.
type guessRequest struct {
	Word      string `json:"word"`
	SessionID string `json:"session_id"`
}

// actionRequest carries either a normalized action or a raw utterance.
type actionRequest struct {
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	Word      string `json:"word"`
	Text      string `json:"text"`
}

// guessResponse is returned for a ranked guess, new or repeated.
type guessResponse struct {
	Word       string              `json:"word"`
	Rank       int                 `json:"rank"`
	Correct    bool                `json:"correct"`
	Repeat     bool                `json:"repeat"`
	GameOver   bool                `json:"game_over"`
	TargetWord string              `json:"target_word,omitempty"`
	Feedback   types.Feedback      `json:"feedback"`
	Guesses    []types.GuessedWord `json:"guesses"`
}

// sessionView is the public rendering of a session. The target is only
// filled in once the game is over.
type sessionView struct {
	SessionID  string              `json:"session_id"`
	Status     types.GameStatus    `json:"status"`
	GameOver   bool                `json:"game_over"`
	UserGaveUp bool                `json:"user_gave_up"`
	TargetWord string              `json:"target_word,omitempty"`
	Guesses    []types.GuessedWord `json:"guesses"`
	Stats      stats.Stats         `json:"stats"`
	Message    string              `json:"message"`
}

// actionResponse is returned by POST /api/action.
type actionResponse struct {
	Handled   bool           `json:"handled"`
	Error     string         `json:"error,omitempty"`
	Action    types.Action   `json:"action"`
	SessionID string         `json:"session_id,omitempty"`
	Feedback  types.Feedback `json:"feedback"`
	State     *sessionView   `json:"state,omitempty"`
}

func newSessionView(s *types.Session, t stats.Thresholds) sessionView {
	guesses := s.Guesses
	if guesses == nil {
		guesses = []types.GuessedWord{}
	}
	return sessionView{
		SessionID:  s.ID,
		Status:     s.Status(),
		GameOver:   s.GameOver,
		UserGaveUp: s.UserGaveUp,
		TargetWord: s.RevealedTarget(),
		Guesses:    guesses,
		Stats:      stats.Compute(s, t),
		Message:    stats.StatusMessage(s, t),
	}
}
