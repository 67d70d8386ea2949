package main

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"contexto/internal/game"
	"contexto/internal/phrase"
	"contexto/internal/stats"
	"contexto/internal/types"
)

// bindJSON decodes the request body into dst. An empty body is accepted
// only when optional is set.
func bindJSON(c *gin.Context, dst any, optional bool) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			if optional {
				return true
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": ErrorEmptyBody})
			return false
		}
		logWarn("Invalid JSON on %s: %v", c.Request.URL.Path, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorInvalidJSON})
		return false
	}
	return true
}

// writeError maps an engine error to a status code and a readable message.
func writeError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, ErrorInternal
	switch {
	case errors.Is(err, errSessionMismatch):
		status, msg = http.StatusBadRequest, ErrorSessionMismatch
	case errors.Is(err, game.ErrMissingSession):
		status, msg = http.StatusBadRequest, ErrorNoSession
	case errors.Is(err, game.ErrEmptyWord):
		status, msg = http.StatusBadRequest, ErrorEmptyWord
	case errors.Is(err, game.ErrGameOver):
		status, msg = http.StatusBadRequest, ErrorGameOver
	case errors.Is(err, game.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, game.ErrSessionNotFound):
		status, msg = http.StatusNotFound, ErrorInvalidSession
	case game.IsRetryable(err):
		status, msg = http.StatusServiceUnavailable, ErrorOracleUnavailable
	default:
		logWarn("Unexpected error on %s: %v", c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": msg})
}

// newGameHandler starts a new session. A session id sent along is superseded.
func (app *App) newGameHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var req sessionRequest
	if !bindJSON(c, &req, true) {
		return
	}
	previousID, err := app.sessionIDFrom(c, req.SessionID)
	if err != nil && !errors.Is(err, game.ErrMissingSession) {
		writeError(c, err)
		return
	}

	s, err := app.Engine.NewGame(ctx, previousID)
	if err != nil {
		logWarn("Failed to create new game: %v", err)
		status := http.StatusInternalServerError
		if game.IsRetryable(err) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": ErrorNewGameUnavailable})
		return
	}

	app.setSessionCookie(c, s.ID)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": s.ID,
		"feedback":   types.Feedback{Kind: types.FeedbackInfo, Text: stats.MsgNewGame},
	})
}

// guessHandler ranks one word for the caller's session.
func (app *App) guessHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var req guessRequest
	if !bindJSON(c, &req, false) {
		return
	}
	sessionID, err := app.sessionIDFrom(c, req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if strings.TrimSpace(req.Word) == "" {
		writeError(c, game.ErrEmptyWord)
		return
	}

	res, err := app.Engine.Guess(ctx, sessionID, req.Word)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Unknown {
		c.JSON(http.StatusOK, gin.H{
			"error":    ErrorUnknownWord,
			"word":     res.Word,
			"feedback": types.Feedback{Kind: types.FeedbackError, Text: stats.MsgUnknownWord},
		})
		return
	}

	c.JSON(http.StatusOK, guessResponse{
		Word:       res.Word,
		Rank:       res.Rank,
		Correct:    res.Win,
		Repeat:     res.Repeat,
		GameOver:   res.GameOver,
		TargetWord: res.TargetWord,
		Feedback:   stats.GuessFeedback(res.Rank, app.Config.Thresholds),
		Guesses:    res.Guesses,
	})
}

// giveUpHandler ends the game and reveals the target.
func (app *App) giveUpHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var req sessionRequest
	if !bindJSON(c, &req, true) {
		return
	}
	sessionID, err := app.sessionIDFrom(c, req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	s, err := app.Engine.GiveUp(ctx, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"target_word":  s.TargetWord,
		"game_over":    s.GameOver,
		"user_gave_up": s.UserGaveUp,
		"guesses":      s.Guesses,
		"feedback":     stats.GiveUpFeedback(s.TargetWord),
	})
}

// hintHandler suggests a word without changing the session.
func (app *App) hintHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var req sessionRequest
	if !bindJSON(c, &req, true) {
		return
	}
	sessionID, err := app.sessionIDFrom(c, req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	h, err := app.Engine.Hint(ctx, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"word":     h.Word,
		"rank":     h.Rank,
		"feedback": stats.HintFeedback(h),
	})
}

// stateHandler renders the session with its stats.
func (app *App) stateHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID, err := app.sessionIDFrom(c, c.Query("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	s, err := app.Engine.State(ctx, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionView(s, app.Config.Thresholds))
}

// actionHandler accepts a voice action, either already normalized or as raw
// text to classify, and narrates the outcome.
func (app *App) actionHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var req actionRequest
	if !bindJSON(c, &req, false) {
		return
	}

	action := types.Action{Type: strings.TrimSpace(req.Type), Word: strings.TrimSpace(req.Word)}
	if action.Type == "" {
		a, ok := phrase.Classify(req.Text)
		if !ok {
			c.JSON(http.StatusOK, actionResponse{Handled: false})
			return
		}
		action = a
	}

	sessionID, err := app.sessionIDFrom(c, req.SessionID)
	// These never touch a session, so a missing id is not an error.
	sessionless := action.Type == types.ActionNewGame || action.Type == types.ActionLog ||
		(action.Type == types.ActionGuessWord && action.Word == "") ||
		!types.KnownAction(action.Type)
	if err != nil && !(sessionless && errors.Is(err, game.ErrMissingSession)) {
		writeError(c, err)
		return
	}

	res := app.Dispatcher.Dispatch(ctx, sessionID, action)
	if !res.Handled {
		c.JSON(http.StatusOK, actionResponse{Handled: false, Action: res.Action, Error: ErrorUnknownAction})
		return
	}
	if res.Action.Type == types.ActionNewGame && res.Err == nil {
		app.setSessionCookie(c, res.SessionID)
	}

	resp := actionResponse{
		Handled:   true,
		Action:    res.Action,
		SessionID: res.SessionID,
		Feedback:  res.Feedback,
	}
	if res.SessionID != "" && res.Err == nil {
		if s, err := app.Engine.State(ctx, res.SessionID); err == nil {
			view := newSessionView(s, app.Config.Thresholds)
			resp.State = &view
		}
	}

	status := http.StatusOK
	if res.Err != nil && game.IsRetryable(res.Err) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	uptime := time.Since(app.StartTime)
	body := gin.H{
		"status":        "ok",
		"env":           map[bool]string{true: "production", false: "development"}[app.Config.IsProduction],
		"session_store": app.Config.SessionStore,
		"uptime":        formatUptime(uptime),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}
	if app.Oracle != nil {
		body["target_words"] = app.Oracle.Targets()
	}
	if mem, ok := app.Repo.(*game.MemoryRepository); ok {
		body["active_sessions"] = mem.Len()
	}
	c.JSON(http.StatusOK, body)
}
