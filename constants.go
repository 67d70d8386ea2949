package main

// Session propagation
const (
	SessionCookieName = "session_id"
	SessionHeaderName = "X-Session-Id"
	RequestIDHeader   = "X-Request-Id"
)

// Route constants
const (
	RouteNewGame = "/api/new-game"
	RouteGuess   = "/api/guess"
	RouteGiveUp  = "/api/give-up"
	RouteHint    = "/api/hint"
	RouteState   = "/api/state"
	RouteAction  = "/api/action"
	RouteHealthz = "/healthz"
)

// Error message constants
const (
	ErrorEmptyBody          = "Empty request body"
	ErrorInvalidJSON        = "Invalid JSON format"
	ErrorEmptyWord          = "Word cannot be empty"
	ErrorNoSession          = "No active game session"
	ErrorSessionMismatch    = "Session id in header and body do not match"
	ErrorInvalidSession     = "Invalid game session"
	ErrorGameOver           = "Game is already over. Start a new game to continue."
	ErrorUnknownWord        = "unknown word"
	ErrorOracleUnavailable  = "Could not check the word right now, please try again"
	ErrorNewGameUnavailable = "Could not create game - please try again later"
	ErrorInternal           = "Internal server error"
	ErrorTooManyRequests    = "Too many requests. Please slow down."
	ErrorUnknownAction      = "Unknown action"
)
