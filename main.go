package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"contexto/internal/dispatch"
	"contexto/internal/game"
	"contexto/internal/oracle"
	"contexto/internal/stats"
)

func main() {
	_ = godotenv.Load()

	cfg := loadConfig()
	logInfo("Starting Contexto in %s mode", map[bool]string{true: "production", false: "development"}[cfg.IsProduction])
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg)
	if err != nil {
		logFatal("Failed to initialize: %v", err)
	}

	err = run(ctx, app, setupRouter(app))
	if closer, ok := app.Repo.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil {
			logWarn("Failed to close session store: %v", cerr)
		}
	}
	if err != nil {
		logFatal("Server failed: %v", err)
	}
	logInfo("Server shutdown complete")
}

// loadConfig reads Config from the environment.
func loadConfig() Config {
	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"

	thresholds := stats.Thresholds{
		VeryClose:    getEnvInt("TIER_VERY_CLOSE", stats.DefaultThresholds.VeryClose),
		RightTrack:   getEnvInt("TIER_RIGHT_TRACK", stats.DefaultThresholds.RightTrack),
		KeepThinking: getEnvInt("TIER_KEEP_THINKING", stats.DefaultThresholds.KeepThinking),
	}
	if !thresholds.Valid() {
		logWarn("Tier thresholds %+v are not ascending, using defaults %+v", thresholds, stats.DefaultThresholds)
		thresholds = stats.DefaultThresholds
	}

	store := getEnvString("SESSION_STORE", "memory")
	if store != "memory" && store != "file" && store != "sqlite" {
		logWarn("Unknown SESSION_STORE %q, using memory", store)
		store = "memory"
	}

	sessionTTL := getEnvDuration("SESSION_TIMEOUT", 2*time.Hour)
	return Config{
		Port:          getEnvString("PORT", "8080"),
		IsProduction:  isProduction,
		CookieMaxAge:  getEnvDuration("COOKIE_MAX_AGE", sessionTTL),
		CORSOrigins:   getEnvList("CORS_ORIGINS", nil),
		SessionStore:  store,
		SessionDir:    getEnvString("SESSION_DIR", "data/sessions"),
		SessionDBPath: getEnvString("SESSION_DB_PATH", "data/sessions.db"),
		SessionTTL:    sessionTTL,
		SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		MaxSessions:   getEnvInt("MAX_SESSIONS", 10000),
		OracleTimeout: getEnvDuration("ORACLE_TIMEOUT", game.DefaultOracleTimeout),

		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),

		EmbeddingsPath:     getEnvString("EMBEDDINGS_PATH", "assets/embeddings.vec"),
		DictionaryPath:     getEnvString("DICTIONARY_PATH", ""),
		BlacklistPath:      getEnvString("BLACKLIST_PATH", ""),
		MinWordLength:      getEnvInt("MIN_WORD_LENGTH", 3),
		MaxDictionaryWords: getEnvInt("MAX_DICTIONARY_WORDS", 3000),
		PreferredPOS:       getEnvList("PREFERRED_POS", []string{"NOUN"}),

		Thresholds: thresholds,

		HintsEnabled: getEnvBool("HINTS_ENABLED", true),
		GCPProjectID: getEnvString("GCP_PROJECT_ID", ""),
		GCPRegion:    getEnvString("GCP_REGION", ""),
	}
}

// loadOracle builds the embedding oracle and its target dictionary.
func loadOracle(cfg Config) (*oracle.EmbeddingOracle, error) {
	filter := oracle.NewFilter(cfg.MinWordLength, cfg.PreferredPOS)
	if cfg.BlacklistPath != "" {
		n, err := filter.LoadBlacklist(cfg.BlacklistPath)
		if err != nil {
			return nil, err
		}
		logInfo("Loaded %d blacklisted words", n)
	}

	start := time.Now()
	emb, err := oracle.LoadVec(cfg.EmbeddingsPath, log.Default())
	if err != nil {
		return nil, err
	}
	logInfo("Loaded %d embeddings (dim %d) in %v", emb.Len(), emb.Dim(), time.Since(start).Round(time.Millisecond))

	o := oracle.NewEmbeddingOracle(emb, filter, cfg.MaxDictionaryWords)
	if cfg.DictionaryPath != "" {
		if !fileExists(cfg.DictionaryPath) {
			logWarn("Dictionary %s not found, using embedding vocabulary", cfg.DictionaryPath)
		} else if _, err := o.LoadDictionary(cfg.DictionaryPath, filter, cfg.MaxDictionaryWords); err != nil {
			return nil, err
		}
	}
	if o.Targets() == 0 {
		return nil, oracle.ErrEmptyDictionary
	}
	logInfo("Loaded %d target words", o.Targets())
	return o, nil
}

// buildApp wires the repository, oracle, engine and dispatcher.
func buildApp(ctx context.Context, cfg Config) (*App, error) {
	o, err := loadOracle(cfg)
	if err != nil {
		return nil, err
	}

	var repo game.Repository
	switch cfg.SessionStore {
	case "file":
		fr, err := NewFileRepository(cfg.SessionDir, cfg.SessionTTL)
		if err != nil {
			return nil, err
		}
		repo = fr
		logInfo("Sessions are stored in %s", cfg.SessionDir)
	case "sqlite":
		sr, err := OpenSQLiteRepository(cfg.SessionDBPath, cfg.SessionTTL)
		if err != nil {
			return nil, err
		}
		repo = sr
		logInfo("Sessions are stored in SQLite at %s", cfg.SessionDBPath)
	default:
		repo = game.NewMemoryRepository(cfg.MaxSessions, log.Default())
		logInfo("Sessions are kept in memory (max %d)", cfg.MaxSessions)
	}

	opts := []game.Option{
		game.WithOracleTimeout(cfg.OracleTimeout),
		game.WithLogger(log.Default()),
	}
	if cfg.HintsEnabled {
		var hinter game.Hinter = o
		if cfg.GCPProjectID != "" {
			gh, err := oracle.NewGeminiHinter(ctx, cfg.GCPProjectID, cfg.GCPRegion, o, log.Default())
			if err != nil {
				logWarn("Gemini hinter unavailable, using embeddings: %v", err)
			} else {
				logInfo("Hints are suggested by Gemini (project %s)", cfg.GCPProjectID)
				hinter = gh
			}
		}
		opts = append(opts, game.WithHinter(hinter))
	}

	return newApp(cfg, repo, o, opts...), nil
}

// newApp assembles an App around an already loaded oracle.
func newApp(cfg Config, repo game.Repository, o *oracle.EmbeddingOracle, opts ...game.Option) *App {
	engine := game.NewEngine(repo, o, o, opts...)
	return &App{
		Config:     cfg,
		Engine:     engine,
		Dispatcher: dispatch.New(engine, cfg.Thresholds, log.Default()),
		Repo:       repo,
		Oracle:     o,
		LimiterMap: make(map[string]*rate.Limiter),
		StartTime:  time.Now(),
	}
}

// setupRouter registers middleware and routes.
func setupRouter(app *App) *gin.Engine {
	router := gin.Default()

	router.Use(requestIDMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.GET(RouteHealthz, app.healthzHandler)

	api := router.Group("/api", app.corsMiddleware(), noStoreMiddleware())
	api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusOK) })
	api.POST(stripAPI(RouteNewGame), app.rateLimitMiddleware(), app.newGameHandler)
	api.POST(stripAPI(RouteGuess), app.rateLimitMiddleware(), app.guessHandler)
	api.POST(stripAPI(RouteGiveUp), app.rateLimitMiddleware(), app.giveUpHandler)
	api.POST(stripAPI(RouteHint), app.rateLimitMiddleware(), app.hintHandler)
	api.POST(stripAPI(RouteAction), app.rateLimitMiddleware(), app.actionHandler)
	api.GET(stripAPI(RouteState), app.stateHandler)

	return router
}

func stripAPI(route string) string {
	return route[len("/api"):]
}

// run serves HTTP until ctx is cancelled, sweeping idle sessions meanwhile.
func run(ctx context.Context, app *App, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + app.Config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logInfo("Server starting on http://localhost:%s", app.Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logInfo("Shutdown signal received, shutting down server gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		runSweeper(gctx, app.Repo, app.Config.SweepInterval, app.Config.SessionTTL)
		return nil
	})
	return g.Wait()
}

// runSweeper removes idle sessions every interval until ctx is done.
func runSweeper(ctx context.Context, repo game.Repository, interval, maxAge time.Duration) {
	sweeper, ok := repo.(game.Sweeper)
	if !ok || interval <= 0 || maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sweeper.Sweep(ctx, maxAge)
			if err != nil {
				logWarn("Session sweep failed: %v", err)
				continue
			}
			if n > 0 {
				logInfo("Expired %d idle sessions", n)
			}
		}
	}
}
