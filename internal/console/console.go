package console

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ViewsFromSaturn/Project-Tactics/internal/app/logger/logging"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/console/auth"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/console/database"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/metrics"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/model"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/realtime"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func init() {
	metrics.InitConsole()
	metrics.InitRealtime()
}

// Console is the HTTP surface of the server: auth routes, the admin
// moderation hook and the realtime websocket endpoint.
type Console struct {
	Config *Config
	DB     *database.SQLite
	Signer *auth.Signer
	World  *realtime.World
}

func NewConsole(db *database.SQLite, opts ...Option) *Console {
	config := DefaultConfig()
	for _, fn := range opts {
		if err := fn(config); err != nil {
			panic("failed to initialize config: " + err.Error())
		}
	}

	return &Console{
		DB:     db,
		Signer: auth.NewSigner(config.JWTSecret),
		World:  realtime.NewWorld(&characterStore{db}),
		Config: config,
	}
}

type Option func(*Config) error

type Config struct {
	ConsoleBindAddr    string
	ConsolePublicAddr  string
	CORSAllowedOrigins []string
	JWTSecret          string
	Version            string
}

func DefaultConfig() *Config {
	return &Config{
		ConsoleBindAddr:    "localhost:2137",
		ConsolePublicAddr:  "http://localhost:2137",
		CORSAllowedOrigins: []string{"*"},
		JWTSecret:          "dev-secret-change-me",
		Version:            "dev",
	}
}

func WithCORSAllowedOrigins(allowedOrigins []string) Option {
	return func(c *Config) error {
		c.CORSAllowedOrigins = allowedOrigins
		return nil
	}
}

func WithConsoleAddr(bindAddr, publicAddr string) Option {
	return func(c *Config) error {
		c.ConsoleBindAddr = bindAddr
		c.ConsolePublicAddr = publicAddr
		return nil
	}
}

func WithJWTSecret(secret string) Option {
	return func(c *Config) error {
		c.JWTSecret = secret
		return nil
	}
}

func WithVersion(version string) Option {
	return func(c *Config) error {
		c.Version = version
		return nil
	}
}

func (c *Console) HttpRouter() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Throttle(100))

	{ // Set up meta routes (readiness, liveness, metrics etc.)
		mux.Get("/_health", func(w http.ResponseWriter, r *http.Request) {
			if err := c.DB.Ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				renderJSON(w, r, map[string]string{
					"status":    "ERROR",
					"component": "database",
					"error":     err.Error(),
				})
				return
			}

			w.WriteHeader(http.StatusOK)
			renderJSON(w, r, map[string]string{"status": "OK"})
		})
		mux.Get("/_metrics", promhttp.Handler().ServeHTTP)
	}

	{ // Set up routes used by the game client
		wellKnown := chi.NewRouter()
		wellKnown.Use(cors.New(cors.Options{
			AllowedOrigins:   c.Config.CORSAllowedOrigins,
			AllowCredentials: false,
			AllowedMethods:   []string{http.MethodGet},
			AllowedHeaders:   []string{"Content-Type"},
			MaxAge:           7200,
		}).Handler)

		wellKnown.Get("/console.json", c.WellKnownInfo())
		mux.Mount("/.well-known/", wellKnown)
	}

	{ // Set up the JSON API
		api := chi.NewRouter()
		api.Use(middleware.Timeout(5 * time.Second))
		api.Use(cors.New(cors.Options{
			AllowedOrigins:   c.Config.CORSAllowedOrigins,
			AllowCredentials: false,
			AllowedMethods: []string{
				http.MethodGet,
				http.MethodPost,
			},
			AllowedHeaders: []string{
				"Content-Type",
				"Authorization",
			},
			MaxAge: 7200,
		}).Handler)

		api.Post("/auth/login", c.HandleLogin)
		api.Post("/admin/announce", c.HandleAnnounce)
		mux.Mount("/api/", http.StripPrefix("/api", api))
	}

	{ // Set up the realtime (websocket) route
		ws := chi.NewRouter()
		ws.Use(middleware.Timeout(24 * time.Hour))
		ws.Mount("/", http.HandlerFunc(c.HandleWebSocket))

		mux.Mount("/ws", ws)
	}

	return mux
}

func (c *Console) Handlers() (start GracefulFunc, shutdown GracefulFunc) {
	httpServer := &http.Server{
		Addr:         c.Config.ConsoleBindAddr,
		Handler:      h2c.NewHandler(c.HttpRouter(), &http2.Server{}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	start = func(ctx context.Context) error {
		slog.Info("Configured console server", "addr", c.Config.ConsoleBindAddr)

		go c.World.Run(ctx)

		return httpServer.ListenAndServe()
	}

	shutdown = func(ctx context.Context) error {
		slog.Info("Started shutting down the console server")

		c.World.Stop()

		if err := httpServer.Shutdown(ctx); err != nil {
			slog.Error("Failed shutting down the console server", logging.Error(err))
			return err
		}
		slog.Info("Successfully shut down the console server")
		return nil
	}

	return start, shutdown
}

type GracefulFunc func(context.Context) error

func (c *Console) Graceful(ctx context.Context, start GracefulFunc, shutdown GracefulFunc) error {
	var (
		stopChan = make(chan os.Signal, 1)
		errChan  = make(chan error, 1)
	)

	// Set up the graceful shutdown handler (traps SIGINT and SIGTERM)
	go func() {
		signal.Notify(stopChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-stopChan:
		case <-ctx.Done():
		}

		timer, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := shutdown(timer); err != nil {
			errChan <- err
			return
		}

		errChan <- nil
	}()

	// Start the server
	if err := start(ctx); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-errChan
}

func (c *Console) WellKnownInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderJSON(w, r, model.WellKnown{
			Version: c.Config.Version,
			Addr:    c.Config.ConsolePublicAddr,
		})
	}
}

// characterStore adapts the database queries to the narrow interface
// the realtime layer consumes.
type characterStore struct {
	db *database.SQLite
}

func (s *characterStore) GetCharacter(ctx context.Context, id string) (realtime.CharacterInfo, error) {
	character, err := s.db.Read.GetCharacter(ctx, id)
	if err != nil {
		return realtime.CharacterInfo{}, err
	}
	return realtime.CharacterInfo{
		ID:         character.ID,
		AccountID:  character.AccountID,
		Name:       character.Name,
		Rank:       character.Rank,
		Allegiance: character.Allegiance,
	}, nil
}
