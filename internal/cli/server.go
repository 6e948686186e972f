package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizhost-service/internal/app"
	"quizhost-service/internal/config"
	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/memory"
	pgloader "quizhost-service/internal/infra/postgres"
	redisinfra "quizhost-service/internal/infra/redis"
	transport "quizhost-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// tokenIssuer is satisfied by both token store implementations; the server
// uses it to mint a bootstrap admin token in demo mode.
type tokenIssuer interface {
	app.TokenResolver
	Issue(ctx context.Context, ownerID string) (string, error)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	demoMode := pool == nil
	var loader memory.CatalogLoader = memory.NewStaticCatalogLoader(sampleCatalog())
	if pool != nil {
		loader = pgloader.NewCatalogLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var catalog app.QuizCatalog
	if redisClient != nil {
		catalog = redisinfra.NewCatalog(redisClient, loader, quizTTL)
	} else {
		catalog = memory.NewCatalog(loader, quizTTL)
	}

	var tokens tokenIssuer
	if redisClient != nil {
		tokens = redisinfra.NewTokenStore(redisClient, redisTTL)
	} else {
		tokens = memory.NewTokenStore()
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	countdown := config.TTLDuration(cfg.Session.Countdown, 3*time.Second)
	service := app.NewSessionService(store, catalog, tokens, countdown)

	if demoMode {
		token, err := tokens.Issue(ctx, demoOwnerID)
		if err != nil {
			return err
		}
		slog.Info("demo catalog loaded", "owner", demoOwnerID, "token", token)
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(transport.NewHandler(service)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		slog.Info("starting quizhost service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server stopped", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

const demoOwnerID = "demo-admin"

// sampleCatalog seeds a quiz for running without Postgres; production loads
// the catalog from the quizzes table.
func sampleCatalog() map[string]memory.CatalogEntry {
	quiz := domain.Quiz{
		QuizID:      "quiz-1",
		Name:        "Arithmetic warmup",
		Description: "One quick question",
		Questions: []domain.Question{
			{
				QuestionID: 1,
				Question:   "What is 2 + 2?",
				Duration:   30,
				Points:     5,
				Answers: []domain.Answer{
					{AnswerID: 1, Answer: "3"},
					{AnswerID: 2, Answer: "4", Correct: true},
					{AnswerID: 3, Answer: "5"},
				},
			},
		},
		Duration: 30,
	}
	for i := range quiz.Questions {
		domain.AssignColours(&quiz.Questions[i])
	}
	return map[string]memory.CatalogEntry{
		quiz.QuizID: {Quiz: quiz, OwnerID: demoOwnerID},
	}
}
