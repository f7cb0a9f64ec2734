package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"live-trivia-service/internal/config"
	"live-trivia-service/internal/domain"
	"live-trivia-service/internal/game"
	"live-trivia-service/internal/infra/file"
	"live-trivia-service/internal/infra/memory"
	pgloader "live-trivia-service/internal/infra/postgres"
	redisrecords "live-trivia-service/internal/infra/redis"
	"live-trivia-service/internal/logger"
	transport "live-trivia-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New("live-trivia-service")

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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestionSets())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	} else if cfg.Questions.Path != "" {
		loader = file.NewQuestionLoader(cfg.Questions.Path)
	}

	setID := cfg.Questions.SetID
	if setID == "" {
		setID = "default"
	}
	questions, err := loader.LoadQuestions(ctx, setID)
	if err != nil {
		return err
	}
	if err := file.ValidateQuestions(questions); err != nil {
		return err
	}

	var records game.RecordStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		records = redisrecords.NewRecordStore(client, config.Duration(cfg.Redis.TTL, 24*time.Hour))
	} else {
		recordsDir := cfg.Records.Dir
		if recordsDir == "" {
			recordsDir = "data/records"
		}
		records = file.NewRecordStore(recordsDir)
	}
	// The viewer endpoint reads through a TTL cache regardless of the backend.
	cached := memory.NewRecordCache(records, config.Duration(cfg.Records.TTL, 10*time.Minute))

	hub := transport.NewHub()
	session := game.NewSession(sessionConfig(cfg), questions, hub, cached, log)
	wsHandler := transport.NewWSHandler(session, hub, log)
	recordsHandler := transport.NewRecordsHandler(cached, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/api/records/", recordsHandler.ServeRecord)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(config.Duration(cfg.Session.SweepInterval, time.Minute))
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := session.SweepDisconnected(); n > 0 {
					log.WithField("removed", n).Info("swept inactive participants")
				}
			case <-sweepDone:
				return
			}
		}
	}()

	go func() {
		log.WithField("port", finalPort).Info("starting trivia service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}
	close(sweepDone)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func sessionConfig(cfg config.Config) game.Config {
	name := cfg.Session.Name
	if name == "" {
		name = "Live Trivia"
	}
	topN := cfg.Session.TopN
	if topN <= 0 {
		topN = 3
	}
	return game.Config{
		SessionName:       name,
		StartCountdown:    config.Duration(cfg.Session.StartCountdown, 3*time.Second),
		NextCountdown:     config.Duration(cfg.Session.NextCountdown, 3*time.Second),
		StatsTick:         config.Duration(cfg.Session.StatsTick, 2*time.Second),
		DisconnectTimeout: config.Duration(cfg.Session.DisconnectTimeout, 5*time.Minute),
		TopN:              topN,
		ShowFullRoster:    cfg.Session.ShowFullRoster,
		Scoring:           scoringConfig(cfg),
	}
}

func scoringConfig(cfg config.Config) game.ScoringConfig {
	sc := game.DefaultScoringConfig()
	if cfg.Scoring.Base > 0 {
		sc.Base = cfg.Scoring.Base
	}
	if cfg.Scoring.RankBonusMax > 0 {
		sc.RankBonusMax = cfg.Scoring.RankBonusMax
	}
	if cfg.Scoring.RankBonusStep > 0 {
		sc.RankBonusStep = cfg.Scoring.RankBonusStep
	}
	if cfg.Scoring.RankBonusMin > 0 {
		sc.RankBonusMin = cfg.Scoring.RankBonusMin
	}
	if cfg.Scoring.TimeBonusMax > 0 {
		sc.TimeBonusMax = cfg.Scoring.TimeBonusMax
	}
	if cfg.Scoring.TimeBonusMin > 0 {
		sc.TimeBonusMin = cfg.Scoring.TimeBonusMin
	}
	if cfg.Scoring.PerfectMs > 0 {
		sc.PerfectMs = cfg.Scoring.PerfectMs
	}
	return sc
}

// sampleQuestionSets provides a minimal built-in set; point the config at a
// YAML file or Postgres for real content.
func sampleQuestionSets() map[string][]domain.Question {
	return map[string][]domain.Question{
		"default": {
			{
				Prompt:        "What is 2 + 2?",
				Options:       []string{"3", "4", "5"},
				CorrectOption: 1,
				TimeLimitMs:   15000,
			},
			{
				Prompt:        "Which planet is known as the Red Planet?",
				Options:       []string{"Venus", "Jupiter", "Mars", "Saturn"},
				CorrectOption: 2,
				TimeLimitMs:   15000,
			},
		},
	}
}
