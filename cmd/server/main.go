// Command server runs the document verification workflow engine: the HTTP
// surface, the audit pipeline and their backing stores. Business logic lives
// in the internal services packages; main only wires dependencies and owns
// the process lifecycle.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"trustnet/internal/access"
	"trustnet/internal/audit"
	"trustnet/internal/auth"
	"trustnet/internal/platform/config"
	"trustnet/internal/platform/httpserver"
	"trustnet/internal/platform/kafka"
	"trustnet/internal/platform/logger"
	"trustnet/internal/platform/metrics"
	platformredis "trustnet/internal/platform/redis"
	"trustnet/internal/queue"
	"trustnet/internal/session"
	"trustnet/internal/storage"
	httptransport "trustnet/internal/transport/http"
	"trustnet/internal/workflow"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Document store: Postgres when configured, in-memory otherwise.
	var documents storage.DocumentStore
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		pgStore := storage.NewPostgresDocumentStore(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("ensure postgres schema", "error", err)
			os.Exit(1)
		}
		documents = pgStore
		log.Info("using postgres document store")
	} else {
		documents = storage.NewInMemoryDocumentStore()
		log.Info("using in-memory document store")
	}

	// Server sessions: Redis when configured, in-memory otherwise.
	var sessions session.ServerSessions
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = session.NewRedisSessions(redisClient.Client)
		log.Info("using redis session store")
	} else {
		sessions = session.NewMemorySessions()
		log.Info("using in-memory session store")
	}

	// Audit pipeline: publisher -> worker -> local store (+ Kafka sink when
	// brokers are configured).
	auditStore := audit.NewInMemoryStore()
	publisher := audit.NewPublisher(log)
	var sink audit.Sink
	kafkaClient, err := kafka.New(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
	if err != nil {
		log.Error("connect kafka", "error", err)
		os.Exit(1)
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
		sink = audit.NewKafkaSink(kafkaClient.Client)
		log.Info("kafka audit sink enabled", "topic", cfg.AuditTopic)
	}
	worker := audit.NewWorker(auditStore, sink, publisher.Inbox(), log)

	m := metrics.New()
	users := storage.NewInMemoryUserStore()
	tokens := auth.NewTokenService(cfg.JWTSigningKey, cfg.TokenTTL)
	authService := auth.NewService(users, tokens, sessions)
	workflowService := workflow.NewService(documents, publisher, m, log)
	queues := queue.NewManager(documents)

	handler := httptransport.NewHandler(authService, workflowService, queues, auditStore, access.NewGuard(), log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, authService))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting trustnet server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
