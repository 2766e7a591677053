package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/aravinthkumarms/chess-review-v2/internal/adapters"
	"github.com/aravinthkumarms/chess-review-v2/internal/bootstrap"
	exploreDelivery "github.com/aravinthkumarms/chess-review-v2/internal/delivery/explore"
	reviewDelivery "github.com/aravinthkumarms/chess-review-v2/internal/delivery/review"
	ownMiddleware "github.com/aravinthkumarms/chess-review-v2/internal/middleware"
	"github.com/aravinthkumarms/chess-review-v2/internal/repository"
	reviewUsecase "github.com/aravinthkumarms/chess-review-v2/internal/usecase/review"
)

type mainDeliveryHandler struct {
	review *reviewDelivery.ReviewHandler
	replay *exploreDelivery.SessionHub
}

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	// Redis and Mongo are both optional: without Redis evaluations are simply
	// not memoized, without Mongo the book falls back to TSV partitions only.
	evalCache := initRedis(ctx, logger, cfg)
	bookDB, closeMongo := initMongo(ctx, logger, cfg)
	defer closeMongo()

	evaluator := repository.NewEvaluatorClient(cfg, logger, evalCache)
	book := repository.NewBookStore(cfg, logger, bookDB)
	usecase := reviewUsecase.NewReviewUseCase(evaluator, book, logger)

	hub := exploreDelivery.NewSessionHub(*cfg, logger, evaluator)
	reviewHandler := reviewDelivery.NewReviewHandler(*cfg, logger, usecase, evaluator, book, hub)

	// Warm the book in the background so the first review does not pay for it.
	go func() {
		if _, err := book.Load(ctx); err != nil {
			logger.Warnw("opening book load failed", "error", err)
		}
	}()

	r := chi.NewRouter()
	handlers := &mainDeliveryHandler{review: reviewHandler, replay: hub}
	handlers.Router(r, cfg.IsLocalCors)

	port := cfg.ServerPort
	if port == "" {
		port = ":8080"
	}
	logger.Infof("Server is running on port %s", port)
	if err := http.ListenAndServe(port, r); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)

	r.Post("/api/review", h.review.HandleAnalyze)
	r.Get("/api/review/ws", h.review.HandleAnalyzeWS)
	r.Post("/api/eval", h.review.HandleEval)
	r.Get("/api/health", h.review.HandleHealth)
	r.Get("/api/replay/ws", h.replay.HandleReplay)
}

func initRedis(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	redisAdapter := adapters.NewAdapterRedis(cfg)
	if err := redisAdapter.Init(ctx); err != nil {
		log.Warnw("redis unavailable, evaluation cache disabled", "error", err)
		return nil
	}
	return redisAdapter.GetClient()
}

func initMongo(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) (*mongo.Database, func()) {
	if cfg.MongoURI == "" {
		return nil, func() {}
	}
	mongoAdapter := adapters.NewAdapterMongo(cfg)
	if err := mongoAdapter.Init(ctx); err != nil {
		log.Warnw("mongo unavailable, book limited to local partitions", "error", err)
		return nil, func() {}
	}
	return mongoAdapter.Database, func() {
		if err := mongoAdapter.Close(context.Background()); err != nil {
			log.Warnw("mongo close failed", "error", err)
		}
	}
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
	time.Sleep(1 * time.Second) // time to close connections
}
