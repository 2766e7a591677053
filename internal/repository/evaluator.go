package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aravinthkumarms/chess-review-v2/internal/bootstrap"
	"github.com/aravinthkumarms/chess-review-v2/internal/domain/review"
	errs "github.com/aravinthkumarms/chess-review-v2/internal/errors"
)

// EvaluatorClient talks to the external position evaluator over HTTP JSON.
// An evaluation is a pure function of (fen, depth), so single-PV answers are
// memoized in redis when a client is available; redis being down only turns
// the memo off, it never fails an evaluation.
type EvaluatorClient struct {
	cfg    *bootstrap.Config
	log    *zap.SugaredLogger
	client *http.Client
	cache  *redis.Client
}

type evalRequest struct {
	Fen     string `json:"fen"`
	Depth   int    `json:"depth"`
	MultiPV int    `json:"multiPv,omitempty"`
}

func NewEvaluatorClient(cfg *bootstrap.Config, log *zap.SugaredLogger, cache *redis.Client) *EvaluatorClient {
	return &EvaluatorClient{
		cfg:    cfg,
		log:    log,
		client: &http.Client{Timeout: 60 * time.Second},
		cache:  cache,
	}
}

func (e *EvaluatorClient) Evaluate(ctx context.Context, fen string, depth, multiPv int) (review.Eval, error) {
	if multiPv <= 1 {
		if cached, ok := e.fromCache(ctx, fen, depth); ok {
			return cached, nil
		}
	}

	requestID := uuid.New().String()

	payload, err := json.Marshal(evalRequest{Fen: fen, Depth: depth, MultiPV: multiPv})
	if err != nil {
		return review.Eval{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.EvalURL, bytes.NewReader(payload))
	if err != nil {
		return review.Eval{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Errorw("evaluator request failed", "id", requestID, "error", err)
		return review.Eval{}, fmt.Errorf("%w: %v", errs.ErrEvaluatorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.log.Errorw("evaluator returned non-200", "id", requestID, "status", resp.StatusCode)
		return review.Eval{}, fmt.Errorf("%w: status %d", errs.ErrEvaluatorUnavailable, resp.StatusCode)
	}

	var result review.Eval
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return review.Eval{}, fmt.Errorf("%w: %v", errs.ErrEvaluatorUnavailable, err)
	}

	if multiPv <= 1 {
		e.toCache(ctx, fen, depth, result)
	}
	return result, nil
}

func cacheKey(fen string, depth int) string {
	return fmt.Sprintf("eval:%d:%s", depth, fen)
}

func (e *EvaluatorClient) fromCache(ctx context.Context, fen string, depth int) (review.Eval, bool) {
	if e.cache == nil {
		return review.Eval{}, false
	}
	raw, err := e.cache.Get(ctx, cacheKey(fen, depth)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			e.log.Debugw("eval cache read failed", "error", err)
		}
		return review.Eval{}, false
	}
	var cached review.Eval
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return review.Eval{}, false
	}
	return cached, true
}

func (e *EvaluatorClient) toCache(ctx context.Context, fen string, depth int, result review.Eval) {
	if e.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, cacheKey(fen, depth), raw, 24*time.Hour).Err(); err != nil {
		e.log.Debugw("eval cache write failed", "error", err)
	}
}
