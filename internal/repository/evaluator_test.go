package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aravinthkumarms/chess-review-v2/internal/bootstrap"
	"github.com/aravinthkumarms/chess-review-v2/internal/domain/review"
	errs "github.com/aravinthkumarms/chess-review-v2/internal/errors"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestEvaluatorClientEvaluate(t *testing.T) {
	var got evalRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(review.Eval{
			Evaluation: 35,
			BestMove:   "e2e4",
			PVLines:    []review.PVLine{{Evaluation: 35, Moves: []string{"e2e4", "e7e5"}}},
		})
	}))
	defer server.Close()

	client := NewEvaluatorClient(&bootstrap.Config{EvalURL: server.URL}, testLogger(), nil)
	result, err := client.Evaluate(context.Background(), startFEN, 12, 2)
	require.NoError(t, err)

	assert.Equal(t, startFEN, got.Fen)
	assert.Equal(t, 12, got.Depth)
	assert.Equal(t, 2, got.MultiPV)

	assert.Equal(t, 35, result.Evaluation)
	assert.Equal(t, "e2e4", result.BestMove)
	require.Len(t, result.PVLines, 1)
	assert.Equal(t, []string{"e2e4", "e7e5"}, result.PVLines[0].Moves)
}

func TestEvaluatorClientNon200(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewEvaluatorClient(&bootstrap.Config{EvalURL: server.URL}, testLogger(), nil)
	_, err := client.Evaluate(context.Background(), startFEN, 10, 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrEvaluatorUnavailable))
	assert.Equal(t, int32(1), calls.Load())
}

func TestEvaluatorClientConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewEvaluatorClient(&bootstrap.Config{EvalURL: server.URL}, testLogger(), nil)
	_, err := client.Evaluate(context.Background(), startFEN, 10, 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrEvaluatorUnavailable))
}

func TestEvaluatorClientBadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewEvaluatorClient(&bootstrap.Config{EvalURL: server.URL}, testLogger(), nil)
	_, err := client.Evaluate(context.Background(), startFEN, 10, 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrEvaluatorUnavailable))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "eval:10:"+startFEN, cacheKey(startFEN, 10))
}
