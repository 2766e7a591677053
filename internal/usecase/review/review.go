package review

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aravinthkumarms/chess-review-v2/internal/domain/review"
	"github.com/aravinthkumarms/chess-review-v2/internal/repository"
)

// Evaluator is the external position evaluator contract the pipeline needs.
type Evaluator interface {
	Evaluate(ctx context.Context, fen string, depth, multiPv int) (review.Eval, error)
}

// ProgressFunc fires once per completed evaluation request. Completion order
// is irrelevant, only the count matters.
type ProgressFunc func(done, total int)

type ReviewUseCase struct {
	evaluator Evaluator
	book      *repository.BookStore
	log       *zap.SugaredLogger
}

func NewReviewUseCase(evaluator Evaluator, book *repository.BookStore, log *zap.SugaredLogger) *ReviewUseCase {
	return &ReviewUseCase{
		evaluator: evaluator,
		book:      book,
		log:       log,
	}
}

// ReviewGame runs the full pipeline: replay the PGN, evaluate every visited
// position, classify each move against the evaluation trace and the opening
// book, and aggregate accuracy. An unparsable PGN or any failed evaluation
// fails the whole review; a missing opening book does not.
func (u *ReviewUseCase) ReviewGame(ctx context.Context, pgnText string, depth int, progress ProgressFunc) (*review.AnalysisResponse, error) {
	rec, err := review.ParseGame(pgnText)
	if err != nil {
		return nil, err
	}

	trace, err := u.evaluateAll(ctx, rec.FENs, depth, progress)
	if err != nil {
		return nil, err
	}

	book, err := u.book.Load(ctx)
	if err != nil {
		u.log.Warnw("opening book unavailable, review proceeds without theory", "error", err)
	}

	moves := review.ClassifyMoves(rec, trace, book)

	whiteAcc := review.AccuracyForSide(moves, true)
	blackAcc := review.AccuracyForSide(moves, false)

	return &review.AnalysisResponse{
		ReviewID:             uuid.New().String(),
		WhitePlayer:          rec.WhitePlayer,
		BlackPlayer:          rec.BlackPlayer,
		WhiteElo:             rec.WhiteElo,
		BlackElo:             rec.BlackElo,
		TimeControl:          rec.TimeControl,
		StartFEN:             rec.FENs[0],
		StartEvaluation:      trace[0].Evaluation,
		Accuracy:             review.Accuracy(moves),
		WhiteAccuracy:        whiteAcc,
		BlackAccuracy:        blackAcc,
		WhiteRating:          review.EstimateRating(whiteAcc),
		BlackRating:          review.EstimateRating(blackAcc),
		WhiteClassifications: review.CountClassifications(moves, true),
		BlackClassifications: review.CountClassifications(moves, false),
		Moves:                moves,
	}, nil
}

// evaluateAll requests an evaluation for every FEN concurrently and gathers
// the results back index-aligned to the input, whatever the completion order.
// The first failed request fails the whole batch; there are no partial traces.
func (u *ReviewUseCase) evaluateAll(ctx context.Context, fens []string, depth int, progress ProgressFunc) ([]review.Eval, error) {
	results := make([]review.Eval, len(fens))

	var (
		wg       sync.WaitGroup
		done     atomic.Int64
		mu       sync.Mutex
		firstErr error
	)

	for i, fen := range fens {
		wg.Add(1)
		go func(i int, fen string) {
			defer wg.Done()

			result, err := u.evaluator.Evaluate(ctx, fen, depth, 1)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			results[i] = result
			if progress != nil {
				progress(int(done.Add(1)), len(fens))
			}
		}(i, fen)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
