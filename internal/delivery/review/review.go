package review

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aravinthkumarms/chess-review-v2/internal/bootstrap"
	"github.com/aravinthkumarms/chess-review-v2/internal/domain/review"
	errs "github.com/aravinthkumarms/chess-review-v2/internal/errors"
	"github.com/aravinthkumarms/chess-review-v2/internal/httpresponse"
	"github.com/aravinthkumarms/chess-review-v2/internal/repository"
	"github.com/aravinthkumarms/chess-review-v2/internal/utils"
	reviewUC "github.com/aravinthkumarms/chess-review-v2/internal/usecase/review"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Runner is the review pipeline as the handlers see it.
type Runner interface {
	ReviewGame(ctx context.Context, pgnText string, depth int, progress reviewUC.ProgressFunc) (*review.AnalysisResponse, error)
}

// Registrar receives finished reviews so the replay endpoint can find them.
type Registrar interface {
	Register(resp *review.AnalysisResponse)
}

type ReviewHandler struct {
	cfg       bootstrap.Config
	log       *zap.SugaredLogger
	runner    Runner
	evaluator reviewUC.Evaluator
	book      *repository.BookStore
	registrar Registrar
}

func NewReviewHandler(cfg bootstrap.Config, log *zap.SugaredLogger, runner Runner, evaluator reviewUC.Evaluator, book *repository.BookStore, registrar Registrar) *ReviewHandler {
	return &ReviewHandler{
		cfg:       cfg,
		log:       log,
		runner:    runner,
		evaluator: evaluator,
		book:      book,
		registrar: registrar,
	}
}

type AnalyzeRequest struct {
	PGN   string `json:"pgn"`
	Depth int    `json:"depth"`
}

type EvalRequest struct {
	Fen     string `json:"fen"`
	Depth   int    `json:"depth"`
	MultiPV int    `json:"multiPv"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Evaluator     string `json:"evaluator"`
	BookLoaded    bool   `json:"bookLoaded"`
	BookPositions int    `json:"bookPositions"`
}

func (h *ReviewHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Error("analyze decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PGN == "" {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "pgn is required")
		return
	}
	if req.Depth <= 0 {
		req.Depth = h.cfg.EvalDepth
	}

	resp, err := h.runner.ReviewGame(r.Context(), req.PGN, req.Depth, nil)
	if err != nil {
		h.writeReviewError(w, err)
		return
	}

	if h.registrar != nil {
		h.registrar.Register(resp)
	}

	h.log.Infof("review %s finished: %d moves, accuracy %.1f", resp.ReviewID, len(resp.Moves), resp.Accuracy)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (h *ReviewHandler) HandleEval(w http.ResponseWriter, r *http.Request) {
	var req EvalRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Error("eval decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Fen == "" {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "fen is required")
		return
	}
	if req.Depth <= 0 {
		req.Depth = h.cfg.ExploreDepth
	}

	result, err := h.evaluator.Evaluate(r.Context(), req.Fen, req.Depth, req.MultiPV)
	if err != nil {
		h.log.Error(err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadGateway, err.Error())
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, result)
}

func (h *ReviewHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	positions, loaded := h.book.Ready()
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Evaluator:     h.cfg.EvalURL,
		BookLoaded:    loaded,
		BookPositions: positions,
	})
}

type wsFrame struct {
	Type   string                   `json:"type"`
	Done   int                      `json:"done,omitempty"`
	Total  int                      `json:"total,omitempty"`
	Result *review.AnalysisResponse `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

// HandleAnalyzeWS runs one review over a websocket, streaming progress frames
// while the evaluation batch is in flight. If the client goes away mid-run the
// review is abandoned and its result discarded.
func (h *ReviewHandler) HandleAnalyzeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("upgrade error:", err)
		return
	}
	defer conn.Close()

	var req AnalyzeRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.log.Error("analyze ws read error:", err)
		return
	}
	if req.Depth <= 0 {
		req.Depth = h.cfg.EvalDepth
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Detect the client closing mid-analysis; pending evaluations for an
	// abandoned review must not be waited on.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	var writeMu sync.Mutex
	write := func(frame wsFrame) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(frame); err != nil {
			h.log.Debug("analyze ws write error:", err)
		}
	}

	resp, err := h.runner.ReviewGame(ctx, req.PGN, req.Depth, func(done, total int) {
		write(wsFrame{Type: "progress", Done: done, Total: total})
	})
	if err != nil {
		write(wsFrame{Type: "error", Error: err.Error()})
		return
	}

	if ctx.Err() != nil {
		// Client is gone, do not hand the result to anyone.
		return
	}

	if h.registrar != nil {
		h.registrar.Register(resp)
	}
	write(wsFrame{Type: "result", Result: resp})
}

func (h *ReviewHandler) writeReviewError(w http.ResponseWriter, err error) {
	h.log.Error(err)
	switch {
	case errors.Is(err, errs.ErrBadPGN):
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrEvaluatorUnavailable):
		httpresponse.WriteResponseWithStatus(w, http.StatusBadGateway, err.Error())
	default:
		httpresponse.WriteInternalErrorResponse(w)
	}
}
