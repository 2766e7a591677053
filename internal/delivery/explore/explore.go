package explore

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aravinthkumarms/chess-review-v2/internal/bootstrap"
	"github.com/aravinthkumarms/chess-review-v2/internal/domain/review"
	errs "github.com/aravinthkumarms/chess-review-v2/internal/errors"
	"github.com/aravinthkumarms/chess-review-v2/internal/httpresponse"
	"github.com/aravinthkumarms/chess-review-v2/internal/usecase/explore"
	reviewUC "github.com/aravinthkumarms/chess-review-v2/internal/usecase/review"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SessionHub keeps finished reviews addressable by id so replay sessions can
// attach to them.
type SessionHub struct {
	cfg       bootstrap.Config
	log       *zap.SugaredLogger
	evaluator reviewUC.Evaluator

	mu      sync.RWMutex
	reviews map[string]*review.AnalysisResponse
}

func NewSessionHub(cfg bootstrap.Config, log *zap.SugaredLogger, evaluator reviewUC.Evaluator) *SessionHub {
	return &SessionHub{
		cfg:       cfg,
		log:       log,
		evaluator: evaluator,
		reviews:   make(map[string]*review.AnalysisResponse),
	}
}

func (h *SessionHub) Register(resp *review.AnalysisResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reviews[resp.ReviewID] = resp
}

func (h *SessionHub) lookup(id string) (*review.AnalysisResponse, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	resp, ok := h.reviews[id]
	return resp, ok
}

// command is one client instruction on the replay socket.
type command struct {
	Cmd       string   `json:"cmd"`
	Ply       int      `json:"ply"`
	From      string   `json:"from"`
	To        string   `json:"to"`
	Promotion string   `json:"promotion"`
	Moves     []string `json:"moves"`
	At        int      `json:"at"`
}

// HandleReplay attaches a websocket replay session to a finished review.
func (h *SessionHub) HandleReplay(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	resp, ok := h.lookup(id)
	if !ok {
		httpresponse.WriteResponseWithStatus(w, http.StatusNotFound, errs.ErrReviewNotFound.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("upgrade error:", err)
		return
	}

	s := &replaySession{
		hub:  h,
		log:  h.log,
		conn: conn,
		nav:  explore.NewNavigator(resp.StartFEN, resp.StartEvaluation, resp.Moves),
	}
	s.run()
}

// replaySession owns one websocket connection and its navigator. The read
// loop is the only goroutine touching the connection reader; async evaluation
// results come back through navMu and writeMu.
type replaySession struct {
	hub  *SessionHub
	log  *zap.SugaredLogger
	conn *websocket.Conn

	navMu sync.Mutex
	nav   *explore.Navigator

	writeMu sync.Mutex
}

type stateFrame struct {
	Type       string `json:"type"`
	Mode       string `json:"mode"`
	Fen        string `json:"fen"`
	San        string `json:"san,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	Ply        int    `json:"ply"`
	Evaluation int    `json:"evaluation"`
	EvalKnown  bool   `json:"evalKnown"`
	Flipped    bool   `json:"flipped"`
	ShowClocks bool   `json:"showClocks"`
}

type evalFrame struct {
	Type       string `json:"type"`
	NodeID     string `json:"nodeId"`
	Evaluation int    `json:"evaluation"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func (s *replaySession) run() {
	defer s.conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.sendState("", "")

	for {
		var cmd command
		if err := s.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("replay read error:", err)
			}
			return
		}
		s.handle(ctx, cmd)
	}
}

func (s *replaySession) handle(ctx context.Context, cmd command) {
	switch cmd.Cmd {
	case "goto":
		s.navMu.Lock()
		s.nav.GoToPly(cmd.Ply)
		s.navMu.Unlock()
		s.sendState("", "")

	case "forward":
		s.navMu.Lock()
		san, _ := s.nav.StepForward()
		s.navMu.Unlock()
		s.sendState(san, "")

	case "back":
		s.navMu.Lock()
		outcome := s.nav.StepBackward()
		s.navMu.Unlock()
		s.sendState("", outcome.String())

	case "flip":
		s.navMu.Lock()
		s.nav.Flip()
		s.navMu.Unlock()
		s.sendState("", "")

	case "clocks":
		s.navMu.Lock()
		s.nav.ToggleClocks()
		s.navMu.Unlock()
		s.sendState("", "")

	case "move":
		s.handleMove(ctx, cmd)

	case "line":
		s.handleLine(ctx, cmd)

	default:
		s.send(errorFrame{Type: "error", Error: "unknown command: " + cmd.Cmd})
	}
}

// handleMove plays one board move off the current position, branching into or
// extending the exploration line, then requests an evaluation for the new node.
func (s *replaySession) handleMove(ctx context.Context, cmd command) {
	uci := cmd.From + cmd.To + cmd.Promotion

	s.navMu.Lock()
	san, fen, err := explore.ApplyUCI(s.nav.CurrentFEN(), uci)
	if err != nil {
		s.navMu.Unlock()
		s.send(errorFrame{Type: "rejected", Error: err.Error()})
		return
	}

	var node explore.Node
	if s.nav.Mode() == explore.ModeExploration {
		node, err = s.nav.ExtendExploration(san, fen)
	} else {
		node, err = s.nav.EnterExploration(san, fen)
	}
	s.navMu.Unlock()

	if err != nil {
		s.send(errorFrame{Type: "error", Error: err.Error()})
		return
	}

	s.sendState(san, "")
	go s.evaluateNode(ctx, node)
}

// handleLine loads a prepared continuation, typically a PV the client clicked,
// up to and including the selected ply.
func (s *replaySession) handleLine(ctx context.Context, cmd command) {
	if len(cmd.Moves) == 0 {
		return
	}
	at := cmd.At
	if at < 0 || at >= len(cmd.Moves) {
		at = len(cmd.Moves) - 1
	}

	s.navMu.Lock()
	nodes, err := explore.BuildLine(s.nav.CurrentFEN(), cmd.Moves[:at+1])
	if err != nil {
		s.navMu.Unlock()
		s.send(errorFrame{Type: "rejected", Error: err.Error()})
		return
	}
	s.nav.LoadSequence(nodes)
	s.navMu.Unlock()

	s.sendState(nodes[len(nodes)-1].San, "")
	for _, node := range nodes {
		go s.evaluateNode(ctx, node)
	}
}

// evaluateNode fetches the evaluation for one exploration node and patches it
// back in by node id. A node truncated away while the request was in flight
// drops the result silently.
func (s *replaySession) evaluateNode(ctx context.Context, node explore.Node) {
	result, err := s.hub.evaluator.Evaluate(ctx, node.Fen, s.hub.cfg.ExploreDepth, 1)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warnw("exploration evaluation failed", "fen", node.Fen, "error", err)
		}
		return
	}

	s.navMu.Lock()
	ok := s.nav.UpdateNodeEvaluation(node.ID, result.Evaluation)
	s.navMu.Unlock()

	if ok {
		s.send(evalFrame{Type: "eval", NodeID: node.ID, Evaluation: result.Evaluation})
	}
}

func (s *replaySession) sendState(san, outcome string) {
	s.navMu.Lock()
	ply := s.nav.MainIndex()
	if s.nav.Mode() == explore.ModeExploration {
		ply = s.nav.Cursor()
	}
	eval, known := s.nav.CurrentEvaluation()
	frame := stateFrame{
		Type:       "state",
		Mode:       s.nav.Mode().String(),
		Fen:        s.nav.CurrentFEN(),
		San:        san,
		Outcome:    outcome,
		Ply:        ply,
		Evaluation: eval,
		EvalKnown:  known,
		Flipped:    s.nav.Flipped(),
		ShowClocks: s.nav.ShowClocks(),
	}
	s.navMu.Unlock()

	s.send(frame)
}

func (s *replaySession) send(v any) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(v); err != nil {
		s.log.Debug("replay write error:", err)
	}
}
