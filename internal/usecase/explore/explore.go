package explore

import (
	"fmt"

	"github.com/corentings/chess/v2"
	"github.com/google/uuid"

	"github.com/aravinthkumarms/chess-review-v2/internal/domain/review"
	errs "github.com/aravinthkumarms/chess-review-v2/internal/errors"
)

// Mode is where the replay pointer currently lives: on the reviewed main line
// or inside the single provisional exploration line branched off it.
type Mode uint8

const (
	ModeMainLine Mode = iota
	ModeExploration
)

func (m Mode) String() string {
	if m == ModeExploration {
		return "exploration"
	}
	return "mainline"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// StepOutcome reports what a backward step did.
type StepOutcome uint8

const (
	StepNone StepOutcome = iota
	StepUndo
	StepExitVariation
)

func (s StepOutcome) String() string {
	switch s {
	case StepUndo:
		return "undo"
	case StepExitVariation:
		return "exit"
	}
	return "none"
}

// Node is one ply of an exploration line. Evaluation arrives asynchronously;
// until then EvalKnown is false and Eval reads as 0.
type Node struct {
	ID        string `json:"id"`
	San       string `json:"san"`
	Fen       string `json:"fen"`
	Eval      int    `json:"evaluation"`
	EvalKnown bool   `json:"evalKnown"`
}

func newNode(san, fen string) Node {
	return Node{ID: uuid.New().String(), San: san, Fen: fen}
}

// Navigator is the replay state machine. It holds the immutable reviewed main
// line plus at most one mutable exploration line anchored into it. All state
// that used to be scattered UI toggles lives here behind explicit transitions.
// Not safe for concurrent use; callers serialize access.
type Navigator struct {
	startFEN  string
	startEval int
	main      []review.MoveReview

	mode      Mode
	index     int // main-line ply pointer, 0 = start position
	baseIndex int // ply after which the exploration diverged
	nodes     []Node
	cursor    int

	flipped    bool
	showClocks bool
}

func NewNavigator(startFEN string, startEval int, moves []review.MoveReview) *Navigator {
	return &Navigator{
		startFEN:  startFEN,
		startEval: startEval,
		main:      moves,
	}
}

func (n *Navigator) Mode() Mode      { return n.mode }
func (n *Navigator) MainIndex() int  { return n.index }
func (n *Navigator) BaseIndex() int  { return n.baseIndex }
func (n *Navigator) Cursor() int     { return n.cursor }
func (n *Navigator) Nodes() []Node   { return n.nodes }
func (n *Navigator) MainLength() int { return len(n.main) }

// GoToPly jumps to main-line ply k, always abandoning any exploration line.
// k is clamped into the valid range.
func (n *Navigator) GoToPly(k int) {
	if k < 0 {
		k = 0
	}
	if k > len(n.main) {
		k = len(n.main)
	}
	n.mode = ModeMainLine
	n.nodes = nil
	n.cursor = 0
	n.index = k
}

// StepForward advances one ply and returns the SAN of the move just entered.
// ok is false when nothing moved (already at the end); callers use that
// silence to skip the move sound.
func (n *Navigator) StepForward() (san string, ok bool) {
	if n.mode == ModeExploration {
		if n.cursor >= len(n.nodes)-1 {
			return "", false
		}
		n.cursor++
		return n.nodes[n.cursor].San, true
	}
	if n.index >= len(n.main) {
		return "", false
	}
	n.index++
	return n.main[n.index-1].San, true
}

// StepBackward undoes one ply. Backing out of an exploration line at its
// first node returns to the main line at the unchanged anchor ply.
func (n *Navigator) StepBackward() StepOutcome {
	if n.mode == ModeExploration {
		if n.cursor > 0 {
			n.cursor--
			return StepUndo
		}
		n.mode = ModeMainLine
		n.index = n.baseIndex
		n.nodes = nil
		n.cursor = 0
		return StepExitVariation
	}
	if n.index > 0 {
		n.index--
		return StepUndo
	}
	return StepNone
}

// EnterExploration branches off the main line at the current ply with a
// single-node line.
func (n *Navigator) EnterExploration(san, fen string) (Node, error) {
	if n.mode != ModeMainLine {
		return Node{}, errs.ErrNotMainLine
	}
	node := newNode(san, fen)
	n.baseIndex = n.index
	n.nodes = []Node{node}
	n.cursor = 0
	n.mode = ModeExploration
	return node, nil
}

// ExtendExploration truncates the line after the cursor and appends the new
// node, so moving again after stepping back discards the old continuation.
func (n *Navigator) ExtendExploration(san, fen string) (Node, error) {
	if n.mode != ModeExploration {
		return Node{}, errs.ErrNoActiveLine
	}
	node := newNode(san, fen)
	n.nodes = append(n.nodes[:n.cursor+1], node)
	n.cursor = len(n.nodes) - 1
	return node, nil
}

// LoadSequence bulk-appends a ready-made continuation, entering exploration
// first when still on the main line. The cursor lands on the last node.
func (n *Navigator) LoadSequence(nodes []Node) {
	if len(nodes) == 0 {
		return
	}
	if n.mode != ModeExploration {
		n.baseIndex = n.index
		n.nodes = append([]Node(nil), nodes...)
		n.mode = ModeExploration
	} else {
		n.nodes = append(n.nodes[:n.cursor+1], nodes...)
	}
	n.cursor = len(n.nodes) - 1
}

// UpdateNodeEvaluation patches the evaluation of the node with the given id
// once it arrives. Returns false when the node has been truncated away in the
// meantime; a late result must never land on a different node. The cursor
// does not move.
func (n *Navigator) UpdateNodeEvaluation(id string, value int) bool {
	for i := range n.nodes {
		if n.nodes[i].ID == id {
			n.nodes[i].Eval = value
			n.nodes[i].EvalKnown = true
			return true
		}
	}
	return false
}

// CurrentFEN returns the position under the replay pointer.
func (n *Navigator) CurrentFEN() string {
	if n.mode == ModeExploration {
		return n.nodes[n.cursor].Fen
	}
	if n.index == 0 {
		return n.startFEN
	}
	return n.main[n.index-1].FenAfter
}

// CurrentEvaluation returns the evaluation under the replay pointer. known is
// false only for exploration nodes whose evaluation has not arrived yet.
func (n *Navigator) CurrentEvaluation() (value int, known bool) {
	if n.mode == ModeExploration {
		node := n.nodes[n.cursor]
		return node.Eval, node.EvalKnown
	}
	if n.index == 0 {
		return n.startEval, true
	}
	return n.main[n.index-1].Evaluation, true
}

// Orientation and clock display are plain toggles, independent of line state.

func (n *Navigator) Flip() bool {
	n.flipped = !n.flipped
	return n.flipped
}

func (n *Navigator) Flipped() bool { return n.flipped }

func (n *Navigator) ToggleClocks() bool {
	n.showClocks = !n.showClocks
	return n.showClocks
}

func (n *Navigator) ShowClocks() bool { return n.showClocks }

// ApplyUCI plays one coordinate move on top of fen and returns the SAN of the
// move and the resulting position. Illegal moves are rejected without side
// effects.
func ApplyUCI(fen, uci string) (san, nextFEN string, err error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return "", "", fmt.Errorf("%w: bad position %q", errs.ErrIllegalMove, fen)
	}
	game := chess.NewGame(opt)
	pos := game.Position()

	mv, err := chess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", errs.ErrIllegalMove, uci)
	}
	if err := game.Move(mv, nil); err != nil {
		return "", "", fmt.Errorf("%w: %s", errs.ErrIllegalMove, uci)
	}

	return chess.AlgebraicNotation{}.Encode(pos, mv), game.FEN(), nil
}

// BuildLine replays a UCI continuation from fen into exploration nodes, used
// when the user jumps into an engine-suggested line.
func BuildLine(fen string, ucis []string) ([]Node, error) {
	nodes := make([]Node, 0, len(ucis))
	current := fen
	for _, uci := range ucis {
		san, next, err := ApplyUCI(current, uci)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, newNode(san, next))
		current = next
	}
	return nodes, nil
}
