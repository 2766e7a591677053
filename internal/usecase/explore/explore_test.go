package explore

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aravinthkumarms/chess-review-v2/internal/domain/review"
	errs "github.com/aravinthkumarms/chess-review-v2/internal/errors"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func testNavigator() *Navigator {
	moves := []review.MoveReview{
		{San: "e4", FenAfter: "fen-1", Evaluation: 10},
		{San: "e5", FenAfter: "fen-2", Evaluation: 20},
		{San: "Nf3", FenAfter: "fen-3", Evaluation: 30},
	}
	return NewNavigator(startFEN, 5, moves)
}

func TestNavigatorInitialState(t *testing.T) {
	nav := testNavigator()

	assert.Equal(t, ModeMainLine, nav.Mode())
	assert.Equal(t, 0, nav.MainIndex())
	assert.Equal(t, 3, nav.MainLength())
	assert.Equal(t, startFEN, nav.CurrentFEN())

	eval, known := nav.CurrentEvaluation()
	assert.Equal(t, 5, eval)
	assert.True(t, known)
}

func TestNavigatorStepForwardBackward(t *testing.T) {
	nav := testNavigator()

	san, ok := nav.StepForward()
	require.True(t, ok)
	assert.Equal(t, "e4", san)
	assert.Equal(t, "fen-1", nav.CurrentFEN())

	san, ok = nav.StepForward()
	require.True(t, ok)
	assert.Equal(t, "e5", san)

	assert.Equal(t, StepUndo, nav.StepBackward())
	assert.Equal(t, 1, nav.MainIndex())
	assert.Equal(t, StepUndo, nav.StepBackward())
	assert.Equal(t, StepNone, nav.StepBackward())
	assert.Equal(t, startFEN, nav.CurrentFEN())
}

func TestNavigatorStepForwardAtEnd(t *testing.T) {
	nav := testNavigator()
	nav.GoToPly(3)

	_, ok := nav.StepForward()
	assert.False(t, ok)
	assert.Equal(t, 3, nav.MainIndex())
}

func TestNavigatorGoToPlyClamps(t *testing.T) {
	nav := testNavigator()

	nav.GoToPly(99)
	assert.Equal(t, 3, nav.MainIndex())
	assert.Equal(t, "fen-3", nav.CurrentFEN())

	nav.GoToPly(-5)
	assert.Equal(t, 0, nav.MainIndex())
}

func TestNavigatorGoToPlyExitsExploration(t *testing.T) {
	nav := testNavigator()
	nav.GoToPly(1)
	_, err := nav.EnterExploration("d4", "x-fen-1")
	require.NoError(t, err)

	nav.GoToPly(2)
	assert.Equal(t, ModeMainLine, nav.Mode())
	assert.Empty(t, nav.Nodes())
	assert.Equal(t, "fen-2", nav.CurrentFEN())
}

func TestNavigatorEnterExploration(t *testing.T) {
	nav := testNavigator()
	nav.GoToPly(2)

	node, err := nav.EnterExploration("d4", "x-fen-1")
	require.NoError(t, err)
	assert.NotEmpty(t, node.ID)

	assert.Equal(t, ModeExploration, nav.Mode())
	assert.Equal(t, 2, nav.BaseIndex())
	assert.Equal(t, 0, nav.Cursor())
	assert.Equal(t, "x-fen-1", nav.CurrentFEN())

	_, known := nav.CurrentEvaluation()
	assert.False(t, known)

	_, err = nav.EnterExploration("d5", "x-fen-2")
	assert.True(t, errors.Is(err, errs.ErrNotMainLine))
}

func TestNavigatorExtendTruncatesAfterCursor(t *testing.T) {
	nav := testNavigator()
	_, err := nav.EnterExploration("a", "fen-a")
	require.NoError(t, err)
	_, err = nav.ExtendExploration("b", "fen-b")
	require.NoError(t, err)
	_, err = nav.ExtendExploration("c", "fen-c")
	require.NoError(t, err)

	nav.StepBackward()
	nav.StepBackward()
	assert.Equal(t, 0, nav.Cursor())

	// Moving again from node a discards b and c.
	_, err = nav.ExtendExploration("d", "fen-d")
	require.NoError(t, err)

	nodes := nav.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0].San)
	assert.Equal(t, "d", nodes[1].San)
	assert.Equal(t, 1, nav.Cursor())
}

func TestNavigatorExtendRequiresActiveLine(t *testing.T) {
	nav := testNavigator()
	_, err := nav.ExtendExploration("d4", "x-fen")
	assert.True(t, errors.Is(err, errs.ErrNoActiveLine))
}

func TestNavigatorBackOutOfExploration(t *testing.T) {
	nav := testNavigator()
	nav.GoToPly(1)
	_, err := nav.EnterExploration("d4", "x-fen")
	require.NoError(t, err)

	assert.Equal(t, StepExitVariation, nav.StepBackward())
	assert.Equal(t, ModeMainLine, nav.Mode())
	assert.Equal(t, 1, nav.MainIndex())
	assert.Empty(t, nav.Nodes())
	assert.Equal(t, "fen-1", nav.CurrentFEN())
}

func TestNavigatorExplorationStepping(t *testing.T) {
	nav := testNavigator()
	_, err := nav.EnterExploration("a", "fen-a")
	require.NoError(t, err)
	_, err = nav.ExtendExploration("b", "fen-b")
	require.NoError(t, err)

	assert.Equal(t, StepUndo, nav.StepBackward())
	assert.Equal(t, 0, nav.Cursor())

	san, ok := nav.StepForward()
	require.True(t, ok)
	assert.Equal(t, "b", san)

	_, ok = nav.StepForward()
	assert.False(t, ok)
}

func TestNavigatorLoadSequence(t *testing.T) {
	nav := testNavigator()
	nav.GoToPly(1)

	nav.LoadSequence([]Node{
		{ID: "n1", San: "d4", Fen: "fen-d4"},
		{ID: "n2", San: "d5", Fen: "fen-d5"},
	})

	assert.Equal(t, ModeExploration, nav.Mode())
	assert.Equal(t, 1, nav.BaseIndex())
	assert.Equal(t, 1, nav.Cursor())
	assert.Equal(t, "fen-d5", nav.CurrentFEN())
}

func TestNavigatorLoadSequenceExtendsActiveLine(t *testing.T) {
	nav := testNavigator()
	_, err := nav.EnterExploration("a", "fen-a")
	require.NoError(t, err)

	nav.LoadSequence([]Node{
		{ID: "n1", San: "b", Fen: "fen-b"},
		{ID: "n2", San: "c", Fen: "fen-c"},
	})

	nodes := nav.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{nodes[0].San, nodes[1].San, nodes[2].San})
	assert.Equal(t, 2, nav.Cursor())
}

func TestNavigatorLoadSequenceEmpty(t *testing.T) {
	nav := testNavigator()
	nav.LoadSequence(nil)
	assert.Equal(t, ModeMainLine, nav.Mode())
}

func TestNavigatorUpdateNodeEvaluation(t *testing.T) {
	nav := testNavigator()
	node, err := nav.EnterExploration("d4", "x-fen")
	require.NoError(t, err)

	assert.True(t, nav.UpdateNodeEvaluation(node.ID, 42))
	eval, known := nav.CurrentEvaluation()
	assert.True(t, known)
	assert.Equal(t, 42, eval)
}

func TestNavigatorUpdateNodeEvaluationStaleID(t *testing.T) {
	nav := testNavigator()
	_, err := nav.EnterExploration("a", "fen-a")
	require.NoError(t, err)
	stale, err := nav.ExtendExploration("b", "fen-b")
	require.NoError(t, err)

	// Stepping back and moving again truncates node b away; its evaluation
	// arriving late must not land anywhere.
	nav.StepBackward()
	fresh, err := nav.ExtendExploration("c", "fen-c")
	require.NoError(t, err)

	assert.False(t, nav.UpdateNodeEvaluation(stale.ID, 77))
	assert.True(t, nav.UpdateNodeEvaluation(fresh.ID, 88))

	eval, known := nav.CurrentEvaluation()
	assert.True(t, known)
	assert.Equal(t, 88, eval)
}

func TestNavigatorToggles(t *testing.T) {
	nav := testNavigator()

	assert.False(t, nav.Flipped())
	assert.True(t, nav.Flip())
	assert.True(t, nav.Flipped())
	assert.False(t, nav.Flip())

	assert.False(t, nav.ShowClocks())
	assert.True(t, nav.ToggleClocks())
	assert.True(t, nav.ShowClocks())
}

func TestApplyUCI(t *testing.T) {
	san, next, err := ApplyUCI(startFEN, "e2e4")
	require.NoError(t, err)

	assert.Equal(t, "e4", san)
	assert.True(t, strings.Contains(next, " b "))
	assert.NotEqual(t, startFEN, next)
}

func TestApplyUCIIllegal(t *testing.T) {
	_, _, err := ApplyUCI(startFEN, "e2e5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrIllegalMove))

	_, _, err = ApplyUCI("not a fen", "e2e4")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrIllegalMove))
}

func TestBuildLine(t *testing.T) {
	nodes, err := BuildLine(startFEN, []string{"e2e4", "e7e5", "g1f3"})
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, "e4", nodes[0].San)
	assert.Equal(t, "e5", nodes[1].San)
	assert.Equal(t, "Nf3", nodes[2].San)
	for _, n := range nodes {
		assert.NotEmpty(t, n.ID)
		assert.NotEmpty(t, n.Fen)
		assert.False(t, n.EvalKnown)
	}
}

func TestBuildLineIllegal(t *testing.T) {
	_, err := BuildLine(startFEN, []string{"e2e4", "e2e4"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrIllegalMove))
}
