package review

import (
	"testing"

	"github.com/corentings/chess/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// playUCI returns the position before and after playing one coordinate move.
func playUCI(t *testing.T, fen, uci string) (before, after *chess.Position) {
	t.Helper()

	opt, err := chess.FEN(fen)
	require.NoError(t, err)
	game := chess.NewGame(opt)

	before = game.Position()
	mv, err := chess.UCINotation{}.Decode(before, uci)
	require.NoError(t, err)
	require.NoError(t, game.Move(mv, nil))

	return before, game.Position()
}

func TestIsSacrificeRookForPawn(t *testing.T) {
	// Rxd5 wins a pawn but hangs the rook to cxd5.
	before, after := playUCI(t, "k7/8/2p5/3p4/8/3R4/8/K7 w - - 0 1", "d3d5")
	assert.True(t, IsSacrifice(before, after, true))
}

func TestIsSacrificeUndefendedCapture(t *testing.T) {
	// Same capture without the defender is just winning a pawn.
	before, after := playUCI(t, "k7/8/8/3p4/8/3R4/8/K7 w - - 0 1", "d3d5")
	assert.False(t, IsSacrifice(before, after, true))
}

func TestIsSacrificeQuietMove(t *testing.T) {
	rec, err := ParseGame("1. e4 e5 2. Nf3 *")
	require.NoError(t, err)

	for i := range rec.Moves {
		assert.False(t, IsSacrifice(rec.Positions[i], rec.Positions[i+1], rec.IsWhiteMove(i)), rec.SANs[i])
	}
}

func TestPieceValue(t *testing.T) {
	assert.Equal(t, 1, pieceValue(chess.Pawn))
	assert.Equal(t, 3, pieceValue(chess.Knight))
	assert.Equal(t, 3, pieceValue(chess.Bishop))
	assert.Equal(t, 5, pieceValue(chess.Rook))
	assert.Equal(t, 9, pieceValue(chess.Queen))
	assert.Equal(t, 0, pieceValue(chess.King))
}

func TestMaterialBalance(t *testing.T) {
	opt, err := chess.FEN("k7/8/2p5/3p4/8/3R4/8/K7 w - - 0 1")
	require.NoError(t, err)
	pos := chess.NewGame(opt).Position()

	assert.Equal(t, 3, materialBalance(pos.Board(), true))
	assert.Equal(t, -3, materialBalance(pos.Board(), false))
}
