package review

import "github.com/corentings/chess/v2"

func pieceValue(t chess.PieceType) int {
	switch t {
	case chess.Pawn:
		return 1
	case chess.Knight, chess.Bishop:
		return 3
	case chess.Rook:
		return 5
	case chess.Queen:
		return 9
	}
	// king
	return 0
}

// materialBalance sums piece values for the given side minus the opponent's.
func materialBalance(board *chess.Board, forWhite bool) int {
	white, black := 0, 0
	for _, piece := range board.SquareMap() {
		if piece.Color() == chess.White {
			white += pieceValue(piece.Type())
		} else {
			black += pieceValue(piece.Type())
		}
	}
	if forWhite {
		return white - black
	}
	return black - white
}

// maxRecapture returns the largest piece value the side to move in pos can win
// with a single capture. In the post-move position the side to move is the
// opponent of the mover, so this is the material the mover left hanging.
// Only immediate captures are inspected, no deeper exchange evaluation.
func maxRecapture(pos *chess.Position) int {
	best := 0
	for _, mv := range pos.ValidMoves() {
		if !mv.HasTag(chess.Capture) && !mv.HasTag(chess.EnPassant) {
			continue
		}
		value := 1 // en passant: the target square itself is empty
		if piece := pos.Board().Piece(mv.S2()); piece != chess.NoPiece {
			value = pieceValue(piece.Type())
		}
		if value > best {
			best = value
		}
	}
	return best
}

// IsSacrifice reports whether the move leading from before to after gave up a
// net two or more pawns-equivalent of material that is not immediately
// recoverable.
func IsSacrifice(before, after *chess.Position, moverIsWhite bool) bool {
	balanceBefore := materialBalance(before.Board(), moverIsWhite)
	balanceAfter := materialBalance(after.Board(), moverIsWhite)
	return balanceAfter-maxRecapture(after)-balanceBefore <= -2
}
