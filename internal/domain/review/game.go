package review

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/corentings/chess/v2"

	errs "github.com/aravinthkumarms/chess-review-v2/internal/errors"
)

// clockRe matches PGN clock annotations like {[%clk 0:02:58.1]}.
var clockRe = regexp.MustCompile(`\[%clk\s+([\d:.]+)\]`)

// GameRecord is a fully replayed game: the parsed main line plus everything
// the review pipeline needs without touching the rules library again.
// Positions has one entry per visited position (len(Moves)+1, index 0 is the
// start position); FENs is index-aligned with it.
type GameRecord struct {
	WhitePlayer string
	BlackPlayer string
	WhiteElo    string
	BlackElo    string
	TimeControl string

	Positions []*chess.Position
	Moves     []*chess.Move
	FENs      []string
	SANs      []string
	Clocks    []string
}

// ParseGame replays pgnText into a GameRecord. Any parse or legality failure
// is reported as ErrBadPGN; nothing downstream runs on a partial game.
func ParseGame(pgnText string) (*GameRecord, error) {
	opt, err := chess.PGN(strings.NewReader(pgnText))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrBadPGN, err)
	}
	game := chess.NewGame(opt)

	positions := game.Positions()
	moves := game.Moves()
	if len(positions) != len(moves)+1 {
		return nil, fmt.Errorf("%w: move tree is not a single line", errs.ErrBadPGN)
	}

	rec := &GameRecord{
		WhitePlayer: tagOr(game, "White", "White"),
		BlackPlayer: tagOr(game, "Black", "Black"),
		WhiteElo:    tagOr(game, "WhiteElo", "?"),
		BlackElo:    tagOr(game, "BlackElo", "?"),
		TimeControl: tagOr(game, "TimeControl", "—"),
		Positions:   positions,
		Moves:       moves,
		FENs:        make([]string, 0, len(positions)),
		SANs:        make([]string, 0, len(moves)),
		Clocks:      extractClocks(pgnText),
	}

	for _, pos := range positions {
		rec.FENs = append(rec.FENs, pos.String())
	}
	notation := chess.AlgebraicNotation{}
	for i, mv := range moves {
		rec.SANs = append(rec.SANs, notation.Encode(positions[i], mv))
	}

	return rec, nil
}

func tagOr(game *chess.Game, key, fallback string) string {
	if v := game.GetTagPair(key); v != "" {
		return v
	}
	return fallback
}

// extractClocks pulls clock annotations out of the raw PGN in ply order.
// A game without clocks yields an empty slice, never an error.
func extractClocks(pgnText string) []string {
	matches := clockRe.FindAllStringSubmatch(pgnText, -1)
	clocks := make([]string, 0, len(matches))
	for _, m := range matches {
		clocks = append(clocks, m[1])
	}
	return clocks
}

// ClockAt returns the clock annotation for ply i, empty when absent.
func (r *GameRecord) ClockAt(i int) string {
	if i < len(r.Clocks) {
		return r.Clocks[i]
	}
	return ""
}

// IsWhiteMove reports whether ply i (0-based) was played by White.
func (r *GameRecord) IsWhiteMove(i int) bool {
	return r.Positions[i].Turn() == chess.White
}

// MoveToUCI splits a move into coordinate notation parts.
func MoveToUCI(mv *chess.Move) (from, to, promotion string) {
	from = mv.S1().String()
	to = mv.S2().String()
	switch mv.Promo() {
	case chess.Queen:
		promotion = "q"
	case chess.Rook:
		promotion = "r"
	case chess.Bishop:
		promotion = "b"
	case chess.Knight:
		promotion = "n"
	}
	return from, to, promotion
}
