package review

// Centipawn-loss ladder. A move keeping the loss at or under excellentMax is
// still considered to hold the position.
const (
	excellentMax  = 15
	goodMax       = 30
	inaccuracyMax = 60
	mistakeMax    = 120
	missMax       = 250

	// punishPrevMin is the opponent loss that arms the punishment override.
	punishPrevMin = 120

	// sacrifice overrides: net concession already checked by IsSacrifice.
	brilliantLossMax = 15
	greatLossMax     = 30
)

// BookChecker answers whether a position is known opening theory.
type BookChecker interface {
	Contains(fen string) bool
}

// ClassifyMoves runs the sequential classification pass over a replayed game
// and its evaluation trace. len(trace) must be len(rec.Moves)+1; the caller
// must never hand over a partially populated trace.
//
// Two pieces of state ride across the loop: inBook, which flips to false the
// first time a position is not found in the book and never recovers, and the
// previous ply's centipawn loss, which arms the punishment override.
func ClassifyMoves(rec *GameRecord, trace []Eval, book BookChecker) []MoveReview {
	reviews := make([]MoveReview, 0, len(rec.Moves))

	inBook := true
	prevLoss := 0

	for i, mv := range rec.Moves {
		isWhite := rec.IsWhiteMove(i)
		evalBefore := trace[i].Evaluation
		evalAfter := trace[i+1].Evaluation

		loss := evalBefore - evalAfter
		if !isWhite {
			loss = -loss
		}
		if loss < 0 {
			loss = 0
		}

		sacrifice := IsSacrifice(rec.Positions[i], rec.Positions[i+1], isWhite)
		punishment := prevLoss >= punishPrevMin && loss <= excellentMax

		var cls Classification
		if inBook && book != nil && book.Contains(rec.FENs[i+1]) {
			// Book theory is never penalized, whatever the raw delta says.
			cls = Book
			loss = 0
		} else {
			inBook = false
			cls = classifyLoss(loss, sacrifice, punishment)
		}

		bestMove := ""
		if cls.NeedsBestMove() {
			bestMove = trace[i].BestMove
		}

		from, to, promotion := MoveToUCI(mv)
		reviews = append(reviews, MoveReview{
			San:            rec.SANs[i],
			UCIFrom:        from,
			UCITo:          to,
			Promotion:      promotion,
			FenBefore:      rec.FENs[i],
			FenAfter:       rec.FENs[i+1],
			Evaluation:     evalAfter,
			CPLoss:         loss,
			Classification: cls,
			Color:          cls.Color(),
			Icon:           cls.Icon(),
			BestMoveUCI:    bestMove,
			Clock:          rec.ClockAt(i),
			IsWhite:        isWhite,
			MoveNumber:     i/2 + 1,
		})

		prevLoss = loss
	}

	return reviews
}

// classifyLoss maps a centipawn loss to a class, with the sacrifice and
// punishment overrides applied before the plain ladder.
func classifyLoss(loss int, sacrifice, punishment bool) Classification {
	switch {
	case sacrifice && loss <= brilliantLossMax:
		return Brilliant
	case sacrifice && loss <= greatLossMax:
		return Great
	case punishment:
		return Great
	case loss == 0:
		return Best
	case loss <= excellentMax:
		return Excellent
	case loss <= goodMax:
		return Good
	case loss <= inaccuracyMax:
		return Inaccuracy
	case loss <= mistakeMax:
		return Mistake
	case loss <= missMax:
		return Miss
	default:
		return Blunder
	}
}

// Accuracy reduces per-move losses to the 0-100 score. A game (or side) with
// no moves has nothing to penalize and scores 100.
func Accuracy(moves []MoveReview) float64 {
	return accuracy(moves, func(MoveReview) bool { return true })
}

// AccuracyForSide scores only one side's moves with the same rule.
func AccuracyForSide(moves []MoveReview, isWhite bool) float64 {
	return accuracy(moves, func(m MoveReview) bool { return m.IsWhite == isWhite })
}

func accuracy(moves []MoveReview, keep func(MoveReview) bool) float64 {
	total, count := 0, 0
	for _, m := range moves {
		if !keep(m) {
			continue
		}
		total += m.CPLoss
		count++
	}
	if count == 0 {
		return 100
	}
	acc := 100 - (float64(total)/float64(count))/10
	if acc < 0 {
		return 0
	}
	return acc
}

// EstimateRating maps an accuracy score onto a rough playing-strength
// estimate. Deliberately crude, same ladder the result page always showed.
func EstimateRating(acc float64) int {
	switch {
	case acc >= 95:
		return int(2200 + (acc-95)*120)
	case acc >= 85:
		return int(1500 + (acc-85)*70)
	case acc >= 70:
		return int(850 + (acc-70)*44)
	case acc >= 50:
		return int(400 + (acc-50)*22.5)
	default:
		return int(acc * 8)
	}
}

// CountClassifications tallies one side's verdicts for the summary panel.
func CountClassifications(moves []MoveReview, isWhite bool) ClassificationCounts {
	var counts ClassificationCounts
	for _, m := range moves {
		if m.IsWhite == isWhite {
			counts.Add(m.Classification)
		}
	}
	return counts
}
