package review

// Classification grades a single played move. The zero value is Brilliant on
// purpose: an unset classification is loud in tests rather than silently Good.
type Classification uint8

const (
	Brilliant Classification = iota
	Great
	Best
	Excellent
	Good
	Book
	Inaccuracy
	Mistake
	Miss
	Blunder
)

var classificationNames = [...]string{
	Brilliant:  "Brilliant",
	Great:      "Great",
	Best:       "Best",
	Excellent:  "Excellent",
	Good:       "Good",
	Book:       "Book",
	Inaccuracy: "Inaccuracy",
	Mistake:    "Mistake",
	Miss:       "Miss",
	Blunder:    "Blunder",
}

func (c Classification) String() string {
	if int(c) >= len(classificationNames) {
		return "Unknown"
	}
	return classificationNames[c]
}

func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// NeedsBestMove reports whether the review record carries the engine's best
// move for the pre-move position. Top classes and book theory omit it.
func (c Classification) NeedsBestMove() bool {
	switch c {
	case Inaccuracy, Mistake, Miss, Blunder, Excellent, Good:
		return true
	}
	return false
}

// Color returns the badge color used by the result page.
func (c Classification) Color() string {
	switch c {
	case Brilliant:
		return "#26c2a3"
	case Great:
		return "#749bbf"
	case Best:
		return "#81b64c"
	case Excellent:
		return "#96bc4b"
	case Good:
		return "#95b776"
	case Book:
		return "#d5a47d"
	case Inaccuracy:
		return "#f7c631"
	case Mistake:
		return "#ffa459"
	case Miss:
		return "#ff7769"
	case Blunder:
		return "#fa412d"
	}
	return "#95b776"
}

// Icon returns the badge icon name used by the result page.
func (c Classification) Icon() string {
	switch c {
	case Brilliant:
		return "brilliant"
	case Great:
		return "great"
	case Best:
		return "best"
	case Excellent:
		return "excellent"
	case Good:
		return "good"
	case Book:
		return "book"
	case Inaccuracy:
		return "inaccuracy"
	case Mistake:
		return "mistake"
	case Miss:
		return "miss"
	case Blunder:
		return "blunder"
	}
	return "good"
}

// MoveReview is the per-ply verdict. Immutable once produced.
type MoveReview struct {
	San            string         `json:"san"`
	UCIFrom        string         `json:"uciFrom"`
	UCITo          string         `json:"uciTo"`
	Promotion      string         `json:"promotion,omitempty"`
	FenBefore      string         `json:"fenBefore"`
	FenAfter       string         `json:"fenAfter"`
	Evaluation     int            `json:"evaluationAfter"`
	CPLoss         int            `json:"cpLoss"`
	Classification Classification `json:"classification"`
	Color          string         `json:"color"`
	Icon           string         `json:"icon"`
	BestMoveUCI    string         `json:"bestMoveUci,omitempty"`
	Clock          string         `json:"clock,omitempty"`
	IsWhite        bool           `json:"isWhite"`
	MoveNumber     int            `json:"moveNumber"`
}

// PVLine is one engine line from a multi-PV evaluation.
type PVLine struct {
	Evaluation int      `json:"evaluation"`
	Moves      []string `json:"moves"`
}

// Eval is a single position evaluation as returned by the evaluator service.
// Evaluation is in centipawns from White's point of view (normalised), with
// forced mates saturated around +/-10000.
type Eval struct {
	Evaluation int      `json:"evaluation"`
	BestMove   string   `json:"bestMove,omitempty"`
	PVLines    []PVLine `json:"pvLines,omitempty"`
}

type ClassificationCounts struct {
	Brilliant  int `json:"brilliant"`
	Great      int `json:"great"`
	Best       int `json:"best"`
	Excellent  int `json:"excellent"`
	Good       int `json:"good"`
	Book       int `json:"book"`
	Inaccuracy int `json:"inaccuracy"`
	Mistake    int `json:"mistake"`
	Miss       int `json:"miss"`
	Blunder    int `json:"blunder"`
}

func (cc *ClassificationCounts) Add(c Classification) {
	switch c {
	case Brilliant:
		cc.Brilliant++
	case Great:
		cc.Great++
	case Best:
		cc.Best++
	case Excellent:
		cc.Excellent++
	case Good:
		cc.Good++
	case Book:
		cc.Book++
	case Inaccuracy:
		cc.Inaccuracy++
	case Mistake:
		cc.Mistake++
	case Miss:
		cc.Miss++
	case Blunder:
		cc.Blunder++
	}
}

// AnalysisResponse is the full result of reviewing one game.
type AnalysisResponse struct {
	ReviewID             string               `json:"reviewId"`
	WhitePlayer          string               `json:"whitePlayer"`
	BlackPlayer          string               `json:"blackPlayer"`
	WhiteElo             string               `json:"whiteElo"`
	BlackElo             string               `json:"blackElo"`
	TimeControl          string               `json:"timeControl"`
	StartFEN             string               `json:"startFen"`
	StartEvaluation      int                  `json:"startEvaluation"`
	Accuracy             float64              `json:"accuracy"`
	WhiteAccuracy        float64              `json:"whiteAccuracy"`
	BlackAccuracy        float64              `json:"blackAccuracy"`
	WhiteRating          int                  `json:"whiteRating"`
	BlackRating          int                  `json:"blackRating"`
	WhiteClassifications ClassificationCounts `json:"whiteClassifications"`
	BlackClassifications ClassificationCounts `json:"blackClassifications"`
	Moves                []MoveReview         `json:"moves"`
}
