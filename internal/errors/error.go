package errors

import "errors"

var (
	ErrBadPGN               = errors.New("pgn could not be parsed into a legal move sequence")
	ErrEvaluatorUnavailable = errors.New("position evaluator request failed")
	ErrBookEmpty            = errors.New("no opening book positions loaded")
	ErrIllegalMove          = errors.New("illegal move")
	ErrNoActiveLine         = errors.New("no active exploration line")
	ErrNotMainLine          = errors.New("already exploring a variation")
	ErrReviewNotFound       = errors.New("review not found")
	ErrInternal             = errors.New("internal error")
)
