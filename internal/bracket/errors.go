package bracket

import "errors"

var (
	ErrValidation           = errors.New("validation failed")
	ErrEqualScores          = errors.New("match cannot end with equal scores")
	ErrNotFound             = errors.New("requested resource not found")
	ErrAlreadyAssigned      = errors.New("both player slots are already assigned")
	ErrInconsistentSetScore = errors.New("set results do not match the reported score")
	ErrInvalidStatus        = errors.New("operation not allowed in the current tournament status")
	ErrMatchNotPlayable     = errors.New("match is not awaiting a result")
)
