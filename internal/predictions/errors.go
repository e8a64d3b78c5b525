package predictions

import "errors"

var (
	ErrNotFound     = errors.New("prediction not found")
	ErrInvalidRange = errors.New("invalid pagination range")
)
