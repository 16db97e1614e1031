package buffer

import "errors"

// ErrFull reports that the buffer reached its configured capacity.
var ErrFull = errors.New("event buffer is full")
