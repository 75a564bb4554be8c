package model

import "errors"

// ErrInvalidConfig is wrapped by every validation error raised before a run starts.
var ErrInvalidConfig = errors.New("invalid configuration")
