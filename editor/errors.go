package editor

import "errors"

var ErrInvalidGrouping = errors.New("invalid grouping string")
