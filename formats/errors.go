package formats

import "errors"

var (
	ErrUnknownFormat  = errors.New("unknown audio file format")
	ErrInvalidFile    = errors.New("invalid audio file")
	ErrSampleRate     = errors.New("sample rates of the files differ")
	ErrUnsupportedPCM = errors.New("unsupported sample format")
)
