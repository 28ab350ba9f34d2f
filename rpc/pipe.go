package rpc

import "fmt"

// Pipe returns the two directions of an in-process transport. Messages written
// to ab are read by the second endpoint and messages written to ba by the
// first. capacity is raised to 2, the smallest capacity with which responses
// can always be sent without blocking.
func Pipe(capacity int) (ab, ba chan Message) {
	capacity = max(capacity, 2)
	return make(chan Message, capacity), make(chan Message, capacity)
}

// NewPair connects two endpoints with a Pipe. a allocates positive call ids
// and b negative ones.
func NewPair(capacity int, aTable, bTable Table) (a, b *Endpoint) {
	ab, ba := Pipe(capacity)
	return NewEndpoint(ab, ba, aTable, Forward), NewEndpoint(ba, ab, bTable, Reverse)
}

// Arg returns args[i] as a T. Numeric arguments are converted between the
// integer and float kinds, since a transport may have widened them.
func Arg[T any](args []any, i int) (T, error) {
	var zero T
	if i >= len(args) {
		return zero, fmt.Errorf("%w: missing argument %d", ErrArgument, i)
	}
	if v, ok := args[i].(T); ok {
		return v, nil
	}
	if v, ok := convertNumber(args[i], zero); ok {
		return v.(T), nil
	}
	return zero, fmt.Errorf("%w: argument %d is %T, want %T", ErrArgument, i, args[i], zero)
}

func convertNumber(v any, want any) (any, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	default:
		return nil, false
	}
	switch want.(type) {
	case int:
		return int(f), true
	case int64:
		return int64(f), true
	case float32:
		return float32(f), true
	case float64:
		return f, true
	}
	return nil, false
}
