package rti

import "strconv"

// RequestId is the client-allocated correlator linking a request to its
// response(s). The wire value is always a string; RequestId exists so
// callers inspecting raw Event frames have a named type to parse it
// into instead of comparing strconv output by hand. Allocation itself
// is owned by internal/plantworker.IDSource, shared across every plant
// under one Client so ids never collide across plants either.
type RequestId uint64

func (id RequestId) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseRequestId parses a wire request_id field back into a RequestId.
func ParseRequestId(s string) (RequestId, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return RequestId(v), nil
}
