package leetcode

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse indicates a response that could not be decoded or
	// lacked a required field.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNotFound indicates the site has no problem with the requested slug.
	ErrNotFound = errors.New("problem not found")
)

// TransportError is returned for every failed exchange with the site:
// network failures, non-2xx statuses, GraphQL errors and malformed payloads.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("leetcode %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("leetcode %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// GraphQLError carries the messages of a GraphQL "errors" array.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	if len(e.Messages) == 1 {
		return "graphql: " + e.Messages[0]
	}
	return fmt.Sprintf("graphql: %d errors, first: %s", len(e.Messages), e.Messages[0])
}
