package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrCollectionNotFound is returned when querying or deleting a vector
	// index collection that was never created. It is distinct from an
	// empty result: callers must be able to tell "no collection" from
	// "no matches".
	ErrCollectionNotFound = goerr.New("collection not found")

	// ErrSessionNotFound is returned when a session is absent from both
	// the cache and durable storage.
	ErrSessionNotFound = goerr.New("session not found")

	// ErrStrategyNotFound is returned for an unknown reasoning strategy
	// name. The error carries the valid strategy names.
	ErrStrategyNotFound = goerr.New("unknown reasoning strategy")

	// ErrUnsupportedFormat is returned for document formats the reader
	// does not extract, including the legacy .doc format.
	ErrUnsupportedFormat = goerr.New("unsupported document format")
)
