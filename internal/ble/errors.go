package ble

import "errors"

var (
	// ErrConnectFailed is returned when every connect attempt in the retry
	// schedule has failed. It wraps the last underlying transport error.
	ErrConnectFailed = errors.New("ble: connect failed")

	// ErrWriteFailed is returned when a frame write failed even after the
	// one automatic reconnect-and-retry.
	ErrWriteFailed = errors.New("ble: write failed")

	// ErrTimeout is returned when a call exceeded its deadline. The
	// underlying operation keeps running on the session worker and is not
	// retracted.
	ErrTimeout = errors.New("ble: operation timed out")

	// ErrClosed is returned for operations on a session that has not been
	// connected, or that is shutting down.
	ErrClosed = errors.New("ble: session closed")
)
