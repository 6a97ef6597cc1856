package kv

import "errors"

var (
	// ErrQuotaExceeded is returned when a value is larger than the store quota.
	ErrQuotaExceeded = errors.New("kv: quota exceeded")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("kv: store closed")
)
