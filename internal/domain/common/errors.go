package common

import "errors"

var (
	ErrNoMapping  = errors.New("no confident column mapping found")
	ErrEmptyBatch = errors.New("no parseable transactions in batch")
)
