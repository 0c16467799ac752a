package store

import "errors"

var ErrUnknownBackendType = errors.New("unknown storage backend type")
