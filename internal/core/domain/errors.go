package domain

import "errors"

// ErrDatasetNotFound is returned by dataset sources and repositories for an
// unknown dataset name.
var ErrDatasetNotFound = errors.New("dataset not found")
