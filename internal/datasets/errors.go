package datasets

import "errors"

var ErrNotFound = errors.New("dataset not found")
