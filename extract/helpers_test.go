package extract

import "errors"

var errBoom = errors.New("boom")
