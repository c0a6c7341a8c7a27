package svc

import "errors"

// errNotFound is the sentinel the go-zero cache reports for absent keys.
var errNotFound = errors.New("smartmoney: cache key not found")
