package term

import "errors"

// ErrInvalidTerm reports a malformed construction request: an application
// with no arguments, a head that is not a symbol, or ill-sorted arguments.
// It is a programmer error; the offending construction is abandoned.
var ErrInvalidTerm = errors.New("invalid term")

// ErrBadPosition reports a path that walks off the shape of a term.
var ErrBadPosition = errors.New("bad position")
