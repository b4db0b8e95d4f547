package ot

import "errors"

var ErrMalformed = errors.New("malformed component")
var ErrOffset = errors.New("split offset out of range")
var ErrOvershoot = errors.New("operation overshoots text")
var ErrUnreachable = errors.New("unreachable component pairing")
