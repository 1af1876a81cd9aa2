package repository

import "errors"

// ErrWrite marks a failed write to the relational store. Callers use
// errors.Is to tell store failures apart from provider/index failures.
var ErrWrite = errors.New("relational store write failed")
