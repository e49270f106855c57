package errors

import stderrors "errors"

var (
	ErrNotInitialised = stderrors.New("ledger: genesis not applied")
	ErrUnauthorized   = stderrors.New("ledger: caller not authorized")
	ErrUnknownModule  = stderrors.New("ledger: unknown module")
	ErrUnknownTable   = stderrors.New("ledger: unknown threshold table")
)
