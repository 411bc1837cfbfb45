package repository

import "errors"

var (
	ErrStateNotFound  = errors.New("repository: no ledger state stored")
	ErrRecordNotFound = errors.New("repository: record not found")
)
