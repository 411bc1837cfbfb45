package entity

import "errors"

var (
	ErrInvalidTokenUri = errors.New("entity: token uri is not resolvable")
)
