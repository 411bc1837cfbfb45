package dev

import (
	"time"

	uuid "github.com/nu7hatch/gouuid"
)

// Error is the body returned to clients for a failed request.
type Error struct {
	Id        string                 `json:"id"`
	Time      time.Time              `json:"time"`
	Component string                 `json:"component"`
	Name      string                 `json:"name"`
	Error     string                 `json:"error"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

func (e Error) Slug() string {
	return e.Id
}

func NewError(component, name string, err error, extra map[string]interface{}) Error {
	id := ""
	if u, uErr := uuid.NewV4(); uErr == nil {
		id = u.String()
	}

	return Error{
		Id:        id,
		Time:      time.Now().UTC(),
		Component: component,
		Name:      name,
		Error:     err.Error(),
		Extra:     extra,
	}
}
