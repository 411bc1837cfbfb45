package dev

import (
	"encoding/json"
	"io"
)

// Dump writes el to w as indented JSON.
func Dump(w io.Writer, el interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(el)
}
