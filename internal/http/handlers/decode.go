package handlers

import (
	"encoding/json"
	"net/http"
)

// decodeJSON decodes a request body strictly: unknown fields are rejected
// so a misspelled key surfaces as a 400 instead of silently dropped input.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
