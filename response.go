package session

import (
	"encoding/json"
	"net/http"
)

// Response represents a successful protected resource reply
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals JSON body into dest
func (r *Response) Decode(dest interface{}) error {
	return json.Unmarshal(r.Body, dest)
}
