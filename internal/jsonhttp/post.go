package jsonhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/viant/session/sessionerr"
	"io"
	"net/http"
)

// maxBodySize caps how much of a reply is read
const maxBodySize = 1 << 20

// Reply represents a read JSON endpoint reply
type Reply struct {
	StatusCode int
	Body       []byte
}

// OK returns true for a 2xx status
func (r *Reply) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the reply body into dest
func (r *Reply) Decode(dest interface{}) error {
	if err := json.Unmarshal(r.Body, dest); err != nil {
		return fmt.Errorf("invalid reply: %w", err)
	}
	return nil
}

// Post sends request as a JSON body to URL and reads the reply.
// A transport or read failure is returned as *sessionerr.NetworkError; a non 2xx status is not an error here.
func Post(ctx context.Context, client *http.Client, URL string, request interface{}) (*Reply, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, URL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "application/json")
	resp, err := client.Do(httpRequest)
	if err != nil {
		return nil, &sessionerr.NetworkError{Op: http.MethodPost, URL: URL, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &sessionerr.NetworkError{Op: http.MethodPost, URL: URL, Err: err}
	}
	return &Reply{StatusCode: resp.StatusCode, Body: body}, nil
}
