package transport

import (
	"bytes"
	"io"
	"net/http"
)

// maxDrainSize caps how much of a rejected reply is read so the connection can be reused
const maxDrainSize = 64 << 10

// readBody reads and closes the request body so it can be replayed
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func clone(r *http.Request, body []byte) *http.Request {
	cloned := r.Clone(r.Context())
	if body != nil {
		cloned.Body = io.NopCloser(bytes.NewReader(body))
		cloned.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		cloned.ContentLength = int64(len(body))
	}
	return cloned
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainSize))
	_ = resp.Body.Close()
}

// offOrigin reports whether req is a redirect hop to a host other than the one first requested
func offOrigin(req *http.Request) bool {
	origin := req
	for origin.Response != nil && origin.Response.Request != nil {
		origin = origin.Response.Request
	}
	return origin != req && origin.URL.Host != req.URL.Host
}
