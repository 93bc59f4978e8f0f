package sessionerr

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

const maxMessageSize = 512

// Message extracts a human readable message from an error reply body.
// The server replies with {"error": "..."}; any other body is returned trimmed and truncated.
func Message(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var reply struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &reply); err == nil {
		if reply.Error != "" {
			return reply.Error
		}
		if reply.Message != "" {
			return reply.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessageSize {
		cut := maxMessageSize
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}
