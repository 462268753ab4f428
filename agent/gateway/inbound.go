package gateway

import (
	"encoding/json"
	"strings"
)

type inbound struct {
	Message *string `json:"message"`
}

// Drop reasons reported to metrics.
const (
	dropMalformed = "malformed"
	dropEmpty     = "empty"
	dropTooLarge  = "too_large"
	dropBinary    = "binary"
)

// decodeInbound returns the user text of one client frame, or the reason the
// frame is ignored.
func decodeInbound(data []byte, limit int) (string, string) {
	if limit > 0 && len(data) > limit {
		return "", dropTooLarge
	}
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return "", dropMalformed
	}
	if in.Message == nil {
		return "", dropEmpty
	}
	text := strings.TrimSpace(*in.Message)
	if text == "" {
		return "", dropEmpty
	}
	return text, ""
}
