package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

var errNotObject = errors.New("reply is not a JSON object")

// decodeStringObject validates a model reply as a single JSON object and
// returns the listed keys as strings. Absent and null keys are omitted; a
// key with a non-string value fails the whole reply. A surrounding markdown
// code fence is tolerated.
func decodeStringObject(reply string, keys ...string) (map[string]string, error) {
	body := stripCodeFence(reply)

	dec := json.NewDecoder(strings.NewReader(body))
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if raw == nil {
		return nil, errNotObject
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("reply has trailing data after the JSON object")
	}

	out := make(map[string]string, len(keys))
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		out[key] = strings.TrimSpace(s)
	}
	return out, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the language tag ("json"), on its own line or glued to the body
	tag := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if tag < 0 {
		tag = len(s)
	}
	if rest := s[tag:]; tag > 0 && (rest == "" || rest[0] == '{' || unicode.IsSpace(rune(rest[0]))) {
		s = rest
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
