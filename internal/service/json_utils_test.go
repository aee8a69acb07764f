package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"chatter around", "Sure! {\"a\":{\"b\":[1,2]}} Hope this helps.", `{"a":{"b":[1,2]}}`},
		{"braces inside strings", `{"a":"} not the end {"}`, `{"a":"} not the end {"}`},
		{"truncated", `{"a":[1,2`, `{"a":[1,2]}`},
		{"truncated string", `{"a":"hal`, `{"a":"hal"}`},
		{"dangling comma", `{"a":1,`, `{"a":1}`},
		{"no object", "I refuse.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.in)
			assert.Equal(t, tt.want, got)
			if got != "" {
				assert.True(t, json.Valid([]byte(got)), "result must be valid JSON: %s", got)
			}
		})
	}
}

func TestFixJSON_LeavesCompleteDocumentsAlone(t *testing.T) {
	doc := `{"races":[{"id":"r1","tags":["a","b"]}]}`
	assert.Equal(t, doc, FixJSON(doc))
	assert.Equal(t, "", FixJSON(""))
}

func TestFixJSON_EscapedQuotes(t *testing.T) {
	assert.Equal(t, `{"a":"say \"hi\""}`, FixJSON(`{"a":"say \"hi\"`))
}
