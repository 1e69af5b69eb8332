package adf

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextShape(t *testing.T) {
	raw, err := json.Marshal(Text("Ship it"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "doc",
		"version": 1,
		"content": [{"type": "paragraph", "content": [{"type": "text", "text": "Ship it"}]}]
	}`, string(raw))
}

func TestTextRoundTrip(t *testing.T) {
	for _, text := range []string{
		"",
		"plain",
		"  leading and trailing  ",
		"multi\nline\n\ntext",
		"unicode ✓ ünïcödé",
		`quotes "and" {braces}`,
	} {
		t.Run(text, func(t *testing.T) {
			raw, err := json.Marshal(Text(text))
			require.NoError(t, err)

			var doc Document
			require.NoError(t, json.Unmarshal(raw, &doc))
			assert.Equal(t, text, PlainText(doc))
		})
	}
}

func TestPlainTextRichDocument(t *testing.T) {
	raw := `{
		"type": "doc",
		"version": 1,
		"content": [
			{"type": "heading", "attrs": {"level": 2}, "content": [{"type": "text", "text": "Goal"}]},
			{"type": "paragraph", "content": [
				{"type": "text", "text": "Ask "},
				{"type": "mention", "attrs": {"id": "abc", "text": "@dev"}},
				{"type": "hardBreak"},
				{"type": "text", "text": "today", "marks": [{"type": "strong"}]}
			]},
			{"type": "rule"},
			{"type": "bulletList", "content": [
				{"type": "listItem", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "one"}]}]},
				{"type": "listItem", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "two"}]}]}
			]}
		]
	}`

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "Goal\nAsk @dev\ntoday\none\ntwo", PlainText(doc))
}
