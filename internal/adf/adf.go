// Package adf builds and flattens Atlassian Document Format documents.
package adf

import "strings"

// Node is a block or inline ADF node
type Node struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
}

// Document is the root ADF node
type Document struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Content []Node `json:"content"`
}

// Text wraps plain text in a single-paragraph document. Empty text yields an
// empty paragraph because the remote service rejects empty text nodes.
func Text(text string) Document {
	paragraph := Node{Type: "paragraph"}
	if text != "" {
		paragraph.Content = []Node{{Type: "text", Text: text}}
	}
	return Document{
		Type:    "doc",
		Version: 1,
		Content: []Node{paragraph},
	}
}

// PlainText flattens a document to text. Block nodes are separated by a
// newline; hard breaks become newlines. PlainText(Text(s)) == s.
func PlainText(doc Document) string {
	var blocks []string
	for _, node := range doc.Content {
		blocks = appendBlocks(blocks, node)
	}
	return strings.Join(blocks, "\n")
}

func appendBlocks(blocks []string, node Node) []string {
	switch node.Type {
	case "paragraph", "heading", "codeBlock":
		return append(blocks, inline(node.Content))
	case "rule":
		return blocks
	default:
		for _, child := range node.Content {
			blocks = appendBlocks(blocks, child)
		}
		return blocks
	}
}

func inline(nodes []Node) string {
	var b strings.Builder
	for _, node := range nodes {
		switch node.Type {
		case "text":
			b.WriteString(node.Text)
		case "hardBreak":
			b.WriteByte('\n')
		case "mention", "emoji":
			if text, ok := node.Attrs["text"].(string); ok {
				b.WriteString(text)
			}
		default:
			b.WriteString(inline(node.Content))
		}
	}
	return b.String()
}
