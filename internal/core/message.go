package core

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"starbot/internal/types"
)

const (
	// ContentBudget is the maximum number of characters of name and
	// description kept in a message before the URL.
	ContentBudget    = 113
	TruncationMarker = "..."
)

// FormatMessage renders an item as "<name> <description> <url>". The name
// always comes first so it can be read back as the checkpoint.
func FormatMessage(item types.Item) string {
	var b strings.Builder
	b.WriteString(item.Name)
	if item.Description != "" {
		b.WriteString(" ")
		b.WriteString(item.Description)
	}

	content := []rune(norm.NFC.String(b.String()))
	text := string(content)
	if len(content) > ContentBudget {
		text = string(content[:ContentBudget]) + TruncationMarker
	}

	if item.URL != "" {
		text += " " + item.URL
	}
	return text
}
