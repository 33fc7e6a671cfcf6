package core

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"starbot/internal/types"
)

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name string
		item types.Item
		want string
	}{
		{
			name: "name description url",
			item: types.Item{Name: "spf13/cobra", Description: "A Commander", URL: "https://github.com/spf13/cobra"},
			want: "spf13/cobra A Commander https://github.com/spf13/cobra",
		},
		{
			name: "no description",
			item: types.Item{Name: "gorilla/mux", URL: "https://github.com/gorilla/mux"},
			want: "gorilla/mux https://github.com/gorilla/mux",
		},
		{
			name: "no url",
			item: types.Item{Name: "local/thing", Description: "offline"},
			want: "local/thing offline",
		},
		{
			name: "decomposed accents are composed",
			item: types.Item{Name: "cafe\u0301/app"},
			want: "caf\u00e9/app",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMessage(tt.item))
		})
	}
}

func TestFormatMessageBudgetBoundary(t *testing.T) {
	name := "owner/repo"
	fill := ContentBudget - len(name) - 1

	exact := types.Item{Name: name, Description: strings.Repeat("d", fill), URL: "https://u"}
	msg := FormatMessage(exact)
	assert.NotContains(t, msg, TruncationMarker)
	assert.Equal(t, ContentBudget+len(" https://u"), len(msg))

	over := types.Item{Name: name, Description: strings.Repeat("d", fill+1), URL: "https://u"}
	msg = FormatMessage(over)
	want := name + " " + strings.Repeat("d", fill) + TruncationMarker + " https://u"
	assert.Equal(t, want, msg)
}

func TestFormatMessageTruncatesByRune(t *testing.T) {
	item := types.Item{Name: "日本/リポジトリ", Description: strings.Repeat("語", 200), URL: "https://github.com/x/y"}

	msg := FormatMessage(item)
	assert.True(t, utf8.ValidString(msg))
	assert.True(t, strings.HasSuffix(msg, TruncationMarker+" https://github.com/x/y"))

	content := strings.TrimSuffix(msg, TruncationMarker+" https://github.com/x/y")
	assert.Equal(t, ContentBudget, utf8.RuneCountInString(content))
	assert.True(t, strings.HasPrefix(msg, "日本/リポジトリ "))
}

func TestFormatMessageKeepsNameAsFirstWord(t *testing.T) {
	item := types.Item{Name: "a/b", Description: strings.Repeat("x ", 100), URL: "https://github.com/a/b"}
	assert.Equal(t, "a/b", strings.Fields(FormatMessage(item))[0])
}
