package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starbot/internal/types"
)

func TestResolveCheckpoint(t *testing.T) {
	tests := []struct {
		name  string
		posts []string
		want  string
	}{
		{name: "no history", posts: nil, want: ""},
		{name: "first word", posts: []string{"spf13/cobra A Commander https://github.com/spf13/cobra"}, want: "spf13/cobra"},
		{name: "newest wins", posts: []string{"b/new https://x", "a/old https://y"}, want: "b/new"},
		{name: "leading whitespace", posts: []string{"  \tfoo/bar\nbaz"}, want: "foo/bar"},
		{name: "blank post", posts: []string{"   "}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := &memTimeline{name: "making", posts: tt.posts}
			got, err := ResolveCheckpoint(context.Background(), tl)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCheckpointLookupFailure(t *testing.T) {
	tl := &memTimeline{name: "making", readErr: errors.New("503 service unavailable")}

	token, err := ResolveCheckpoint(context.Background(), tl)
	assert.Empty(t, token)
	require.Error(t, err)
	assert.True(t, types.IsTransient(err))

	var fe *types.TransientFetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "making", fe.Account)
	assert.Equal(t, "checkpoint", fe.Op)
}
