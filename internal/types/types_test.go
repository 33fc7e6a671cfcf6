package types_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"starbot/internal/types"
)

func TestItemName(t *testing.T) {
	assert.Equal(t, "spf13/cobra", types.ItemName("spf13/cobra"))
	assert.Equal(t, "caf\u00e9/app", types.ItemName("cafe\u0301/app"))

	long := types.ItemName(strings.Repeat("名", 150))
	assert.Equal(t, types.MaxNameLength, utf8.RuneCountInString(long))
	assert.True(t, utf8.ValidString(long))

	assert.Equal(t, long, types.ItemName(long))
}
