package command

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "one line", firstLine("one line"))
	assert.Equal(t, "first …", firstLine("first\nsecond"))
}

func TestParseID(t *testing.T) {
	id := uuid.New()
	got, err := parseID("comment", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = parseID("comment", "42")
	assert.ErrorContains(t, err, "invalid comment ID")
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"migrate", "token", "archive", "tree", "post", "reply", "edit", "delete", "like"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
