package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 12, c.Len())

	intents := c.Intents()
	assert.Equal(t, "greeting", intents[0].Name)
	assert.Equal(t, "name_introduction", intents[len(intents)-1].Name)

	for _, intent := range intents {
		assert.NotEmpty(t, intent.Phrases, "intent %s", intent.Name)
	}

	nameIntro, ok := c.Lookup("name_introduction")
	require.True(t, ok)
	assert.True(t, nameIntro.Composed())

	greeting, ok := c.Lookup("greeting")
	require.True(t, ok)
	assert.Contains(t, greeting.Phrases, "xin chào")
	assert.Len(t, greeting.Replies, 4)

	negative, ok := c.Lookup("negative_feedback")
	require.True(t, ok)
	assert.Contains(t, negative.Phrases, "no")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "empty", yaml: "intents: []"},
		{name: "missing name", yaml: "intents:\n  - phrases: [hi]"},
		{name: "no phrases", yaml: "intents:\n  - name: greeting\n    phrases: ['  ']"},
		{name: "duplicate", yaml: "intents:\n  - name: a\n    phrases: [x]\n  - name: a\n    phrases: [y]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("intents: [unterminated"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCatalog)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents.yaml")
	data := "intents:\n  - name: ping\n    phrases: [ping, ' pong ']\n    replies: [pong]\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.PhraseCount())

	ping, _ := c.Lookup("ping")
	assert.Equal(t, []string{"ping", "pong"}, ping.Phrases)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	a, err := Parse([]byte("intents:\n  - name: a\n    phrases: [x]\n"))
	require.NoError(t, err)
	b, err := Parse([]byte("intents:\n  - name: a\n    phrases: [y]\n"))
	require.NoError(t, err)

	assert.Equal(t, a.Hash("m"), a.Hash("m"))
	assert.NotEqual(t, a.Hash("m"), a.Hash("other"))
	assert.NotEqual(t, a.Hash("m"), b.Hash("m"))
	assert.Len(t, a.Hash("m"), 64)
}
