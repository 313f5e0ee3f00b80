package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubSystem(t *testing.T, write func(string) error, read func() (string, error)) {
	t.Helper()
	oldWrite, oldRead := writeAll, readAll
	writeAll, readAll = write, read
	t.Cleanup(func() { writeAll, readAll = oldWrite, oldRead })
}

func TestRegisterOnly(t *testing.T) {
	stubSystem(t, func(string) error {
		t.Fatal("system clipboard must not be touched")
		return nil
	}, func() (string, error) {
		t.Fatal("system clipboard must not be touched")
		return "", nil
	})

	m := NewManager(false)
	assert.Equal(t, "", m.Paste())
	require.NoError(t, m.Yank("hello"))
	assert.Equal(t, "hello", m.Paste())
}

func TestSystemMirror(t *testing.T) {
	var got string
	stubSystem(t, func(s string) error { got = s; return nil }, func() (string, error) { return "from os", nil })

	m := NewManager(true)
	require.NoError(t, m.Yank("hello"))
	assert.Equal(t, "hello", got)
	assert.Equal(t, "from os", m.Paste())
}

func TestSystemFailure(t *testing.T) {
	boom := errors.New("no display")
	stubSystem(t, func(string) error { return boom }, func() (string, error) { return "", boom })

	m := NewManager(true)
	err := m.Yank("hello")
	require.ErrorIs(t, err, boom)
	// register still updated; paste falls back to it
	assert.Equal(t, "hello", m.Paste())
}
