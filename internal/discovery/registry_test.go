package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fakeProbe{name: "ra-b", env: "test"}))
	require.NoError(t, reg.Register(&fakeProbe{name: "ra-a", env: "test"}))
	require.NoError(t, reg.Register(&fakeProbe{name: "db-schema", env: "db"}))

	assert.Equal(t, []string{"db-schema", "ra-a", "ra-b"}, reg.List())
	assert.Equal(t, []string{"db", "test"}, reg.Envs())

	probes := reg.ForEnv("test")
	require.Len(t, probes, 2)
	assert.Equal(t, "ra-a", probes[0].Name())
	assert.Equal(t, "ra-b", probes[1].Name())
	assert.Empty(t, reg.ForEnv("api"))

	p, ok := reg.Get("db-schema")
	require.True(t, ok)
	assert.Equal(t, "db", p.Env())

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_RejectsDuplicatesAndEmptyNames(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fakeProbe{name: "x", env: "test"}))

	err := reg.Register(&fakeProbe{name: "x", env: "db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	assert.Error(t, reg.Register(&fakeProbe{name: "", env: "test"}))
}

func TestRegistry_Select(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fakeProbe{name: "ra-b", env: "test"}))
	require.NoError(t, reg.Register(&fakeProbe{name: "ra-a", env: "test"}))
	require.NoError(t, reg.Register(&fakeProbe{name: "db-schema", env: "db"}))

	all, err := reg.Select("test", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	some, err := reg.Select("test", []string{"ra-b", "ra-a", "ra-b"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "ra-a", some[0].Name())

	_, err = reg.Select("test", []string{"missing"})
	assert.ErrorIs(t, err, ErrUnknownProbe)

	_, err = reg.Select("test", []string{"db-schema"})
	assert.ErrorContains(t, err, `belongs to environment "db"`)
}
