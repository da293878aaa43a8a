package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := NewClient("a", 1)

	req.Nil(registry.Register(alice, "Alice"))
	req.Equal("Alice", alice.Name)

	found, err := registry.Lookup("alice")
	req.Nil(err)
	req.Same(alice, found)

	name, ok := registry.NameOf(alice)
	req.True(ok)
	req.Equal("Alice", name)

	canonical, ok := registry.Canonical("ALICE")
	req.True(ok)
	req.Equal("Alice", canonical)
}

func TestRegistry_NamesAreUniqueCaseInsensitively(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	req.Nil(registry.Register(NewClient("a", 1), "alice"))
	err := registry.Register(NewClient("b", 1), "ALICE")
	req.NotNil(err)
	req.True(errors.Is(err, ErrNameTaken))

	req.Nil(registry.Register(NewClient("c", 1), "bob"))
	names := registry.Names()
	for i := range names {
		for j := range names {
			if i != j {
				req.NotEqual(strings.ToLower(names[i]), strings.ToLower(names[j]))
			}
		}
	}
}

func TestRegistry_RejectsDoubleRegistration(t *testing.T) {
	registry := NewRegistry()
	c := NewClient("a", 1)

	require.Nil(t, registry.Register(c, "alice"))
	err := registry.Register(c, "alice2")
	require.NotNil(t, err)
	require.Equal(t, ErrCodeAlreadyExists, err.Code)
	require.Equal(t, 1, registry.Len())
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := NewClient("a", 1)
	bob := NewClient("b", 1)
	req.Nil(registry.Register(alice, "alice"))
	req.Nil(registry.Register(bob, "bob"))

	req.True(registry.Remove(alice))
	req.False(registry.Remove(alice))

	_, err := registry.Lookup("alice")
	req.NotNil(err)
	req.Equal(ErrCodeNotFound, err.Code)
	req.Equal([]*Client{bob}, registry.Sessions())

	// The name is free again.
	req.Nil(registry.Register(NewClient("c", 1), "Alice"))
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"", "two words", "a,b", "@bob", "group", "Names", "QUIT"} {
		err := ValidateName(name)
		require.NotNil(t, err, name)
		require.Equal(t, ErrCodeInvalidName, err.Code, name)
	}
	require.Nil(t, ValidateName("alice_01"))
}
