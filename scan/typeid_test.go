package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct{}

type box[T any] struct{ v T }

const scanNS = "github.com/Ngone6325/gofac-autoscan/scan"

func TestTypeIDOf(t *testing.T) {
	tests := []struct {
		name string
		got  TypeID
		want TypeID
	}{
		{"pointer", TypeFor[*widget](), TypeID{Namespace: scanNS, Name: "*widget"}},
		{"value", TypeFor[widget](), TypeID{Namespace: scanNS, Name: "widget"}},
		{"slice", TypeFor[[]*widget](), TypeID{Namespace: scanNS, Name: "[]*widget"}},
		{"map", TypeFor[map[string]widget](), TypeID{Namespace: scanNS, Name: "map[string]widget"}},
		{"generic", TypeFor[box[int]](), TypeID{Namespace: scanNS, Name: "box[int]"}},
		{"builtin", TypeFor[string](), TypeID{Name: "string"}},
		{"error", TypeFor[error](), TypeID{Name: "error"}},
		{"empty interface", TypeFor[any](), TypeID{Name: "interface {}"}},
		{"func", TypeFor[func()](), TypeID{Name: "func()"}},
		{"nil", TypeIDOf(nil), TypeID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestQualifiedRoundTrip(t *testing.T) {
	for _, id := range []TypeID{
		TypeFor[*widget](),
		TypeFor[[]*widget](),
		TypeFor[map[string]widget](),
		TypeFor[box[int]](),
		TypeFor[int](),
		{Namespace: "gopkg.in/yaml.v3", Name: "*Node"},
	} {
		parsed, err := ParseTypeID(id.Qualified())
		require.NoError(t, err, id.Qualified())
		assert.Equal(t, id, parsed)
	}
}

func TestParseTypeID(t *testing.T) {
	id, err := ParseTypeID(" *github.com/acme/shop/repo.UserRepo ")
	require.NoError(t, err)
	assert.Equal(t, TypeID{Namespace: "github.com/acme/shop/repo", Name: "*UserRepo"}, id)
	assert.Equal(t, "*github.com/acme/shop/repo.UserRepo", id.String())
	assert.Equal(t, "UserRepo", id.BareName())

	id, err = ParseTypeID("[]example.com/hooks.Hook")
	require.NoError(t, err)
	assert.Equal(t, TypeID{Namespace: "example.com/hooks", Name: "[]Hook"}, id)

	for _, bad := range []string{"", "   ", "*", ".Foo", "example.com/pkg."} {
		_, err := ParseTypeID(bad)
		assert.ErrorIs(t, err, ErrInvalidTypeID, bad)
	}
	assert.Panics(t, func() { MustParseTypeID("") })
}

func TestGenericBase(t *testing.T) {
	base, ok := TypeFor[box[string]]().genericBase()
	require.True(t, ok)
	assert.Equal(t, TypeID{Namespace: scanNS, Name: "box"}, base)

	_, ok = TypeFor[*widget]().genericBase()
	assert.False(t, ok)
}

func TestHasNamespacePrefix(t *testing.T) {
	tests := []struct {
		ns, prefix string
		want       bool
	}{
		{"log", "log", true},
		{"log/slog", "log", true},
		{"logistics", "log", false},
		{"example.com/app/repo", "example.com/app/", true},
		{"example.com/application", "example.com/app", false},
		{"github.com/acme/shop", "github.com/acme/sh", false},
		{"github.com/acme/sh/x", "github.com/acme/sh", true},
		{"anything", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasNamespacePrefix(tt.ns, tt.prefix), "%s under %s", tt.ns, tt.prefix)
	}
}
