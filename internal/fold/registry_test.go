package fold

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/foldlayer/internal/document"
)

func TestRegistry_RegisterRejectsReserved(t *testing.T) {
	r := NewRegistry(nil)

	for _, id := range []SpecID{All, ""} {
		err := r.Register(id, Properties{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSpec)

		var specErr *SpecError
		require.True(t, errors.As(err, &specErr))
		assert.Equal(t, "register", specErr.Op)
	}
	assert.Empty(t, r.Specs())
}

func TestRegistry_PriorityOrder(t *testing.T) {
	r := NewRegistry(nil)

	require.NoError(t, r.Register("a", Properties{}))
	require.NoError(t, r.Register("b", Properties{}))
	require.NoError(t, r.Register("c", Properties{}, AppendPriority()))
	assert.Equal(t, []SpecID{"b", "a", "c"}, r.Specs())

	// Re-registering keeps the slot and replaces the properties.
	require.NoError(t, r.Register("a", Properties{Ellipsis: "..."}))
	assert.Equal(t, []SpecID{"b", "a", "c"}, r.Specs())
	props, err := r.Spec("a")
	require.NoError(t, err)
	assert.Equal(t, "...", props.Ellipsis)

	require.NoError(t, r.Move("c", 0))
	assert.Equal(t, []SpecID{"c", "b", "a"}, r.Specs())
	require.NoError(t, r.Move("c", 99))
	assert.Equal(t, []SpecID{"b", "a", "c"}, r.Specs())

	p, err := r.Priority("a")
	require.NoError(t, err)
	assert.Equal(t, 1, p)
}

func TestRegistry_Aliases(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register("outline", Properties{Aliases: []SpecID{"headline", "heading"}}))

	id, err := r.Resolve("headline")
	require.NoError(t, err)
	assert.Equal(t, SpecID("outline"), id)
	assert.True(t, r.Has("heading"))

	_, err = r.Resolve("drawer")
	assert.ErrorIs(t, err, ErrInvalidSpec)

	// An alias may not collide with another spec or another spec's alias.
	err = r.Register("block", Properties{Aliases: []SpecID{"headline"}})
	assert.ErrorIs(t, err, ErrInvalidSpec)
	err = r.Register("headline", Properties{})
	assert.ErrorIs(t, err, ErrInvalidSpec)
	err = r.Register("block", Properties{Aliases: []SpecID{All}})
	assert.ErrorIs(t, err, ErrInvalidSpec)

	require.NoError(t, r.SetProperty("heading", PropAliases, []string{"title"}))
	assert.True(t, r.Has("title"))
	assert.False(t, r.Has("headline"))
}

func TestRegistry_Properties(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register("outline", Properties{}))

	v, err := r.Property("outline", PropSearchable)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	tests := []struct {
		key   Property
		value any
	}{
		{PropEllipsis, "..."},
		{PropSearchable, false},
		{PropSearchOpen, true},
		{PropFrontSticky, true},
		{PropRearSticky, true},
		{PropManaged, true},
		{PropVisible, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			require.NoError(t, r.SetProperty("outline", tt.key, tt.value))
			got, err := r.Property("outline", tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}

	err = r.SetProperty("outline", PropRearSticky, "yes")
	assert.ErrorIs(t, err, ErrInvalidProperty)
	_, err = r.Property("outline", Property("colour"))
	assert.ErrorIs(t, err, ErrInvalidProperty)
	err = r.SetProperty("missing", PropRearSticky, true)
	assert.ErrorIs(t, err, ErrInvalidSpec)

	pred := func(document.Range, SpecID) bool { return true }
	require.NoError(t, r.SetProperty("outline", PropFragile, pred))
	props, err := r.Spec("outline")
	require.NoError(t, err)
	assert.NotNil(t, props.Fragile)
	require.NoError(t, r.SetProperty("outline", PropFragile, nil))
	props, _ = r.Spec("outline")
	assert.Nil(t, props.Fragile)
}

func TestRegistry_PolicyHooks(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register("outline", Properties{}))

	var got []Presentation
	r.OnPolicyChange(func(id SpecID, p Presentation) {
		assert.Equal(t, SpecID("outline"), id)
		got = append(got, p)
	})

	require.NoError(t, r.SetProperty("outline", PropEllipsis, "..."))
	require.NoError(t, r.SetProperty("outline", PropRearSticky, true))
	require.NoError(t, r.SetProperty("outline", PropManaged, true))
	require.NoError(t, r.SetProperty("outline", PropManaged, false))
	require.NoError(t, r.SetProperty("outline", PropVisible, true))

	assert.Equal(t, []Presentation{PresentEllipsis, PresentManaged, PresentEllipsis, PresentShown}, got)
}

func TestRegistry_UnregisterRunsRemoveHooksFirst(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register("outline", Properties{Aliases: []SpecID{"headline"}}))

	var seen []SpecID
	r.OnRemove(func(id SpecID) {
		// The spec is still registered while hooks run.
		assert.True(t, r.Has(id))
		seen = append(seen, id)
	})

	require.NoError(t, r.Unregister("headline"))
	assert.Equal(t, []SpecID{"outline"}, seen)
	assert.False(t, r.Has("outline"))
	assert.False(t, r.Has("headline"))
	assert.ErrorIs(t, r.Unregister("outline"), ErrInvalidSpec)
}

func TestPresentationOf(t *testing.T) {
	tests := []struct {
		name  string
		props Properties
		want  Presentation
	}{
		{"plain", Properties{}, PresentHidden},
		{"ellipsis", Properties{Ellipsis: "..."}, PresentEllipsis},
		{"visible wins over ellipsis", Properties{Ellipsis: "...", Visible: true}, PresentShown},
		{"managed wins", Properties{Managed: true, Visible: true}, PresentManaged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, presentationOf(tt.props))
			assert.NotEqual(t, "unknown", tt.want.String())
		})
	}
}
