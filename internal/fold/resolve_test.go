package fold

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/foldlayer/internal/document"
)

func TestEffectiveSpecAt_VisibleCarvesException(t *testing.T) {
	e := newTestEngine(t, strings.Repeat("x", 100))
	require.NoError(t, e.Register("hidden", Properties{}))
	require.NoError(t, e.Register("shown", Properties{Visible: true}))
	require.Equal(t, []SpecID{"shown", "hidden"}, e.Registry().Specs())

	require.NoError(t, e.Fold(10, 50, "hidden"))
	require.NoError(t, e.Fold(20, 40, "shown"))

	for pos := 20; pos < 40; pos++ {
		spec, ok := e.EffectiveSpecAt(pos)
		require.True(t, ok)
		assert.Equal(t, SpecID("shown"), spec, "pos %d", pos)
		assert.False(t, e.IsInvisible(pos), "pos %d", pos)
	}
	spec, ok := e.EffectiveSpecAt(15)
	require.True(t, ok)
	assert.Equal(t, SpecID("hidden"), spec)
	assert.True(t, e.IsInvisible(15))

	_, ok = e.EffectiveSpecAt(60)
	assert.False(t, ok)
	assert.False(t, e.IsInvisible(60))
}

func TestEffectiveSpecAt_ManagedIsTransparent(t *testing.T) {
	external := map[int]bool{}
	e := newTestEngine(t, strings.Repeat("x", 100), WithExternalVisibility(func(spec SpecID, pos int) bool {
		return external[pos]
	}))
	require.NoError(t, e.Register("hidden", Properties{}))
	require.NoError(t, e.Register("managed", Properties{Managed: true}))

	require.NoError(t, e.Fold(0, 10, "managed"))
	require.NoError(t, e.Fold(5, 10, "hidden"))

	_, ok := e.EffectiveSpecAt(2)
	assert.False(t, ok)
	assert.False(t, e.IsInvisible(2))
	external[2] = true
	assert.True(t, e.IsInvisible(2))

	spec, ok := e.EffectiveSpecAt(7)
	require.True(t, ok)
	assert.Equal(t, SpecID("hidden"), spec)
	assert.True(t, e.IsInvisible(7))
}

func TestIsInvisible_ManagedWithoutExternalMechanism(t *testing.T) {
	e := newTestEngine(t, strings.Repeat("x", 20))
	require.NoError(t, e.Register("managed", Properties{Managed: true}))
	require.NoError(t, e.Fold(0, 10, "managed"))

	assert.True(t, e.IsInvisible(3))
	assert.False(t, e.IsInvisible(12))
}

func TestPresentation_FollowsProperties(t *testing.T) {
	e := newTestEngine(t, strings.Repeat("x", 20))
	require.NoError(t, e.Register("s", Properties{Ellipsis: "..."}))
	require.NoError(t, e.Fold(0, 10, "s"))

	p, err := e.Presentation("s")
	require.NoError(t, err)
	assert.Equal(t, PresentEllipsis, p)
	assert.True(t, e.IsInvisible(3))

	require.NoError(t, e.SetProperty("s", PropVisible, true))
	p, _ = e.Presentation("s")
	assert.Equal(t, PresentShown, p)
	assert.False(t, e.IsInvisible(3))

	require.NoError(t, e.SetProperty("s", PropVisible, false))
	require.NoError(t, e.SetProperty("s", PropEllipsis, ""))
	p, _ = e.Presentation("s")
	assert.Equal(t, PresentHidden, p)

	_, err = e.Presentation("missing")
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestDisplay(t *testing.T) {
	e := newTestEngine(t, "0123456789abcdefghij")
	require.NoError(t, e.Register("ellipsis", Properties{Ellipsis: "..."}))
	require.NoError(t, e.Register("plain", Properties{}))

	require.NoError(t, e.Fold(2, 5, "ellipsis"))
	got, err := e.Display(0, 20)
	require.NoError(t, err)
	assert.Equal(t, "01...56789abcdefghij", got)

	// Contiguous hidden text renders as one segment, marked by the spec
	// hiding its start.
	require.NoError(t, e.Fold(10, 12, "plain"))
	require.NoError(t, e.Fold(12, 14, "ellipsis"))
	got, err = e.Display(0, 20)
	require.NoError(t, err)
	assert.Equal(t, "01...56789efghij", got)

	got, err = e.Display(5, 12)
	require.NoError(t, err)
	assert.Equal(t, "56789", got)

	_, err = e.Display(5, 1)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestDisplay_HostInvisibility(t *testing.T) {
	e := newTestEngine(t, "0123456789")
	e.Store().Buffer().AddRun(document.Invisible, 3, 6)

	assert.True(t, e.IsInvisible(4))
	got, err := e.Display(0, 10)
	require.NoError(t, err)
	assert.Equal(t, "0126789", got)
}
