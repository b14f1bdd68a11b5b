package fold

import (
	"fmt"
	"slices"

	"github.com/dshills/foldlayer/internal/document"
)

// SpecID names a folding spec.
type SpecID string

// All is the reserved id meaning "every spec" in queries and Unfold.
const All SpecID = "all"

// FragilePredicate reports whether a fold of spec over r became invalid
// after an edit. A true result unfolds r.
type FragilePredicate func(r document.Range, spec SpecID) bool

// ExtendRegionFunc widens the window the reconciler validates after an edit.
type ExtendRegionFunc func(from, to int) (int, int)

// Properties are the behavioural flags of a folding spec.
type Properties struct {
	// Ellipsis is shown in place of hidden text. Empty means none.
	Ellipsis string

	// SearchIgnore hides the spec's folds from search. The zero value keeps
	// folded text searchable.
	SearchIgnore bool

	// SearchOpen lets search temporarily reveal the spec's folds.
	SearchOpen bool

	// FrontSticky and RearSticky absorb text inserted right before or
	// right after a fold.
	FrontSticky bool
	RearSticky  bool

	// Managed hands the show/hide decision to an external mechanism. Managed
	// specs are transparent for priority.
	Managed bool

	// Visible shows the spec's folds. A high-priority visible spec carves
	// shown exceptions out of lower-priority hidden folds.
	Visible bool

	// Fragile, when set, is asked after edits whether a fold is still valid.
	Fragile FragilePredicate

	// Aliases are alternate names resolving to the spec.
	Aliases []SpecID
}

func (p Properties) clone() Properties {
	p.Aliases = slices.Clone(p.Aliases)
	return p
}

// Property is a key for Registry.Property and Registry.SetProperty.
type Property string

// Spec property keys.
const (
	PropEllipsis    Property = "ellipsis"
	PropSearchable  Property = "searchable"
	PropSearchOpen  Property = "search-open"
	PropFrontSticky Property = "front-sticky"
	PropRearSticky  Property = "rear-sticky"
	PropManaged     Property = "managed"
	PropVisible     Property = "visible"
	PropFragile     Property = "fragile"
	PropAliases     Property = "aliases"
)

// affectsPresentation reports whether changing key changes how folds render.
func (k Property) affectsPresentation() bool {
	switch k {
	case PropEllipsis, PropManaged, PropVisible:
		return true
	}
	return false
}

func (p *Properties) get(key Property) (any, error) {
	switch key {
	case PropEllipsis:
		return p.Ellipsis, nil
	case PropSearchable:
		return !p.SearchIgnore, nil
	case PropSearchOpen:
		return p.SearchOpen, nil
	case PropFrontSticky:
		return p.FrontSticky, nil
	case PropRearSticky:
		return p.RearSticky, nil
	case PropManaged:
		return p.Managed, nil
	case PropVisible:
		return p.Visible, nil
	case PropFragile:
		return p.Fragile, nil
	case PropAliases:
		return slices.Clone(p.Aliases), nil
	}
	return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidProperty, key)
}

func (p *Properties) set(key Property, value any) error {
	switch key {
	case PropEllipsis:
		s, ok := value.(string)
		if !ok {
			return typeError(key, value)
		}
		p.Ellipsis = s
	case PropSearchable, PropSearchOpen, PropFrontSticky, PropRearSticky, PropManaged, PropVisible:
		b, ok := value.(bool)
		if !ok {
			return typeError(key, value)
		}
		switch key {
		case PropSearchable:
			p.SearchIgnore = !b
		case PropSearchOpen:
			p.SearchOpen = b
		case PropFrontSticky:
			p.FrontSticky = b
		case PropRearSticky:
			p.RearSticky = b
		case PropManaged:
			p.Managed = b
		case PropVisible:
			p.Visible = b
		}
	case PropFragile:
		switch fn := value.(type) {
		case nil:
			p.Fragile = nil
		case FragilePredicate:
			p.Fragile = fn
		case func(document.Range, SpecID) bool:
			p.Fragile = fn
		default:
			return typeError(key, value)
		}
	case PropAliases:
		switch v := value.(type) {
		case []SpecID:
			p.Aliases = slices.Clone(v)
		case []string:
			p.Aliases = make([]SpecID, len(v))
			for i, s := range v {
				p.Aliases[i] = SpecID(s)
			}
		default:
			return typeError(key, value)
		}
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidProperty, key)
	}
	return nil
}

func typeError(key Property, value any) error {
	return fmt.Errorf("%w: %q does not accept %T", ErrInvalidProperty, key, value)
}

// Presentation is how hidden text of a spec is rendered.
type Presentation int

const (
	// PresentHidden hides folded text without a marker.
	PresentHidden Presentation = iota

	// PresentEllipsis replaces each hidden segment with the spec's ellipsis.
	PresentEllipsis

	// PresentManaged leaves show/hide to an external mechanism.
	PresentManaged

	// PresentShown displays folded text.
	PresentShown
)

// String returns the presentation name.
func (p Presentation) String() string {
	switch p {
	case PresentHidden:
		return "hidden"
	case PresentEllipsis:
		return "ellipsis"
	case PresentManaged:
		return "managed"
	case PresentShown:
		return "shown"
	default:
		return "unknown"
	}
}

func presentationOf(p Properties) Presentation {
	switch {
	case p.Managed:
		return PresentManaged
	case p.Visible:
		return PresentShown
	case p.Ellipsis != "":
		return PresentEllipsis
	default:
		return PresentHidden
	}
}
