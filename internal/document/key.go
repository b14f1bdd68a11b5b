package document

import "fmt"

// Key identifies one attribute layer. Namespace scopes the key to a view;
// keys with an empty namespace are shared by every view.
type Key struct {
	Namespace string
	Name      string
}

// Invisible is the host's own invisibility attribute. It is not owned by any
// folding spec.
var Invisible = Key{Name: "invisible"}

// String returns a human-readable representation of the key.
func (k Key) String() string {
	if k.Namespace == "" {
		return k.Name
	}
	return fmt.Sprintf("%s/%s", k.Namespace, k.Name)
}

// Scoped returns true if the key is bound to a namespace.
func (k Key) Scoped() bool {
	return k.Namespace != ""
}
