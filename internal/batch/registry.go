package batch

import "github.com/ligiabernardet/ccpp-doc/internal/meta"

// Registry tracks entry-point names across a build. Entry points label
// fragments and cross-references, so a name may appear only once per build
// even when groups write to different directories. Callers serialize access;
// the build registers in config order so duplicate attribution is stable.
type Registry struct {
	entries map[string]meta.Position
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]meta.Position)}
}

// Lookup returns the position that first claimed name.
func (r *Registry) Lookup(name string) (meta.Position, bool) {
	pos, ok := r.entries[name]
	return pos, ok
}

// Register claims name for the file declaring it at pos. Claiming an already
// registered name returns the first claim's position and false.
func (r *Registry) Register(name string, pos meta.Position) (meta.Position, bool) {
	if first, taken := r.entries[name]; taken {
		return first, false
	}
	r.entries[name] = pos
	return meta.Position{}, true
}

// Len returns the number of registered entry points.
func (r *Registry) Len() int {
	return len(r.entries)
}
