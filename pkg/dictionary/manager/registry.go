package manager

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"lectern-hq/lectern/pkg/dictionary"
)

type registryKey struct {
	name    string
	version string
}

// Registry is a thread-safe set of resolved dictionaries keyed by name and
// version. Replace swaps the whole set at once.
type Registry struct {
	mu           sync.RWMutex
	dictionaries map[registryKey]*dictionary.Dictionary
	loadTime     time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		dictionaries: make(map[registryKey]*dictionary.Dictionary),
	}
}

// Replace installs dicts as the registry's contents. Nothing changes if two
// dictionaries share a name and version.
func (r *Registry) Replace(dicts []*dictionary.Dictionary) error {
	next := make(map[registryKey]*dictionary.Dictionary, len(dicts))
	for _, d := range dicts {
		key := registryKey{name: d.Name, version: d.Version}
		if _, dup := next[key]; dup {
			return &RegistryError{
				Name:      d.Name,
				Version:   d.Version,
				Operation: "replace",
				Message:   "duplicate name and version",
			}
		}
		next[key] = d
	}

	r.mu.Lock()
	r.dictionaries = next
	r.loadTime = time.Now()
	r.mu.Unlock()
	return nil
}

// Get returns the dictionary with the given name and version.
func (r *Registry) Get(name, version string) (*dictionary.Dictionary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dictionaries[registryKey{name: name, version: version}]
	return d, ok
}

// Latest returns the highest version of the named dictionary.
func (r *Registry) Latest(name string) (*dictionary.Dictionary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *dictionary.Dictionary
	for key, d := range r.dictionaries {
		if key.name != name {
			continue
		}
		if latest == nil || CompareVersions(d.Version, latest.Version) > 0 {
			latest = d
		}
	}
	return latest, latest != nil
}

// List returns every dictionary ordered by name, then version.
func (r *Registry) List() []*dictionary.Dictionary {
	r.mu.RLock()
	out := make([]*dictionary.Dictionary, 0, len(r.dictionaries))
	for _, d := range r.dictionaries {
		out = append(out, d)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *dictionary.Dictionary) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return CompareVersions(a.Version, b.Version)
	})
	return out
}

// Count returns the number of registered dictionaries.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.dictionaries)
}

// LoadTime returns when the contents were last replaced.
func (r *Registry) LoadTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadTime
}
