package stash

const (
	// DefaultDatabaseName is a conventional database name for callers
	// composing plugin options and tests.
	DefaultDatabaseName = "stash"
	// DefaultStoreName is the store targeted by operations when the
	// registry was never configured with another default.
	DefaultStoreName = "default"
)

// Registry holds the set of recognized store names and the default
// store targeted when an operation names none. A Manager snapshots
// its registry when it opens a connection: reconfiguring afterwards
// affects future opens only.
type Registry struct {
	DefaultStore string
	Stores       []string
}

// DefaultRegistry returns a registry declaring only the default store.
func DefaultRegistry() Registry {
	return Registry{
		DefaultStore: DefaultStoreName,
		Stores:       []string{DefaultStoreName},
	}
}

// Configure overwrites the default store name and/or the store name
// list, touching each field only when a non-empty value is supplied.
// The default store is not validated against the store list; that is
// the caller's responsibility.
func (registry *Registry) Configure(defaultStore string, stores []string) {
	if defaultStore != "" {
		registry.DefaultStore = defaultStore
	}

	if len(stores) > 0 {
		registry.Stores = append([]string(nil), stores...)
	}
}

func (registry Registry) clone() Registry {
	return Registry{
		DefaultStore: registry.DefaultStore,
		Stores:       append([]string(nil), registry.Stores...),
	}
}
