package stash_test

import (
	"testing"

	"github.com/stashkv/stash/stash"
	"github.com/stretchr/testify/require"
)

func TestRegistryConfigure(t *testing.T) {
	testCases := map[string]struct {
		defaultStore string
		stores       []string
		result       stash.Registry
	}{
		"both-supplied": {
			defaultStore: "new-default",
			stores:       []string{"a", "b"},
			result:       stash.Registry{DefaultStore: "new-default", Stores: []string{"a", "b"}},
		},
		"empty-default-keeps-old": {
			defaultStore: "",
			stores:       []string{"a"},
			result:       stash.Registry{DefaultStore: "old-default", Stores: []string{"a"}},
		},
		"empty-list-keeps-old": {
			defaultStore: "new-default",
			stores:       nil,
			result:       stash.Registry{DefaultStore: "new-default", Stores: []string{"old"}},
		},
		"nothing-supplied-keeps-both": {
			defaultStore: "",
			stores:       nil,
			result:       stash.Registry{DefaultStore: "old-default", Stores: []string{"old"}},
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			registry := stash.Registry{DefaultStore: "old-default", Stores: []string{"old"}}
			registry.Configure(testCase.defaultStore, testCase.stores)

			require.Equal(t, testCase.result, registry)
		})
	}

	t.Run("list-is-copied", func(t *testing.T) {
		stores := []string{"a", "b"}

		registry := stash.Registry{}
		registry.Configure("d", stores)

		stores[0] = "mutated"

		require.Equal(t, []string{"a", "b"}, registry.Stores)
	})

	// The default is not validated against the store list: that is
	// the caller's responsibility
	t.Run("default-not-validated", func(t *testing.T) {
		registry := stash.DefaultRegistry()
		registry.Configure("not-in-list", nil)

		require.Equal(t, "not-in-list", registry.DefaultStore)
		require.Equal(t, []string{stash.DefaultStoreName}, registry.Stores)
	})
}
