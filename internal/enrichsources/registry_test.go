package enrichsources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is a minimal MetadataSource for registry tests.
type fakeSource struct {
	name    string
	enabled bool
}

func (f *fakeSource) Lookup(ctx context.Context, doi string) (FieldValues, error) {
	return FieldValues{}, nil
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) IsEnabled() bool { return f.enabled }

func TestRegistryOrder(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(&fakeSource{name: "crossref", enabled: true})
	registry.Register(&fakeSource{name: "openalex", enabled: true})
	registry.Register(&fakeSource{name: "scopus", enabled: false})
	registry.Register(&fakeSource{name: "datacite", enabled: true})

	t.Run("enabled preserves registration order and skips disabled", func(t *testing.T) {
		t.Parallel()
		sources := registry.Enabled()
		require.Len(t, sources, 3)
		assert.Equal(t, "crossref", sources[0].Name())
		assert.Equal(t, "openalex", sources[1].Name())
		assert.Equal(t, "datacite", sources[2].Name())
	})

	t.Run("ordered follows the explicit fallback list", func(t *testing.T) {
		t.Parallel()
		sources := registry.Ordered([]string{"datacite", "crossref", "unknown", "scopus"})
		require.Len(t, sources, 2)
		assert.Equal(t, "datacite", sources[0].Name())
		assert.Equal(t, "crossref", sources[1].Name())
	})

	t.Run("empty order falls back to registration order", func(t *testing.T) {
		t.Parallel()
		sources := registry.Ordered(nil)
		require.Len(t, sources, 3)
		assert.Equal(t, "crossref", sources[0].Name())
	})
}

func TestRegistryReplaceKeepsPosition(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(&fakeSource{name: "crossref", enabled: true})
	registry.Register(&fakeSource{name: "openalex", enabled: true})

	// Re-registering crossref disabled replaces it in place.
	registry.Register(&fakeSource{name: "crossref", enabled: false})

	sources := registry.Enabled()
	require.Len(t, sources, 1)
	assert.Equal(t, "openalex", sources[0].Name())

	assert.NotNil(t, registry.Get("crossref"))
	assert.False(t, registry.Get("crossref").IsEnabled())
	assert.Nil(t, registry.Get("unknown"))
}
