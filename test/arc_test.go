// architecture_test.go
package architecture_test

import (
	"testing"

	"github.com/mstrYoda/go-arctest/pkg/arctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mod = `github\.com/Nazarious-ucu/weather-threads`

func TestLayeredArchitecture(t *testing.T) {
	arch, err := arctest.New("../")
	require.NoError(t, err)

	err = arch.ParsePackages()
	require.NoError(t, err, "failed to parse packages")

	domainLayer, err := arctest.NewLayer("domain",
		`^`+mod+`/internal/models`,
		`^`+mod+`/pkg/messaging`,
	)
	require.NoError(t, err)

	// fan-out core knows nothing about HTTP, caches or brokers
	appLayer, err := arctest.NewLayer("application", `^`+mod+`/internal/(dispatcher|scheduler)`)
	require.NoError(t, err)

	infraLayer, err := arctest.NewLayer("infrastructure",
		`^`+mod+`/internal/(services|producers)`,
		`^`+mod+`/pkg/logger`,
	)
	require.NoError(t, err)

	userLayer, err := arctest.NewLayer("user", `^`+mod+`/internal/handlers`)
	require.NoError(t, err)

	layered := arch.NewLayeredArchitecture(domainLayer, appLayer, infraLayer, userLayer)

	err = appLayer.DependsOnLayer(domainLayer)
	assert.NoError(t, err)

	err = infraLayer.DependsOnLayer(domainLayer)
	assert.NoError(t, err)

	err = userLayer.DependsOnLayer(domainLayer)
	assert.NoError(t, err)

	violations, err := layered.Check()
	require.NoError(t, err)

	assert.Len(t, violations, 0)

	for _, v := range violations {
		assert.Failf(t, "", "violation: %s", v)
	}
}
