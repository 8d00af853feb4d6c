package rules

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Run("default rules can be loaded and pass compilation", func(t *testing.T) {
		e := New()

		err := e.LoadFS(Embedded)
		assert.NoError(t, err)

		err = e.CompileRules()
		assert.NoError(t, err)
	})

	t.Run("default rules add every entity, with packages and links disabled", func(t *testing.T) {
		e := New()
		require.NoError(t, e.LoadFS(Embedded))
		require.NoError(t, e.CompileRules())

		o, err := e.Execute(Input{Device: InputDevice{ID: "abc", Name: "Server", Type: "jd"}})
		require.NoError(t, err)

		for _, k := range []string{"download_speed", "status", "packages", "links", "update_available", "pause", "limit", "update"} {
			assert.Contains(t, o.Entities, k)
		}

		assert.True(t, o.Entities["download_speed"].Enabled())
		assert.False(t, o.Entities["packages"].Enabled())
		assert.False(t, o.Entities["links"].Enabled())
	})
}
