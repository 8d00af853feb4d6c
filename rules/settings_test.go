package rules

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestSettings(t *testing.T) {
	t.Run("a int setting is only returned successfully by Int()", func(t *testing.T) {
		k := "key"
		v := 2
		s := Settings{k: v}

		val, ok := s.Int(k)
		assert.True(t, ok)
		assert.Equal(t, v, val)

		_, ok = s.Boolean(k)
		assert.False(t, ok)
	})

	t.Run("a bool setting is only returned successfully by Boolean()", func(t *testing.T) {
		k := "key"
		s := Settings{k: true}

		_, ok := s.Int(k)
		assert.False(t, ok)

		val, ok := s.Boolean(k)
		assert.True(t, ok)
		assert.True(t, val)
	})

	t.Run("a missing setting is not returned", func(t *testing.T) {
		_, ok := Settings{}.Int("key")
		assert.False(t, ok)
	})

	t.Run("entities are enabled unless explicitly disabled", func(t *testing.T) {
		assert.True(t, Settings{}.Enabled())
		assert.True(t, Settings{"enabled": "yes"}.Enabled())
		assert.False(t, Settings{"enabled": false}.Enabled())
	})
}
