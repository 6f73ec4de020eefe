package gemini

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		_, err := NewConfig()
		assert.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "key")
		t.Setenv("GEMINI_MODEL", "")
		t.Setenv("GEMINI_TIMEOUT", "")
		cfg, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, cfg.Model)
		assert.Equal(t, DefaultTimeout, cfg.Timeout)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "key")
		t.Setenv("GEMINI_MODEL", "gemini-2.0-pro")
		t.Setenv("GEMINI_TIMEOUT", "15s")
		cfg, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, "gemini-2.0-pro", cfg.Model)
		assert.Equal(t, 15*time.Second, cfg.Timeout)
	})

	t.Run("bad timeout", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "key")
		t.Setenv("GEMINI_TIMEOUT", "soon")
		_, err := NewConfig()
		assert.Error(t, err)
	})
}
