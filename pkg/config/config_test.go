package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdsync/pkg/config"
)

func TestNewConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Render.HighlightEnabled())
	assert.True(t, cfg.Render.DetectEnabled())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "unknown flavor",
			mutate:  func(c *config.Config) { c.Flavor = "markdown-it" },
			wantErr: "flavor",
		},
		{
			name:    "unknown sub-renderer",
			mutate:  func(c *config.Config) { c.Render.SubRenderers = []string{"plantuml"} },
			wantErr: "render",
		},
		{
			name:    "missing style",
			mutate:  func(c *config.Config) { c.Render.HighlightStyle = "" },
			wantErr: "render",
		},
		{
			name:    "narrow page",
			mutate:  func(c *config.Config) { c.Layout.Width = 10 },
			wantErr: "layout",
		},
		{
			name:    "margin wider than half the page",
			mutate:  func(c *config.Config) { c.Layout.Margin = 400 },
			wantErr: "layout",
		},
		{
			name:    "line height below one",
			mutate:  func(c *config.Config) { c.Layout.LineHeight = 0.5 },
			wantErr: "layout",
		},
		{
			name:    "zero scroll guard",
			mutate:  func(c *config.Config) { c.Sync.ScrollGuard = 0 },
			wantErr: "sync",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *config.Config) { c.Sync.Debounce = -time.Second },
			wantErr: "sync",
		},
		{
			name:    "empty address",
			mutate:  func(c *config.Config) { c.Preview.Addr = "" },
			wantErr: "preview",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
