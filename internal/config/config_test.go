package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_PICTURES_DIR", "/srv/pictures")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "/srv/pictures", cfg.GetPicturesDir())
	assert.Equal(t, defaultMarket, cfg.GetMarket())
	assert.Equal(t, defaultHost, cfg.GetHost())
	assert.Equal(t, defaultDisplayPollInterval, cfg.GetDisplayPollInterval())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantErr     bool
		errContains string
		validate    func(t *testing.T, c *AppConfig)
	}{
		{
			name: "full file",
			content: `
pictures_dir = "/data/walls"
market = "sv-SE"
host = "https://mirror.example.com/"
display_poll_interval = "2s"
`,
			validate: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, "/data/walls", c.PicturesDir)
				assert.Equal(t, "sv-SE", c.Market)
				assert.Equal(t, "https://mirror.example.com", c.Host, "trailing slash trimmed")
				assert.Equal(t, 2*time.Second, c.DisplayPollInterval)
			},
		},
		{
			name:    "partial file keeps defaults",
			content: `market = "de-DE"`,
			validate: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, "de-DE", c.Market)
				assert.Equal(t, defaultHost, c.Host)
			},
		},
		{
			name:        "invalid toml",
			content:     `market = `,
			wantErr:     true,
			errContains: "failed to parse",
		},
		{
			name:        "relative host",
			content:     `host = "www.bing.com"`,
			wantErr:     true,
			errContains: "invalid host",
		},
		{
			name:        "ftp host",
			content:     `host = "ftp://www.bing.com"`,
			wantErr:     true,
			errContains: "invalid host",
		},
		{
			name:        "blank market",
			content:     `market = "   "`,
			wantErr:     true,
			errContains: "market",
		},
		{
			name:        "negative poll interval",
			content:     `display_poll_interval = "-1s"`,
			wantErr:     true,
			errContains: "display_poll_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.content))

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
market = "sv-SE"
pictures_dir = "/from/file"
`)
	t.Setenv("BINGWALL_MARKET", "ja-JP")
	t.Setenv("BINGWALL_PICTURES_DIR", "/from/env")
	t.Setenv("BINGWALL_HOST", "http://127.0.0.1:8080")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ja-JP", cfg.Market)
	assert.Equal(t, "/from/env", cfg.PicturesDir)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.Host)
	assert.Equal(t, path, cfg.ConfigPath())
}

func TestLoad_ExpandsPicturesDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("WALL_ROOT", "/mnt/share")

	cfg, err := Load(writeConfig(t, `pictures_dir = "~/Wallpapers"`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Wallpapers"), cfg.PicturesDir)

	cfg, err = Load(writeConfig(t, `pictures_dir = "$WALL_ROOT/walls"`))
	require.NoError(t, err)
	assert.Equal(t, "/mnt/share/walls", cfg.PicturesDir)
}

func TestNewAppConfig(t *testing.T) {
	cfg, err := NewAppConfig(Path(writeConfig(t, `market = "fr-FR"`)), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", cfg.GetMarket())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "", expandPath(""))
	assert.Equal(t, "/tmp/x", expandPath("/tmp/x"))
	assert.Equal(t, home, expandPath("~"))
	assert.Equal(t, filepath.Join(home, "Pictures"), expandPath("~/Pictures"))
}
