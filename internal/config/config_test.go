package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://www.profiausbau.com/api/chat.php", cfg.Backend.URL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "de-DE", cfg.Voice.Locale)
	assert.Equal(t, "Google", cfg.Voice.VendorHint)
	assert.Equal(t, AudioOutputMiniaudio, cfg.Audio.Output)
	assert.False(t, cfg.Deepgram.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ema.yaml")
	content := `
backend:
  url: http://localhost:9000/chat
  timeout: 5s
voice:
  locale: de-AT
  vendor_hint: ""
audio:
  output: none
widget:
  addr: :9999
  allowed_origins:
    - http://localhost:3000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/chat", cfg.Backend.URL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "de-AT", cfg.Voice.Locale)
	assert.Empty(t, cfg.Voice.VendorHint)
	assert.Equal(t, AudioOutputNone, cfg.Audio.Output)
	assert.Equal(t, ":9999", cfg.Widget.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Widget.AllowedOrigins)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("EMA_BACKEND_URL", "http://backend.test/api")
	t.Setenv("EMA_AUDIO_OUTPUT", "portaudio")
	t.Setenv("DEEPGRAM_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://backend.test/api", cfg.Backend.URL)
	assert.Equal(t, AudioOutputPortaudio, cfg.Audio.Output)
	assert.Equal(t, "secret", cfg.Deepgram.APIKey)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := &Config{
		Backend:  BackendConfig{URL: "not a url", Timeout: 0},
		Voice:    VoiceConfig{Engine: "festival"},
		Audio:    AudioConfig{Output: "alsa", MinPayloadBytes: -1},
		Deepgram: DeepgramConfig{Enabled: true},
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, key := range []string{"backend.url", "backend.timeout", "voice.engine", "audio.output", "audio.min_payload_bytes", "deepgram.api_key"} {
		assert.Contains(t, err.Error(), key)
	}
}
