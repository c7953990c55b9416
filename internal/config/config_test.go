package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBytesDefaults(t *testing.T) {
	t.Setenv("SURFER_DATA_DIR", "/tmp/surfer-cfg")

	c, err := LoadFromBytes([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5000", c.Addr())
	assert.Equal(t, "gemini", c.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", c.LLM.Model)
	assert.Equal(t, 1.2, c.LLM.Temperature)
	assert.Equal(t, "facebook ceo", c.Agent.DefaultTask)
	assert.Equal(t, 5*time.Second, c.Agent.ShutdownTimeout)
	assert.Equal(t, filepath.Join("/tmp/surfer-cfg", "data", "surfer.db"), c.Database.Path)
}

func TestLoadFromBytesExpandsEnv(t *testing.T) {
	t.Setenv("TEST_SURFER_KEY", "secret")
	t.Setenv("TEST_SURFER_HEADLESS", "yes")

	c, err := LoadFromBytes([]byte(`
port: 8080
llm:
  provider: Anthropic
  api_key: ${TEST_SURFER_KEY}
  temperature: 0.5
browser:
  headless: ${TEST_SURFER_HEADLESS}
  no_sandbox: ""
  action_timeout: 45s
  user_data_dir: ~/.config/browseruse/profiles/default
agent:
  max_steps: 10
  shutdown_timeout: 2s
database:
  path: /tmp/x.db
`))
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "anthropic", c.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-5", c.LLM.Model)
	assert.Equal(t, "secret", c.APIKey())
	assert.Equal(t, 0.5, c.LLM.Temperature)
	assert.Equal(t, 10, c.Agent.MaxSteps)
	assert.Equal(t, 2*time.Second, c.Agent.ShutdownTimeout)

	b := c.BrowserConfig()
	assert.True(t, b.Headless)
	assert.False(t, b.NoSandbox)
	assert.Equal(t, 45*time.Second, b.ActionTimeout)
	assert.Equal(t, "~/.config/browseruse/profiles/default", b.UserDataDir)
}

func TestAPIKeyFallsBackToProviderEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	c, err := LoadFromBytes([]byte("llm:\n  provider: openai\ndatabase:\n  path: /tmp/x.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", c.APIKey())
}

func TestOllamaNeedsNoKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("SURFER_LLM_BASE_URL", "http://gpu-box:11434")
	c, err := LoadFromBytes([]byte("llm:\n  provider: ollama\n  base_url: ${SURFER_LLM_BASE_URL}\ndatabase:\n  path: /tmp/x.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "qwen3:4b", c.LLM.Model)
	assert.Equal(t, "http://gpu-box:11434", c.LLM.BaseURL)
	assert.Empty(t, c.APIKey())
}

func TestValidate(t *testing.T) {
	_, err := LoadFromBytes([]byte("port: 70000\ndatabase:\n  path: x.db\n"))
	assert.ErrorContains(t, err, "port 70000 out of range")

	_, err = LoadFromBytes([]byte("llm:\n  provider: llama\ndatabase:\n  path: x.db\n"))
	assert.ErrorContains(t, err, "unknown llm provider")

	_, err = LoadFromBytes([]byte("llm:\n  temperature: 3\ndatabase:\n  path: x.db\n"))
	assert.ErrorContains(t, err, "temperature")

	_, err = LoadFromBytes([]byte("port: [1"))
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surfer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9090\ndatabase:\n  path: x.db\n"), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("TRUE", false))
	assert.True(t, parseBool(" 1 ", false))
	assert.False(t, parseBool("no", true))
	assert.True(t, parseBool("", true))
}
