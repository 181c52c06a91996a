package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/ankimcp/internal/config"
	"github.com/localrivet/ankimcp/internal/tools"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestToolsCommand(t *testing.T) {
	out, err := run(t, "tools")
	require.NoError(t, err)

	assert.Contains(t, out, "TOOL")
	for _, e := range tools.Entries() {
		assert.Contains(t, out, e.Name)
	}
	assert.Contains(t, out, "findNotes,notesInfo")
}

func TestToolsCommandJSON(t *testing.T) {
	out, err := run(t, "tools", "--json")
	require.NoError(t, err)

	var entries []tools.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Equal(t, tools.Entries(), entries)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anki.json")

	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.LoadConfigWithPath(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAnkiURL, cfg.Anki.URL)

	_, err = run(t, "config", "init", path)
	assert.Error(t, err, "existing file must not be overwritten")

	_, err = run(t, "config", "init", path, "--force")
	assert.NoError(t, err)
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anki.json")
	cfg := config.NewConfig()
	cfg.Anki.URL = "http://anki.example:8765"
	require.NoError(t, cfg.SaveToFile(path))

	out, err := run(t, "config", "show", "--config", path)
	require.NoError(t, err)

	var shown map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "http://anki.example:8765", shown["anki"]["url"])
}

func TestLoadConfigAppliesChangedFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anki.json")
	require.NoError(t, config.NewConfig().SaveToFile(path))

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", path,
		"--transport", "http",
		"--address", ":9100",
		"--anki-url", "http://127.0.0.1:9999",
	}))

	flags := &serveFlags{
		configPath: path,
		transport:  "http",
		address:    ":9100",
		ankiURL:    "http://127.0.0.1:9999",
	}
	cfg, err := loadConfig(cmd, flags)
	require.NoError(t, err)
	assert.Equal(t, config.TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, ":9100", cfg.Server.Address)
	assert.Equal(t, "http://127.0.0.1:9999", cfg.Anki.URL)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
}

func TestServeRejectsInvalidTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anki.json")
	require.NoError(t, config.NewConfig().SaveToFile(path))

	_, err := run(t, "--config", path, "--transport", "carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}
