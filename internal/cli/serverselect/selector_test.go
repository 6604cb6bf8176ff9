package serverselect

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decisionhub/decisionhub/internal/cli/config"
	"github.com/decisionhub/decisionhub/internal/cli/userconfig"
)

// isolate gives the test an empty home and working directory
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAppURL, "")
	dir := t.TempDir()
	chdir(t, dir)

	prev := interactive
	interactive = func() bool { return false }
	t.Cleanup(func() { interactive = prev })
	return dir
}

func writeProject(t *testing.T, dir string, servers ...config.Server) {
	t.Helper()
	require.NoError(t, config.Save(filepath.Join(dir, config.ConfigFileName), &config.Config{Servers: servers}))
}

func TestResolveServer_Default(t *testing.T) {
	isolate(t)

	server, err := ResolveServer(Flags{})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAPIURL, server.APIURL)
	assert.Equal(t, config.DefaultAppURL, server.AppURL)
}

func TestResolveServer_Precedence(t *testing.T) {
	dir := isolate(t)
	writeProject(t, dir,
		config.Server{Alias: "staging", APIURL: "https://staging.decisionhub.dev", AppURL: "https://app.staging.decisionhub.dev"},
		config.Server{Alias: "prod", APIURL: "https://api.decisionhub.dev"},
	)

	// Two servers and no terminal: ambiguous
	_, err := ResolveServer(Flags{})
	assert.Error(t, err)

	require.NoError(t, userconfig.SetSelectedServer("https://staging.decisionhub.dev", ""))
	server, err := ResolveServer(Flags{})
	require.NoError(t, err)
	assert.Equal(t, "staging", server.Alias)
	assert.Equal(t, "https://app.staging.decisionhub.dev", server.AppURL)

	server, err = ResolveServer(Flags{Alias: "prod"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.decisionhub.dev", server.APIURL)

	t.Setenv(EnvAPIURL, "http://env.decisionhub.dev/")
	t.Setenv(EnvAppURL, "http://app.env.decisionhub.dev")
	server, err = ResolveServer(Flags{Alias: "prod"})
	require.NoError(t, err)
	assert.Equal(t, "http://env.decisionhub.dev", server.APIURL)
	assert.Equal(t, "http://app.env.decisionhub.dev", server.AppURL)

	server, err = ResolveServer(Flags{APIURL: "http://127.0.0.1:9999"})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999", server.APIURL)
}

func TestResolveServer_SingleProjectServer(t *testing.T) {
	dir := isolate(t)
	writeProject(t, dir, config.Server{Alias: "only", APIURL: "https://only.decisionhub.dev"})

	server, err := ResolveServer(Flags{})
	require.NoError(t, err)
	assert.Equal(t, "only", server.Alias)
}

func TestResolveServer_InvalidURL(t *testing.T) {
	isolate(t)

	_, err := ResolveServer(Flags{APIURL: "localhost:4000"})
	assert.Error(t, err)
}

func TestGetServerByURLOrAlias(t *testing.T) {
	cfg := config.DefaultConfig()

	server, err := GetServerByURLOrAlias(cfg, "local")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAPIURL, server.APIURL)

	server, err = GetServerByURLOrAlias(cfg, config.DefaultAPIURL)
	require.NoError(t, err)
	assert.Equal(t, "local", server.Alias)

	_, err = GetServerByURLOrAlias(cfg, "nope")
	assert.Error(t, err)
}
