package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const storefrontHome = `<html><head><title>Acme Goods</title>
<meta property="og:site_name" content="Acme Goods"></head>
<body><a href="https://instagram.com/acmegoods">Instagram</a></body></html>`

func newStorefront(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, storefrontHome)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const quietConfig = `
logging:
  development: false
fetch:
  max_retries: 0
ratelimit:
  strategy: none
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestProbeCommand_PrintsProfiles(t *testing.T) {
	t.Parallel()

	srv := newStorefront(t)
	cfg := writeConfig(t, quietConfig)

	out, err := execute(t, "probe", "--config", cfg, "--compact", srv.URL)
	require.NoError(t, err)

	var results []probeResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	require.Empty(t, results[0].Error)
	require.NotNil(t, results[0].Profile)
	require.Equal(t, "Acme Goods", results[0].Profile.Brand)
	require.Equal(t, "https://instagram.com/acmegoods", *results[0].Profile.Socials.Instagram)
}

func TestProbeCommand_ReportsFailures(t *testing.T) {
	t.Parallel()

	srv := newStorefront(t)
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()
	cfg := writeConfig(t, quietConfig)

	out, err := execute(t, "probe", "--config", cfg, "--parallel", "2", srv.URL, deadURL)
	require.ErrorContains(t, err, "1 of 2 probes failed")

	var results []probeResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	require.Empty(t, results[0].Error)
	require.Contains(t, results[1].Error, "website not found")
}

func TestProbeCommand_ArchivesToMemory(t *testing.T) {
	t.Parallel()

	srv := newStorefront(t)
	cfg := writeConfig(t, quietConfig+"storage:\n  backend: memory\n")

	out, err := execute(t, "probe", "--config", cfg, "--archive", srv.URL)
	require.NoError(t, err)

	var results []probeResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Contains(t, results[0].Snapshot, "memory://profiles/127.0.0.1/")
}

func TestProbeCommand_SaveNeedsDatabase(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t, quietConfig)
	_, err := execute(t, "probe", "--config", cfg, "--save", "https://shop.example")
	require.ErrorContains(t, err, "--save requires db.dsn")
}

func TestMigrateCommand_NeedsDatabase(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t, quietConfig)
	_, err := execute(t, "migrate", "--config", cfg)
	require.ErrorContains(t, err, "migrate requires db.dsn")
}

func TestRootCommand_BadConfig(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t, "server:\n  port: -1\n")
	_, err := execute(t, "probe", "--config", cfg, "https://shop.example")
	require.ErrorContains(t, err, "server.port")
}
