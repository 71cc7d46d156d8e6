package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/outreach-tracker/internal/config"
	"github.com/example/outreach-tracker/internal/persistence/sqlite"
	"github.com/example/outreach-tracker/internal/seed"
)

const testSeed = `
companies:
  - name: Acme
    website: https://acme.example
    people:
      - name: Ada Lovelace
        email: ada@acme.example
        attempts:
          - sent_date: "2024-07-20"
            subject: Hello
            opens: 1
          - sent_date: "2024-07-27"
            subject: Following up
`

func writeSeed(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSeed), 0o600))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(config.NewViper())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "absent.env")))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedThenExport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "outreach.db")

	out, err := runCommand(t, "seed", "--file", writeSeed(t, dir), "--snapshot-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 1 companies, 1 people, 2 email attempts")

	exportPath := filepath.Join(dir, "export.yaml")
	_, err = runCommand(t, "snapshot", "export", "--snapshot-path", dbPath, "--out", exportPath)
	require.NoError(t, err)

	exported, err := seed.LoadFile(exportPath)
	require.NoError(t, err)
	require.Len(t, exported.Companies, 1)
	require.Len(t, exported.Companies[0].People, 1)
	attempts := exported.Companies[0].People[0].Attempts
	require.Len(t, attempts, 2)
	assert.Equal(t, "2024-07-27", attempts[1].SentDate)
	assert.Equal(t, 1, attempts[0].Opens)
}

func TestSeedRefusesPopulatedStore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "outreach.db")
	seedPath := writeSeed(t, dir)

	_, err := runCommand(t, "seed", "--file", seedPath, "--snapshot-path", dbPath)
	require.NoError(t, err)

	out, err := runCommand(t, "seed", "--file", seedPath, "--snapshot-path", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already contains data")
	assert.NotContains(t, out, "seeded")

	store, err := sqlite.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer store.Close()
	snapshot, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot.Companies, 1)
	assert.Len(t, snapshot.People, 1)
	assert.Len(t, snapshot.EmailAttempts, 2)
}

func TestSeedRequiresSnapshotPath(t *testing.T) {
	_, err := runCommand(t, "seed", "--file", writeSeed(t, t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.EnvName(config.KeySnapshotPath))
}

func TestInvalidConfigurationIsReported(t *testing.T) {
	t.Setenv(config.EnvName(config.KeyHTTPPort), "not-a-port")

	_, err := runCommand(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OUTREACH_HTTP_PORT")
}

func TestServeSeedsAndPersistsOnShutdown(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "outreach.db")

	v := config.NewViper()
	v.Set(config.KeySnapshotPath, dbPath)
	v.Set(config.KeySeedFile, writeSeed(t, dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := newRuntime(ctx, v, runtimeOptions{
		EnvFile:   filepath.Join(dir, "absent.env"),
		LogOutput: io.Discard,
	})
	require.NoError(t, err)
	defer rt.Close()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- rt.serve(ctx, listener) }()

	base := fmt.Sprintf("http://%s", listener.Addr().String())
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(base + "/companies")
	require.NoError(t, err)
	var page struct {
		Total int `json:"total"`
		Items []struct {
			Name        string `json:"name"`
			TotalEmails int    `json:"totalEmails"`
		} `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	resp.Body.Close()
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "Acme", page.Items[0].Name)
	assert.Equal(t, 2, page.Items[0].TotalEmails)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	store, err := sqlite.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer store.Close()
	snapshot, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot.Companies, 1)
	assert.Len(t, snapshot.EmailAttempts, 2)
}
