package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacogips/frecency/internal/config"
	"github.com/tacogips/frecency/internal/store"
)

// testEnv isolates HOME and the flag environment so the default database
// lands in a temp dir.
func testEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvDBFile, "")
	t.Setenv(EnvConfig, "")
	return home
}

// clock returns a Now func that starts at fixedNow and can be advanced.
type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func runCLI(t *testing.T, c *clock, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(&RootOptions{Now: c.Now})
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, c *clock, args ...string) string {
	t.Helper()
	out, err := runCLI(t, c, args...)
	require.NoError(t, err, "frecency %v", args)
	return out
}

func TestAddAndFetch(t *testing.T) {
	testEnv(t)
	c := &clock{now: fixedNow}

	mustRun(t, c, "add", "/a")
	mustRun(t, c, "add", "/a")
	mustRun(t, c, "add", "/b")

	assert.Equal(t, "/a\n/b\n", mustRun(t, c, "fetch"))
	assert.Equal(t, "/b\n/a\n", mustRun(t, c, "fetch", "--asc"))
	assert.Equal(t, "/a\n", mustRun(t, c, "fetch", "--limit", "1"))
	assert.Equal(t, "2.0000\t/a\n1.0000\t/b\n", mustRun(t, c, "fetch", "-w"))
}

func TestFetchAscAppliesAfterLimit(t *testing.T) {
	testEnv(t)
	c := &clock{now: fixedNow}

	for _, p := range []string{"/a", "/a", "/a", "/b", "/b", "/c"} {
		mustRun(t, c, "add", p)
	}

	assert.Equal(t, "/b\n/a\n", mustRun(t, c, "fetch", "--limit", "2", "--asc"))
}

func TestFetchJSON(t *testing.T) {
	testEnv(t)
	c := &clock{now: fixedNow}
	mustRun(t, c, "add", "/a")

	var got []jsonEntry
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, c, "fetch", "--format", "json")), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "/a", got[0].Path)
	assert.Equal(t, 1.0, got[0].Score)
	assert.Zero(t, got[0].LastVisit)
}

func TestFetchSortByLastVisit(t *testing.T) {
	testEnv(t)
	c := &clock{now: fixedNow}

	mustRun(t, c, "add", "/old")
	mustRun(t, c, "add", "/old")
	c.now = c.now.Add(time.Hour)
	mustRun(t, c, "add", "/new")

	assert.Equal(t, "/old\n/new\n", mustRun(t, c, "fetch"))
	assert.Equal(t, "/new\n/old\n", mustRun(t, c, "fetch", "--sort-by-last-visit"))

	var got []jsonEntry
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, c, "fetch", "--sort-by-last-visit", "--format", "json")), &got))
	require.Len(t, got, 2)
	assert.Equal(t, c.now.UnixMilli(), got[0].LastVisit)
	assert.Equal(t, fixedNow.UnixMilli(), got[1].LastVisit)
}

func TestFetchFreshDatabase(t *testing.T) {
	home := testEnv(t)
	c := &clock{now: fixedNow}

	assert.Empty(t, mustRun(t, c, "fetch"))

	_, err := os.Stat(filepath.Join(home, ".local", "share", "frecency", "db", "frecency.sqlite3"))
	assert.NoError(t, err, "default database should be created")
}

func TestFetchInvalidFormat(t *testing.T) {
	testEnv(t)
	_, err := runCLI(t, &clock{now: fixedNow}, "fetch", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestFetchNegativeLimit(t *testing.T) {
	testEnv(t)
	_, err := runCLI(t, &clock{now: fixedNow}, "fetch", "--limit", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid limit")
}

func TestAddRequiresPath(t *testing.T) {
	testEnv(t)
	_, err := runCLI(t, &clock{now: fixedNow}, "add")
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	testEnv(t)
	c := &clock{now: fixedNow}
	mustRun(t, c, "add", "/a")
	mustRun(t, c, "add", "/b")
	mustRun(t, c, "add", "/c")

	mustRun(t, c, "remove", "/a", "/c", "/unknown")
	assert.Equal(t, "/b\n", mustRun(t, c, "fetch"))
}

func TestRemoveNotExists(t *testing.T) {
	testEnv(t)
	c := &clock{now: fixedNow}

	kept := t.TempDir()
	gone := filepath.Join(t.TempDir(), "deleted")
	mustRun(t, c, "add", kept)
	mustRun(t, c, "add", gone)

	assert.Equal(t, gone+"\n", mustRun(t, c, "remove-not-exists", "--workers", "2"))
	assert.Equal(t, kept+"\n", mustRun(t, c, "fetch"))
	assert.Empty(t, mustRun(t, c, "remove-not-exists"))
}

func TestDBFileFlag(t *testing.T) {
	testEnv(t)
	c := &clock{now: fixedNow}
	dbFile := filepath.Join(t.TempDir(), "custom.sqlite3")
	require.NoError(t, os.WriteFile(dbFile, nil, 0o644))

	mustRun(t, c, "--db-file", dbFile, "add", "/a")
	assert.Equal(t, "/a\n", mustRun(t, c, "--db-file", dbFile, "fetch"))
	assert.Empty(t, mustRun(t, c, "fetch"), "default database should be untouched")
}

func TestDBFileFromEnv(t *testing.T) {
	testEnv(t)
	c := &clock{now: fixedNow}
	dbFile := filepath.Join(t.TempDir(), "env.sqlite3")
	require.NoError(t, os.WriteFile(dbFile, nil, 0o644))
	t.Setenv(EnvDBFile, dbFile)

	mustRun(t, c, "add", "/from-env")

	db, err := store.Open(dbFile)
	require.NoError(t, err)
	defer db.Close()
	entries, err := db.ListByScore(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/from-env", entries[0].Path)
}

func TestDBFileMustExist(t *testing.T) {
	testEnv(t)
	_, err := runCLI(t, &clock{now: fixedNow}, "--db-file", filepath.Join(t.TempDir(), "missing.sqlite3"), "fetch")
	assert.ErrorIs(t, err, config.ErrDBPathNotExists)
}

func TestDBFileMustBeRegularFile(t *testing.T) {
	testEnv(t)
	_, err := runCLI(t, &clock{now: fixedNow}, "--db-file", t.TempDir(), "fetch")
	assert.ErrorIs(t, err, config.ErrInvalidDBPath)
}

func TestConfigFile(t *testing.T) {
	testEnv(t)
	c := &clock{now: fixedNow}
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "cfg.sqlite3")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  path: "+dbPath+"\nvisits:\n  max_log_size: 2\n"), 0o644))

	for i := 0; i < 4; i++ {
		mustRun(t, c, "--config", cfgPath, "add", "/a")
		c.now = c.now.Add(time.Minute)
	}

	db, err := store.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	visits, err := db.FetchVisits("/a")
	require.NoError(t, err)
	assert.Equal(t, []int64{
		fixedNow.Add(2 * time.Minute).UnixMilli(),
		fixedNow.Add(3 * time.Minute).UnixMilli(),
	}, visits)
}

func TestConfigFileInvalid(t *testing.T) {
	testEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("visits:\n  max_log_size: 0\n"), 0o644))

	_, err := runCLI(t, &clock{now: fixedNow}, "--config", cfgPath, "fetch")
	assert.ErrorIs(t, err, store.ErrConfiguration)
}

func TestFetchLimitZeroListsAll(t *testing.T) {
	testEnv(t)
	c := &clock{now: fixedNow}
	mustRun(t, c, "add", "/a")
	mustRun(t, c, "add", "/b")

	assert.Equal(t, "/a\n/b\n", mustRun(t, c, "fetch", "--limit", "0"))
}

func TestDBFileWithQuestionMark(t *testing.T) {
	testEnv(t)
	c := &clock{now: fixedNow}
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "we?ird.db")
	require.NoError(t, os.WriteFile(dbFile, nil, 0o644))

	mustRun(t, c, "--db-file", dbFile, "add", "/a")
	assert.Equal(t, "/a\n", mustRun(t, c, "--db-file", dbFile, "fetch"))

	_, err := os.Stat(filepath.Join(dir, "we"))
	assert.ErrorIs(t, err, os.ErrNotExist, "data must not land in a truncated file name")
}

func TestRunHandlers(t *testing.T) {
	testEnv(t)
	opts := &RootOptions{Now: func() time.Time { return fixedNow }}
	cmd := newRootCommand(opts)
	cmd.SetErr(&bytes.Buffer{})
	out := &bytes.Buffer{}
	cmd.SetOut(out)

	kept := t.TempDir()
	gone := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, runAdd(cmd, opts, kept))
	require.NoError(t, runAdd(cmd, opts, gone))
	require.NoError(t, runAdd(cmd, opts, "/explicit"))

	require.NoError(t, runRemove(cmd, opts, []string{"/explicit"}))

	cmd.SetContext(context.Background())
	require.NoError(t, runRemoveNotExists(cmd, opts, 1))
	assert.Equal(t, gone+"\n", out.String())

	out.Reset()
	require.NoError(t, runFetch(cmd, &FetchOptions{RootOptions: opts, Format: "text"}))
	assert.Equal(t, kept+"\n", out.String())
}
