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

	"github.com/roach88/workint/internal/resource"
	"github.com/roach88/workint/internal/testutil"
)

type cliResult struct {
	stdout string
	stderr string
	code   int
}

// cliEnv runs commands against a fresh database in a temporary working
// directory, so no workint.yaml from elsewhere is picked up.
type cliEnv struct {
	t   *testing.T
	dir string
	db  string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return &cliEnv{t: t, dir: dir, db: filepath.Join(dir, "workint.db")}
}

func (e *cliEnv) run(args ...string) cliResult {
	e.t.Helper()
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"--db", e.db}, args...))

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := run(cmd, stdout, stderr)
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	res := e.run(args...)
	require.Equal(e.t, ExitSuccess, res.code, "stderr: %s", res.stderr)
	return res.stdout
}

// errorCode decodes a --format json error response.
func errorCode(t *testing.T, stdout string) string {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	require.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestAdd_CreatesTask(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("add", "--set", "category=work", "--set", "started=100", "--format", "json")

	var resp struct {
		Status string  `json:"status"`
		Data   created `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(1), resp.Data.ID)
	assert.Equal(t, "/tasks/1", resp.Data.Path)
	assert.Equal(t, "content://de.nenick.workinterruption/tasks/1", resp.Data.URI)

	assert.Equal(t, "created /tasks/2\n", env.mustRun("add", "-s", "category=break"))
}

func TestAdd_Errors(t *testing.T) {
	env := newCLIEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing category", []string{"--set", "started=100"}, "MISSING_REQUIRED_FIELD"},
		{"unknown column", []string{"--set", "category=work", "--set", "colour=red"}, "UNKNOWN_COLUMN"},
		{"not an assignment", []string{"--set", "category"}, "INVALID_VALUE"},
		{"non-integer started", []string{"--set", "category=work", "--set", "started=soon"}, "INVALID_VALUE"},
		{"id is store-assigned", []string{"--set", "category=work", "--set", "id=7"}, "INVALID_VALUE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.run(append([]string{"add", "--format", "json"}, tt.args...)...)
			assert.Equal(t, ExitCommandError, res.code)
			assert.Equal(t, tt.want, errorCode(t, res.stdout))
		})
	}

	assert.Equal(t, "no tasks\n", env.mustRun("list"))
}

func TestGet(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("add", "--set", "category=meeting", "--set", "started=100", "--set", "duration=30")

	out := env.mustRun("get", "content://de.nenick.workinterruption/tasks/1", "--format", "json")
	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, map[string]any{
		"id": float64(1), "category": "meeting", "started": float64(100), "duration": float64(30),
	}, resp.Data)

	text := env.mustRun("get", "/tasks/1")
	assert.Contains(t, text, "category: meeting")
	assert.Contains(t, text, "duration: 30")
}

func TestGet_Errors(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("get", "/tasks/9", "--format", "json")
	assert.Equal(t, ExitFailure, res.code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", errorCode(t, res.stdout))

	res = env.run("get", "/projects/1", "--format", "json")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Equal(t, "INVALID_RESOURCE", errorCode(t, res.stdout))

	res = env.run("get", "/tasks/9")
	assert.Equal(t, ExitFailure, res.code)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "Error: failed to get task")
}

func TestList_JSONGolden(t *testing.T) {
	pkgDir, err := os.Getwd()
	require.NoError(t, err)
	env := newCLIEnv(t)
	env.mustRun("add", "--set", "category=work", "--set", "started=100", "--set", "duration=25")
	env.mustRun("add", "--set", "category=break", "--set", "started=200")

	out := env.mustRun("list", "--format", "json",
		"--sort", "started DESC", "--projection", "category,started,duration")

	t.Chdir(pkgDir)
	testutil.AssertGolden(t, "list_json", []byte(out))
}

func TestList_TextTable(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("add", "--set", "category=work", "--set", "started=100", "--set", "duration=25")
	env.mustRun("add", "--set", "category=break", "--set", "started=200")

	out := env.mustRun("list", "-p", "category,started,duration", "--sort", "started DESC")

	assert.Equal(t, "CATEGORY  STARTED  DURATION\n"+
		"break     200      -\n"+
		"work      100      25\n", out)
}

func TestList_Filters(t *testing.T) {
	env := newCLIEnv(t)
	for _, args := range [][]string{
		{"category=work", "started=100"},
		{"category=work", "started=200"},
		{"category=break", "started=250"},
		{"category=work", "started=300"},
	} {
		env.mustRun("add", "--set", args[0], "--set", args[1])
	}

	out := env.mustRun("list", "--format", "json", "--category", "work",
		"--started-after", "100", "--started-before", "300", "-p", "id")

	var resp struct {
		Data taskTable `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, 1, resp.Data.Count)
	assert.Equal(t, float64(2), resp.Data.Tasks[0]["id"])

	res := env.run("list", "--format", "json", "--started-after", "soon")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Equal(t, "INVALID_VALUE", errorCode(t, res.stdout))

	res = env.run("list", "--format", "json", "--sort", "colour")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Equal(t, "UNKNOWN_COLUMN", errorCode(t, res.stdout))
}

func TestUpdateAndDelete(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("add", "--set", "category=meeting", "--set", "started=100", "--set", "duration=30")
	env.mustRun("add", "--set", "category=meeting", "--set", "started=200")
	env.mustRun("add", "--set", "category=work", "--set", "started=300")

	assert.Equal(t, "updated 2 task(s)\n",
		env.mustRun("update", "/tasks", "--category", "meeting", "--set", "category=interrupt", "--set", "duration=null"))
	assert.Contains(t, env.mustRun("get", "/tasks/1"), "category: interrupt")
	assert.Contains(t, env.mustRun("get", "/tasks/1"), "duration: -")

	res := env.run("update", "/tasks/1", "--format", "json")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Equal(t, "EMPTY_VALUES", errorCode(t, res.stdout))

	assert.Equal(t, "deleted 1 task(s)\n", env.mustRun("delete", "/tasks/3"))
	assert.Equal(t, "deleted 0 task(s)\n", env.mustRun("delete", "/tasks/3"))
	assert.Equal(t, "deleted 2 task(s)\n", env.mustRun("delete", "/tasks", "--started-before", "1000"))
	assert.Equal(t, "no tasks\n", env.mustRun("list"))
}

func TestExport(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("add", "--set", "category=work", "--set", "started=100")

	assert.Equal(t, "work\n\n100\n", env.mustRun("export", "/tasks/1"))

	target := filepath.Join(env.dir, "task.txt")
	assert.Empty(t, env.mustRun("export", "/tasks/1", "--type", "text/*; charset=iso-8859-1", "-o", target))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "work\n\n100\n", string(data))

	res := env.run("export", "/tasks/1", "--type", "image/png", "--format", "json")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Equal(t, "UNSUPPORTED_STREAM_TYPE", errorCode(t, res.stdout))

	res = env.run("export", "/tasks", "--format", "json")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Equal(t, "UNSUPPORTED_STREAM_TYPE", errorCode(t, res.stdout))

	res = env.run("export", "/tasks/2", "--format", "json")
	assert.Equal(t, ExitFailure, res.code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", errorCode(t, res.stdout))
}

func TestType(t *testing.T) {
	env := newCLIEnv(t)

	assert.Equal(t, resource.CollectionType+"\n", env.mustRun("type", "/tasks"))
	assert.Equal(t, resource.ItemType+"\n", env.mustRun("type", "/tasks/4"))

	res := env.run("type", "/tasks/x")
	assert.Equal(t, ExitCommandError, res.code)
}

func TestSeed(t *testing.T) {
	fixtures, err := filepath.Abs(filepath.Join("..", "seed", "testdata"))
	require.NoError(t, err)
	env := newCLIEnv(t)

	assert.Equal(t, "seeded 3 task(s): /tasks/1 /tasks/2 /tasks/3\n",
		env.mustRun("seed", filepath.Join(fixtures, "tasks.yaml")))

	res := env.run("seed", filepath.Join(fixtures, "invalid.yaml"))
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, "invalid fixture")

	res = env.run("seed", filepath.Join(env.dir, "missing.yaml"))
	assert.Equal(t, ExitCommandError, res.code)

	out := env.mustRun("list", "--format", "json", "-p", "id")
	var resp struct {
		Data taskTable `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Data.Count)
}

func TestInitConfig(t *testing.T) {
	env := newCLIEnv(t)

	assert.Equal(t, "wrote workint.yaml\n", env.mustRun("init-config"))
	_, err := os.Stat(filepath.Join(env.dir, "workint.yaml"))
	require.NoError(t, err)

	res := env.run("init-config")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, "already exists")

	env.mustRun("init-config", "--force")

	// The written defaults load; --db still wins over the file.
	env.mustRun("add", "--set", "category=work")
	_, err = os.Stat(env.db)
	require.NoError(t, err)
}

func TestConfigFile_SelectsDatabase(t *testing.T) {
	env := newCLIEnv(t)
	other := filepath.Join(env.dir, "other.db")
	cfgPath := filepath.Join(env.dir, "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("db: "+other+"\n"), 0o644))

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--config", cfgPath, "add", "--set", "category=work"})
	code := run(cmd, &bytes.Buffer{}, &bytes.Buffer{})
	require.Equal(t, ExitSuccess, code)

	_, err := os.Stat(other)
	require.NoError(t, err)

	cmd = NewRootCommand()
	cmd.SetArgs([]string{"--config", filepath.Join(env.dir, "missing.yaml"), "list"})
	stderr := &bytes.Buffer{}
	assert.Equal(t, ExitCommandError, run(cmd, &bytes.Buffer{}, stderr))
	assert.Contains(t, stderr.String(), "failed to load config")
}

func TestServe_StopsWithContext(t *testing.T) {
	env := newCLIEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--db", env.db, "serve", "--addr", "127.0.0.1:0"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
