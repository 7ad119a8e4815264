package cli

import (
	"bytes"
	stdcontext "context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	stdruntime "runtime"
	"strings"
	"sync"
	"testing"

	"github.com/Paintersrp/forkexec/internal/config"
	"github.com/Paintersrp/forkexec/internal/process"
)

// Re-executed copies of the test binary run the root command as the duplicate.
func TestMain(m *testing.M) {
	if process.CurrentRole() == process.RoleChild {
		root := NewRootCmd()
		root.SetArgs([]string{})
		err := root.ExecuteContext(stdcontext.Background())
		os.Exit(process.ExitCode(err))
	}
	os.Exit(m.Run())
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvConfigFile,
		config.EnvProgram,
		config.EnvLogLevel,
		config.EnvLogFormat,
		config.EnvMetricsFile,
	} {
		t.Setenv(key, "")
	}
}

func runRoot(t *testing.T, spawner *process.Spawner, args ...string) (string, string, error) {
	t.Helper()
	stdout := &lockedBuffer{}
	stderr := &lockedBuffer{}
	if spawner != nil {
		spawner.Stdout = stdout
		spawner.Stderr = stderr
	}

	if args == nil {
		args = []string{}
	}

	cmd, ctx := newRootCommand()
	ctx.spawner = spawner
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(stdcontext.Background())
	return stdout.String(), stderr.String(), err
}

// selfSpawner re-executes the test binary; an empty Path resolves to it through
// os.Executable, independent of the working directory.
func selfSpawner() *process.Spawner {
	return &process.Spawner{Args: []string{}}
}

func TestRootListsConfiguredWorkdir(t *testing.T) {
	if stdruntime.GOOS == "windows" {
		t.Skip("process launcher tests skipped on windows")
	}
	if _, err := exec.LookPath("ls"); err != nil {
		t.Skip("ls not available")
	}
	clearEnv(t)

	dir := t.TempDir()
	listing := filepath.Join(dir, "listing")
	if err := os.Mkdir(listing, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(listing, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	metricsFile := filepath.Join(dir, "forkexec.prom")
	cfgPath := filepath.Join(dir, "forkexec.yaml")
	manifest := "workdir: ./listing\nmetrics:\n  file: " + metricsFile + "\n"
	if err := os.WriteFile(cfgPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvConfigFile, cfgPath)

	stdout, stderr, err := runRoot(t, selfSpawner())
	if err != nil {
		t.Fatalf("root command returned error: %v\nstderr:\n%s", err, stderr)
	}
	if got := process.ExitCode(err); got != 0 {
		t.Fatalf("expected exit code 0, got %d", got)
	}

	done := strings.Index(stdout, "child process has finished the ls command")
	if done < 0 {
		t.Fatalf("expected completion line, got:\n%s", stdout)
	}
	for _, name := range []string{"a.txt", "b.txt"} {
		idx := strings.Index(stdout, name)
		if idx < 0 {
			t.Fatalf("expected %s in listing, got:\n%s", name, stdout)
		}
		if idx > done {
			t.Fatalf("listing of %s appeared after completion line:\n%s", name, stdout)
		}
	}

	data, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("read metrics textfile: %v", err)
	}
	if !strings.Contains(string(data), `forkexec_spawns_total{result="parent"}`) {
		t.Fatalf("expected spawn counter in metrics textfile:\n%s", data)
	}
}

func TestRootRelativeConfigWithWorkdir(t *testing.T) {
	if stdruntime.GOOS == "windows" {
		t.Skip("process launcher tests skipped on windows")
	}
	if _, err := exec.LookPath("ls"); err != nil {
		t.Skip("ls not available")
	}
	clearEnv(t)

	dir := t.TempDir()
	listing := filepath.Join(dir, "listing")
	if err := os.Mkdir(listing, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(listing, "a.txt"), nil, 0o644); err != nil {
		t.Fatalf("write a.txt: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "forkexec.yaml"), []byte("workdir: ./listing\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdirForTest(t, dir)
	t.Setenv(config.EnvConfigFile, "forkexec.yaml")

	stdout, stderr, err := runRoot(t, selfSpawner())
	if err != nil {
		t.Fatalf("root command returned error: %v\nstderr:\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "child process takes hold") {
		t.Fatalf("expected child announcement, got:\n%s", stdout)
	}
	listed := strings.Index(stdout, "a.txt")
	done := strings.Index(stdout, "child process has finished the ls command")
	if listed < 0 || done < listed {
		t.Fatalf("expected listing of a.txt before completion line, got:\n%s", stdout)
	}
}

func TestRootReplaceFailureExitsNonZero(t *testing.T) {
	if stdruntime.GOOS == "windows" {
		t.Skip("process launcher tests skipped on windows")
	}
	clearEnv(t)
	t.Setenv(config.EnvProgram, "forkexec-no-such-program")

	stdout, _, err := runRoot(t, selfSpawner())
	var childErr *process.ChildError
	if !errors.As(err, &childErr) {
		t.Fatalf("expected ChildError, got %v", err)
	}
	if got := process.ExitCode(err); got != process.ExitNotFound {
		t.Fatalf("expected exit code %d, got %d", process.ExitNotFound, got)
	}
	if !strings.Contains(stdout, "child process has finished the forkexec-no-such-program command") {
		t.Fatalf("expected completion line naming the program, got:\n%s", stdout)
	}
}

func TestRootSpawnFailureExitsOne(t *testing.T) {
	clearEnv(t)

	spawner := &process.Spawner{Path: filepath.Join(t.TempDir(), "missing"), Args: []string{}}
	stdout, _, err := runRoot(t, spawner)
	if got := process.ExitCode(err); got != process.ExitSpawnFailed {
		t.Fatalf("expected exit code %d, got %d (err=%v)", process.ExitSpawnFailed, got, err)
	}
	if stdout != "" {
		t.Fatalf("expected no output on spawn failure, got:\n%s", stdout)
	}
}

func TestRootRejectsArguments(t *testing.T) {
	clearEnv(t)

	_, _, err := runRoot(t, nil, "extra")
	if err == nil {
		t.Fatal("expected error for positional argument")
	}
	if got := process.ExitCode(err); got != 1 {
		t.Fatalf("expected exit code 1, got %d", got)
	}
}

func TestRootReportsConfigErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvLogFormat, "xml")

	_, _, err := runRoot(t, nil)
	if err == nil || !strings.Contains(err.Error(), "log.format") {
		t.Fatalf("expected log.format error, got %v", err)
	}
}

// chdirForTest mirrors testing.T.Chdir (Go 1.24+): it changes the working
// directory for the duration of the test and restores it on cleanup.
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
