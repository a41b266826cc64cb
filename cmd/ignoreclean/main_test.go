package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fenilsonani/ignoreclean/internal/security"
	"github.com/fenilsonani/ignoreclean/internal/testutil"
)

// execute runs the CLI with an isolated config file and no dry-run pause
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "config.yaml"), "--dry-run-delay", "0s"))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestDryRunListsButKeeps(t *testing.T) {
	f := testutil.NewFixture(t)
	f.WriteGitignore("", "ignored.txt", "build")
	f.Touch("ignored.txt", "not_ignored.txt", "build/out.bin")

	stdout, _, err := execute(t, f.RootDir)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	f.AssertExists("ignored.txt", "build/out.bin")
	want := []string{
		"🚫 Running in dry-run mode. Pass --delete to actually delete.",
		"🗂️  " + f.Path("build"),
		"📄 " + f.Path("ignored.txt"),
	}
	got := strings.Split(strings.TrimSpace(stdout), "\n")
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("stdout =\n%s\nwant\n%s", stdout, strings.Join(want, "\n"))
	}
}

func TestDeleteFlag(t *testing.T) {
	f := testutil.NewFixture(t)
	f.WriteGitignore("", "ignored.txt")
	f.Touch("ignored.txt", "not_ignored.txt")

	stdout, _, err := execute(t, f.RootDir, "--delete", "--quiet", "--calculate-size")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	f.AssertNotExists("ignored.txt")
	f.AssertExists("not_ignored.txt")
	if stdout != "🧹 Total size: 0 B\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestSkipPatternsFlagIsRepeatable(t *testing.T) {
	f := testutil.NewFixture(t)
	f.WriteGitignore("", "*.log")
	f.Touch("a.log", "b.log", "c.log")

	_, _, err := execute(t, f.RootDir, "-d", "-q",
		"--skip-patterns", `/a\.log$`,
		"--skip-patterns", `/(b|x)\.log$`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	f.AssertExists("a.log", "b.log")
	f.AssertNotExists("c.log")
}

func TestInvalidRoot(t *testing.T) {
	f := testutil.NewFixture(t)
	file := f.CreateFile("file.txt", nil)

	tests := []struct {
		name string
		path string
		kind security.RootErrorKind
	}{
		{"missing", f.Path("missing"), security.RootNotFound},
		{"not a directory", file, security.RootNotDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.path)
			var rootErr *security.RootError
			if !errors.As(err, &rootErr) {
				t.Fatalf("expected RootError, got %v", err)
			}
			if rootErr.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", rootErr.Kind, tt.kind)
			}
		})
	}
}

func TestRootRulesFailureSucceeds(t *testing.T) {
	f := testutil.NewFixture(t)
	f.WriteGitignore("", "ignored.txt", "foo[abc")
	f.Touch("ignored.txt")

	_, stderr, err := execute(t, f.RootDir, "--delete")
	if err != nil {
		t.Fatalf("broken root rules should not fail the run: %v", err)
	}
	f.AssertExists("ignored.txt")
	if !strings.Contains(stderr, "❌ Failed to parse rules at "+f.Path(".gitignore")) {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestDeletionFailureExitsWithError(t *testing.T) {
	testutil.SkipIfRoot(t)

	f := testutil.NewFixture(t)
	f.WriteGitignore("", "*.tmp")
	f.Touch("ro/x.tmp")
	f.CreateReadOnlyDir("ro")

	_, stderr, err := execute(t, f.RootDir, "--delete", "--ignore-errors")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported fatal error, got %v", err)
	}
	if !strings.Contains(stderr, "Permission denied while deleting "+f.Path("ro/x.tmp")) {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestJSONOutput(t *testing.T) {
	f := testutil.NewFixture(t)
	f.WriteGitignore("", "*.tmp")
	f.CreateFile("a.tmp", make([]byte, 42))

	stdout, stderr, err := execute(t, f.RootDir, "-o", "json", "--calculate-size")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var report struct {
		Root      string `json:"root"`
		DryRun    bool   `json:"dry_run"`
		Matched   int    `json:"matched"`
		TotalSize int64  `json:"total_size"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if report.Root != f.RootDir || !report.DryRun || report.Matched != 1 || report.TotalSize != 42 {
		t.Errorf("unexpected report %+v", report)
	}
	if !strings.Contains(stderr, "dry-run mode") {
		t.Errorf("dry-run notice should go to stderr: %q", stderr)
	}
}

func TestInvalidFlagValues(t *testing.T) {
	f := testutil.NewFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad skip pattern", []string{"--skip-patterns", "(oops"}},
		{"bad output", []string{"-o", "xml"}},
		{"bad log level", []string{"--log-level", "chatty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{f.RootDir}, tt.args...)...)
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRequiresExactlyOnePath(t *testing.T) {
	if _, _, err := execute(t); err == nil {
		t.Error("expected error without a path")
	}
}

func TestConfigInit(t *testing.T) {
	var stdout bytes.Buffer
	cfgPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cmd := newRootCmd(&stdout, &bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--config", cfgPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout.String(), "Created "+cfgPath) {
		t.Errorf("stdout = %q", stdout.String())
	}

	stdout.Reset()
	cmd = newRootCmd(&stdout, &bytes.Buffer{})
	cmd.SetArgs([]string{"config", "--config", cfgPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(stdout.String(), "Config file: "+cfgPath) || strings.Contains(stdout.String(), "does not exist") {
		t.Errorf("stdout = %q", stdout.String())
	}
}
