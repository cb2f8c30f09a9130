package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommandPreparesWorkspaceAndRunsVersion(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("PORTSCOUT_WORKSPACE", tmp)

	cmd := NewCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version", "--short"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if !strings.Contains(buf.String(), "portscout version:") {
		t.Fatalf("unexpected version output: %q", buf.String())
	}

	for _, sub := range []string{"cache", "logs"} {
		if _, err := os.Stat(filepath.Join(tmp, sub)); err != nil {
			t.Fatalf("expected workspace subdir %q: %v", sub, err)
		}
	}
}

func TestVersionCommandFullOutput(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("PORTSCOUT_WORKSPACE", tmp)

	cmd := NewCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	for _, want := range []string{"Commit:", "Build Date:", "Go Version:", "Platform:"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("version output missing %q: %q", want, buf.String())
		}
	}
}

func TestDiscoverRejectsInvalidPortRange(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("PORTSCOUT_WORKSPACE", tmp)

	cmd := NewCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"discover", "--ports", "not-a-range"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for an invalid --ports value")
	}
}

func TestStatusWithoutWorkspaceFails(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("PORTSCOUT_WORKSPACE", tmp)

	cmd := NewCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"status", "--no-workspace"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error when no workspace is available")
	}
}

func TestClearReportsOnEmptyCache(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("PORTSCOUT_WORKSPACE", tmp)

	cmd := NewCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"clear"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("clear on an empty cache should succeed: %v", err)
	}
	if !strings.Contains(buf.String(), "Port cache cleared.") {
		t.Fatalf("unexpected clear output: %q", buf.String())
	}
}
