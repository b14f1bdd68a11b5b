package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testConfig = `
[[specs]]
name = "outline"
ellipsis = "..."
search_open = true

[[folds]]
spec = "outline"
start = 0
end = 5
`

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runCmd executes the CLI with args and returns its standard output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fixture(t *testing.T, text string) (cfgPath, filePath string) {
	t.Helper()
	dir := t.TempDir()
	return writeTemp(t, dir, "fold.toml", testConfig), writeTemp(t, dir, "input.txt", text)
}

func TestRender(t *testing.T) {
	cfg, file := fixture(t, "hello world")
	out, err := runCmd(t, "render", "--config", cfg, file)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if out != "... world" {
		t.Errorf("render = %q, want %q", out, "... world")
	}
}

func TestRenderWithoutConfig(t *testing.T) {
	_, file := fixture(t, "hello world")
	out, err := runCmd(t, "render", file)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if out != "hello world" {
		t.Errorf("render = %q, want the plain text", out)
	}
}

func TestRegions(t *testing.T) {
	cfg, file := fixture(t, "hello world")
	out, err := runCmd(t, "regions", "-c", cfg, file)
	if err != nil {
		t.Fatalf("regions failed: %v", err)
	}
	if out != "outline\t0\t5\n" {
		t.Errorf("regions = %q", out)
	}

	if _, err := runCmd(t, "regions", "-c", cfg, "--spec", "nope", file); err == nil {
		t.Error("expected error for unknown spec")
	}
}

func TestSearch(t *testing.T) {
	cfg, file := fixture(t, "hello world hello")
	out, err := runCmd(t, "search", "-c", cfg, file, "hel+o")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 matches, got %q", out)
	}
	if lines[0] != "[0:5)\t\"hello\"\toutline[0:5)" {
		t.Errorf("first match = %q", lines[0])
	}
	if lines[1] != "[12:17)\t\"hello\"" {
		t.Errorf("second match = %q", lines[1])
	}
}

func TestSearchAccept(t *testing.T) {
	cfg, file := fixture(t, "hello world")
	out, err := runCmd(t, "search", "-c", cfg, "--accept", file, "hello")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.HasSuffix(out, "---\nhello world") {
		t.Errorf("accepted match should stay revealed, got %q", out)
	}
}

func TestSearchBadPattern(t *testing.T) {
	cfg, file := fixture(t, "hello world")
	if _, err := runCmd(t, "search", "-c", cfg, file, "("); err == nil {
		t.Error("expected pattern error")
	}
}

func TestExtractAndPaste(t *testing.T) {
	cfg, file := fixture(t, "hello world")
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.bin")

	if _, err := runCmd(t, "extract", "-c", cfg, "-o", clip, file, "0", "5"); err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	specsOnly := writeTemp(t, dir, "specs.toml", "[[specs]]\nname = \"outline\"\nellipsis = \"...\"\n")
	target := writeTemp(t, dir, "target.txt", "abc")
	out, err := runCmd(t, "paste", "-c", specsOnly, target, clip, "3")
	if err != nil {
		t.Fatalf("paste failed: %v", err)
	}
	if out != "abc..." {
		t.Errorf("paste = %q, want %q", out, "abc...")
	}
}

func TestArgumentErrors(t *testing.T) {
	cfg, file := fixture(t, "hello world")
	tests := [][]string{
		{"render"},
		{"extract", "-c", cfg, file, "x", "5"},
		{"extract", "-c", cfg, file, "0", "y"},
		{"paste", "-c", cfg, file, "clip", "z"},
		{"watch", file},
		{"render", "-c", filepath.Join(t.TempDir(), "missing.toml"), file},
	}
	for _, args := range tests {
		if _, err := runCmd(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}
