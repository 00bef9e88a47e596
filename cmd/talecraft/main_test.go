package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("TALECRAFT_SAVE_DIR", t.TempDir())
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func testdata(t *testing.T, name string) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("..", "..", "loader", "testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "talecraft dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestValidate(t *testing.T) {
	broken := testdata(t, "broken")
	out, err := run(t, "validate", testdata(t, "town"))
	if err != nil {
		t.Fatalf("validate town: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Harbor Town: ok") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = run(t, "validate", broken)
	if err == nil {
		t.Fatal("expected validation failure for broken story")
	}
	if !strings.Contains(out, "error: ") {
		t.Errorf("expected listed errors:\n%s", out)
	}
}

func TestPlay_Script(t *testing.T) {
	script := filepath.Join(t.TempDir(), "walk.txt")
	if err := os.WriteFile(script, []byte("go square\n/save\n/quit\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	saves := t.TempDir()

	_, err := run(t, "play", "--seed", "1", "--save-dir", saves, "--script", script, testdata(t, "town"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(saves, "quicksave.json")); err != nil {
		t.Errorf("expected a quicksave: %v", err)
	}
}
