package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLint(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package q\n\nconst QOne = `--sql 11111111-1111-1111-1111-111111111111\nselect 1;\n`\n\nconst QBad = `select 2;`\n")
	writeGo(t, dir, "b.go", "package q\n\nconst QTwo = `--sql 11111111-1111-1111-1111-111111111111\nupdate t set x = 1;\n`\n\nconst QThree = `--sql 22222222-2222-2222-2222-222222222222\ndelete from t;\n`\n")
	writeGo(t, dir, "c_test.go", "package q\n\nconst fixture = `select 3;`\n")
	if err := os.Mkdir(filepath.Join(dir, "_skip"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeGo(t, filepath.Join(dir, "_skip"), "d.go", "package skip\n\nconst QIgnored = `select 4;`\n")

	violations, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("got %d violations, want 2: %+v", len(violations), violations)
	}

	var missing, reused bool
	for _, v := range violations {
		switch {
		case v.name == "QBad" && strings.Contains(v.message, "missing"):
			missing = true
		case v.name == "QTwo" && strings.Contains(v.message, "QOne"):
			reused = true
		}
	}
	if !missing || !reused {
		t.Fatalf("unexpected violations: %+v", violations)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("\n  --sql abc  \nselect 1"); got != "--sql abc" {
		t.Fatalf("firstLine() = %q", got)
	}
}
