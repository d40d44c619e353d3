package app

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// minimalProject はステージとスプライト1体だけの最小プロジェクト
const minimalProject = `{
	"targets": [
		{"name": "Stage", "isStage": true, "blocks": {}},
		{"name": "neko", "isStage": false, "blocks": {
			"hat": {"opcode": "event_whenflagclicked", "next": "move", "topLevel": true},
			"move": {"opcode": "motion_movesteps", "parent": "hat",
				"inputs": {"STEPS": {"value": 10}}}
		}}
	]
}`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Help(t *testing.T) {
	var emptyFS embed.FS
	app := New(emptyFS)
	if err := app.Run([]string{"--help"}); err != nil {
		t.Errorf("Run with --help: %v", err)
	}
}

func TestRun_InvalidArgs(t *testing.T) {
	var emptyFS embed.FS
	app := New(emptyFS)
	err := app.Run([]string{"--log-level", "bogus"})
	if err == nil {
		t.Fatal("expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "failed to parse args") {
		t.Errorf("error = %v, want parse failure", err)
	}
}

func TestRun_MissingProject(t *testing.T) {
	var emptyFS embed.FS
	app := New(emptyFS)
	err := app.Run([]string{"--headless", filepath.Join(t.TempDir(), "nope.json")})
	if err == nil {
		t.Fatal("expected error for missing project file")
	}
	if !strings.Contains(err.Error(), "failed to load project") {
		t.Errorf("error = %v, want load failure", err)
	}
}

func TestRun_HeadlessToCompletion(t *testing.T) {
	// スクリプトが終了すればヘッドレス実行も終了する
	path := writeProject(t, minimalProject)

	var emptyFS embed.FS
	app := New(emptyFS)
	if err := app.Run([]string{"--headless", "--timeout", "5", path}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_EmbeddedDemoMissing(t *testing.T) {
	// プロジェクト未指定で、embedFSにデモが無い場合はエラー
	var emptyFS embed.FS
	app := New(emptyFS)
	err := app.Run([]string{"--headless", "--timeout", "1"})
	if err == nil {
		t.Fatal("expected error when embedded demo is absent")
	}
}
