package tool

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/reasonableperson/etrial-manager/types"
)

func TestFormatKiB(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 KiB"},
		{511, "0 KiB"},
		{512, "1 KiB"},
		{10 * 1024, "10 KiB"},
		{1536000, "1,500 KiB"},
		{1024 * 1024 * 1024, "1,048,576 KiB"},
	}
	for _, tt := range tests {
		if got := FormatKiB(tt.size); got != tt.want {
			t.Errorf("FormatKiB(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestBuildUploadURL(t *testing.T) {
	got, err := BuildUploadURL("http://127.0.0.1:8080/", "/documents/add", "my file&1.pdf")
	if err != nil {
		t.Fatal(err)
	}
	want := "http://127.0.0.1:8080/documents/add?filename=my%20file%261.pdf"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if _, err := BuildUploadURL("127.0.0.1", "/upload", "a"); err == nil {
		t.Error("expected an error for a base URL without scheme")
	}
}

func TestBuildActionURL(t *testing.T) {
	got, err := BuildActionURL("http://host:8080", "identify", "abc", "EX 1/2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "http://host:8080/identify/abc/EX%201%2F2" {
		t.Errorf("unexpected action URL %q", got)
	}
	if _, err := BuildActionURL("http://host"); err == nil {
		t.Error("expected an error for an empty action")
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.UploadPath != "/upload" || cfg.BatchTTL != time.Hour {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config not written: %v", err)
	}

	if err := os.WriteFile(path, []byte("target: http://10.0.0.2:9000\nuploadPath: /documents/add\ntaskTimeout: 30s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Target != "http://10.0.0.2:9000" || cfg.UploadPath != "/documents/add" || cfg.TaskTimeout != 30*time.Second {
		t.Errorf("config not read: %+v", cfg)
	}
	if cfg.DocsDir != "docs" {
		t.Errorf("unset fields should keep defaults, got %q", cfg.DocsDir)
	}
}

func TestResolveFileInput(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := ResolveFileInput(typesFileURL(p))
	if err != nil {
		t.Fatal(err)
	}
	if f.Name != "notes.txt" || f.Size != 5 || !strings.HasPrefix(f.Type, "text/plain") {
		t.Errorf("unexpected file %+v", f)
	}
	if _, err := ResolveFileInput(typesFileURL(filepath.Dir(p))); err == nil {
		t.Error("expected an error for a directory")
	}
}

func typesFileURL(p string) types.FileInput {
	return types.FileInput{FileUrl: "file://" + p}
}
