package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFilesToolCreateReadUpdate(t *testing.T) {
	dir := t.TempDir()
	tool := NewFilesTool(dir)
	ctx := context.Background()

	args, _ := json.Marshal(filesArgs{Action: "create", Path: "notes.txt", Content: "first"})
	if _, err := tool.Invoke(ctx, args); err != nil {
		t.Fatalf("create error = %v", err)
	}

	args, _ = json.Marshal(filesArgs{Action: "read", Path: "notes.txt"})
	out, err := tool.Invoke(ctx, args)
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	if out != "first" {
		t.Fatalf("read = %q, want first", out)
	}

	args, _ = json.Marshal(filesArgs{Action: "update", Path: "notes.txt", Content: "second"})
	if _, err := tool.Invoke(ctx, args); err != nil {
		t.Fatalf("update error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("file contents = %q, want second", data)
	}
}

func TestFilesToolSearch(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello\nneedle here\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	tool := NewFilesTool(dir)
	args, _ := json.Marshal(filesArgs{Action: "search", Query: "needle"})
	out, err := tool.Invoke(context.Background(), args)
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if out != "a.txt:2" {
		t.Fatalf("search = %q, want a.txt:2", out)
	}
}

func TestFilesToolUnknownAction(t *testing.T) {
	tool := NewFilesTool(t.TempDir())
	args, _ := json.Marshal(filesArgs{Action: "delete", Path: "x"})
	if _, err := tool.Invoke(context.Background(), args); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}
