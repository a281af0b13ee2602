package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesTool implements project_files: create, read, update and search a
// file. It is registered under the name project_files only; no file_ops
// alias is registered. The supplied path is used verbatim relative
// to WorkDir — there is no sandboxing. This is a documented, intentional
// trade-off: Taskter assumes it is operating on behalf of the same user
// who configured the agent.
type FilesTool struct {
	WorkDir string
}

// NewFilesTool returns the project_files built-in.
func NewFilesTool(workDir string) *FilesTool { return &FilesTool{WorkDir: workDir} }

func (t *FilesTool) Name() string { return "project_files" }

func (t *FilesTool) Description() string {
	return "Create, read, update or search files in the project directory (action: create|read|update|search)."
}

func (t *FilesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action": {"type": "string", "enum": ["create", "read", "update", "search"]},
			"path": {"type": "string", "description": "File path, used verbatim (no sandbox)."},
			"content": {"type": "string", "description": "Content for create/update."},
			"query": {"type": "string", "description": "Substring to search for (search action)."}
		},
		"required": ["action"]
	}`)
}

type filesArgs struct {
	Action  string `json:"action"`
	Path    string `json:"path"`
	Content string `json:"content"`
	Query   string `json:"query"`
}

func (t *FilesTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var in filesArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}

	switch in.Action {
	case "create":
		return t.create(in)
	case "read":
		return t.read(in)
	case "update":
		return t.update(in)
	case "search":
		return t.search(in)
	default:
		return "", fmt.Errorf("unknown action %q: must be create, read, update or search", in.Action)
	}
}

func (t *FilesTool) resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(t.WorkDir, path), nil
}

func (t *FilesTool) create(in filesArgs) (string, error) {
	full, err := t.resolve(in.Path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(full, []byte(in.Content), 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return fmt.Sprintf("created %s (%d bytes)", in.Path, len(in.Content)), nil
}

func (t *FilesTool) read(in filesArgs) (string, error) {
	full, err := t.resolve(in.Path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func (t *FilesTool) update(in filesArgs) (string, error) {
	full, err := t.resolve(in.Path)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(full, []byte(in.Content), 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return fmt.Sprintf("updated %s (%d bytes)", in.Path, len(in.Content)), nil
}

// search walks WorkDir for files whose contents contain query, returning
// matching paths with line numbers. It is a plain substring scan, not a
// regex engine — good enough for an agent locating a string in its own
// project.
func (t *FilesTool) search(in filesArgs) (string, error) {
	if strings.TrimSpace(in.Query) == "" {
		return "", fmt.Errorf("query is required for search")
	}
	root := t.WorkDir
	if in.Path != "" {
		resolved, err := t.resolve(in.Path)
		if err != nil {
			return "", err
		}
		root = resolved
	}

	var matches []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer f.Close()
		scanner := bufio.NewScanner(f)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			if strings.Contains(scanner.Text(), in.Query) {
				rel, relErr := filepath.Rel(t.WorkDir, path)
				if relErr != nil {
					rel = path
				}
				matches = append(matches, fmt.Sprintf("%s:%d", rel, lineNo))
				if len(matches) >= 200 {
					return filepath.SkipAll
				}
			}
		}
		return nil
	})
	if err != nil && err != filepath.SkipAll {
		return "", fmt.Errorf("search: %w", err)
	}
	if len(matches) == 0 {
		return "no matches", nil
	}
	return strings.Join(matches, "\n"), nil
}
