package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	maxFileRead   = 256 << 10 // bytes returned by file_read_tool
	maxDirEntries = 500
)

// confined resolves p inside root and rejects paths leaving it, symlinks included.
// The returned path has its symlinks resolved.
func confined(root, p string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	if absRoot, err = resolveLinks(absRoot); err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	target := p
	if !filepath.IsAbs(target) {
		target = filepath.Join(absRoot, target)
	}
	if target, err = resolveLinks(filepath.Clean(target)); err != nil {
		return "", fmt.Errorf("resolve path %q: %w", p, err)
	}
	rel, err := filepath.Rel(absRoot, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside of %s", p, absRoot)
	}
	return target, nil
}

// resolveLinks evaluates symlinks of the longest existing prefix of path and keeps the missing rest as is.
func resolveLinks(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}
	base, err := resolveLinks(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, filepath.Base(path)), nil
}

// FileReadTool reads a text file under a root directory.
type FileReadTool struct {
	root string
}

// NewFileReadTool makes file_read_tool confined to root.
func NewFileReadTool(root string) *FileReadTool {
	if root == "" {
		root = "."
	}
	return &FileReadTool{root: root}
}

// Name returns the tool identifier.
func (t *FileReadTool) Name() string { return "file_read_tool" }

// Description returns the text shown to the model.
func (t *FileReadTool) Description() string { return "Read the content of a file." }

// Schema returns the arguments schema.
func (t *FileReadTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Path of the file to read"}
		},
		"required": ["file_path"]
	}`)
}

// Call reads the file.
func (t *FileReadTool) Call(_ context.Context, args json.RawMessage) (string, error) {
	var p struct {
		Path string `json:"file_path"`
	}
	if err := decodeArgs(args, &p); err != nil {
		return "", err
	}
	if p.Path == "" {
		return "", errors.New("file_path is required")
	}
	path, err := confined(t.root, p.Path)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path) //nolint:gosec // confined to the tools root
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxFileRead+1))
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if len(data) > maxFileRead {
		return string(data[:maxFileRead]) + "\n[file truncated]", nil
	}
	return string(data), nil
}

// DirectoryReadTool lists files under a root directory.
type DirectoryReadTool struct {
	root string
}

// NewDirectoryReadTool makes directory_read_tool confined to root.
func NewDirectoryReadTool(root string) *DirectoryReadTool {
	if root == "" {
		root = "."
	}
	return &DirectoryReadTool{root: root}
}

// Name returns the tool identifier.
func (t *DirectoryReadTool) Name() string { return "directory_read_tool" }

// Description returns the text shown to the model.
func (t *DirectoryReadTool) Description() string {
	return "Recursively list the files of a directory."
}

// Schema returns the arguments schema.
func (t *DirectoryReadTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"directory": {"type": "string", "description": "Directory to list, default is the root"}
		}
	}`)
}

// Call lists the directory.
func (t *DirectoryReadTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		Dir string `json:"directory"`
	}
	if err := decodeArgs(args, &p); err != nil {
		return "", err
	}
	if p.Dir == "" {
		p.Dir = "."
	}
	dir, err := confined(t.root, p.Dir)
	if err != nil {
		return "", err
	}

	var files []string
	truncated := false
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if len(files) >= maxDirEntries {
			truncated = true
			return filepath.SkipAll
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		return "", fmt.Errorf("list directory: %w", walkErr)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Files in %s:\n", p.Dir)
	for _, f := range files {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	if truncated {
		fmt.Fprintf(&b, "[listing truncated at %d files]\n", maxDirEntries)
	}
	return b.String(), nil
}
