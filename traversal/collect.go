// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package traversal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/vibegrep/core"
)

// binaryProbeBytes is how much of a file is checked for NUL bytes.
const binaryProbeBytes = 8192

// Options controls Collect.
type Options struct {
	// Depth is 1 for the root only, 2 to include immediate subdirectories.
	Depth int
	// Glob filters files by base name using path.Match syntax. Empty matches all.
	Glob string
	// Executor runs git. Nil uses DefaultExecutor.
	Executor CommandExecutor
	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger
}

// Entry is a file selected for reading.
type Entry struct {
	// Path is relative to the search root and slash separated.
	Path string
	// Abs is the path used to open the file.
	Abs   string
	Depth int
}

// Collect lists the files under root that a search should cover.
func Collect(ctx context.Context, root string, opts Options) ([]Entry, error) {
	if opts.Depth == 0 {
		opts.Depth = 1
	}
	if opts.Depth != 1 && opts.Depth != 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, opts.Depth)
	}
	if opts.Glob != "" {
		if _, err := path.Match(opts.Glob, ""); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidGlob, opts.Glob)
		}
	}
	if opts.Executor == nil {
		opts.Executor = &DefaultExecutor{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "traversal")

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, root)
		}
		return nil, err
	}

	// A single file is searched as given
	if !info.IsDir() {
		return []Entry{{Path: filepath.ToSlash(filepath.Clean(root)), Abs: root, Depth: 1}}, nil
	}

	ignored, err := ignoredPaths(ctx, opts.Executor, root)
	if err != nil {
		logger.Debug("git ignore lookup failed, continuing without it", "root", root, "err", err)
	}

	c := &collector{root: root, glob: opts.Glob, ignored: ignored, logger: logger}

	entries, subdirs, err := c.list("", 1)
	if err != nil {
		return nil, err
	}
	if opts.Depth == 2 {
		for _, dir := range subdirs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			more, _, err := c.list(dir, 2)
			if err != nil {
				logger.Debug("skipping unreadable directory", "dir", dir, "err", err)
				continue
			}
			entries = append(entries, more...)
		}
	}
	return entries, nil
}

type collector struct {
	root    string
	glob    string
	ignored map[string]bool
	logger  *slog.Logger
}

// list returns the accepted files of one directory and its visible
// subdirectories, both sorted by name.
func (c *collector) list(rel string, depth int) ([]Entry, []string, error) {
	dirents, err := os.ReadDir(filepath.Join(c.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(dirents, func(i, j int) bool { return dirents[i].Name() < dirents[j].Name() })

	var entries []Entry
	var subdirs []string
	for _, d := range dirents {
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		relPath := path.Join(rel, name)
		if c.ignored[relPath] {
			continue
		}
		abs := filepath.Join(c.root, filepath.FromSlash(relPath))

		// Follow symlinks to decide what the entry is
		info, err := os.Stat(abs)
		if err != nil {
			c.logger.Debug("skipping entry", "path", relPath, "err", err)
			continue
		}
		if info.IsDir() {
			subdirs = append(subdirs, relPath)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if c.glob != "" {
			if ok, _ := path.Match(c.glob, name); !ok {
				continue
			}
		}
		if binary, err := isBinary(abs); err == nil && binary {
			c.logger.Debug("skipping binary file", "path", relPath)
			continue
		}
		entries = append(entries, Entry{Path: relPath, Abs: abs, Depth: depth})
	}
	return entries, subdirs, nil
}

// isBinary reports whether the start of the file holds a NUL byte.
func isBinary(name string) (bool, error) {
	f, err := os.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, binaryProbeBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}

// Read loads entries into candidate files numbered 0..n-1 in entry order.
// Unreadable files are skipped and reported in the returned diagnostics.
func Read(entries []Entry) ([]core.CandidateFile, []string) {
	files := make([]core.CandidateFile, 0, len(entries))
	var diagnostics []string
	for _, e := range entries {
		content, err := os.ReadFile(e.Abs)
		if err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("skipping %s: %v", e.Path, err))
			continue
		}
		files = append(files, core.CandidateFile{
			Path:    e.Path,
			Content: bytes.ToValidUTF8(content, []byte("�")),
			Seq:     len(files),
			Depth:   e.Depth,
		})
	}
	return files, diagnostics
}
