package commands

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/pipeline"
	"git.home.luguber.info/inful/mdpipeline/internal/watch"
)

// discover returns the source paths below root, slash separated and
// relative to root, in lexical order. Hidden directories are skipped.
func discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if !watch.IsSource(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.FileSystemError("failed to scan sources").WithCause(err).WithContext("path", root).Build()
	}
	slices.Sort(paths)
	return paths, nil
}

// readSources loads the named sources. Paths that no longer exist are
// returned in missing.
func readSources(root string, paths []string) (sources []pipeline.Source, missing []string, err error) {
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(p)))
		if os.IsNotExist(err) {
			missing = append(missing, p)
			continue
		}
		if err != nil {
			return nil, nil, errors.FileSystemError("failed to read source").WithCause(err).WithContext("path", p).Build()
		}
		sources = append(sources, pipeline.Source{Path: p, Content: data})
	}
	return sources, missing, nil
}
