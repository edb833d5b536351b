package tfs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonas-koeritz/tfsmount"
)

// Resolve walks path from the root directory and returns the entry it names.
// An empty last segment ("/", "docs/") names the directory itself.
func (f *Filesystem) Resolve(path string) (Entry, error) {
	entry, err := f.resolve(path)
	if err != nil {
		f.logResolveError(path, err)
		return Entry{}, fmt.Errorf("%s: %w", path, err)
	}
	return entry, nil
}

func (f *Filesystem) resolve(path string) (Entry, error) {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")

	var dir uint32 // root
	for _, segment := range segments[:len(segments)-1] {
		if segment == "" {
			continue
		}

		block, err := f.ReadBlock(dir)
		if err != nil {
			return Entry{}, err
		}
		entry, err := findEntry(block, segment)
		if err != nil {
			return Entry{}, err
		}
		if !entry.IsDir() {
			return Entry{}, fmt.Errorf("%q: %w", segment, tfsmount.ErrNotDir)
		}
		dir = entry.StartBlock
	}

	basename := segments[len(segments)-1]
	if basename == "" {
		basename = CurrentDir
	}

	block, err := f.ReadBlock(dir)
	if err != nil {
		return Entry{}, err
	}
	entry, err := findEntry(block, basename)
	if basename == CurrentDir && errors.Is(err, tfsmount.ErrNotFound) {
		return Entry{Name: CurrentDir, Type: EntryDir, StartBlock: dir}, nil
	}
	return entry, err
}
