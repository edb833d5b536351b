package tfs

import (
	"fmt"

	"github.com/jonas-koeritz/tfsmount"
)

// records calls fn for every entry of a directory block up to the END
// sentinel, skipping EMPTY slots. fn returns false to stop early.
func records(block []byte, fn func(record []byte) bool) error {
	for off := 0; off+EntrySize <= len(block); off += EntrySize {
		record := block[off : off+EntrySize]

		switch t := typeOf(record); t {
		case EntryEnd:
			return nil
		case EntryEmpty:
			continue
		case EntryFile, EntryDir:
			if !fn(record) {
				return nil
			}
		default:
			return fmt.Errorf("entry %d has type %d: %w", off/EntrySize, uint8(t), tfsmount.ErrCorrupt)
		}
	}
	return fmt.Errorf("directory block has no end marker: %w", tfsmount.ErrCorrupt)
}

// findEntry returns the first entry in block named name.
func findEntry(block []byte, name string) (Entry, error) {
	var (
		entry Entry
		found bool
	)
	err := records(block, func(record []byte) bool {
		if cleanName(record) != name {
			return true
		}
		entry, found = decodeEntry(record), true
		return false
	})
	if err != nil {
		return Entry{}, err
	}
	if !found {
		return Entry{}, fmt.Errorf("%q: %w", name, tfsmount.ErrNotFound)
	}
	return entry, nil
}

func readEntries(block []byte) ([]Entry, error) {
	entries := make([]Entry, 0, EntriesPerBlock)
	err := records(block, func(record []byte) bool {
		entries = append(entries, decodeEntry(record))
		return true
	})
	return entries, err
}
