package tfs

import (
	"bytes"
	"testing"
)

// buildImage lays out an image with the given reserved block count and one
// directory block per entry of dirs. Every directory block is terminated by
// an END record unless it is full.
func buildImage(t *testing.T, reserved uint8, dirs map[uint32][]Entry) []byte {
	t.Helper()

	var last uint32
	for b := range dirs {
		if b > last {
			last = b
		}
	}

	image := make([]byte, (int(reserved)+int(last)+1)*BlockSize)
	image[ReservedBlocksOffset] = reserved

	for b, entries := range dirs {
		if len(entries) > EntriesPerBlock {
			t.Fatalf("block %d: %d entries do not fit", b, len(entries))
		}
		block := image[(int(reserved)+int(b))*BlockSize:][:BlockSize]
		for i, e := range entries {
			if err := EncodeEntry(block[i*EntrySize:], e); err != nil {
				t.Fatalf("block %d entry %d: %v", b, i, err)
			}
		}
	}
	return image
}

func newTestFilesystem(t *testing.T, image []byte) *Filesystem {
	t.Helper()
	f, err := New(bytes.NewReader(image), int64(len(image)), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func dir(name string, block uint32) Entry {
	return Entry{Name: name, Type: EntryDir, StartBlock: block}
}

func file(name string, block uint32) Entry {
	return Entry{Name: name, Type: EntryFile, StartBlock: block}
}

var emptySlot = Entry{Type: EntryEmpty}

// sampleImage is a small tree:
//
//	/
//	├── docs/       (block 5)
//	│   ├── notes.txt
//	│   └── old/    (block 6)
//	├── hello.txt
//	└── empty/      (block 7, no "." entry)
func sampleImage(t *testing.T) []byte {
	t.Helper()
	return buildImage(t, 2, map[uint32][]Entry{
		0: {dir(".", 0), dir("docs", 5), emptySlot, file("hello.txt", 3), dir("empty", 7)},
		3: {},
		5: {dir(".", 5), dir("..", 0), file("notes.txt", 4), dir("old", 6)},
		6: {dir(".", 6), dir("..", 5)},
		7: {},
	})
}
