package tfs

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jonas-koeritz/tfsmount"
)

func TestNewReadsReservedBlocks(t *testing.T) {
	f := newTestFilesystem(t, buildImage(t, 2, map[uint32][]Entry{0: {dir("docs", 1)}}))

	if got := f.ReservedBlocks(); got != 2 {
		t.Errorf("ReservedBlocks = %d, want 2", got)
	}
	if got := f.BlockOffset(0); got != 2*512 {
		t.Errorf("root block offset = %d, want 1024", got)
	}
}

func TestNewShortImage(t *testing.T) {
	image := make([]byte, ReservedBlocksOffset)
	_, err := New(bytes.NewReader(image), int64(len(image)), nil)
	if !errors.Is(err, tfsmount.ErrCorrupt) {
		t.Errorf("New error = %v, want ErrCorrupt", err)
	}
}

func TestBlockOffset(t *testing.T) {
	for _, reserved := range []uint8{0, 1, 2, 255} {
		image := make([]byte, BlockSize)
		image[ReservedBlocksOffset] = reserved
		f := newTestFilesystem(t, image)

		if got, want := f.BlockOffset(0), int64(reserved)*BlockSize; got != want {
			t.Errorf("reserved %d: BlockOffset(0) = %d, want %d", reserved, got, want)
		}

		prev := f.BlockOffset(0)
		for b := uint32(1); b < 1000; b++ {
			off := f.BlockOffset(b)
			if off-prev != BlockSize {
				t.Fatalf("reserved %d: BlockOffset(%d) - BlockOffset(%d) = %d", reserved, b, b-1, off-prev)
			}
			prev = off
		}

		if got, want := f.BlockOffset(^uint32(0)), (int64(reserved)+int64(^uint32(0)))*BlockSize; got != want {
			t.Errorf("reserved %d: BlockOffset(max) = %d, want %d", reserved, got, want)
		}
	}
}

func TestReadBlock(t *testing.T) {
	image := sampleImage(t)
	f := newTestFilesystem(t, image)

	b, err := f.ReadBlock(5)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(b, image[7*BlockSize:8*BlockSize]) {
		t.Error("ReadBlock(5) returned the wrong bytes")
	}

	if _, err := f.ReadBlock(8); !errors.Is(err, tfsmount.ErrCorrupt) {
		t.Errorf("ReadBlock past the end: error = %v, want ErrCorrupt", err)
	}
}

func TestListRoot(t *testing.T) {
	f := newTestFilesystem(t, buildImage(t, 2, map[uint32][]Entry{0: {dir("docs", 1)}}))

	got, err := f.List("/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"..", "docs"}; !reflect.DeepEqual(got, want) {
		t.Errorf("List(/) = %q, want %q", got, want)
	}
}

func TestListSkipsEmptyAndStopsAtEnd(t *testing.T) {
	f := newTestFilesystem(t, sampleImage(t))

	got, err := f.List("/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"..", ".", "docs", "hello.txt", "empty"}; !reflect.DeepEqual(got, want) {
		t.Errorf("List(/) = %q, want %q", got, want)
	}
}

func TestListOnlyRoot(t *testing.T) {
	f := newTestFilesystem(t, sampleImage(t))

	for _, p := range []string{"/docs", "/docs/", "/nope", ""} {
		if _, err := f.List(p); !errors.Is(err, tfsmount.ErrNotFound) {
			t.Errorf("List(%q) error = %v, want ErrNotFound", p, err)
		}
	}
}

func TestReadWriteUnsupported(t *testing.T) {
	f := newTestFilesystem(t, sampleImage(t))

	if _, err := f.ReadAt("/hello.txt", make([]byte, 16), 0); !errors.Is(err, tfsmount.ErrNotFound) {
		t.Errorf("ReadAt error = %v, want ErrNotFound", err)
	}
	if _, err := f.WriteAt("/hello.txt", []byte("hi"), 0); !errors.Is(err, tfsmount.ErrNotFound) {
		t.Errorf("WriteAt error = %v, want ErrNotFound", err)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.tfs")
	if err := os.WriteFile(path, sampleImage(t), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if kind, err := f.Stat("/docs/notes.txt"); err != nil || kind != KindFile {
		t.Errorf("Stat = %s, %v", kind, err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Open(filepath.Join(dir, "missing.tfs"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open missing file: error = %v", err)
	}

	short := filepath.Join(dir, "short.tfs")
	if err := os.WriteFile(short, []byte("tfs"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Open(short, nil); !errors.Is(err, tfsmount.ErrCorrupt) {
		t.Errorf("Open short file: error = %v, want ErrCorrupt", err)
	}
}
