package tfs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jonas-koeritz/tfsmount"
)

// Kind classifies a resolved path.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Filesystem is an open tfs image. All reads are positioned, so a
// Filesystem may be used from many goroutines at once.
type Filesystem struct {
	image  io.ReaderAt
	size   int64
	closer io.Closer
	logger *slog.Logger

	reservedBlocks uint8
}

// Open opens the image file at path read-only and loads its header.
func Open(path string, logger *slog.Logger) (*Filesystem, error) {
	imageFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := imageFile.Stat()
	if err != nil {
		imageFile.Close()
		return nil, err
	}

	f, err := New(imageFile, info.Size(), logger)
	if err != nil {
		imageFile.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.closer = imageFile
	return f, nil
}

// New reads the header of the size byte image behind r. A nil logger
// discards everything below error level.
func New(r io.ReaderAt, size int64, logger *slog.Logger) (*Filesystem, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}
	if size <= ReservedBlocksOffset {
		return nil, fmt.Errorf("image is %d bytes, too short for a header: %w", size, tfsmount.ErrCorrupt)
	}

	var header [1]byte
	if _, err := r.ReadAt(header[:], ReservedBlocksOffset); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	f := &Filesystem{
		image:          r,
		size:           size,
		logger:         logger,
		reservedBlocks: header[0],
	}
	logger.Info("opened tfs image",
		"size", size,
		"reserved_blocks", f.reservedBlocks,
		"root_offset", f.BlockOffset(0))
	return f, nil
}

// Close releases the backing image if the Filesystem was created by Open.
func (f *Filesystem) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

func (f *Filesystem) ReservedBlocks() uint8 {
	return f.reservedBlocks
}

// BlockOffset returns the byte offset of data block b within the image. It
// does not check that the block exists.
func (f *Filesystem) BlockOffset(b uint32) int64 {
	return (int64(f.reservedBlocks) + int64(b)) * BlockSize
}

// ReadBlock reads data block b.
func (f *Filesystem) ReadBlock(b uint32) ([]byte, error) {
	off := f.BlockOffset(b)
	if off+BlockSize > f.size {
		return nil, fmt.Errorf("block %d at offset %d lies outside the %d byte image: %w", b, off, f.size, tfsmount.ErrCorrupt)
	}

	block := make([]byte, BlockSize)
	if _, err := f.image.ReadAt(block, off); err != nil {
		return nil, fmt.Errorf("reading block %d: %w", b, err)
	}
	return block, nil
}

// Stat reports whether path names a file or a directory.
func (f *Filesystem) Stat(path string) (Kind, error) {
	entry, err := f.Resolve(path)
	if err != nil {
		return KindFile, err
	}
	if entry.IsDir() {
		return KindDirectory, nil
	}
	return KindFile, nil
}

// List returns the names in the root directory, led by "..". No other
// directory can be listed.
func (f *Filesystem) List(path string) ([]string, error) {
	if path != "/" {
		return nil, fmt.Errorf("listing %s: %w", path, tfsmount.ErrNotFound)
	}

	entries, err := f.rootEntries()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries)+1)
	names = append(names, "..")
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

func (f *Filesystem) rootEntries() ([]Entry, error) {
	block, err := f.ReadBlock(0)
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(block)
	if err != nil {
		return nil, fmt.Errorf("root directory: %w", err)
	}
	return entries, nil
}

// ReadAt is not supported by the format yet and always fails.
func (f *Filesystem) ReadAt(path string, p []byte, off int64) (int, error) {
	return 0, fmt.Errorf("reading %s: %w", path, tfsmount.ErrNotFound)
}

// WriteAt is not supported by the format yet and always fails.
func (f *Filesystem) WriteAt(path string, p []byte, off int64) (int, error) {
	return 0, fmt.Errorf("writing %s: %w", path, tfsmount.ErrNotFound)
}

// logResolveError logs a failed lookup at a level matching its cause.
func (f *Filesystem) logResolveError(path string, err error) {
	switch {
	case errors.Is(err, tfsmount.ErrNotFound), errors.Is(err, tfsmount.ErrNotDir):
		f.logger.Debug("lookup failed", "path", path, "error", err)
	case errors.Is(err, tfsmount.ErrCorrupt):
		f.logger.Warn("corrupt image", "path", path, "error", err)
	default:
		f.logger.Error("image read failed", "path", path, "error", err)
	}
}
