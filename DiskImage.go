package tfsmount

import (
	"errors"

	"github.com/hanwen/go-fuse/v2/fs"
)

// DiskImage is the root node of a mountable image. Close releases the
// backing image after unmount.
type DiskImage interface {
	fs.InodeEmbedder
	String() string
	Close() error
}

var (
	// ErrNotFound is returned when a path names no entry, and by the
	// operations an image does not support.
	ErrNotFound = errors.New("no such file or directory")

	// ErrNotDir is returned when a path walks through an entry that is not a
	// directory.
	ErrNotDir = errors.New("not a directory")

	// ErrCorrupt is returned when the image contents violate the on-disk
	// format.
	ErrCorrupt = errors.New("corrupt image")
)
