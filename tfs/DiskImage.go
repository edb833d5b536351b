package tfs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/jonas-koeritz/tfsmount"
	"golang.org/x/sys/unix"
)

// DiskImage is the root directory of a mounted tfs image.
type DiskImage struct {
	node
}

var _ = (tfsmount.DiskImage)((*DiskImage)(nil))

// OpenImage opens the tfs image file at imagePath for mounting.
func OpenImage(imagePath string, logger *slog.Logger) (*DiskImage, error) {
	fsys, err := Open(imagePath, logger)
	if err != nil {
		return nil, err
	}
	return NewDiskImage(fsys), nil
}

func NewDiskImage(fsys *Filesystem) *DiskImage {
	return &DiskImage{node{fsys: fsys}}
}

// Close releases the image file. Call it once the mount is gone.
func (i *DiskImage) Close() error {
	return i.fsys.Close()
}

// String creates a human readable listing of the root directory
func (i *DiskImage) String() string {
	listing := fmt.Sprintf("RESERVED BLOCKS: %d\nROOT OFFSET:     %d\n", i.fsys.ReservedBlocks(), i.fsys.BlockOffset(0))
	listing += "\n NAME                      TYPE  STRT\n"

	entries, err := i.fsys.rootEntries()
	if err != nil {
		return listing + fmt.Sprintf("\n ERROR: %s\n", err)
	}
	for _, e := range entries {
		listing += fmt.Sprintf(" %-24s  %-4s  %4d\n", e.Name, e.Type, e.StartBlock)
	}
	listing += fmt.Sprintf("\n ENTRIES= %d\n", len(entries))
	return listing
}

// node is any file or directory below the mountpoint. It keeps no state of
// its own: every call resolves the node's path against the image again.
type node struct {
	fs.Inode
	fsys *Filesystem
}

var _ = (fs.NodeLookuper)((*node)(nil))
var _ = (fs.NodeGetattrer)((*node)(nil))
var _ = (fs.NodeReaddirer)((*node)(nil))
var _ = (fs.NodeOpener)((*node)(nil))
var _ = (fs.NodeReader)((*node)(nil))
var _ = (fs.NodeWriter)((*node)(nil))

func (n *node) path() string {
	return "/" + n.Path(nil)
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	childPath := path.Join(n.path(), name)
	kind, err := n.fsys.Stat(childPath)
	if err != nil {
		return nil, n.errno("lookup", childPath, err)
	}

	out.Mode = mode(kind)
	child := n.NewInode(ctx, &node{fsys: n.fsys}, fs.StableAttr{Mode: out.Mode & syscall.S_IFMT})
	return child, 0
}

func (n *node) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	p := n.path()
	kind, err := n.fsys.Stat(p)
	if err != nil {
		return n.errno("getattr", p, err)
	}
	out.Mode = mode(kind)
	return 0
}

func (n *node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	p := n.path()
	names, err := n.fsys.List(p)
	if err != nil {
		return nil, n.errno("readdir", p, err)
	}

	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		entry := fuse.DirEntry{Name: name, Mode: syscall.S_IFDIR}
		if name != ".." && name != CurrentDir {
			if kind, err := n.fsys.Stat(path.Join(p, name)); err == nil {
				entry.Mode = mode(kind) & syscall.S_IFMT
			}
		}
		entries = append(entries, entry)
	}
	return fs.NewListDirStream(entries), 0
}

func (n *node) Open(ctx context.Context, openFlags uint32) (fh fs.FileHandle, fuseFlags uint32, errno syscall.Errno) {
	return nil, 0, unix.ENOENT
}

func (n *node) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	p := n.path()
	read, err := n.fsys.ReadAt(p, dest, off)
	if err != nil {
		return nil, n.errno("read", p, err)
	}
	return fuse.ReadResultData(dest[:read]), 0
}

func (n *node) Write(ctx context.Context, fh fs.FileHandle, data []byte, off int64) (written uint32, errno syscall.Errno) {
	p := n.path()
	wrote, err := n.fsys.WriteAt(p, data, off)
	if err != nil {
		return 0, n.errno("write", p, err)
	}
	return uint32(wrote), 0
}

func (n *node) errno(op, p string, err error) syscall.Errno {
	errno := toErrno(err)
	if errno == unix.EIO {
		n.fsys.logger.Error("fuse "+op+" failed", "path", p, "error", err)
	}
	return errno
}

func toErrno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, tfsmount.ErrNotFound):
		return unix.ENOENT
	case errors.Is(err, tfsmount.ErrNotDir):
		return unix.ENOTDIR
	}
	return unix.EIO
}

func mode(k Kind) uint32 {
	if k == KindDirectory {
		return syscall.S_IFDIR | 0555
	}
	return syscall.S_IFREG | 0444
}
