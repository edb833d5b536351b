package tfs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	BlockSize            = 512
	ReservedBlocksOffset = 509

	EntrySize       = 32
	NameSize        = 24
	EntriesPerBlock = BlockSize / EntrySize
)

// record layout
const (
	typeOffset       = 0
	startBlockOffset = 4
	nameOffset       = 8
)

// CurrentDir is the name every directory block lists for itself.
const CurrentDir = "."

var (
	ErrNameTooLong = errors.New("name too long")
	ErrInvalidName = errors.New("invalid name")
)

type EntryType uint8

const (
	EntryEnd EntryType = iota
	EntryEmpty
	EntryFile
	EntryDir
)

func (t EntryType) String() string {
	switch t {
	case EntryEnd:
		return "END"
	case EntryEmpty:
		return "EMPTY"
	case EntryFile:
		return "FILE"
	case EntryDir:
		return "DIR"
	}
	return fmt.Sprintf("EntryType(%d)", uint8(t))
}

func (t EntryType) valid() bool {
	return t <= EntryDir
}

// Entry is a directory entry decoded out of a block buffer. It holds no
// reference to the buffer it came from.
type Entry struct {
	Name       string
	Type       EntryType
	StartBlock uint32
}

func (e Entry) IsDir() bool {
	return e.Type == EntryDir
}

func typeOf(record []byte) EntryType {
	return EntryType(record[typeOffset])
}

// cleanName strips the NUL and space padding off the name field.
func cleanName(record []byte) string {
	name := record[nameOffset : nameOffset+NameSize]
	return strings.TrimRight(string(name), "\x00 ")
}

func decodeEntry(record []byte) Entry {
	return Entry{
		Name:       cleanName(record),
		Type:       typeOf(record),
		StartBlock: binary.LittleEndian.Uint32(record[startBlockOffset:]),
	}
}

// EncodeEntry writes e as a directory entry record into the first EntrySize
// bytes of dst. END and EMPTY records carry no name.
func EncodeEntry(dst []byte, e Entry) error {
	if len(dst) < EntrySize {
		return fmt.Errorf("record buffer is %d bytes, need %d", len(dst), EntrySize)
	}
	if !e.Type.valid() {
		return fmt.Errorf("unknown entry type %d", uint8(e.Type))
	}

	record := dst[:EntrySize]
	clear(record)
	record[typeOffset] = byte(e.Type)

	if e.Type == EntryEnd || e.Type == EntryEmpty {
		return nil
	}

	if e.Name == "" || strings.ContainsAny(e.Name, "/\x00") || strings.HasSuffix(e.Name, " ") {
		return fmt.Errorf("%q: %w", e.Name, ErrInvalidName)
	}
	if len(e.Name) > NameSize {
		return fmt.Errorf("%q: %w", e.Name, ErrNameTooLong)
	}

	binary.LittleEndian.PutUint32(record[startBlockOffset:], e.StartBlock)
	copy(record[nameOffset:nameOffset+NameSize], e.Name)
	return nil
}
