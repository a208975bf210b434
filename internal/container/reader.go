package container

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sort"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack"
)

// Reader provides random access to a committed container.
type Reader struct {
	file       *os.File
	variables  map[string]variableEntry
	attributes map[string]string
	engine     string
}

// Open validates the header, footer and index checksum of the container at path.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := load(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

func load(file *os.File) (*Reader, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	size := uint64(info.Size())
	if size < uint64(len(magic)+footerSize) {
		return nil, fmt.Errorf("%w: file too small (%d bytes)", ErrCorrupt, size)
	}

	head := make([]byte, len(magic))
	if _, err := file.ReadAt(head, 0); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorrupt, err)
	}
	if string(head) != magic {
		return nil, fmt.Errorf("%w: bad header magic", ErrCorrupt)
	}

	footer := make([]byte, footerSize)
	if _, err := file.ReadAt(footer, int64(size)-int64(footerSize)); err != nil {
		return nil, fmt.Errorf("%w: read footer: %v", ErrCorrupt, err)
	}
	if string(footer[20:]) != magic {
		return nil, fmt.Errorf("%w: bad footer magic", ErrCorrupt)
	}
	indexOffset := binary.LittleEndian.Uint64(footer[0:8])
	indexLength := binary.LittleEndian.Uint64(footer[8:16])
	checksum := binary.LittleEndian.Uint32(footer[16:20])
	if indexOffset < uint64(len(magic)) || indexLength > size || indexOffset+indexLength != size-uint64(footerSize) {
		return nil, fmt.Errorf("%w: index bounds", ErrCorrupt)
	}

	raw := make([]byte, indexLength)
	if _, err := file.ReadAt(raw, int64(indexOffset)); err != nil {
		return nil, fmt.Errorf("%w: read index: %v", ErrCorrupt, err)
	}
	if crc32.ChecksumIEEE(raw) != checksum {
		return nil, fmt.Errorf("%w: index checksum mismatch", ErrCorrupt)
	}
	var idx index
	if err := msgpack.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("%w: decode index: %v", ErrCorrupt, err)
	}
	if idx.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, idx.Version)
	}

	r := &Reader{
		file:       file,
		variables:  make(map[string]variableEntry, len(idx.Variables)),
		attributes: make(map[string]string, len(idx.Attributes)),
		engine:     idx.Engine,
	}
	for _, v := range idx.Variables {
		for _, b := range v.Blocks {
			if b.Offset+b.Stored > indexOffset || len(b.Start) != len(v.Shape) || len(b.Count) != len(v.Shape) {
				return nil, fmt.Errorf("%w: block for %s out of range", ErrCorrupt, v.Name)
			}
		}
		r.variables[v.Name] = v
	}
	for _, a := range idx.Attributes {
		r.attributes[a.Name] = a.Value
	}
	return r, nil
}

// Engine returns the tag of the engine that wrote the container.
func (r *Reader) Engine() string {
	return r.engine
}

// Variables returns the stored variable names sorted lexically.
func (r *Reader) Variables() []string {
	names := make([]string, 0, len(r.variables))
	for name := range r.variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Inquire returns the shape and declared box of a variable.
func (r *Reader) Inquire(name string) (VariableInfo, error) {
	v, ok := r.variables[name]
	if !ok {
		return VariableInfo{}, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	return VariableInfo{
		Name:  v.Name,
		Shape: cloneDims(v.Shape),
		Start: cloneDims(v.Start),
		Count: cloneDims(v.Count),
	}, nil
}

// Full returns a selection covering a variable's whole shape.
func (info VariableInfo) Full() Selection {
	return Selection{Start: make([]uint64, len(info.Shape)), Count: cloneDims(info.Shape)}
}

// Read returns the bytes of sel assembled from every block overlapping it.
// Regions no block covers are zero.
func (r *Reader) Read(name string, sel Selection) ([]byte, error) {
	v, ok := r.variables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	if err := checkBox(v.Shape, sel.Start, sel.Count); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	out := make([]byte, sel.Elements())
	for _, b := range v.Blocks {
		lo, hi, overlaps := intersect(sel.Start, sel.Count, b.Start, b.Count)
		if !overlaps {
			continue
		}
		payload, err := r.block(name, b)
		if err != nil {
			return nil, err
		}
		copyBox(out, sel.Start, sel.Count, payload, b.Start, b.Count, lo, hi)
	}
	return out, nil
}

func (r *Reader) block(name string, b blockEntry) ([]byte, error) {
	stored := make([]byte, b.Stored)
	if _, err := r.file.ReadAt(stored, int64(b.Offset)); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: read block %s: %v", ErrCorrupt, name, err)
	}
	if crc32.ChecksumIEEE(stored) != b.Checksum {
		return nil, fmt.Errorf("%w: block checksum mismatch for %s", ErrCorrupt, name)
	}
	payload := stored
	switch b.Codec {
	case CodecNone:
	case CodecSnappy:
		decoded, err := snappy.Decode(nil, stored)
		if err != nil {
			return nil, fmt.Errorf("%w: decompress %s: %v", ErrCorrupt, name, err)
		}
		payload = decoded
	default:
		return nil, fmt.Errorf("%w: unknown codec %q for %s", ErrCorrupt, b.Codec, name)
	}
	if uint64(len(payload)) != b.Raw || b.Raw != product(b.Count) {
		return nil, fmt.Errorf("%w: block size mismatch for %s", ErrCorrupt, name)
	}
	return payload, nil
}

// Attribute returns a string attribute and whether it exists.
func (r *Reader) Attribute(name string) (string, bool) {
	value, ok := r.attributes[name]
	return value, ok
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
