package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"path/filepath"
	"sort"

	"github.com/golang/snappy"
	"github.com/google/renameio"
	"github.com/vmihailenco/msgpack"
)

// Option configures a Writer.
type Option func(*Writer)

// WithCodec selects the block codec used by subsequent Put calls.
func WithCodec(codec Codec) Option {
	return func(w *Writer) {
		w.codec = codec
	}
}

// Writer builds a container in a pending file next to its destination.
// Nothing appears at the destination path until Close succeeds.
type Writer struct {
	path    string
	pending *renameio.PendingFile
	offset  uint64
	codec   Codec

	variables  map[string]*variableEntry
	order      []string
	attributes map[string]string
	done       bool
}

// Create starts a new container destined for path.
func Create(path string, opts ...Option) (*Writer, error) {
	pending, err := renameio.TempFile(filepath.Dir(path), path)
	if err != nil {
		return nil, fmt.Errorf("create pending container: %w", err)
	}
	w := &Writer{
		path:       path,
		pending:    pending,
		codec:      CodecSnappy,
		variables:  make(map[string]*variableEntry),
		attributes: make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	if _, err := ParseCodec(string(w.codec)); err != nil {
		_ = pending.Cleanup()
		return nil, err
	}
	if _, err := pending.Write([]byte(magic)); err != nil {
		_ = pending.Cleanup()
		return nil, fmt.Errorf("write header: %w", err)
	}
	w.offset = uint64(len(magic))
	return w, nil
}

// Path returns the destination path.
func (w *Writer) Path() string {
	return w.path
}

// DefineVariable declares a uint8 variable with a global shape and the box
// this writer contributes to it.
func (w *Writer) DefineVariable(name string, shape, start, count []uint64) error {
	if w.done {
		return ErrClosed
	}
	if name == "" {
		return fmt.Errorf("%w: empty variable name", ErrSelection)
	}
	if _, exists := w.variables[name]; exists {
		return fmt.Errorf("%w: %s", ErrVariableExists, name)
	}
	if err := checkBox(shape, start, count); err != nil {
		return fmt.Errorf("define %s: %w", name, err)
	}
	w.variables[name] = &variableEntry{
		Name:    name,
		Element: elementUint8,
		Shape:   cloneDims(shape),
		Start:   cloneDims(start),
		Count:   cloneDims(count),
	}
	w.order = append(w.order, name)
	return nil
}

// Put writes data for the variable's declared box. The write is synchronous:
// data may be reused once Put returns.
func (w *Writer) Put(name string, data []byte) error {
	if w.done {
		return ErrClosed
	}
	entry, ok := w.variables[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	if want := product(entry.Count); uint64(len(data)) != want {
		return fmt.Errorf("%w: %s has %d bytes, want %d", ErrSizeMismatch, name, len(data), want)
	}

	stored := data
	if w.codec == CodecSnappy {
		stored = snappy.Encode(nil, data)
	}
	if _, err := w.pending.Write(stored); err != nil {
		return fmt.Errorf("write block %s: %w", name, err)
	}
	entry.Blocks = append(entry.Blocks, blockEntry{
		Start:    cloneDims(entry.Start),
		Count:    cloneDims(entry.Count),
		Offset:   w.offset,
		Stored:   uint64(len(stored)),
		Raw:      uint64(len(data)),
		Codec:    w.codec,
		Checksum: crc32.ChecksumIEEE(stored),
	})
	w.offset += uint64(len(stored))
	return nil
}

// DefineAttribute records a string attribute.
func (w *Writer) DefineAttribute(name, value string) error {
	if w.done {
		return ErrClosed
	}
	if _, exists := w.attributes[name]; exists {
		return fmt.Errorf("%w: %s", ErrAttributeExists, name)
	}
	w.attributes[name] = value
	return nil
}

// Close writes the index and footer and atomically moves the container into place.
func (w *Writer) Close() error {
	if w.done {
		return ErrClosed
	}
	w.done = true

	idx := index{Version: formatVersion, Engine: engineTag, Partitions: 1}
	for _, name := range w.order {
		idx.Variables = append(idx.Variables, *w.variables[name])
	}
	names := make([]string, 0, len(w.attributes))
	for name := range w.attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		idx.Attributes = append(idx.Attributes, attribute{Name: name, Value: w.attributes[name]})
	}

	encoded, err := msgpack.Marshal(&idx)
	if err != nil {
		_ = w.pending.Cleanup()
		return fmt.Errorf("encode index: %w", err)
	}

	var footer bytes.Buffer
	footer.Grow(footerSize)
	_ = binary.Write(&footer, binary.LittleEndian, w.offset)
	_ = binary.Write(&footer, binary.LittleEndian, uint64(len(encoded)))
	_ = binary.Write(&footer, binary.LittleEndian, crc32.ChecksumIEEE(encoded))
	footer.WriteString(magic)

	if _, err := w.pending.Write(encoded); err != nil {
		_ = w.pending.Cleanup()
		return fmt.Errorf("write index: %w", err)
	}
	if _, err := w.pending.Write(footer.Bytes()); err != nil {
		_ = w.pending.Cleanup()
		return fmt.Errorf("write footer: %w", err)
	}
	if err := w.pending.CloseAtomicallyReplace(); err != nil {
		_ = w.pending.Cleanup()
		return fmt.Errorf("commit container: %w", err)
	}
	return nil
}

// Abort discards the pending file. It is safe to call after Close.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	return w.pending.Cleanup()
}
