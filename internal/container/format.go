package container

import (
	"errors"
	"fmt"
)

const (
	magic         = "IVC\x01"
	footerSize    = 8 + 8 + 4 + len(magic)
	formatVersion = 1
	engineTag     = "imgvault-ivc"
	elementUint8  = "uint8"
)

var (
	ErrCorrupt         = errors.New("container corrupt")
	ErrVariableExists  = errors.New("variable already defined")
	ErrAttributeExists = errors.New("attribute already defined")
	ErrUnknownVariable = errors.New("unknown variable")
	ErrSelection       = errors.New("selection out of bounds")
	ErrSizeMismatch    = errors.New("payload size mismatch")
	ErrClosed          = errors.New("container closed")
)

// Codec names the compression applied to a payload block.
type Codec string

const (
	CodecNone   Codec = "none"
	CodecSnappy Codec = "snappy"
)

// ParseCodec maps a configuration value to a Codec.
func ParseCodec(value string) (Codec, error) {
	switch Codec(value) {
	case CodecNone, CodecSnappy:
		return Codec(value), nil
	case "":
		return CodecSnappy, nil
	default:
		return "", fmt.Errorf("unknown codec %q", value)
	}
}

type index struct {
	Version    int             `msgpack:"version"`
	Engine     string          `msgpack:"engine"`
	Partitions int             `msgpack:"partitions"`
	Variables  []variableEntry `msgpack:"variables"`
	Attributes []attribute     `msgpack:"attributes"`
}

type variableEntry struct {
	Name    string       `msgpack:"name"`
	Element string       `msgpack:"element"`
	Shape   []uint64     `msgpack:"shape"`
	Start   []uint64     `msgpack:"start"`
	Count   []uint64     `msgpack:"count"`
	Blocks  []blockEntry `msgpack:"blocks"`
}

type blockEntry struct {
	Start     []uint64 `msgpack:"start"`
	Count     []uint64 `msgpack:"count"`
	Offset    uint64   `msgpack:"offset"`
	Stored    uint64   `msgpack:"stored"`
	Raw       uint64   `msgpack:"raw"`
	Codec     Codec    `msgpack:"codec"`
	Checksum  uint32   `msgpack:"crc"`
	Partition int      `msgpack:"partition"`
}

type attribute struct {
	Name  string `msgpack:"name"`
	Value string `msgpack:"value"`
}

// VariableInfo describes a stored variable.
type VariableInfo struct {
	Name  string
	Shape []uint64
	// Start and Count are the box declared when the variable was defined.
	Start []uint64
	Count []uint64
}

// Selection is a box within a variable's global shape.
type Selection struct {
	Start []uint64
	Count []uint64
}

// Elements returns the number of elements the selection covers.
func (s Selection) Elements() uint64 {
	return product(s.Count)
}

func product(dims []uint64) uint64 {
	if len(dims) == 0 {
		return 0
	}
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

func cloneDims(dims []uint64) []uint64 {
	return append([]uint64(nil), dims...)
}

// checkBox verifies that start+count fits in shape and covers at least one element.
func checkBox(shape, start, count []uint64) error {
	if len(shape) == 0 {
		return fmt.Errorf("%w: variable has no dimensions", ErrSelection)
	}
	if len(start) != len(shape) || len(count) != len(shape) {
		return fmt.Errorf("%w: want %d dimensions, got start=%d count=%d", ErrSelection, len(shape), len(start), len(count))
	}
	for i := range shape {
		if count[i] == 0 {
			return fmt.Errorf("%w: dimension %d has zero count", ErrSelection, i)
		}
		if start[i] > shape[i] || count[i] > shape[i]-start[i] {
			return fmt.Errorf("%w: dimension %d start %d count %d exceeds %d", ErrSelection, i, start[i], count[i], shape[i])
		}
	}
	return nil
}
