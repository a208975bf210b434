// Package container implements the self-describing image container format.
//
// A container is a single file holding named uint8 variables with an
// n-dimensional global shape, the blocks that populate them, and string
// attributes. Layout, little endian:
//
//	"IVC\x01" | block payloads | index (msgpack) | footer
//	footer = index offset u64 | index length u64 | index crc32 u32 | "IVC\x01"
//
// Blocks are stored raw or snappy-compressed and each carries a crc32.
// Writers stage the file through renameio so a container is either complete
// at its final path or absent. Readers support reading any sub-box of a
// variable.
package container
