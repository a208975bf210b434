// Package imagecodec converts raster files to and from interleaved 8-bit
// pixel buffers.
//
// Decoding accepts PNG, JPEG, GIF, BMP, TIFF, and WebP. Grayscale sources keep
// a single channel so callers decide how to promote them; all other sources
// become three-channel RGB. Encoding picks the format from the destination
// file extension and falls back to PNG.
package imagecodec
