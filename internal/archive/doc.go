// Package archive packs a directory of images plus its metadata sidecar into
// a single container and restores it again.
//
// Writer.Pack decodes every regular file in the source directory except the
// sidecar, promotes grayscale images to three channels, stores one variable
// per image, resolves the sidecar through the metadata package when it is
// missing, and embeds the sidecar text as the "metadata" attribute. Reader.Unpack
// writes each variable back as an image named after the variable and
// restores the sidecar when the attribute is present.
package archive
