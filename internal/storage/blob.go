package storage

import "io"

// BlobStore holds worksheet assets: diagram images for drag-drop sections
// and teacher uploads. Keys are slash-separated and look like
// "worksheets/{id}/diagram.png".
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
