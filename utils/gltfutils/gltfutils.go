package gltfutils

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

// ExportBinary writes doc as a single .glb stream.
func ExportBinary(w io.Writer, doc *gltf.Document) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}

func SaveBinary(path string, doc *gltf.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to create %q", path)
	}
	if err := ExportBinary(f, doc); err != nil {
		f.Close()
		return errors.Wrapf(err, "Failed to encode %q", path)
	}
	return f.Close()
}
