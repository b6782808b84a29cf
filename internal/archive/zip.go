// Package archive wraps documents into single-entry ZIP files.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
)

// Zipper builds ZIP archives in memory. The archive is only returned once it
// is complete, so callers never see a partial container.
type Zipper struct {
	// Level is the deflate level, flate.DefaultCompression when zero.
	Level int
	// Modified is stamped on entries; time.Now when zero.
	Modified time.Time
}

// Zip returns an archive holding content verbatim under entryName.
func (z Zipper) Zip(entryName string, content []byte) ([]byte, error) {
	level := z.Level
	if level == 0 {
		level = flate.DefaultCompression
	}
	modified := z.Modified
	if modified.IsZero() {
		modified = time.Now()
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     entryName,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(content); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
