package archive

import (
	"archive/zip"
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = b
	}
	return out
}

func TestZipRoundTrip(t *testing.T) {
	content := []byte("%PDF-1.7\n" + string(bytes.Repeat([]byte("quarterly numbers "), 200)))

	data, err := Zipper{}.Zip("report.pdf", content)
	require.NoError(t, err)

	entries := readEntries(t, data)
	require.Len(t, entries, 1)
	assert.Equal(t, content, entries["report.pdf"])
	assert.Less(t, len(data), len(content))
}

func TestZipBinaryContent(t *testing.T) {
	content := make([]byte, 64<<10)
	_, err := rand.Read(content)
	require.NoError(t, err)

	data, err := Zipper{Level: 9}.Zip("blob.docx", content)
	require.NoError(t, err)

	assert.Equal(t, content, readEntries(t, data)["blob.docx"])
}

func TestZipEmptyFile(t *testing.T) {
	data, err := Zipper{}.Zip("empty.txt", nil)
	require.NoError(t, err)

	entries := readEntries(t, data)
	require.Contains(t, entries, "empty.txt")
	assert.Empty(t, entries["empty.txt"])
}
