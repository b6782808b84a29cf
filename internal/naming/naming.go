// Package naming decides what kind of object a key refers to and where its
// transformed output lives. The link issuer and the pipeline both go through
// it so the download URL handed out before processing points at the object
// the pipeline writes afterwards.
package naming

import (
	"path"
	"strings"

	"github.com/samber/lo"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/entities"
)

const (
	ArchiveExt = ".zip"
	ImageExt   = ".jpg"
)

var (
	imageExts    = []string{".jpg", ".jpeg", ".png", ".webp"}
	documentExts = []string{".pdf", ".docx", ".doc", ".txt"}
)

// Split returns the key without its extension and the lowercased extension
// (including the dot). Leading dots of the last path element do not start an
// extension, so ".pdf" and "dir/..txt" have none.
func Split(key string) (stem, ext string) {
	base := key[strings.LastIndex(key, "/")+1:]
	ext = path.Ext(strings.TrimLeft(base, "."))
	return strings.TrimSuffix(key, ext), strings.ToLower(ext)
}

// Classify derives the category solely from the lowercased extension.
func Classify(key string) entities.Category {
	_, ext := Split(key)
	switch {
	case lo.Contains(imageExts, ext):
		return entities.Image
	case lo.Contains(documentExts, ext):
		return entities.Document
	default:
		return entities.Unsupported
	}
}

// Mapper maps input keys to output keys.
type Mapper struct {
	// LegacyImageNames makes DownloadKey return image names unchanged, as the
	// first deployment did. The pipeline still writes stem + ".jpg", so links
	// for png/jpeg/webp uploads will not resolve in this mode.
	LegacyImageNames bool
}

// OutputKey is the key the pipeline writes for key. Unsupported keys map to
// themselves; nothing is written for them.
func (m Mapper) OutputKey(key string) string {
	stem, _ := Split(key)
	switch Classify(key) {
	case entities.Document:
		return stem + ArchiveExt
	case entities.Image:
		return stem + ImageExt
	default:
		return key
	}
}

// DownloadKey is the key a download link is issued for before the upload
// happens.
func (m Mapper) DownloadKey(filename string) string {
	if m.LegacyImageNames && Classify(filename) == entities.Image {
		return filename
	}
	return m.OutputKey(filename)
}
