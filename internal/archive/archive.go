// Package archive packages rendered exam documents into zip archives.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/examforge/examforge/internal/model"
)

// Pack collects documents into one zip archive. Entry names come from the
// documents and must be unique; any missing or empty document fails the
// whole archive.
func Pack(docs []model.RenderedDocument) ([]byte, error) {
	if len(docs) == 0 {
		return nil, &model.PackagingError{Reason: "no documents to pack"}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]bool, len(docs))

	for _, doc := range docs {
		if doc.Name == "" {
			return nil, &model.PackagingError{Reason: "document has no name"}
		}
		if len(doc.Data) == 0 {
			return nil, &model.PackagingError{Name: doc.Name, Reason: "document is empty"}
		}
		if seen[doc.Name] {
			return nil, &model.PackagingError{Name: doc.Name, Reason: "duplicate document name"}
		}
		seen[doc.Name] = true

		w, err := zw.CreateHeader(&zip.FileHeader{Name: doc.Name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("create entry %s: %w", doc.Name, err)
		}
		if _, err := w.Write(doc.Data); err != nil {
			return nil, fmt.Errorf("write entry %s: %w", doc.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename returns the download filename for one mode's archive, encoding
// the request shape the way the tool has always named its zips.
func Filename(mode model.Mode, numQuestions, numVersions int) string {
	prefix := "regular"
	if mode == model.ModeKeyed {
		prefix = "highlighted"
	}
	return fmt.Sprintf("%s_quiz_%dq_%dv.zip", prefix, numQuestions, numVersions)
}
