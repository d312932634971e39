package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/examforge/examforge/internal/model"
)

func doc(name, body string) model.RenderedDocument {
	return model.RenderedDocument{Name: name, Mode: model.ModePlain, Data: []byte(body)}
}

func TestPack(t *testing.T) {
	docs := []model.RenderedDocument{
		doc("quiz_version_1.docx", "one"),
		doc("quiz_version_2.docx", "two"),
		doc("quiz_version_3.docx", "three"),
	}

	data, err := Pack(docs)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(zr.File))
	}
	for i, f := range zr.File {
		if f.Name != docs[i].Name {
			t.Errorf("entry %d named %q, want %q", i, f.Name, docs[i].Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry: %v", err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry: %v", err)
		}
		if !bytes.Equal(body, docs[i].Data) {
			t.Errorf("entry %q content mismatch", f.Name)
		}
	}
}

func TestPackFailures(t *testing.T) {
	tests := []struct {
		name string
		docs []model.RenderedDocument
	}{
		{"no documents", nil},
		{"empty document", []model.RenderedDocument{doc("a.docx", "")}},
		{"unnamed document", []model.RenderedDocument{doc("", "body")}},
		{"duplicate names", []model.RenderedDocument{doc("a.docx", "x"), doc("a.docx", "y")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Pack(tt.docs)
			var pe *model.PackagingError
			if !errors.As(err, &pe) {
				t.Fatalf("expected PackagingError, got %v", err)
			}
		})
	}
}

func TestPackDeterministic(t *testing.T) {
	docs := []model.RenderedDocument{doc("a.docx", "x"), doc("b.docx", "y")}

	a, err := Pack(docs)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	b, err := Pack(docs)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical inputs produced different archives")
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(model.ModePlain, 10, 3); got != "regular_quiz_10q_3v.zip" {
		t.Errorf("plain filename = %q", got)
	}
	if got := Filename(model.ModeKeyed, 10, 3); got != "highlighted_quiz_10q_3v.zip" {
		t.Errorf("keyed filename = %q", got)
	}
}
