// Package render formats exam versions as Word documents.
package render

import (
	"fmt"

	"github.com/examforge/examforge/internal/docx"
	"github.com/examforge/examforge/internal/model"
)

// Options selects the document layout.
type Options struct {
	// Columns is 1 (portrait) or 2 (landscape). Zero means 2.
	Columns int
}

const fontSizePt = 8

// Document renders one exam version in the given mode. For fixed inputs the
// output bytes are identical on every call.
func Document(v model.ExamVersion, h model.Header, mode model.Mode, opts Options) (model.RenderedDocument, error) {
	if mode != model.ModePlain && mode != model.ModeKeyed {
		return model.RenderedDocument{}, &model.InvalidParameterError{Parameter: "mode", Value: string(mode)}
	}
	columns := opts.Columns
	if columns == 0 {
		columns = 2
	}
	if columns != 1 && columns != 2 {
		return model.RenderedDocument{}, &model.InvalidParameterError{Parameter: "columns", Value: opts.Columns}
	}

	d := docx.New()
	d.FontSizePt = fontSizePt
	if columns == 2 {
		// Two columns get the wide page with narrow margins.
		d.Landscape = true
		d.Columns = 2
		d.Margins = docx.Margins{Top: 0.3, Bottom: 0.3, Left: 0.3, Right: 0.3}
	} else {
		d.Margins = docx.Margins{Top: 0.5, Bottom: 0.5, Left: 0.75, Right: 0.75}
	}

	d.AddParagraph(docx.Paragraph{
		Align: docx.AlignCenter,
		Runs:  []docx.Run{{Text: titleLine(h), Bold: true}},
	})
	d.AddParagraph(docx.Paragraph{
		Align: docx.AlignCenter,
		Runs:  []docx.Run{{Text: fmt.Sprintf(h.VersionLabel, v.Number), Bold: true}},
	})
	d.AddParagraph(docx.Paragraph{
		Runs: []docx.Run{{Text: h.StudentInfoLine}},
	})
	d.AddParagraph(docx.Paragraph{})

	for i, q := range v.Questions {
		d.AddParagraph(docx.Paragraph{
			SpaceAfter: 1,
			Runs: []docx.Run{
				{Text: fmt.Sprintf("%d. ", i+1), Bold: true},
				{Text: q.Text, Bold: true},
			},
		})
		for oi, label := range model.Labels {
			emphasize := mode == model.ModeKeyed && oi == q.Correct
			d.AddParagraph(docx.Paragraph{
				IndentPt: 8,
				Runs: []docx.Run{
					{Text: label + ": ", Bold: emphasize},
					{Text: q.Options[oi], Bold: emphasize},
				},
			})
		}
		d.AddParagraph(docx.Paragraph{SpaceAfter: 1})
	}

	data, err := d.Bytes()
	if err != nil {
		return model.RenderedDocument{}, fmt.Errorf("render version %d: %w", v.Number, err)
	}

	return model.RenderedDocument{
		Name: DocumentName(v.Number, mode),
		Mode: mode,
		Data: data,
	}, nil
}

// DocumentName returns the archive entry name for a version in a mode.
// Names are unique per archive since version numbers are.
func DocumentName(version int, mode model.Mode) string {
	if mode == model.ModeKeyed {
		return fmt.Sprintf("quiz_version_%d_answers.docx", version)
	}
	return fmt.Sprintf("quiz_version_%d.docx", version)
}

func titleLine(h model.Header) string {
	title := h.Title
	if h.Subject != "" {
		title += " " + h.Subject
	}
	if h.ClassName != "" {
		title += " - " + h.ClassName
	}
	return title
}
