// Package bank loads and validates uploaded question spreadsheets.
package bank

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/examforge/examforge/internal/model"
)

// Column header aliases, matched case-insensitively. The Vietnamese forms
// are the ones the tool's original audience uses.
var (
	questionAliases = []string{"question", "question text", "câu hỏi"}
	answerAliases   = []string{"answer", "correct answer", "đáp án"}
	categoryAliases = []string{"category", "phân loại"}
)

// Canonical column names used in error reporting.
const (
	colQuestion = "question"
	colAnswer   = "answer"
)

// columnMap holds resolved column indexes for one sheet. A value of -1
// means the column is absent.
type columnMap struct {
	question int
	options  [model.NumOptions]int
	answer   int
	category int
}

// Load parses a spreadsheet into a validated QuestionBank. Every sheet in
// the workbook must carry the required columns; rows are concatenated in
// sheet order, then row order. The first invalid cell rejects the whole
// upload.
func Load(r io.Reader) (*model.QuestionBank, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	var questions []model.Question
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		cols, err := resolveColumns(sheet, rows)
		if err != nil {
			return nil, err
		}

		for i, row := range rows[1:] {
			if blankRow(row) {
				continue
			}
			// 1-based row number as the user sees it, header included.
			q, err := parseRow(sheet, i+2, row, cols)
			if err != nil {
				return nil, err
			}
			questions = append(questions, q)
		}
	}

	return model.NewQuestionBank(questions), nil
}

// resolveColumns locates the required and optional columns in a sheet's
// header row.
func resolveColumns(sheet string, rows [][]string) (columnMap, error) {
	cols := columnMap{question: -1, answer: -1, category: -1}
	for i := range cols.options {
		cols.options[i] = -1
	}

	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}

	cols.question = findColumn(header, questionAliases...)
	if cols.question < 0 {
		return cols, &model.MissingColumnError{Sheet: sheet, Column: colQuestion}
	}
	for i, label := range model.Labels {
		cols.options[i] = findColumn(header, label)
		if cols.options[i] < 0 {
			return cols, &model.MissingColumnError{Sheet: sheet, Column: label}
		}
	}
	cols.answer = findColumn(header, answerAliases...)
	if cols.answer < 0 {
		return cols, &model.MissingColumnError{Sheet: sheet, Column: colAnswer}
	}
	cols.category = findColumn(header, categoryAliases...)

	return cols, nil
}

func parseRow(sheet string, rowNum int, row []string, cols columnMap) (model.Question, error) {
	var q model.Question

	q.Text = cell(row, cols.question)
	if q.Text == "" {
		return q, &model.InvalidRowError{Sheet: sheet, Row: rowNum, Reason: "question text is empty"}
	}

	for i, label := range model.Labels {
		q.Options[i] = cell(row, cols.options[i])
		if q.Options[i] == "" {
			return q, &model.InvalidRowError{
				Sheet:  sheet,
				Row:    rowNum,
				Reason: fmt.Sprintf("option %s is empty", label),
			}
		}
	}

	answer := strings.ToUpper(cell(row, cols.answer))
	q.Correct = -1
	for i, label := range model.Labels {
		if answer == label {
			q.Correct = i
			break
		}
	}
	if q.Correct < 0 {
		return q, &model.InvalidRowError{
			Sheet:  sheet,
			Row:    rowNum,
			Reason: fmt.Sprintf("correct answer %q is not one of A, B, C, D", answer),
		}
	}

	if cols.category >= 0 {
		q.Category = cell(row, cols.category)
	}

	return q, nil
}

func findColumn(header []string, aliases ...string) int {
	for i, h := range header {
		for _, a := range aliases {
			if strings.EqualFold(strings.TrimSpace(h), a) {
				return i
			}
		}
	}
	return -1
}

// cell returns a trimmed cell value; excelize drops trailing empty cells,
// so out-of-range reads mean an empty cell.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
