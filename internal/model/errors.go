package model

import "fmt"

// MissingColumnError reports a required column absent from a sheet.
type MissingColumnError struct {
	Sheet  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("sheet %q: missing required column %q", e.Sheet, e.Column)
}

// InvalidRowError reports the first invalid row encountered during loading.
// Row is 1-based and counts the header row, matching what the user sees in
// their spreadsheet application.
type InvalidRowError struct {
	Sheet  string
	Row    int
	Reason string
}

func (e *InvalidRowError) Error() string {
	return fmt.Sprintf("sheet %q, row %d: %s", e.Sheet, e.Row, e.Reason)
}

// InsufficientQuestionsError reports a request for more questions than the
// bank holds.
type InsufficientQuestionsError struct {
	Requested int
	Available int
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("requested %d questions but only %d are available", e.Requested, e.Available)
}

// InvalidParameterError reports an out-of-range generation parameter.
type InvalidParameterError struct {
	Parameter string
	Value     any
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid value %v for parameter %q", e.Value, e.Parameter)
}

// PackagingError reports a document that could not be archived.
type PackagingError struct {
	Name   string
	Reason string
}

func (e *PackagingError) Error() string {
	if e.Name == "" {
		return "packaging failed: " + e.Reason
	}
	return fmt.Sprintf("packaging %q failed: %s", e.Name, e.Reason)
}
