package model

import (
	"context"
	"time"
)

// NumOptions is the number of answer options every question carries.
const NumOptions = 4

// Labels are the fixed option labels in display order.
var Labels = [NumOptions]string{"A", "B", "C", "D"}

// Question represents one multiple-choice quiz item. Options are stored in
// label order (A first); Correct is the index of the correct option.
type Question struct {
	Text     string
	Options  [NumOptions]string
	Correct  int
	Category string
}

// QuestionBank is the full normalized question set loaded from one upload.
// It is constructed once by the loader and never mutated afterwards.
type QuestionBank struct {
	questions []Question
}

// NewQuestionBank builds a bank from already-validated questions. The slice
// is copied so later mutation of the argument cannot alias into the bank.
func NewQuestionBank(questions []Question) *QuestionBank {
	qs := make([]Question, len(questions))
	copy(qs, questions)
	return &QuestionBank{questions: qs}
}

// Len returns the number of questions in the bank.
func (b *QuestionBank) Len() int { return len(b.questions) }

// At returns the question at index i.
func (b *QuestionBank) At(i int) Question { return b.questions[i] }

// Categories returns the distinct non-empty categories in first-seen order.
func (b *QuestionBank) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, q := range b.questions {
		if q.Category == "" || seen[q.Category] {
			continue
		}
		seen[q.Category] = true
		cats = append(cats, q.Category)
	}
	return cats
}

// ExamVersion is one generated exam variant: k questions in shuffled order,
// each with its own options independently permuted and relabeled.
type ExamVersion struct {
	Number    int // 1-based within the generation request
	Questions []Question
}

// Mode selects how an exam version is rendered.
type Mode string

const (
	// ModePlain renders the exam with no indication of correct answers.
	ModePlain Mode = "plain"
	// ModeKeyed renders the exam with the correct option emphasized.
	ModeKeyed Mode = "keyed"
)

// Header holds the display strings applied uniformly to every document in
// one exam set. All strings are fully resolved (localized) by the caller so
// rendering stays a pure function of its inputs.
type Header struct {
	Title           string
	Subject         string
	ClassName       string
	VersionLabel    string // fmt-style, receives the 1-based version number
	StudentInfoLine string
}

// RenderedDocument is one formatted exam document awaiting packaging.
type RenderedDocument struct {
	Name string
	Mode Mode
	Data []byte
}

// Archive is a registry record for one produced zip, addressable for
// download until its retention window lapses.
type Archive struct {
	ID           string
	Filename     string
	Path         string
	Mode         Mode
	NumVersions  int
	NumDocuments int
	CreatedAt    time.Time
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	DataDir        string        // directory for produced archives
	Retention      time.Duration // how long archives stay downloadable
	MaxUploadBytes int64
	DefaultColumns int    // document layout columns (1 or 2)
	BasePath       string // URL prefix for sub-path deployments
	Lang           string
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}
