package exam

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"sort"
	"testing"

	"github.com/examforge/examforge/internal/model"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// testBank builds a bank of n questions with distinct texts and options.
// Categories cycle through cats when provided.
func testBank(n int, cats ...string) *model.QuestionBank {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			Text: fmt.Sprintf("question %d", i),
			Options: [model.NumOptions]string{
				fmt.Sprintf("q%d opt A", i),
				fmt.Sprintf("q%d opt B", i),
				fmt.Sprintf("q%d opt C", i),
				fmt.Sprintf("q%d opt D", i),
			},
			Correct: i % model.NumOptions,
		}
		if len(cats) > 0 {
			qs[i].Category = cats[i%len(cats)]
		}
	}
	return model.NewQuestionBank(qs)
}

func TestSelectShape(t *testing.T) {
	tests := []struct {
		bankSize, k, m int
	}{
		{5, 1, 1},
		{10, 5, 3},
		{20, 20, 2},
		{7, 3, 10},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("bank%d_k%d_m%d", tt.bankSize, tt.k, tt.m), func(t *testing.T) {
			versions, err := Select(testBank(tt.bankSize), tt.k, tt.m, testRand(), Policy{})
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if len(versions) != tt.m {
				t.Fatalf("expected %d versions, got %d", tt.m, len(versions))
			}
			for i, v := range versions {
				if v.Number != i+1 {
					t.Errorf("version %d has number %d", i, v.Number)
				}
				if len(v.Questions) != tt.k {
					t.Errorf("version %d has %d questions, want %d", v.Number, len(v.Questions), tt.k)
				}
			}
		})
	}
}

func TestSelectNoDuplicateQuestionsWithinVersion(t *testing.T) {
	versions, err := Select(testBank(10), 10, 5, testRand(), Policy{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	for _, v := range versions {
		seen := make(map[string]bool)
		for _, q := range v.Questions {
			if seen[q.Text] {
				t.Fatalf("version %d contains %q twice", v.Number, q.Text)
			}
			seen[q.Text] = true
		}
	}
}

func TestSelectPreservesOptionTexts(t *testing.T) {
	bank := testBank(8)
	byText := make(map[string]model.Question)
	for i := 0; i < bank.Len(); i++ {
		q := bank.At(i)
		byText[q.Text] = q
	}

	versions, err := Select(bank, 8, 4, testRand(), Policy{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	for _, v := range versions {
		for _, q := range v.Questions {
			orig, ok := byText[q.Text]
			if !ok {
				t.Fatalf("question %q not in bank", q.Text)
			}

			// Same option texts as a multiset; only the label assignment moves.
			got := append([]string(nil), q.Options[:]...)
			want := append([]string(nil), orig.Options[:]...)
			sort.Strings(got)
			sort.Strings(want)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("question %q options changed: got %v want %v", q.Text, got, want)
			}

			// The previously-correct text stays tracked as correct.
			if q.Options[q.Correct] != orig.Options[orig.Correct] {
				t.Errorf("question %q: correct text %q, want %q",
					q.Text, q.Options[q.Correct], orig.Options[orig.Correct])
			}
		}
	}
}

func TestSelectInsufficientQuestions(t *testing.T) {
	_, err := Select(testBank(5), 6, 1, testRand(), Policy{})
	var iqe *model.InsufficientQuestionsError
	if !errors.As(err, &iqe) {
		t.Fatalf("expected InsufficientQuestionsError, got %v", err)
	}
	if iqe.Requested != 6 || iqe.Available != 5 {
		t.Errorf("unexpected detail: requested=%d available=%d", iqe.Requested, iqe.Available)
	}
}

func TestSelectInvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		k, m int
		want string
	}{
		{"zero k", 0, 1, "numQuestions"},
		{"negative k", -2, 1, "numQuestions"},
		{"zero m", 3, 0, "numVersions"},
		{"negative m", 3, -1, "numVersions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Select(testBank(5), tt.k, tt.m, testRand(), Policy{})
			var ipe *model.InvalidParameterError
			if !errors.As(err, &ipe) {
				t.Fatalf("expected InvalidParameterError, got %v", err)
			}
			if ipe.Parameter != tt.want {
				t.Errorf("expected parameter %q, got %q", tt.want, ipe.Parameter)
			}
		})
	}
}

func TestSelectDeterministicWithSeed(t *testing.T) {
	bank := testBank(12)

	a, err := Select(bank, 6, 3, rand.New(rand.NewPCG(42, 0)), Policy{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	b, err := Select(bank, 6, 3, rand.New(rand.NewPCG(42, 0)), Policy{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different versions")
	}

	c, err := Select(bank, 6, 3, rand.New(rand.NewPCG(7, 0)), Policy{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced identical versions (possible but wildly unlikely)")
	}
}

func TestSelectCoincidingVersionsAllowedByDefault(t *testing.T) {
	// k equals bank size, so every draw is the same set. That is fine
	// unless DistinctVersions is requested.
	versions, err := Select(testBank(3), 3, 4, testRand(), Policy{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(versions) != 4 {
		t.Errorf("expected 4 versions, got %d", len(versions))
	}
}

func TestSelectDistinctVersions(t *testing.T) {
	versions, err := Select(testBank(6), 3, 5, testRand(), Policy{DistinctVersions: true})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	seen := make(map[string]bool)
	for _, v := range versions {
		texts := make([]string, len(v.Questions))
		for i, q := range v.Questions {
			texts[i] = q.Text
		}
		sort.Strings(texts)
		key := fmt.Sprint(texts)
		if seen[key] {
			t.Fatalf("version %d repeats an earlier question set", v.Number)
		}
		seen[key] = true
	}
}

func TestSelectDistinctVersionsImpossible(t *testing.T) {
	// Only one 3-question set exists in a 3-question bank.
	_, err := Select(testBank(3), 3, 2, testRand(), Policy{DistinctVersions: true})
	if err == nil {
		t.Fatal("expected error when distinct versions cannot be drawn")
	}
}

func TestSelectCoverCategories(t *testing.T) {
	bank := testBank(12, "algebra", "geometry", "calculus")

	versions, err := Select(bank, 4, 6, testRand(), Policy{CoverCategories: true})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	for _, v := range versions {
		got := make(map[string]bool)
		for _, q := range v.Questions {
			got[q.Category] = true
		}
		for _, cat := range []string{"algebra", "geometry", "calculus"} {
			if !got[cat] {
				t.Errorf("version %d missing category %q", v.Number, cat)
			}
		}
	}
}

func TestSelectCoverCategoriesNeedsEnoughQuestions(t *testing.T) {
	bank := testBank(12, "algebra", "geometry", "calculus")

	_, err := Select(bank, 2, 1, testRand(), Policy{CoverCategories: true})
	var ipe *model.InvalidParameterError
	if !errors.As(err, &ipe) {
		t.Fatalf("expected InvalidParameterError, got %v", err)
	}
}

func TestSelectCoverCategoriesIgnoredWithoutCategories(t *testing.T) {
	versions, err := Select(testBank(5), 3, 2, testRand(), Policy{CoverCategories: true})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(versions) != 2 {
		t.Errorf("expected 2 versions, got %d", len(versions))
	}
}
