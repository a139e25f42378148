package sensitive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	log.SetLevel(log.PanicLevel)
	exitCode := m.Run()
	os.Exit(exitCode)
}

func loadTestFilter(t *testing.T) *Filter {
	t.Helper()

	f := Load(context.Background(), FileSource{Path: filepath.Join("test_data", "words.txt")})
	if f.Status() != StatusReady {
		t.Fatalf("failed to load words: %v", f.Err())
	}
	return f
}

func TestFilter_Filter(t *testing.T) {
	f := loadTestFilter(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"No match", "hello world", "hello world"},
		{"Single word", "no gamble here", "no *** here"},
		{"Word at start and end", "drug and drug", "*** and ***"},
		{"CJK words", "这里可以赌博，可以嫖娼，可以吸毒，可以开票，哈哈哈！", "这里可以***，可以***，可以***，可以***，哈哈哈！"},
		{"Symbols inside CJK word", "☆赌☆博☆", "☆***☆"},
		{"Symbols inside ASCII word", "g.a.m.b.l.e!", "***!"},
		{"Adjacent words", "drugdrug", "******"},
		{"Unfinished match at end", "a dru", "a dru"},
		{"Unfinished match with trailing symbols", "dru--", "dru--"},
		{"Case sensitive", "DRUG", "DRUG"},
		{"Mixed scripts", "drug赌博", "******"},
		{"Emoji are symbols", "d😀rug", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Filter(tt.text)
			if got != tt.want {
				t.Errorf("Filter(%q) = %q; want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestFilter_FilterPolicies(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		text  string
		want  string
	}{
		{"Symbol interleaving", []string{"bad"}, "b-a-d", "***"},
		{"Symbols around word", []string{"bad"}, "-bad-", "-***-"},
		{"Symbol then mismatch", []string{"bad"}, "b-x", "b-x"},
		{"Overlap resumes after match", []string{"ab", "bc"}, "xabcx", "x***cx"},
		{"Shortest match wins", []string{"ab", "abc"}, "abc", "***c"},
		{"Retry from next position", []string{"ab"}, "aab", "a***"},
		{"Retry inside abandoned window", []string{"abd", "bc"}, "abc", "a***"},
		{"Blank words ignored", []string{"", "  ", "x"}, "x y", "*** y"},
		{"Untrimmed word", []string{" bad\r"}, "bad", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.words)
			got := f.Filter(tt.text)
			if got != tt.want {
				t.Errorf("Filter(%q) = %q; want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestFilter_FilterBlank(t *testing.T) {
	f := New([]string{"bad"})

	for _, text := range []string{"", "   ", "\t\n"} {
		if got := f.Filter(text); got != text {
			t.Errorf("Filter(%q) = %q; want input unchanged", text, got)
		}
	}
}

func TestFilter_FilterEmptyTrie(t *testing.T) {
	f := New(nil)

	texts := []string{"hello", "赌博", "b-a-d", "***"}
	for _, text := range texts {
		if got := f.Filter(text); got != text {
			t.Errorf("Filter(%q) = %q; want input unchanged", text, got)
		}
	}
}

func TestFilter_FilterIdempotent(t *testing.T) {
	f := loadTestFilter(t)

	texts := []string{
		"drug gamble 赌博",
		"g-a-m-b-l-e",
		"nothing to see",
	}
	for _, text := range texts {
		once := f.Filter(text)
		twice := f.Filter(once)
		if once != twice {
			t.Errorf("Filter is not idempotent for %q: %q then %q", text, once, twice)
		}
	}
}

func TestFilter_FilterNeverLonger(t *testing.T) {
	f := New([]string{"abc", "def"})

	texts := []string{"abcdef", "a-b-c d-e-f", "xyz", "abab"}
	for _, text := range texts {
		got := f.Filter(text)
		if len([]rune(got)) > len([]rune(text)) {
			t.Errorf("Filter(%q) = %q is longer than input", text, got)
		}
	}
}

func TestFilter_WithReplacement(t *testing.T) {
	f := New([]string{"bad"}, WithReplacement("[censored]"))

	got := f.Filter("so bad")
	want := "so [censored]"
	if got != want {
		t.Errorf("want %q, got %q", want, got)
	}
}

func TestFilter_Replace(t *testing.T) {
	f := loadTestFilter(t)

	got, n := f.Replace("赌博和吸毒")
	if got != "***和***" {
		t.Errorf("want filtered text %q, got %q", "***和***", got)
	}
	if n != 2 {
		t.Errorf("want 2 replacements, got %d", n)
	}

	if f.Contains("clean text") {
		t.Error("want Contains false for clean text")
	}
	if !f.Contains("some d.r.u.g") {
		t.Error("want Contains true for text with banned word")
	}
}

func TestFilter_Concurrent(t *testing.T) {
	f := loadTestFilter(t)

	text := strings.Repeat("drug 赌博 clean ", 100)
	want := f.Filter(text)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := f.Filter(text); got != want {
				t.Errorf("concurrent Filter returned different result")
			}
		}()
	}
	wg.Wait()
}

func TestLoad(t *testing.T) {
	f := loadTestFilter(t)
	if f.Words() != 6 {
		t.Errorf("want 6 words, got %d", f.Words())
	}
	if f.Err() != nil {
		t.Errorf("unexpected error: %v", f.Err())
	}
}

func TestLoad_Degraded(t *testing.T) {
	f := Load(context.Background(), FileSource{Path: filepath.Join("test_data", "missing.txt")})

	if f.Status() != StatusDegraded {
		t.Errorf("want status %q, got %q", StatusDegraded, f.Status())
	}
	if f.Err() == nil {
		t.Error("want load error, got nil")
	}
	if f.Words() != 0 {
		t.Errorf("want 0 words, got %d", f.Words())
	}

	text := "drug 赌博"
	if got := f.Filter(text); got != text {
		t.Errorf("degraded filter changed text: %q", got)
	}
}
