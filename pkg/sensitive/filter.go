// Package sensitive replaces banned words in user supplied text.
//
// Important notice: test data files contain placeholder "banned" words only.
// Real word lists are deployment configuration and are not part of the repository.
package sensitive

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultReplacement is substituted for every banned word found in a text.
const DefaultReplacement = "***"

// Status describes the outcome of loading a Filter.
type Status string

const (
	StatusReady    Status = "ready"
	StatusDegraded Status = "degraded"
)

// Filter replaces banned words with a fixed marker. A Filter is immutable once
// built and may be shared by any number of goroutines.
type Filter struct {
	trie        *Trie
	replacement string
	words       int
	err         error
}

type Option func(*Filter)

// WithReplacement sets the marker written in place of a banned word.
func WithReplacement(marker string) Option {
	return func(f *Filter) {
		f.replacement = marker
	}
}

// New builds a Filter from words. Surrounding whitespace is trimmed from every
// word and blank words are skipped.
func New(words []string, opts ...Option) *Filter {
	f := &Filter{
		trie:        NewTrie(),
		replacement: DefaultReplacement,
	}
	for _, opt := range opts {
		opt(f)
	}

	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		f.trie.Insert(w)
		f.words++
	}

	return f
}

// Load builds a Filter from the words supplied by src. A failing source does
// not stop the caller: the error is logged and an empty filter, which leaves
// every text unchanged, is returned with StatusDegraded.
func Load(ctx context.Context, src WordSource, opts ...Option) *Filter {
	words, err := src.Words(ctx)
	if err != nil {
		log.Errorf("[sensitive] failed to load word list, filtering disabled: %v", err)
		f := New(nil, opts...)
		f.err = err
		return f
	}

	f := New(words, opts...)
	log.Infof("[sensitive] loaded %d words (%d trie nodes)", f.words, f.trie.Len())
	return f
}

// Status reports whether the word list was loaded.
func (f *Filter) Status() Status {
	if f.err != nil {
		return StatusDegraded
	}
	return StatusReady
}

// Err returns the error that degraded the filter, if any.
func (f *Filter) Err() error {
	return f.err
}

// Words returns the number of words inserted into the filter.
func (f *Filter) Words() int {
	return f.words
}

// Filter returns text with every banned word replaced by the marker.
// Blank text (empty or whitespace only) is returned unchanged.
func (f *Filter) Filter(text string) string {
	out, _ := f.Replace(text)
	return out
}

// Contains reports whether text holds at least one banned word.
func (f *Filter) Contains(text string) bool {
	_, n := f.Replace(text)
	return n > 0
}

// Replace works like Filter and also returns the number of replaced words.
//
// The text is scanned once with a window [start, scan] tested against the
// trie. Symbols (see IsSymbol) are copied through while no match is in
// progress and skipped inside a match, so "b-a-d" matches "bad". When the
// window stops being a prefix of any word, only the rune at start is given up
// and the scan restarts right after it. The first terminal node reached ends a
// match, so with the words "ab" and "abc" the text "abc" becomes "***c".
func (f *Filter) Replace(text string) (string, int) {
	if strings.TrimSpace(text) == "" {
		return text, 0
	}

	runes := []rune(text)

	var (
		sb      strings.Builder
		cur     = Root
		start   int
		scan    int
		matches int
	)
	sb.Grow(len(text))

	for scan < len(runes) {
		r := runes[scan]

		if IsSymbol(r) {
			if cur == Root {
				sb.WriteRune(r)
				start++
			}
			scan++
			continue
		}

		next, ok := f.trie.Child(cur, r)
		switch {
		case !ok:
			sb.WriteRune(runes[start])
			start++
			scan = start
			cur = Root
		case f.trie.IsTerminal(next):
			sb.WriteString(f.replacement)
			matches++
			scan++
			start = scan
			cur = Root
		default:
			cur = next
			scan++
		}
	}

	sb.WriteString(string(runes[start:]))
	return sb.String(), matches
}
