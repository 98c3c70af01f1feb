package llm

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

// Request describes a single completion call.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Client is the minimal surface the feature services need from a model
// provider. Implementations live in the sibling provider packages.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrNotConfigured is returned by PlaceholderClient on every call.
var ErrNotConfigured = errors.New("llm: no provider configured")

// PlaceholderClient stands in when no provider is wired. It fails loudly so
// the caller can surface a clean upstream error instead of a nil deref.
type PlaceholderClient struct{}

func (PlaceholderClient) Complete(_ context.Context, _ Request) (string, error) {
	return "", ErrNotConfigured
}

// Truncate caps text at limit characters, keeping the head of the document.
// The head carries titles, parties and dates, which matter more to prompts
// than trailing boilerplate. Returns the (possibly shortened) text and
// whether anything was cut. A limit <= 0 means no cap.
func Truncate(text string, limit int) (string, bool) {
	if limit <= 0 || len(text) <= limit {
		return text, false
	}
	end := limit
	// Never split a rune: a torn trailing byte would hand the model
	// invalid UTF-8.
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	cut := text[:end]
	// Back off to the last whitespace so we do not split a word mid-run,
	// unless that would discard most of the budget.
	if idx := strings.LastIndexFunc(cut, func(r rune) bool { return r == ' ' || r == '\n' || r == '\t' }); idx > limit/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \n\t"), true
}
