// Package intent maps free-text user prompts and proposed agent actions
// into a closed set of mail intent kinds (read/write/delete/unknown).
// Pattern tables are compiled once per instance and are read-only for the
// instance's lifetime, so a single Extractor is safe for concurrent use.
package intent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/mailwarden/internal/model"
)

// Verb fragments used to build prompt patterns. Each fragment is joined
// with `.*email` — "look.*at" and "what" are fragments, not literal verbs.
var (
	DefaultReadVerbs   = []string{"read", "show", "check", "view", "open", "see", "display", "look.*at", "what", "fetch"}
	DefaultWriteVerbs  = []string{"send", "write", "compose", "reply", "forward", "create", "draft"}
	DefaultDeleteVerbs = []string{"delete", "remove", "trash", "discard", "erase"}
)

// Parameter patterns are fixed: an email-address token after a from/to
// label, and a quoted string after a subject label.
var (
	fromRe    = regexp.MustCompile(`(?i)from[:\s]*([^\s,]+@[^\s,]+)`)
	toRe      = regexp.MustCompile(`(?i)to[:\s]*([^\s,]+@[^\s,]+)`)
	subjectRe = regexp.MustCompile(`(?i)subject[:\s]*['"]([^'"]+)['"]`)
)

// Extractor classifies user prompts and pulls out structured parameters.
type Extractor struct {
	read   []*regexp.Regexp
	write  []*regexp.Regexp
	delete []*regexp.Regexp
}

// NewExtractor builds an Extractor with the default verb vocabularies.
func NewExtractor() *Extractor {
	e, err := NewExtractorWithVerbs(DefaultReadVerbs, DefaultWriteVerbs, DefaultDeleteVerbs)
	if err != nil {
		// Defaults are compile-tested; this cannot happen at runtime.
		panic(err)
	}
	return e
}

// NewExtractorWithVerbs builds an Extractor from custom verb vocabularies.
// Each verb becomes the case-insensitive pattern `<verb>.*email`.
func NewExtractorWithVerbs(read, write, delete []string) (*Extractor, error) {
	e := &Extractor{}
	var err error
	if e.read, err = compileVerbs(read); err != nil {
		return nil, fmt.Errorf("read verbs: %w", err)
	}
	if e.write, err = compileVerbs(write); err != nil {
		return nil, fmt.Errorf("write verbs: %w", err)
	}
	if e.delete, err = compileVerbs(delete); err != nil {
		return nil, fmt.Errorf("delete verbs: %w", err)
	}
	return e, nil
}

func compileVerbs(verbs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(verbs))
	for _, v := range verbs {
		re, err := regexp.Compile(`(?i)` + v + `.*email`)
		if err != nil {
			return nil, fmt.Errorf("verb %q: %w", v, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Extract classifies a user prompt and returns the intent kind plus any
// parameters the prompt states. The pattern sets are tested in fixed
// priority order — read, then write, then delete — and the first set with
// a match wins. A prompt matching both read and write classifies as read.
// No match degrades to (unknown, empty params); Extract never errors.
func (e *Extractor) Extract(prompt string) (model.IntentKind, model.Params) {
	if matchAny(e.read, prompt) {
		return model.IntentRead, extractParams(prompt, fromRe)
	}
	if matchAny(e.write, prompt) {
		return model.IntentWrite, extractParams(prompt, toRe)
	}
	if matchAny(e.delete, prompt) {
		return model.IntentDelete, extractParams(prompt, fromRe)
	}
	return model.IntentUnknown, model.Params{}
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// extractParams pulls the address (from or to, depending on the matched
// kind) and subject out of the prompt. A parameter whose pattern does not
// match is omitted entirely — never set to empty string.
func extractParams(prompt string, addrRe *regexp.Regexp) model.Params {
	params := model.Params{}

	key := model.KeyFrom
	if addrRe == toRe {
		key = model.KeyTo
	}
	if m := addrRe.FindStringSubmatch(prompt); m != nil {
		params[key] = strings.TrimSpace(m[1])
	}
	if m := subjectRe.FindStringSubmatch(prompt); m != nil {
		params[model.KeySubject] = strings.TrimSpace(m[1])
	}

	return params
}
