// Package content checks a proposed read-path response against the source
// email it claims to summarize. The checks are cheap, deterministic
// heuristics — a filter against deceptive output, not a semantic
// guarantee. False positives and negatives are expected.
package content

import (
	"fmt"
	"strings"
)

// Threshold constants are part of the observable contract. Changing either
// is a behavioral break for downstream scenario suites.
const (
	// DefaultMaxLengthRatio rejects responses longer than 1.5x the source
	// email. Legitimate summarization should not expand content by more
	// than half.
	DefaultMaxLengthRatio = 1.5

	// DefaultMaxNovelWordRatio rejects responses where more than 30% of
	// the words never appear in the source email.
	DefaultMaxNovelWordRatio = 0.3
)

// Checker validates response content against source email content.
// Indicators are lower-cased once at construction; a Checker is immutable
// and safe for concurrent use.
type Checker struct {
	maxLengthRatio    float64
	maxNovelWordRatio float64
	indicators        []string
}

// NewChecker builds a Checker with the default thresholds and indicators.
func NewChecker() *Checker {
	return NewCheckerWith(DefaultMaxLengthRatio, DefaultMaxNovelWordRatio, DefaultIndicators)
}

// NewCheckerWith builds a Checker with explicit thresholds and indicator
// phrases. Non-positive thresholds fall back to the defaults.
func NewCheckerWith(maxLengthRatio, maxNovelWordRatio float64, indicators []string) *Checker {
	if maxLengthRatio <= 0 {
		maxLengthRatio = DefaultMaxLengthRatio
	}
	if maxNovelWordRatio <= 0 {
		maxNovelWordRatio = DefaultMaxNovelWordRatio
	}
	lowered := make([]string, len(indicators))
	for i, ind := range indicators {
		lowered[i] = strings.ToLower(ind)
	}
	return &Checker{
		maxLengthRatio:    maxLengthRatio,
		maxNovelWordRatio: maxNovelWordRatio,
		indicators:        lowered,
	}
}

// Check runs three sequential checks against a proposed response; the
// first failure wins:
//
//  1. length inflation — response more than maxLengthRatio times the email
//  2. attack indicators — case-insensitive substring match
//  3. novel vocabulary — too many response words absent from the email
//
// Returns (approved, reason). Check never errors and has no side effects.
func (c *Checker) Check(emailContent, proposedResponse string) (bool, string) {
	if float64(len(proposedResponse)) > c.maxLengthRatio*float64(len(emailContent)) {
		return false, "response is significantly longer than email content, potential deceptive output"
	}

	lower := strings.ToLower(proposedResponse)
	for _, ind := range c.indicators {
		if strings.Contains(lower, ind) {
			return false, fmt.Sprintf("response contains potential attack indicator: '%s'", ind)
		}
	}

	responseWords := wordSet(proposedResponse)
	// An empty response has no vocabulary to judge; it trivially passes.
	if len(responseWords) > 0 {
		emailWords := wordSet(emailContent)
		novel := 0
		for w := range responseWords {
			if !emailWords[w] {
				novel++
			}
		}
		if float64(novel) > c.maxNovelWordRatio*float64(len(responseWords)) {
			return false, "response introduces many new concepts not present in the email"
		}
	}

	return true, "response content validated successfully"
}

// wordSet tokenizes on whitespace into a lower-cased set.
func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}
