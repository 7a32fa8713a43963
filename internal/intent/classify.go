package intent

import (
	"strings"

	"github.com/ppiankov/mailwarden/internal/model"
)

// Action verb lists for classifying a proposed action identifier
// (e.g. "read_email", "send_message") into an intent kind. Matching is
// case-insensitive substring containment, checked read → write → delete.
var (
	DefaultReadActions   = []string{"read", "fetch", "get", "retrieve"}
	DefaultWriteActions  = []string{"send", "write", "compose", "reply", "forward"}
	DefaultDeleteActions = []string{"delete", "remove", "trash"}
)

// Classifier maps proposed action strings into the same intent kind space
// the Extractor uses for user prompts.
type Classifier struct {
	read   []string
	write  []string
	delete []string
}

// NewClassifier builds a Classifier with the default action verb lists.
func NewClassifier() *Classifier {
	return NewClassifierWithVerbs(DefaultReadActions, DefaultWriteActions, DefaultDeleteActions)
}

// NewClassifierWithVerbs builds a Classifier from custom verb lists.
// Verbs are lower-cased once here so Classify only lowers the input.
func NewClassifierWithVerbs(read, write, delete []string) *Classifier {
	return &Classifier{
		read:   lowerAll(read),
		write:  lowerAll(write),
		delete: lowerAll(delete),
	}
}

// Classify returns the intent kind of a proposed action string, or
// unknown when no verb list matches. Unknown is a legitimate result;
// the validator treats it conservatively.
func (c *Classifier) Classify(action string) model.IntentKind {
	lower := strings.ToLower(action)

	if containsAny(lower, c.read) {
		return model.IntentRead
	}
	if containsAny(lower, c.write) {
		return model.IntentWrite
	}
	if containsAny(lower, c.delete) {
		return model.IntentDelete
	}
	return model.IntentUnknown
}

func containsAny(s string, verbs []string) bool {
	for _, v := range verbs {
		if strings.Contains(s, v) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
