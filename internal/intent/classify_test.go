package intent

import (
	"testing"

	"github.com/ppiankov/mailwarden/internal/model"
)

func TestClassifyActions(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		action string
		want   model.IntentKind
	}{
		{"read_email", model.IntentRead},
		{"fetch_inbox", model.IntentRead},
		{"get_messages", model.IntentRead},
		{"retrieve_latest", model.IntentRead},
		{"write_email", model.IntentWrite},
		{"send_email", model.IntentWrite},
		{"compose_draft", model.IntentWrite},
		{"reply_to_sender", model.IntentWrite},
		{"forward_message", model.IntentWrite},
		{"delete_email", model.IntentDelete},
		{"remove_message", model.IntentDelete},
		{"trash_message", model.IntentDelete},
		{"archive_email", model.IntentUnknown},
		{"", model.IntentUnknown},
	}

	for _, tt := range tests {
		if got := c.Classify(tt.action); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.action, got, tt.want)
		}
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c := NewClassifier()
	if got := c.Classify("READ_EMAIL"); got != model.IntentRead {
		t.Errorf("Classify(READ_EMAIL) = %s, want read", got)
	}
}

func TestClassifyOrderReadWins(t *testing.T) {
	c := NewClassifier()
	// Contains both a read verb and a delete verb; read list is checked first.
	if got := c.Classify("get_and_remove"); got != model.IntentRead {
		t.Errorf("Classify(get_and_remove) = %s, want read", got)
	}
}

func TestClassifySubstringContainment(t *testing.T) {
	c := NewClassifier()
	// Matching is plain substring containment, not word-boundary aware:
	// "thread" contains "read", so thread actions classify as read even
	// when another verb is present later in the name.
	tests := []struct {
		action string
		want   model.IntentKind
	}{
		{"reply_to_thread", model.IntentRead},
		{"trash_thread", model.IntentRead},
		{"mark_thread_done", model.IntentRead},
	}
	for _, tt := range tests {
		if got := c.Classify(tt.action); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.action, got, tt.want)
		}
	}
}
