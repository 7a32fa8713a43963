package audit

// Entry is one line in the hash-chained JSONL decision log.
// All fields are concrete types (no map[string]any) to guarantee
// deterministic json.Marshal field order for reproducible hashing.
type Entry struct {
	Timestamp  string `json:"ts"`
	RequestID  string `json:"request_id"`
	UserPrompt string `json:"user_prompt"`
	Action     string `json:"action"`
	UserIntent string `json:"user_intent"`
	Approved   bool   `json:"approved"`
	Reason     string `json:"reason"`
	ConfigHash string `json:"config_hash,omitempty"`
	PrevHash   string `json:"prev_hash"`
}
