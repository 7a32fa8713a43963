package mailwarden

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	configPath  string
	auditPath   string
	historyPath string
	source      string
}

// WithConfig sets the path to a validator config YAML file.
func WithConfig(path string) Option {
	return func(c *clientConfig) { c.configPath = path }
}

// WithAuditLog enables the hash-chained JSONL audit log at path.
func WithAuditLog(path string) Option {
	return func(c *clientConfig) { c.auditPath = path }
}

// WithHistory enables the SQLite decision history at path.
func WithHistory(path string) Option {
	return func(c *clientConfig) { c.historyPath = path }
}

// WithSource sets the source label recorded with each decision.
func WithSource(source string) Option {
	return func(c *clientConfig) { c.source = source }
}

// WrapOption configures a single Wrap call.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	source string
}

// WrapWithSource overrides the client-level source label for this wrap.
func WrapWithSource(source string) WrapOption {
	return func(w *wrapConfig) { w.source = source }
}
