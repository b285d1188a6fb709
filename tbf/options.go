package tbf

// config holds the parse-time configuration.
type config struct {
	// logger receives non-fatal diagnostics (optional)
	logger Logger

	// strictChecksum marks application headers invalid on checksum
	// mismatch instead of the historical lenient behavior
	strictChecksum bool
}

// newConfig applies opts on top of the defaults.
func newConfig(opts []Option) config {
	cfg := config{logger: nopLogger{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option is a functional option for ParseHeader and NewPaddingHeader.
type Option func(*config)

// WithLogger sets a diagnostics sink for non-fatal warnings: unknown TLV
// types, truncated records and checksum mismatches. The default discards
// them.
//
// Example:
//
//	header := tbf.ParseHeader(buf, tbf.WithLogger(tbf.NewLogrusLogger(log)))
func WithLogger(logger Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStrictChecksum controls checksum strictness for application
// headers. Historically a checksum mismatch on an application header is
// logged but the header is still marked valid; pass true to mark it
// invalid instead. Padding-only headers are always strict.
//
// Example:
//
//	header := tbf.ParseHeader(buf, tbf.WithStrictChecksum(true))
func WithStrictChecksum(strict bool) Option {
	return func(c *config) {
		c.strictChecksum = strict
	}
}
