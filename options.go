package arkio

type options struct {
	logger         *Logger
	keyMap         string
	waveInfo       bool
	tokenCharSplit bool
}

func newOptions(optFns []Option) options {
	o := options{logger: NoopLogger()}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// Option configures a table handle at open time.
type Option func(*options)

// WithLogger configures structured logging. Pass nil to keep logging off.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithKeyMap configures a random-access reader to translate every lookup
// key through a two-column map file (classically an utterance-to-speaker
// map) before consulting the index. rxfilename may be any extended
// filename. A key with no mapping is reported as not found, never as a
// fault.
func WithKeyMap(rxfilename string) Option {
	return func(o *options) {
		o.keyMap = rxfilename
	}
}

// WithWaveInfo makes readers of WaveMatrix tables return the full
// model.Wave (samples plus channel count, duration and sample rate) instead
// of just the sample matrix.
func WithWaveInfo(v bool) Option {
	return func(o *options) {
		o.waveInfo = v
	}
}

// WithTokenCharSplit controls what a TokenVector writer does with a bare
// string: by default it is rejected with a TypeMismatchError; with this
// option enabled it is silently decomposed into a one-token-per-character
// sequence. Compatibility toggle for callers that relied on the loose
// behavior.
func WithTokenCharSplit(v bool) Option {
	return func(o *options) {
		o.tokenCharSplit = v
	}
}
