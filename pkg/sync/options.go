package sync

// Options control the sync driver's behavior.
type Options struct {
	// DeleteItems enables destructive deletion instead of marking
	// removed items with the deleted status.
	DeleteItems bool

	// ForceUpdate patches items even when their checksums match.
	ForceUpdate bool

	// StatusAllowList restricts patching to remote items whose current
	// status is listed. Empty means every status may be overwritten.
	StatusAllowList []string

	// BatchSize caps how many items one remote call carries. Zero
	// means a single batch per phase.
	BatchSize int
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithDeleteItems configures destructive deletion of removed items.
func WithDeleteItems(delete bool) Option {
	return func(o *Options) { o.DeleteItems = delete }
}

// WithForceUpdate configures patching regardless of checksum equality.
func WithForceUpdate(force bool) Option {
	return func(o *Options) { o.ForceUpdate = force }
}

// WithStatusAllowList configures which remote statuses may be
// overwritten.
func WithStatusAllowList(statuses ...string) Option {
	return func(o *Options) { o.StatusAllowList = statuses }
}

// WithBatchSize configures the maximum batch size per remote call.
func WithBatchSize(size int) Option {
	return func(o *Options) { o.BatchSize = size }
}

// allowsStatus reports whether the allow-list permits overwriting an
// item in the given status.
func (o *Options) allowsStatus(status string) bool {
	if len(o.StatusAllowList) == 0 {
		return true
	}
	for _, allowed := range o.StatusAllowList {
		if allowed == status {
			return true
		}
	}
	return false
}
