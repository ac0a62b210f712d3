package sheetatlas

// Options holds construction-time configuration for the Enricher.
type Options struct {
	sampleSize          int
	confidenceThreshold float64
	mergeStrategy       MergeStrategy
	autoStrategy        bool
	chaosThreshold      float64
	mergeWarnCells      int
	pool                *InternPool
	rules               *RuleSet
	normOpts            []NormalizerOption
}

func defaultOptions() *Options {
	return &Options{
		sampleSize:          defaultSampleSize,
		confidenceThreshold: 0.7,
		autoStrategy:        true,
		chaosThreshold:      0.20,
		mergeWarnCells:      6,
	}
}

// Option configures the Enricher.
type Option func(*Options)

// WithSampleSize caps how many data rows each column analysis samples
// (default 100).
func WithSampleSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.sampleSize = n
		}
	}
}

// WithConfidenceThreshold sets the type confidence below which a column
// draws a warning diagnostic (default 0.7).
func WithConfidenceThreshold(f float64) Option {
	return func(o *Options) { o.confidenceThreshold = f }
}

// WithMergeStrategy fixes the merge resolution strategy instead of using
// the one recommended by merge analysis.
func WithMergeStrategy(s MergeStrategy) Option {
	return func(o *Options) {
		o.mergeStrategy = s
		o.autoStrategy = false
	}
}

// WithAutoMergeStrategy restores strategy selection from merge analysis
// (the default).
func WithAutoMergeStrategy() Option {
	return func(o *Options) { o.autoStrategy = true }
}

// WithChaosThreshold sets the merged-cell share above which a sheet counts
// as Chaos (default 0.20).
func WithChaosThreshold(f float64) Option {
	return func(o *Options) { o.chaosThreshold = f }
}

// WithMergeWarnCellCount sets the cell count above which a horizontal
// merged range still draws a warning (default 6).
func WithMergeWarnCellCount(n int) Option {
	return func(o *Options) { o.mergeWarnCells = n }
}

// WithInternPool shares a string interning pool across enrichment and
// normalization. One pool may serve sheets enriched in parallel.
func WithInternPool(p *InternPool) Option {
	return func(o *Options) { o.pool = p }
}

// WithRules attaches column quality rules.
func WithRules(rs *RuleSet) Option {
	return func(o *Options) { o.rules = rs }
}

// WithNormalizerOptions forwards options to the enricher's normalizer, e.g.
// the date system or feature toggles.
func WithNormalizerOptions(opts ...NormalizerOption) Option {
	return func(o *Options) { o.normOpts = append(o.normOpts, opts...) }
}
