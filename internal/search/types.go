package search

// Result is one ranked match. Lower Distance means more similar.
type Result struct {
	Path     string
	Distance float64
}

// Progress reports how many candidates have been compared.
type Progress struct {
	Completed int
	Total     int
}

const (
	// DefaultLimit is the default maximum number of results.
	DefaultLimit = 20
	// DefaultThreshold is the default maximum accepted distance.
	DefaultThreshold = 8
	// DefaultBatchSize is the number of candidates compared between
	// cancellation checks and progress reports.
	DefaultBatchSize = 256
)

// Options configures one search.
type Options struct {
	// Limit is the maximum number of results. Zero means DefaultLimit.
	Limit int
	// Threshold is the maximum accepted distance. A negative threshold
	// requests no results.
	Threshold float64
	// BatchSize is the progress and cancellation granularity.
	BatchSize  int
	OnProgress func(Progress)
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}
