package model

import "time"

// StepOutcome records how one pipeline step ended.
type StepOutcome struct {
	// Name is the step name, e.g. "crawl".
	Name string `json:"name"`

	// Skipped is set when the step's output already existed.
	Skipped bool `json:"skipped,omitempty"`

	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty"`

	// Duration is the wall time spent in the step.
	Duration time.Duration `json:"duration"`
}

// CrawlStats summarizes a crawl.
type CrawlStats struct {
	Visited         int      `json:"visited"`
	Fetched         int      `json:"fetched"`
	Failed          int      `json:"failed"`
	Discovered      int      `json:"discovered"`
	FailedPages     []string `json:"failed_pages,omitempty"`
	JavaScriptPages []string `json:"javascript_pages,omitempty"`
}

// Run is the state shared by the steps building one site's corpus.
// Each step fills in its own section; a nil section means the step did
// not run or was skipped.
type Run struct {
	// Domain is the seed's network location and names every artifact.
	Domain string `json:"domain"`

	// Seed is the crawl start URL.
	Seed string `json:"seed"`

	// StartedAt and FinishedAt bound the pipeline execution.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Steps lists the executed steps in order.
	Steps []StepOutcome `json:"steps"`

	// Crawl is set by the crawl step.
	Crawl *CrawlStats `json:"crawl,omitempty"`

	// Records is the number of collated rows, set by the collate step.
	Records *int `json:"records,omitempty"`

	// Chunking is set by the tokenize step.
	Chunking *ChunkStats `json:"chunking,omitempty"`

	// Cancelled is set when the context ended the run early.
	Cancelled bool `json:"cancelled,omitempty"`

	// Err is the error that stopped the run.
	Err error `json:"-"`
}

// NewRun creates a Run for domain seeded at seed.
func NewRun(domain, seed string) *Run {
	return &Run{
		Domain:    domain,
		Seed:      seed,
		StartedAt: time.Now(),
		Steps:     make([]StepOutcome, 0),
	}
}

// Failed reports whether any step failed.
func (r *Run) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, s := range r.Steps {
		if s.Error != "" {
			return true
		}
	}
	return false
}
