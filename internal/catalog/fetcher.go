// Package catalog provides metadata fetchers for public dataset catalogs.
// Each fetcher adapts one upstream (search + sample preview) behind a narrow
// interface so the backing mechanism stays swappable. Fetchers degrade
// softly: network failures, timeouts and malformed payloads yield empty
// results and a warning log, never an error the pipeline has to handle.
package catalog

import (
	"context"
	"time"

	"github.com/dataforge/dataforge/internal/core"
)

// Upstream call budgets. A call that exceeds its budget is treated exactly
// like any other upstream failure.
const (
	SearchTimeout = 30 * time.Second
	SampleTimeout = 60 * time.Second
)

// Fetcher is a single catalog adapter.
type Fetcher interface {
	// Search returns candidate datasets for a topic. A failing or empty
	// upstream yields (nil, nil); the condition is logged, not raised.
	Search(ctx context.Context, topic string) ([]core.CandidateSource, error)

	// Sample fetches a row preview for a candidate reference, or nil when
	// the upstream cannot provide one.
	Sample(ctx context.Context, reference string) (*core.SampleResult, error)

	// Source identifies the catalog this fetcher adapts.
	Source() core.SourceType
}
