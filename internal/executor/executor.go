// Package executor implements C9: the single Executor abstraction over
// HTTP and in-memory SPARQL backends (spec.md §4.8).
package executor

import (
	"context"
	"time"

	"github.com/recalcitrant/querylib/internal/ast"
	"github.com/recalcitrant/querylib/internal/resultset"
)

// Media types negotiated per spec.md §4.8's default Accept values.
const (
	MediaSPARQLResultsJSON = "application/sparql-results+json"
	MediaNQuads            = "application/n-quads"
	MediaNTriples          = "application/n-triples"
)

// Options tunes a single executor call: Accept-header override and an
// optional deadline (spec.md §4.8, §5 "Timeouts").
type Options struct {
	Accept   string
	Deadline time.Time
}

func (o Options) deadlineOrZero() (time.Time, bool) {
	return o.Deadline, !o.Deadline.IsZero()
}

// Executor is the single abstraction over SPARQL backends (spec.md §4.8).
// Implementations must negotiate Accept, translate non-2xx/local errors
// to BackendError, use HTTP Basic auth when credentials are configured,
// and reuse connections across calls.
type Executor interface {
	SelectParsed(ctx context.Context, q *ast.Query, opts Options) (resultset.ResultSet, error)
	ConstructParsed(ctx context.Context, q *ast.Query, opts Options) (string, error)
	Ask(ctx context.Context, q *ast.Query, opts Options) (bool, error)
	Update(ctx context.Context, q *ast.Query) error
}

// StreamingExecutor is the optional extension for executors that can
// produce a tagged byte stream instead of a fully materialized result
// (spec.md §4.8 "Optional streaming variants").
type StreamingExecutor interface {
	Executor
	SelectStream(ctx context.Context, q *ast.Query, opts Options) (stream <-chan []byte, mediaType string, err error)
	ConstructStream(ctx context.Context, q *ast.Query, opts Options) (stream <-chan []byte, mediaType string, err error)
}

func withDeadline(ctx context.Context, opts Options) (context.Context, context.CancelFunc) {
	if d, ok := opts.deadlineOrZero(); ok {
		return context.WithDeadline(ctx, d)
	}
	return ctx, func() {}
}
