package worker

import (
	"context"
	"errors"

	"github.com/mnakata/islandhop/internal/model"
	"github.com/mnakata/islandhop/internal/pipeline"
)

// QueryJob runs one query through the pipeline in its own session
type QueryJob struct {
	Pipe  *pipeline.Pipeline
	Query string
	Index int
}

// QueryResult pairs a batch query with its pipeline response
type QueryResult struct {
	Index    int
	Query    string
	Response *model.QueryResponse
}

// Execute implements Job
func (j *QueryJob) Execute(ctx context.Context) Result {
	resp := j.Pipe.ProcessQuery(ctx, j.Query, "")
	return &QueryResult{Index: j.Index, Query: j.Query, Response: resp}
}

// GetError implements Result. A degraded pipeline answer counts as a
// failure for batch accounting even though it carries a reply.
func (r *QueryResult) GetError() error {
	if r.Response == nil {
		return errors.New("no response")
	}
	if r.Response.Error {
		return errors.New(r.Response.Answer)
	}
	return nil
}
