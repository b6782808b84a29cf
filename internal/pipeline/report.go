package pipeline

import (
	"context"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/entities"
	ierr "github.com/ravishrisanjay/AWS-serverless-processor/internal/errors"
)

type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Result is the outcome of one envelope.
type Result struct {
	EnvelopeID  string
	Status      Status
	Category    entities.Category
	Source      entities.Location
	Destination entities.Location
	Reason      string
	Err         error
}

// Interrupted reports whether the envelope failed because its context was
// canceled or timed out rather than because of the envelope itself.
func (r Result) Interrupted() bool {
	if r.Status != StatusFailed || r.Err == nil {
		return false
	}
	return ierr.Is(r.Err, context.Canceled) || ierr.Is(r.Err, context.DeadlineExceeded)
}

// BatchReport holds one Result per envelope, in delivery order.
type BatchReport struct {
	Results []Result
}

func (r BatchReport) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the envelope IDs that ended in failure.
func (r BatchReport) Failed() []string {
	var ids []string
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			ids = append(ids, res.EnvelopeID)
		}
	}
	return ids
}
