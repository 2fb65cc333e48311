package pipeline

import (
	"github.com/ZanzyTHEbar/tender-integrity/internal/analysis"
	"github.com/ZanzyTHEbar/tender-integrity/internal/errors"
	"github.com/ZanzyTHEbar/tender-integrity/internal/fraud"
)

// Result is the boundary envelope for one pipeline run
type Result struct {
	Success    bool                 `json:"success"`
	Error      string               `json:"error,omitempty"`
	Category   errors.ErrorCategory `json:"category,omitempty"`
	RunID      string               `json:"run_id,omitempty"`
	TenderID   int64                `json:"tender_id"`
	Cached     bool                 `json:"cached"`
	Report     *fraud.Report        `json:"report,omitempty"`
	Evaluation *analysis.Evaluation `json:"evaluation,omitempty"`
}

// Failure renders err as an unsuccessful envelope
func Failure(tenderID int64, err error) Result {
	appErr := errors.ToAppError(err)
	return Result{
		Success:  false,
		Error:    appErr.Error(),
		Category: appErr.Category,
		TenderID: tenderID,
	}
}
