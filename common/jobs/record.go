// Package jobs manages the lifecycle of asynchronous analysis jobs: one
// cancellable background unit per caller-supplied job ID, with status
// snapshots served to concurrent pollers.
package jobs

import (
	"github.com/studylens/document-analysis-service/common/models"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// cancelledMessage is the error recorded when a job is halted.
const cancelledMessage = "Processing was cancelled."

// Record is the current state of a job as seen by pollers. Result is set
// only when Status is done; Error only when Status is failed or cancelled.
type Record struct {
	Status Status                 `json:"status"`
	Result *models.AnalysisResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

func processingRecord() Record {
	return Record{Status: StatusProcessing}
}

func doneRecord(result *models.AnalysisResult) Record {
	return Record{Status: StatusDone, Result: result}
}

func failedRecord(message string) Record {
	return Record{Status: StatusFailed, Error: message}
}

func cancelledRecord() Record {
	return Record{Status: StatusCancelled, Error: cancelledMessage}
}
