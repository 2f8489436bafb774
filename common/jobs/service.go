package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/studylens/document-analysis-service/common/storage"
)

// ErrMissingJobID is returned by Submit when no job ID was supplied.
var ErrMissingJobID = errors.New("job ID is required")

// Service owns the record store and the registry, and launches one runner
// per accepted submission. Construct it once per process and pass it to the
// API layer.
type Service struct {
	base     context.Context
	store    *RecordStore
	registry *Registry
	storage  storage.StorageService
	bucket   string
	stages   Stages
}

// NewService creates the job service. Runners derive their contexts from
// base, so cancelling it stops every in-flight job.
func NewService(base context.Context, storageService storage.StorageService, bucket string, stages Stages) *Service {
	return &Service{
		base:     base,
		store:    NewRecordStore(),
		registry: NewRegistry(),
		storage:  storageService,
		bucket:   bucket,
		stages:   stages,
	}
}

// Submit registers a new job unit for the submission's ID, superseding any
// unit already running under it, and returns as soon as the unit is
// launched. Progress is observable only through Status.
func (s *Service) Submit(sub Submission) error {
	if sub.JobID == "" {
		return ErrMissingJobID
	}

	runCtx, cancel := context.WithCancel(s.base)
	handle := s.registry.Register(sub.JobID, cancel)
	s.store.Set(sub.JobID, processingRecord())

	r := &runner{
		job:      sub,
		handle:   handle,
		store:    s.store,
		registry: s.registry,
		storage:  s.storage,
		bucket:   s.bucket,
		stages:   s.stages,
	}
	go r.run(runCtx)

	return nil
}

// Status returns the current record for a job ID and whether the ID has
// ever been submitted.
func (s *Service) Status(id string) (Record, bool) {
	return s.store.Get(id)
}

// Halt cancels the running unit for a job ID. It reports false when no unit
// is running, which is a normal outcome rather than an error.
func (s *Service) Halt(id string) bool {
	return s.registry.Cancel(id)
}

// DeleteUpload removes an uploaded blob and reports whether it existed.
func (s *Service) DeleteUpload(ctx context.Context, jobID, filename string) (bool, error) {
	objectName := fmt.Sprintf("%s/%s", jobID, filename)
	return s.storage.Delete(ctx, s.bucket, objectName)
}
