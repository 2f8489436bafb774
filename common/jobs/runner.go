package jobs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/studylens/document-analysis-service/common/models"
	"github.com/studylens/document-analysis-service/common/storage"
	"github.com/studylens/document-analysis-service/pipeline/analysis"
	"github.com/studylens/document-analysis-service/pipeline/extraction"
	"github.com/studylens/document-analysis-service/pipeline/search"
)

// Stages bundles the three external collaborators a job runs through.
type Stages struct {
	Extractor extraction.Extractor
	Analyzer  analysis.Analyzer
	Searcher  search.Searcher
}

// Submission carries everything a job unit needs to run.
type Submission struct {
	JobID       string
	Filename    string
	ContentType string
	Content     []byte
}

// runner executes one job unit: upload, extraction, analysis, search. It
// checks for cancellation before every stage and before the terminal write,
// so a halted unit never races a late done record.
type runner struct {
	job      Submission
	handle   *Handle
	store    *RecordStore
	registry *Registry
	storage  storage.StorageService
	bucket   string
	stages   Stages
}

func (r *runner) run(ctx context.Context) {
	record := r.process(ctx)
	r.finish(record)
}

func (r *runner) process(ctx context.Context) Record {
	id := r.job.JobID

	if cancelled(ctx) {
		return cancelledRecord()
	}

	objectName := fmt.Sprintf("%s/%s", id, r.job.Filename)
	if _, err := r.storage.Upload(ctx, r.bucket, objectName, r.job.Content, r.job.ContentType); err != nil {
		if ctx.Err() != nil {
			return cancelledRecord()
		}
		log.Error().Err(err).Str("jobID", id).Msg("Failed to store uploaded file")
		return failedRecord(fmt.Sprintf("Failed to store uploaded file: %v", err))
	}
	gcsURI := fmt.Sprintf("gs://%s/%s", r.bucket, objectName)
	log.Info().Str("jobID", id).Str("uri", gcsURI).Msg("Uploaded file to storage")

	if cancelled(ctx) {
		return cancelledRecord()
	}

	// Extraction is the only fatal stage: without text there is nothing for
	// the rest of the pipeline to work on.
	doc, err := r.stages.Extractor.Extract(ctx, gcsURI)
	if err != nil {
		if ctx.Err() != nil {
			return cancelledRecord()
		}
		log.Error().Err(err).Str("jobID", id).Msg("Extraction failed")
		return failedRecord(fmt.Sprintf("Failed to process PDF: %v", err))
	}

	if cancelled(ctx) {
		return cancelledRecord()
	}

	topics, err := r.stages.Analyzer.Analyze(ctx, doc.Text)
	if err != nil {
		if ctx.Err() != nil {
			return cancelledRecord()
		}
		log.Warn().Err(err).Str("jobID", id).Msg("Topic analysis failed, using sentinel topics")
		topics = analysis.SentinelTopics()
	}

	if cancelled(ctx) {
		return cancelledRecord()
	}

	resources, err := r.stages.Searcher.Search(ctx, topics)
	if err != nil {
		if ctx.Err() != nil {
			return cancelledRecord()
		}
		log.Warn().Err(err).Str("jobID", id).Msg("Resource search failed, using sentinel groups")
		resources = search.SentinelGroups()
	}

	if cancelled(ctx) {
		return cancelledRecord()
	}

	return doneRecord(&models.AnalysisResult{
		Filename:  r.job.Filename,
		Text:      doc.Text,
		Pages:     doc.Pages,
		Topics:    topics,
		Resources: resources,
	})
}

// finish writes the terminal record and releases the handle. The release is
// linearized with Cancel and Register through the registry mutex: a halted
// unit records cancelled even if it raced past its last explicit check, and
// a superseded unit writes nothing at all since the newer unit owns the
// record.
func (r *runner) finish(record Record) {
	id := r.job.JobID

	switch r.registry.Release(id, r.handle) {
	case DetachSuperseded:
		log.Info().Str("jobID", id).Msg("Job superseded by a newer submission")
	case DetachHalted:
		r.store.Set(id, cancelledRecord())
		log.Info().Str("jobID", id).Msg("Job cancelled")
	default:
		r.store.Set(id, record)
		log.Info().Str("jobID", id).Str("status", string(record.Status)).Msg("Job finished")
	}
}

func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
