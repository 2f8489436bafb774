package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studylens/document-analysis-service/common/models"
	"github.com/studylens/document-analysis-service/pipeline/analysis"
	"github.com/studylens/document-analysis-service/pipeline/extraction"
	"github.com/studylens/document-analysis-service/pipeline/search"
)

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) key(bucket, name string) string {
	return bucket + "/" + name
}

func (m *memStorage) Upload(ctx context.Context, bucket, name string, content []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[m.key(bucket, name)] = content
	return name, nil
}

func (m *memStorage) Download(ctx context.Context, bucket, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[m.key(bucket, name)]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", name)
	}
	return data, nil
}

func (m *memStorage) Delete(ctx context.Context, bucket, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.key(bucket, name)
	_, ok := m.objects[key]
	delete(m.objects, key)
	return ok, nil
}

func (m *memStorage) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	return nil, nil
}

func (m *memStorage) has(bucket, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[m.key(bucket, name)]
	return ok
}

type stubExtractor func(ctx context.Context, gcsURI string) (extraction.Document, error)

func (f stubExtractor) Extract(ctx context.Context, gcsURI string) (extraction.Document, error) {
	return f(ctx, gcsURI)
}

type stubAnalyzer func(ctx context.Context, text string) ([]models.Topic, error)

func (f stubAnalyzer) Analyze(ctx context.Context, text string) ([]models.Topic, error) {
	return f(ctx, text)
}

type stubSearcher func(ctx context.Context, topics []models.Topic) (models.ResourceGroups, error)

func (f stubSearcher) Search(ctx context.Context, topics []models.Topic) (models.ResourceGroups, error) {
	return f(ctx, topics)
}

func okStages() Stages {
	return Stages{
		Extractor: stubExtractor(func(ctx context.Context, gcsURI string) (extraction.Document, error) {
			return extraction.Document{Text: "extracted text", Pages: 3}, nil
		}),
		Analyzer: stubAnalyzer(func(ctx context.Context, text string) ([]models.Topic, error) {
			return []models.Topic{{Name: "Topic A", Description: "desc", Keywords: []string{"a", "b", "c"}}}, nil
		}),
		Searcher: stubSearcher(func(ctx context.Context, topics []models.Topic) (models.ResourceGroups, error) {
			return search.GroupResources(nil, topics), nil
		}),
	}
}

func newTestService(storage *memStorage, stages Stages) *Service {
	return NewService(context.Background(), storage, "test-bucket", stages)
}

func submission(id string) Submission {
	return Submission{
		JobID:       id,
		Filename:    "notes.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.4"),
	}
}

// waitTerminal polls the service until the job leaves processing.
func waitTerminal(t *testing.T, svc *Service, id string) Record {
	t.Helper()
	var record Record
	require.Eventually(t, func() bool {
		r, ok := svc.Status(id)
		if !ok {
			return false
		}
		record = r
		return r.Status != StatusProcessing
	}, 2*time.Second, 5*time.Millisecond)
	return record
}

func TestStatusNeverSubmitted(t *testing.T) {
	svc := newTestService(newMemStorage(), okStages())

	_, ok := svc.Status("never-submitted")
	assert.False(t, ok)
}

func TestSubmitRequiresJobID(t *testing.T) {
	svc := newTestService(newMemStorage(), okStages())

	err := svc.Submit(Submission{})
	assert.ErrorIs(t, err, ErrMissingJobID)
}

func TestJobRunsToCompletion(t *testing.T) {
	store := newMemStorage()
	svc := newTestService(store, okStages())

	require.NoError(t, svc.Submit(submission("job-1")))

	record := waitTerminal(t, svc, "job-1")
	assert.Equal(t, StatusDone, record.Status)
	assert.Empty(t, record.Error)

	require.NotNil(t, record.Result)
	assert.Equal(t, "notes.pdf", record.Result.Filename)
	assert.Equal(t, "extracted text", record.Result.Text)
	assert.Equal(t, 3, record.Result.Pages)
	assert.Equal(t, []string{"Topic A"}, record.Result.Resources.Topics)

	// The uploaded blob landed under {jobID}/{filename}.
	assert.True(t, store.has("test-bucket", "job-1/notes.pdf"))

	// The finished unit released its handle.
	assert.False(t, svc.Halt("job-1"))
}

func TestExtractionFailureIsFatal(t *testing.T) {
	stages := okStages()
	stages.Extractor = stubExtractor(func(ctx context.Context, gcsURI string) (extraction.Document, error) {
		return extraction.Document{}, fmt.Errorf("%w: backend exploded", extraction.ErrExtractionFailed)
	})
	svc := newTestService(newMemStorage(), stages)

	require.NoError(t, svc.Submit(submission("job-1")))

	record := waitTerminal(t, svc, "job-1")
	assert.Equal(t, StatusFailed, record.Status)
	assert.Nil(t, record.Result)
	assert.Contains(t, record.Error, "Failed to process PDF")
}

func TestAnalysisFailureDegradesToSentinelTopics(t *testing.T) {
	var searched []models.Topic
	stages := okStages()
	stages.Analyzer = stubAnalyzer(func(ctx context.Context, text string) ([]models.Topic, error) {
		return nil, errors.New("model returned garbage")
	})
	stages.Searcher = stubSearcher(func(ctx context.Context, topics []models.Topic) (models.ResourceGroups, error) {
		searched = topics
		return search.GroupResources(nil, topics), nil
	})
	svc := newTestService(newMemStorage(), stages)

	require.NoError(t, svc.Submit(submission("job-1")))

	record := waitTerminal(t, svc, "job-1")
	assert.Equal(t, StatusDone, record.Status)
	require.NotNil(t, record.Result)
	assert.Equal(t, analysis.SentinelTopics(), record.Result.Topics)

	// The search stage still ran, fed with the sentinel topic.
	assert.Equal(t, analysis.SentinelTopics(), searched)
	assert.Equal(t, []string{"Error analyzing text"}, record.Result.Resources.Topics)
}

func TestSearchFailureDegradesToSentinelGroups(t *testing.T) {
	stages := okStages()
	stages.Searcher = stubSearcher(func(ctx context.Context, topics []models.Topic) (models.ResourceGroups, error) {
		return models.ResourceGroups{}, errors.New("provider down")
	})
	svc := newTestService(newMemStorage(), stages)

	require.NoError(t, svc.Submit(submission("job-1")))

	record := waitTerminal(t, svc, "job-1")
	assert.Equal(t, StatusDone, record.Status)
	require.NotNil(t, record.Result)

	// Topics from the healthy analysis stage survive; only resources degrade.
	assert.Equal(t, "Topic A", record.Result.Topics[0].Name)
	assert.Equal(t, search.SentinelGroups(), record.Result.Resources)
}

func TestHaltWithoutActiveUnit(t *testing.T) {
	svc := newTestService(newMemStorage(), okStages())

	assert.False(t, svc.Halt("nothing-running"))
}

func TestHaltCancelsActiveUnit(t *testing.T) {
	started := make(chan struct{})
	stages := okStages()
	stages.Extractor = stubExtractor(func(ctx context.Context, gcsURI string) (extraction.Document, error) {
		close(started)
		<-ctx.Done()
		return extraction.Document{}, ctx.Err()
	})
	svc := newTestService(newMemStorage(), stages)

	require.NoError(t, svc.Submit(submission("job-1")))
	<-started

	require.True(t, svc.Halt("job-1"))

	record := waitTerminal(t, svc, "job-1")
	assert.Equal(t, StatusCancelled, record.Status)
	assert.Nil(t, record.Result)
	assert.Equal(t, "Processing was cancelled.", record.Error)

	// The record stays cancelled; the halted unit never writes done or failed.
	time.Sleep(50 * time.Millisecond)
	record, ok := svc.Status("job-1")
	require.True(t, ok)
	assert.Equal(t, StatusCancelled, record.Status)

	assert.False(t, svc.Halt("job-1"))
}

func TestResubmitSupersedesActiveUnit(t *testing.T) {
	var calls atomic.Int64
	firstStarted := make(chan struct{})
	stages := okStages()
	stages.Extractor = stubExtractor(func(ctx context.Context, gcsURI string) (extraction.Document, error) {
		if calls.Add(1) == 1 {
			close(firstStarted)
			<-ctx.Done()
			return extraction.Document{}, ctx.Err()
		}
		return extraction.Document{Text: "second submission", Pages: 1}, nil
	})
	svc := newTestService(newMemStorage(), stages)

	require.NoError(t, svc.Submit(submission("job-1")))
	<-firstStarted

	// Second submission under the same ID cancels the first unit.
	require.NoError(t, svc.Submit(submission("job-1")))

	record := waitTerminal(t, svc, "job-1")
	assert.Equal(t, StatusDone, record.Status)
	require.NotNil(t, record.Result)
	assert.Equal(t, "second submission", record.Result.Text)

	// The superseded unit must not clobber the record after the fact.
	time.Sleep(50 * time.Millisecond)
	record, ok := svc.Status("job-1")
	require.True(t, ok)
	assert.Equal(t, StatusDone, record.Status)
	assert.Equal(t, "second submission", record.Result.Text)
}

func TestResubmitAfterHaltKeepsNewRecord(t *testing.T) {
	var calls atomic.Int64
	firstStarted := make(chan struct{})
	firstRelease := make(chan struct{})
	stages := okStages()
	stages.Extractor = stubExtractor(func(ctx context.Context, gcsURI string) (extraction.Document, error) {
		if calls.Add(1) == 1 {
			close(firstStarted)
			// Ignore cancellation until the test lets go, so the halted
			// unit reaches its terminal write only after the resubmission
			// has finished.
			<-firstRelease
			return extraction.Document{}, ctx.Err()
		}
		return extraction.Document{Text: "second submission", Pages: 1}, nil
	})
	svc := newTestService(newMemStorage(), stages)

	require.NoError(t, svc.Submit(submission("job-1")))
	<-firstStarted

	require.True(t, svc.Halt("job-1"))
	require.NoError(t, svc.Submit(submission("job-1")))

	record := waitTerminal(t, svc, "job-1")
	require.Equal(t, StatusDone, record.Status)
	require.NotNil(t, record.Result)
	assert.Equal(t, "second submission", record.Result.Text)

	// The halted first unit winds down last; it must not write cancelled
	// over the second submission's record.
	close(firstRelease)
	time.Sleep(50 * time.Millisecond)
	record, ok := svc.Status("job-1")
	require.True(t, ok)
	assert.Equal(t, StatusDone, record.Status)
	assert.Equal(t, "second submission", record.Result.Text)
}

func TestDeleteUpload(t *testing.T) {
	store := newMemStorage()
	svc := newTestService(store, okStages())

	require.NoError(t, svc.Submit(submission("job-1")))
	waitTerminal(t, svc, "job-1")

	existed, err := svc.DeleteUpload(context.Background(), "job-1", "notes.pdf")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = svc.DeleteUpload(context.Background(), "job-1", "notes.pdf")
	require.NoError(t, err)
	assert.False(t, existed)
}
