package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/studylens/document-analysis-service/common/storage"
)

// processTimeout bounds the wait on a batch operation. Exceeding it is
// reported as an extraction failure.
const processTimeout = 2 * time.Minute

// DocumentAIConfig holds the processor coordinates for Document AI.
type DocumentAIConfig struct {
	ProjectID   string
	Location    string
	ProcessorID string
	Bucket      string
}

func (c DocumentAIConfig) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// DocumentAIExtractor extracts text through a Document AI batch process. The
// input document already lives in GCS; the processor writes its output JSON
// next to it, which is fetched back through the storage service.
type DocumentAIExtractor struct {
	client  *documentai.DocumentProcessorClient
	storage storage.StorageService
	config  DocumentAIConfig
}

// NewDocumentAIExtractor creates an extractor bound to a regional Document AI
// endpoint.
func NewDocumentAIExtractor(ctx context.Context, config DocumentAIConfig, storageService storage.StorageService, opts ...option.ClientOption) (*DocumentAIExtractor, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
	opts = append([]option.ClientOption{option.WithEndpoint(endpoint)}, opts...)

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create document ai client: %w", err)
	}

	return &DocumentAIExtractor{
		client:  client,
		storage: storageService,
		config:  config,
	}, nil
}

// Close releases the underlying client.
func (e *DocumentAIExtractor) Close() error {
	return e.client.Close()
}

// Extract runs a batch process over the uploaded blob and returns the
// extracted text with its page count.
func (e *DocumentAIExtractor) Extract(ctx context.Context, gcsURI string) (Document, error) {
	outputPrefix := fmt.Sprintf("results/%s/", uuid.New().String())
	destinationURI := fmt.Sprintf("gs://%s/%s", e.config.Bucket, outputPrefix)

	req := &documentaipb.BatchProcessRequest{
		Name: e.config.processorName(),
		InputDocuments: &documentaipb.BatchDocumentsInputConfig{
			Source: &documentaipb.BatchDocumentsInputConfig_GcsDocuments{
				GcsDocuments: &documentaipb.GcsDocuments{
					Documents: []*documentaipb.GcsDocument{
						{
							GcsUri:   gcsURI,
							MimeType: "application/pdf",
						},
					},
				},
			},
		},
		DocumentOutputConfig: &documentaipb.DocumentOutputConfig{
			Destination: &documentaipb.DocumentOutputConfig_GcsOutputConfig_{
				GcsOutputConfig: &documentaipb.DocumentOutputConfig_GcsOutputConfig{
					GcsUri: destinationURI,
				},
			},
		},
	}

	op, err := e.client.BatchProcessDocuments(ctx, req)
	if err != nil {
		return Document{}, fmt.Errorf("%w: start batch process: %v", ErrExtractionFailed, err)
	}
	log.Info().Str("operation", op.Name()).Str("input", gcsURI).Msg("Started batch process operation")

	waitCtx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	if _, err := op.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			// Propagate cancellation of the job itself untouched.
			return Document{}, ctx.Err()
		}
		return Document{}, fmt.Errorf("%w: document processing timed out: %v", ErrExtractionFailed, err)
	}

	meta, err := op.Metadata()
	if err != nil {
		return Document{}, fmt.Errorf("%w: read batch metadata: %v", ErrExtractionFailed, err)
	}
	if meta.GetState() != documentaipb.BatchProcessMetadata_SUCCEEDED {
		return Document{}, fmt.Errorf("%w: batch process failed: %s", ErrExtractionFailed, meta.GetStateMessage())
	}

	statuses := meta.GetIndividualProcessStatuses()
	if len(statuses) == 0 {
		return Document{}, fmt.Errorf("%w: no processing results found", ErrExtractionFailed)
	}

	outputBucket, outputObjectPrefix, err := parseGCSURI(statuses[0].GetOutputGcsDestination())
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	return e.fetchOutputDocument(ctx, outputBucket, outputObjectPrefix)
}

func (e *DocumentAIExtractor) fetchOutputDocument(ctx context.Context, bucket, prefix string) (Document, error) {
	names, err := e.storage.List(ctx, bucket, prefix)
	if err != nil {
		return Document{}, fmt.Errorf("%w: list output objects: %v", ErrExtractionFailed, err)
	}

	for _, name := range names {
		if !strings.Contains(name, ".json") {
			continue
		}
		log.Debug().Str("object", name).Msg("Processing output file")

		data, err := e.storage.Download(ctx, bucket, name)
		if err != nil {
			return Document{}, fmt.Errorf("%w: download output object: %v", ErrExtractionFailed, err)
		}

		var doc documentaipb.Document
		unmarshal := protojson.UnmarshalOptions{DiscardUnknown: true}
		if err := unmarshal.Unmarshal(data, &doc); err != nil {
			return Document{}, fmt.Errorf("%w: decode output document: %v", ErrExtractionFailed, err)
		}

		return Document{
			Text:  doc.GetText(),
			Pages: len(doc.GetPages()),
		}, nil
	}

	return Document{}, fmt.Errorf("%w: no output document found", ErrExtractionFailed)
}

// parseGCSURI splits gs://bucket/prefix into its bucket and object prefix.
func parseGCSURI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("invalid output destination: %s", uri)
	}
	bucket, prefix, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" {
		return "", "", fmt.Errorf("invalid output destination: %s", uri)
	}
	return bucket, prefix, nil
}

var _ Extractor = (*DocumentAIExtractor)(nil)
