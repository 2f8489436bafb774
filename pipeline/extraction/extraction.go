// Package extraction wraps the document text-extraction backend.
package extraction

import (
	"context"
	"errors"
)

// ErrExtractionFailed marks any failure of the extraction backend. The job
// runner treats it as fatal because every downstream stage depends on the
// extracted text.
var ErrExtractionFailed = errors.New("extraction failed")

// Document is the extraction output.
type Document struct {
	Text  string
	Pages int
}

// Extractor extracts text from an uploaded document blob.
type Extractor interface {
	Extract(ctx context.Context, gcsURI string) (Document, error)
}
