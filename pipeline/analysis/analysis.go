// Package analysis wraps the topic-extraction language model.
package analysis

import (
	"context"

	"github.com/studylens/document-analysis-service/common/models"
)

// Analyzer derives the main topics of a piece of extracted text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) ([]models.Topic, error)
}

// SentinelTopics is the degraded placeholder substituted when the analysis
// stage fails. The job still completes with this single error topic.
func SentinelTopics() []models.Topic {
	return []models.Topic{
		{
			Name:        "Error analyzing text",
			Description: "Failed to process document",
			Keywords:    []string{"error"},
		},
	}
}
