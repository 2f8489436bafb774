package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/studylens/document-analysis-service/common/models"
)

const (
	requestTimeout = 30 * time.Second

	// resultsPerTopic is how many hits the provider is asked for per query.
	resultsPerTopic = 3
)

// includeDomains restricts provider results to known learning platforms.
var includeDomains = []string{
	"coursera.org", "udemy.com", "edx.org",
	"youtube.com", "github.com", "medium.com",
	"dev.to", "arxiv.org", "scholar.google.com",
}

// TavilyConfig configures the Tavily search client.
type TavilyConfig struct {
	APIKey   string
	Endpoint string
}

// TavilySearcher queries the Tavily REST API once per topic and groups the
// combined results.
type TavilySearcher struct {
	config     TavilyConfig
	httpClient *http.Client
}

// NewTavilySearcher creates a searcher with its own bounded HTTP client.
func NewTavilySearcher(config TavilyConfig) *TavilySearcher {
	return &TavilySearcher{
		config: config,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type tavilyRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Type    string  `json:"type"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

// Search queries the provider for each topic concurrently. A failed topic
// query is skipped rather than failing the whole stage; callers substitute
// SentinelGroups only when Search itself returns an error.
func (s *TavilySearcher) Search(ctx context.Context, topics []models.Topic) (models.ResourceGroups, error) {
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}

	var (
		mu        sync.Mutex
		resources []models.Resource
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, topic := range topics {
		g.Go(func() error {
			results, err := s.queryTopic(gctx, topic)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Err(err).Str("topic", topic.Name).Msg("Topic search failed, skipping")
				return nil
			}
			mu.Lock()
			resources = append(resources, results...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.ResourceGroups{}, err
	}

	return GroupResources(resources, topics), nil
}

// queryTopic issues one search combining the topic name and its keywords.
func (s *TavilySearcher) queryTopic(ctx context.Context, topic models.Topic) ([]models.Resource, error) {
	payload := tavilyRequest{
		Query:          fmt.Sprintf("%s %s", topic.Name, strings.Join(topic.Keywords, " ")),
		SearchDepth:    "advanced",
		MaxResults:     resultsPerTopic,
		IncludeDomains: includeDomains,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status from search provider: %s", resp.Status)
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	resources := make([]models.Resource, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		resources = append(resources, models.Resource{
			URL:     r.URL,
			Title:   r.Title,
			Content: r.Content,
			Score:   r.Score,
			Type:    r.Type,
			Topic:   topic.Name,
		})
	}
	return resources, nil
}

var _ Searcher = (*TavilySearcher)(nil)
