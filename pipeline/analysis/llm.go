package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/studylens/document-analysis-service/common/models"
)

const (
	// maxPromptChars caps how much of the document is sent to the model.
	maxPromptChars = 4000

	temperature = 0.3
	maxTokens   = 1000
)

const promptTemplate = `
Analyze this text and extract exactly 5 main topics. For each topic, provide:
1. Topic name (clear and concise)
2. Brief description (1-2 sentences)
3. Keywords (3-5 relevant search terms)

Text: %s

Format the response as JSON:
{
    "topics": [
        {
            "name": "Topic name",
            "description": "Brief description of the topic",
            "keywords": ["keyword1", "keyword2", "keyword3"]
        }
    ]
}
`

// codeFence matches a fenced block so the JSON can be pulled out of a chatty
// model reply.
var codeFence = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// LLMConfig configures the chat-completions backend.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// LLMAnalyzer asks an OpenAI-compatible chat model for the document topics.
type LLMAnalyzer struct {
	client openai.Client
	model  string
}

// NewLLMAnalyzer creates an analyzer against the configured endpoint.
func NewLLMAnalyzer(config LLMConfig) *LLMAnalyzer {
	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &LLMAnalyzer{
		client: openai.NewClient(opts...),
		model:  config.Model,
	}
}

// Analyze extracts up to 5 topics from the text. Callers are expected to
// substitute SentinelTopics on error; this stage is never fatal to a job.
func (a *LLMAnalyzer) Analyze(ctx context.Context, text string) ([]models.Topic, error) {
	text = truncatePrompt(text)

	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(fmt.Sprintf(promptTemplate, text)),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	return parseTopics(completion.Choices[0].Message.Content)
}

// truncatePrompt caps the document text at maxPromptChars without splitting
// a multi-byte rune at the cut point.
func truncatePrompt(text string) string {
	if len(text) <= maxPromptChars {
		return text
	}
	cut := maxPromptChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func parseTopics(reply string) ([]models.Topic, error) {
	var parsed struct {
		Topics []models.Topic `json:"topics"`
	}
	if err := json.Unmarshal([]byte(extractJSON(reply)), &parsed); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	if len(parsed.Topics) == 0 {
		return nil, fmt.Errorf("no topics in model reply")
	}
	return parsed.Topics, nil
}

// extractJSON returns the contents of the first fenced block, or the whole
// reply when the model answered with bare JSON.
func extractJSON(reply string) string {
	if m := codeFence.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(reply)
}

var _ Analyzer = (*LLMAnalyzer)(nil)
