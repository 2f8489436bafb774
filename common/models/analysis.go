package models

// Topic is one theme the analyzer extracted from the document text.
type Topic struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Resource is a single search hit tied back to the topic that produced it.
type Resource struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content,omitempty"`
	Score   float64 `json:"score"`
	Type    string  `json:"type,omitempty"`
	Topic   string  `json:"topic"`
}

// ResourceGroups holds search hits classified by medium, plus the topic
// names the search was asked for.
type ResourceGroups struct {
	Articles []Resource `json:"articles"`
	Videos   []Resource `json:"videos"`
	Courses  []Resource `json:"courses"`
	Topics   []string   `json:"topics"`
}

// AnalysisResult is the full output of one completed job.
type AnalysisResult struct {
	Filename  string         `json:"filename"`
	Text      string         `json:"text"`
	Pages     int            `json:"pages"`
	Topics    []Topic        `json:"topics"`
	Resources ResourceGroups `json:"resources"`
}
