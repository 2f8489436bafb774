package config

import (
	"fmt"
	"os"
	"strconv"
)

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func loadEnvString(key string, result *string) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	*result = s
}

func loadEnvUint(key string, result *uint) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return
	}
	*result = uint(n)
}

func loadEnvInt64(key string, result *int64) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return
	}
	*result = n
}

/* Configuration */

/* Listen Configuration */

type listenConfig struct {
	Host string `json:"host"`
	Port uint   `json:"port"`
}

func (l listenConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

func defaultListenConfig() listenConfig {
	return listenConfig{
		Host: "127.0.0.1",
		Port: 8080,
	}
}

func (l *listenConfig) loadFromEnv() {
	loadEnvString("LISTEN_HOST", &l.Host)
	loadEnvUint("LISTEN_PORT", &l.Port)
}

/* Google Cloud Storage Configuration */

type GCSConfig struct {
	ProjectID       string
	CredentialsFile string
	Bucket          string
}

func (g *GCSConfig) loadFromEnv() {
	g.ProjectID = getEnv("GOOGLE_CLOUD_PROJECT", g.ProjectID)
	g.CredentialsFile = getEnv("GCS_CREDENTIALS_FILE", g.CredentialsFile)
	g.Bucket = getEnv("GCS_BUCKET_NAME", g.Bucket)
}

func defaultGcsConfig() GCSConfig {
	return GCSConfig{
		ProjectID:       "",
		CredentialsFile: "",
		Bucket:          "",
	}
}

/* Document AI Configuration */

type DocumentAIConfig struct {
	ProjectID   string
	Location    string
	ProcessorID string
}

func (d *DocumentAIConfig) loadFromEnv() {
	d.ProjectID = getEnv("GOOGLE_CLOUD_PROJECT", d.ProjectID)
	d.Location = getEnv("DOCUMENT_AI_LOCATION", d.Location)
	d.ProcessorID = getEnv("DOCUMENT_AI_PROCESSOR_ID", d.ProcessorID)
}

func defaultDocumentAIConfig() DocumentAIConfig {
	return DocumentAIConfig{
		ProjectID:   "",
		Location:    "us",
		ProcessorID: "",
	}
}

/* LLM Configuration */

// LLMConfig points the topic analyzer at an OpenAI-compatible
// chat-completions endpoint. Defaults target Groq.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func (l *LLMConfig) loadFromEnv() {
	l.APIKey = getEnv("GROQ_API_KEY", l.APIKey)
	l.BaseURL = getEnv("GROQ_BASE_URL", l.BaseURL)
	l.Model = getEnv("GROQ_MODEL", l.Model)
}

func defaultLLMConfig() LLMConfig {
	return LLMConfig{
		APIKey:  "",
		BaseURL: "https://api.groq.com/openai/v1",
		Model:   "llama-3.3-70b-versatile",
	}
}

/* Resource Search Configuration */

type SearchConfig struct {
	APIKey   string
	Endpoint string
}

func (s *SearchConfig) loadFromEnv() {
	s.APIKey = getEnv("TAVILY_API_KEY", s.APIKey)
	s.Endpoint = getEnv("TAVILY_ENDPOINT", s.Endpoint)
}

func defaultSearchConfig() SearchConfig {
	return SearchConfig{
		APIKey:   "",
		Endpoint: "https://api.tavily.com/search",
	}
}

/* Auth Configuration */

type AuthConfig struct {
	CredentialsFile string
}

func (a *AuthConfig) loadFromEnv() {
	a.CredentialsFile = getEnv("FIREBASE_CREDENTIALS_FILE", a.CredentialsFile)
}

func defaultAuthConfig() AuthConfig {
	return AuthConfig{
		CredentialsFile: "",
	}
}

/* Upload Configuration */

type UploadConfig struct {
	MaxSize int64
}

func (u *UploadConfig) loadFromEnv() {
	loadEnvInt64("MAX_UPLOAD_SIZE", &u.MaxSize)
}

func defaultUploadConfig() UploadConfig {
	return UploadConfig{
		MaxSize: 5 * 1024 * 1024,
	}
}

type Config struct {
	Listen     listenConfig
	GCS        GCSConfig
	DocumentAI DocumentAIConfig
	LLM        LLMConfig
	Search     SearchConfig
	Auth       AuthConfig
	Upload     UploadConfig
}

func (c *Config) LoadFromEnv() {
	c.Listen.loadFromEnv()
	c.GCS.loadFromEnv()
	c.DocumentAI.loadFromEnv()
	c.LLM.loadFromEnv()
	c.Search.loadFromEnv()
	c.Auth.loadFromEnv()
	c.Upload.loadFromEnv()
}

func DefaultConfig() Config {
	return Config{
		Listen:     defaultListenConfig(),
		GCS:        defaultGcsConfig(),
		DocumentAI: defaultDocumentAIConfig(),
		LLM:        defaultLLMConfig(),
		Search:     defaultSearchConfig(),
		Auth:       defaultAuthConfig(),
		Upload:     defaultUploadConfig(),
	}
}
