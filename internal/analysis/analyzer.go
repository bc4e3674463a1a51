package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Vodeneev/footstats/internal/pkg/config"
	"github.com/Vodeneev/footstats/internal/pkg/storage"
)

// ErrNoAPIKey is returned when no key is configured for the completion API.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY is not set")

const systemPrompt = "Tu es un analyste football. Tu dois resumer la situation de l'equipe et du prochain adversaire " +
	"a partir des donnees JSON. Reponds en francais, concis, clair, sans inventer. " +
	"Format Markdown strict: " +
	"## Bilan (3-5 phrases) " +
	"## Points cles (3-6 puces avec '-') " +
	"Si une liste est demandee, reponds en liste Markdown. " +
	"Si une info manque, dis-le clairement. " +
	"Mets en avant les stats entre 70-100% ou 0-30% si elles existent. " +
	"Les listes de matchs sont ordonnees du plus recent au plus ancien. " +
	"Base l'analyse sur stats/streaks (selection) et utilise recentFixtures/recentStats (50 matchs) pour comparer si besoin."

// UpstreamError is a non-2xx answer of the completion API.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion request failed: status %d", e.Status)
}

// Result is one analysis and whether it came from the cache.
type Result struct {
	Analysis string `json:"analysis"`
	Cached   bool   `json:"cached"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Analyzer turns a team statistics payload into a short Markdown summary
// through an OpenAI-compatible chat completion endpoint.
type Analyzer struct {
	cfg    config.AnalysisConfig
	cache  storage.AnalysisCache
	client *http.Client
}

func NewAnalyzer(cfg config.AnalysisConfig, cache storage.AnalysisCache) *Analyzer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if cache == nil {
		cache = storage.NewLRUAnalysisCache(cfg.CacheSize, cfg.CacheTTL)
	}
	return &Analyzer{
		cfg:    cfg,
		cache:  cache,
		client: &http.Client{Timeout: timeout},
	}
}

// Analyze returns the analysis of payload. Identical payloads (after
// whitespace compaction) are answered from the cache.
func (a *Analyzer) Analyze(ctx context.Context, payload json.RawMessage) (*Result, error) {
	if a.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	key, err := cacheKey(payload)
	if err != nil {
		return nil, err
	}
	if v, ok := a.cache.Get(key); ok {
		return &Result{Analysis: v, Cached: true}, nil
	}

	start := time.Now()
	content, err := a.complete(ctx, key)
	if err != nil {
		return nil, err
	}
	a.cache.Add(key, content)
	slog.Info("Team analysis generated",
		"model", a.cfg.Model,
		"payload_bytes", len(key),
		"duration", time.Since(start))
	return &Result{Analysis: content}, nil
}

func (a *Analyzer) complete(ctx context.Context, payload string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Donnees JSON:\n" + payload},
		},
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call completion API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		details, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(details))}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}

// cacheKey compacts payload; an empty payload is "{}".
func cacheKey(payload json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return "{}", nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}
	return buf.String(), nil
}
