// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package builtin

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/teradata-labs/insight/pkg/observability"
	"github.com/teradata-labs/insight/pkg/shuttle"
)

// Default web search API endpoints.
const (
	DefaultTavilyEndpoint  = "https://api.tavily.com/search"
	DefaultBraveEndpoint   = "https://api.search.brave.com/res/v1/web/search"
	DefaultSerpAPIEndpoint = "https://serpapi.com/search"
	DefaultSearchTimeout   = 15 * time.Second

	// MaxSearchResults caps the results returned to the model.
	MaxSearchResults = 5

	maxSnippetLen = 500
)

// Provider names.
const (
	ProviderTavily  = "tavily"
	ProviderBrave   = "brave"
	ProviderSerpAPI = "serpapi"
)

// NotConfiguredMessage is returned when no provider has an API key.
const NotConfiguredMessage = "Web search is not configured. Set a Tavily, Brave or SerpAPI API key to enable it."

// SearchConfig configures the web search tool.
type SearchConfig struct {
	Primary   string `mapstructure:"primary" yaml:"primary"`
	Secondary string `mapstructure:"secondary" yaml:"secondary"`

	TavilyAPIKey  string `mapstructure:"tavily_api_key" yaml:"tavily_api_key,omitempty"`
	BraveAPIKey   string `mapstructure:"brave_api_key" yaml:"brave_api_key,omitempty"`
	SerpAPIAPIKey string `mapstructure:"serpapi_api_key" yaml:"serpapi_api_key,omitempty"`

	TavilyEndpoint  string `mapstructure:"tavily_endpoint" yaml:"tavily_endpoint,omitempty"`
	BraveEndpoint   string `mapstructure:"brave_endpoint" yaml:"brave_endpoint,omitempty"`
	SerpAPIEndpoint string `mapstructure:"serpapi_endpoint" yaml:"serpapi_endpoint,omitempty"`

	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// FillFromEnv fills unset API keys from the conventional provider variables.
func (c *SearchConfig) FillFromEnv() {
	if c.TavilyAPIKey == "" {
		c.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
	}
	if c.BraveAPIKey == "" {
		c.BraveAPIKey = firstEnv("BRAVE_API_KEY", "BRAVE_SEARCH_API_KEY")
	}
	if c.SerpAPIAPIKey == "" {
		c.SerpAPIAPIKey = firstEnv("SERPAPI_KEY", "SERPAPI_API_KEY")
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// SearchResult is one normalized hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchProvider is one web search backend.
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// WebSearcher tries the primary provider and falls back to the secondary
// when the primary is unconfigured, fails or finds nothing.
type WebSearcher struct {
	chain  []SearchProvider
	logger *zap.Logger
}

// NewWebSearcher builds the provider chain. Providers without a key are left
// out. Empty Primary/Secondary default to tavily and brave.
func NewWebSearcher(cfg SearchConfig, logger *zap.Logger) *WebSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}
	client := resty.New().
		SetHeader("User-Agent", "insight/1.0").
		SetTimeout(timeout).
		SetRetryCount(0)

	primary, secondary := strings.ToLower(cfg.Primary), strings.ToLower(cfg.Secondary)
	if primary == "" {
		primary = ProviderTavily
	}
	if secondary == "" {
		secondary = ProviderBrave
		if primary == ProviderBrave {
			secondary = ProviderTavily
		}
	}

	w := &WebSearcher{logger: logger}
	for _, name := range []string{primary, secondary} {
		p := newProvider(name, cfg, client)
		if p == nil {
			logger.Debug("skipping search provider", zap.String("provider", name))
			continue
		}
		if len(w.chain) == 1 && w.chain[0].Name() == p.Name() {
			continue
		}
		w.chain = append(w.chain, p)
	}
	return w
}

// NewWebSearcherWithProviders builds a searcher from explicit providers, in
// fallback order.
func NewWebSearcherWithProviders(logger *zap.Logger, providers ...SearchProvider) *WebSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSearcher{chain: providers, logger: logger}
}

func newProvider(name string, cfg SearchConfig, client *resty.Client) SearchProvider {
	switch name {
	case ProviderTavily:
		if cfg.TavilyAPIKey == "" {
			return nil
		}
		return &tavilyProvider{client: client, apiKey: cfg.TavilyAPIKey, endpoint: orDefault(cfg.TavilyEndpoint, DefaultTavilyEndpoint)}
	case ProviderBrave:
		if cfg.BraveAPIKey == "" {
			return nil
		}
		return &braveProvider{client: client, apiKey: cfg.BraveAPIKey, endpoint: orDefault(cfg.BraveEndpoint, DefaultBraveEndpoint)}
	case ProviderSerpAPI:
		if cfg.SerpAPIAPIKey == "" {
			return nil
		}
		return &serpAPIProvider{client: client, apiKey: cfg.SerpAPIAPIKey, endpoint: orDefault(cfg.SerpAPIEndpoint, DefaultSerpAPIEndpoint)}
	default:
		return nil
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Configured reports whether any provider has a key.
func (w *WebSearcher) Configured() bool {
	return len(w.chain) > 0
}

// Providers returns the provider names in fallback order.
func (w *WebSearcher) Providers() []string {
	names := make([]string, len(w.chain))
	for i, p := range w.chain {
		names[i] = p.Name()
	}
	return names
}

// Search runs the fallback chain and returns a tool result.
func (w *WebSearcher) Search(ctx context.Context, query string) *shuttle.Result {
	if !w.Configured() {
		return shuttle.Success(map[string]any{
			"results": []SearchResult{},
			"message": NotConfiguredMessage,
		})
	}

	var (
		lastErr  error
		answered bool
	)
	for _, p := range w.chain {
		results, err := p.Search(ctx, query, MaxSearchResults)
		observability.RecordSearch(p.Name(), err)
		if err != nil {
			lastErr = err
			w.logger.Warn("search provider failed, trying next provider", zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		answered = true
		if len(results) == 0 {
			w.logger.Debug("search provider returned no results", zap.String("provider", p.Name()))
			continue
		}
		if len(results) > MaxSearchResults {
			results = results[:MaxSearchResults]
		}
		return shuttle.Success(map[string]any{
			"results":  results,
			"provider": p.Name(),
			"message":  fmt.Sprintf("Found %d results", len(results)),
		})
	}

	if !answered {
		return shuttle.Failure(shuttle.CodeExecutionFailed,
			fmt.Sprintf("web search failed: %v", lastErr),
			"Answer from warehouse data, or try a simpler search query.",
			map[string]any{"providers": w.Providers()})
	}
	return shuttle.Success(map[string]any{
		"results": []SearchResult{},
		"message": "No results found",
	})
}

type tavilyProvider struct {
	client   *resty.Client
	apiKey   string
	endpoint string
}

func (p *tavilyProvider) Name() string { return ProviderTavily }

func (p *tavilyProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	var res struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"api_key":      p.apiKey,
			"query":        query,
			"search_depth": "basic",
			"max_results":  maxResults,
		}).
		SetResult(&res).
		Post(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tavily API error (status %d): %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	out := make([]SearchResult, 0, len(res.Results))
	for _, r := range res.Results {
		out = append(out, SearchResult{Title: r.Title, URL: r.URL, Snippet: truncate(r.Content, maxSnippetLen)})
	}
	return out, nil
}

type braveProvider struct {
	client   *resty.Client
	apiKey   string
	endpoint string
}

func (p *braveProvider) Name() string { return ProviderBrave }

func (p *braveProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	var res struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("X-Subscription-Token", p.apiKey).
		SetQueryParams(map[string]string{
			"q":     query,
			"count": strconv.Itoa(maxResults),
		}).
		SetResult(&res).
		Get(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("brave request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("brave API error (status %d): %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	out := make([]SearchResult, 0, len(res.Web.Results))
	for _, r := range res.Web.Results {
		out = append(out, SearchResult{Title: r.Title, URL: r.URL, Snippet: truncate(r.Description, maxSnippetLen)})
	}
	return out, nil
}

type serpAPIProvider struct {
	client   *resty.Client
	apiKey   string
	endpoint string
}

func (p *serpAPIProvider) Name() string { return ProviderSerpAPI }

func (p *serpAPIProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	var res struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":       query,
			"api_key": p.apiKey,
			"num":     strconv.Itoa(maxResults),
			"engine":  "google",
		}).
		SetResult(&res).
		Get(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("serpapi request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("serpapi error (status %d): %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	out := make([]SearchResult, 0, len(res.OrganicResults))
	for _, r := range res.OrganicResults {
		out = append(out, SearchResult{Title: r.Title, URL: r.Link, Snippet: truncate(r.Snippet, maxSnippetLen)})
	}
	return out, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
