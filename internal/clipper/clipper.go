package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"meal-board/internal/llm"
	"meal-board/internal/recipe"
	"meal-board/internal/shared"
)

// maxContentRunes caps the page text sent to the model.
const maxContentRunes = 20000

// UsageRecorder persists token usage of a model call.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// Draft is a recipe extracted from a web page, ready to be stored as a trial
// recipe.
type Draft struct {
	Name        string              `json:"name"`
	Ingredients []recipe.Ingredient `json:"ingredients"`
	SourceURL   string              `json:"sourceUrl"`
}

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	textGen    llm.TextGenerator
	usage      UsageRecorder
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClipper creates a new Clipper instance. usage may be nil.
func NewClipper(textGen llm.TextGenerator, usage UsageRecorder, logger *zap.Logger) *Clipper {
	return &Clipper{
		textGen:    textGen,
		usage:      usage,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// IsURL reports whether text is a single absolute http(s) URL.
func IsURL(text string) bool {
	text = strings.TrimSpace(text)
	if strings.ContainsAny(text, " \n\t") {
		return false
	}
	u, err := url.Parse(text)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ClipURL fetches the URL and extracts the recipe name and ingredients using AI.
func (c *Clipper) ClipURL(ctx context.Context, pageURL string) (*Draft, error) {
	content, err := c.fetchAndCleanHTML(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe from the following page text.
Return the result strictly as a JSON object with this structure:
{
  "name": "Recipe Name",
  "ingredients": [{"name": "onion", "quantity": 2, "unit": "pcs"}, ...]
}
Rules:
- "name" of an ingredient is lower case and singular, without preparation notes.
- "quantity" is a positive number; convert fractions to decimals.
- "unit" is a short unit such as g, kg, ml, l, tbsp, tsp, cups, cans or pcs.

Page text:
%s
`, content)

	start := time.Now()
	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}
	c.recordUsage(ctx, resp.Usage, time.Since(start))

	draft, err := parseDraft(resp.Content)
	if err != nil {
		return nil, err
	}
	draft.SourceURL = pageURL
	return draft, nil
}

func (c *Clipper) recordUsage(ctx context.Context, usage shared.TokenUsage, latency time.Duration) {
	if c.usage == nil {
		return
	}
	meta := shared.AgentMeta{AgentName: "clipper", Usage: usage, Latency: latency}
	if err := c.usage.RecordMeta(ctx, meta); err != nil {
		c.logger.Warn("Failed to record clipper usage", zap.Error(err))
	}
}

func parseDraft(content string) (*Draft, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var draft Draft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, content)
	}

	draft.Name = strings.TrimSpace(draft.Name)
	if draft.Name == "" {
		return nil, fmt.Errorf("no recipe found on page")
	}

	valid := draft.Ingredients[:0]
	for _, ing := range draft.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		ing.Unit = strings.TrimSpace(ing.Unit)
		if ing.Validate() == nil {
			valid = append(valid, ing)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no usable ingredients found for %q", draft.Name)
	}
	draft.Ingredients = valid
	return &draft, nil
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if r := []rune(text); len(r) > maxContentRunes {
		text = string(r[:maxContentRunes])
	}
	return text, nil
}
