// Package llm asks an OpenAI model to propose a section breakdown for a document.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/models"
)

const (
	DefaultSamplePages = 10
	DefaultSampleChars = 1000
)

// ErrMissingAPIKey is returned when no OpenAI key is configured.
var ErrMissingAPIKey = errors.New("OpenAI API key is not configured")

var suggestedSectionsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"sections": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":        "string",
						"description": "Descriptive name for the section",
					},
					"start_page": map[string]any{
						"type":        "integer",
						"description": "Starting page number (1-indexed)",
					},
					"end_page": map[string]any{
						"type":        "integer",
						"description": "Ending page number (1-indexed)",
					},
				},
				"required":             []string{"name", "start_page", "end_page"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"sections"},
	"additionalProperties": false,
}

// PageSource is the read side of a loaded document.
type PageSource interface {
	PageCount() int
	PageText(pageNr int) (string, error)
}

// SuggestOptions control how much of the document is shown to the model.
type SuggestOptions struct {
	Model       string
	SamplePages int
	SampleChars int
}

func (o SuggestOptions) withDefaults() SuggestOptions {
	if o.SamplePages <= 0 {
		o.SamplePages = DefaultSamplePages
	}
	if o.SampleChars <= 0 {
		o.SampleChars = DefaultSampleChars
	}
	return o
}

type suggestionResponse struct {
	Sections []models.SuggestedSection `json:"sections"`
}

// SuggestSections samples the first pages of doc and returns the model's
// proposed sections. The ranges are returned as given; callers validate them.
func SuggestSections(ctx context.Context, apiKey string, doc PageSource, opts SuggestOptions, log logger.Logger) ([]models.SuggestedSection, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	opts = opts.withDefaults()

	samples, err := SamplePages(doc, opts.SamplePages, opts.SampleChars)
	if err != nil {
		return nil, err
	}
	prompt := BuildPrompt(samples, doc.PageCount())
	log.Info("Requesting section suggestions from %d sampled pages", len(samples))

	model := shared.ChatModelGPT5Mini
	if opts.Model != "" {
		model = shared.ChatModel(opts.Model)
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))

	estimatedTokens := promptOverheadTokens + len(samples)*estimatedTokensPerPage
	output, err := RateLimitedCall(ctx, estimatedTokens, log, func(ctx context.Context) (string, error) {
		response, err := client.Responses.New(ctx, responses.ResponseNewParams{
			Model: model,
			Input: responses.ResponseNewParamsInputUnion{
				OfInputItemList: responses.ResponseInputParam{
					responses.ResponseInputItemParamOfMessage(
						responses.ResponseInputMessageContentListParam{
							responses.ResponseInputContentParamOfInputText(prompt),
						},
						"user",
					),
				},
			},
			Text: responses.ResponseTextConfigParam{
				Format: responses.ResponseFormatTextConfigParamOfJSONSchema("suggested_sections", suggestedSectionsSchema),
			},
		})
		if err != nil {
			return "", err
		}
		return response.OutputText(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("section suggestion request failed: %w", err)
	}

	suggestions, err := parseSuggestions(output)
	if err != nil {
		return nil, err
	}
	log.Info("Model suggested %d sections", len(suggestions))
	return suggestions, nil
}

// SamplePages returns "Page i: <text>" for the first min(PageCount, maxPages)
// pages, each page's text cut to maxChars characters.
func SamplePages(doc PageSource, maxPages, maxChars int) ([]string, error) {
	count := min(doc.PageCount(), maxPages)
	samples := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read text of page %d: %w", i, err)
		}
		samples = append(samples, fmt.Sprintf("Page %d: %s", i, truncate(text, maxChars)))
	}
	return samples, nil
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}

// BuildPrompt renders the suggestion request for the given samples.
func BuildPrompt(samples []string, pageCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on the following text samples from the first %d pages of a PDF document, suggest a logical breakdown of sections. ", len(samples))
	fmt.Fprintf(&b, "Return the start and end pages for each major section or chapter you can identify. The document has %d total pages.\n\n", pageCount)
	b.WriteString("Samples:\n")
	b.WriteString(strings.Join(samples, "\n\n"))
	fmt.Fprintf(&b, "\n\nCurrent total pages: %d", pageCount)
	return b.String()
}

func parseSuggestions(output string) ([]models.SuggestedSection, error) {
	var parsed suggestionResponse
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse section suggestions: %w", err)
	}
	if parsed.Sections == nil {
		return []models.SuggestedSection{}, nil
	}
	return parsed.Sections, nil
}
