// Package suggest generates free-text remediation advice for completed audit
// sections.
package suggest

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/sitelens/sitelens/internal/logging"
)

// Fallback is attached to a section when its generation attempt fails.
const Fallback = "AI suggestion could not be generated."

// Generator produces advice text for one section of a scan record.
type Generator interface {
	Generate(ctx context.Context, section string, findings any) (string, error)
}

var boldRe = regexp.MustCompile(`\*\*(.*?)\*\*`)

// StripBold removes markdown bold artifacts the model sometimes emits
// despite the plain-text instruction.
func StripBold(s string) string {
	return strings.TrimSpace(boldRe.ReplaceAllString(s, "$1"))
}

// AnthropicGenerator implements Generator on the Anthropic Messages API.
type AnthropicGenerator struct {
	client sdk.Client
	cfg    Config
	logger logging.Logger
}

// NewAnthropicGenerator builds an AnthropicGenerator from an API key.
func NewAnthropicGenerator(cfg Config, logger logging.Logger) *AnthropicGenerator {
	return &AnthropicGenerator{
		client: sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "suggest"}),
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, section string, findings any) (string, error) {
	encoded, err := json.Marshal(findings)
	if err != nil {
		return "", eris.Wrap(err, "suggest: encode findings")
	}

	prompt := buildPrompt(section, string(encoded))
	msg, err := g.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(g.cfg.Model),
		MaxTokens: g.cfg.MaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "suggest: create message")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", eris.New("suggest: empty response")
	}

	g.logger.Debug("generated suggestion",
		logging.Field{Key: "section", Value: section},
		logging.Field{Key: "input_tokens", Value: msg.Usage.InputTokens},
		logging.Field{Key: "output_tokens", Value: msg.Usage.OutputTokens})

	return StripBold(text.String()), nil
}

func buildPrompt(section, findings string) string {
	return "You are a senior web auditor.\n" +
		"Section: " + section + "\n" +
		"Issues detected: " + findings + "\n\n" +
		"Please give 2-3 clear, actionable, developer-friendly suggestions to fix these issues.\n" +
		"Keep the language concise and practical.\n" +
		"Do not use Markdown formatting like **bold**, just plain text."
}
