// Package captcha isolates the one genuinely non-deterministic step of a
// booking run: turning the portal's challenge image into text. Recognition
// is delegated to a vision model behind an OpenAI-compatible chat
// completions endpoint (Gemini by default).
package captcha

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrUnresolved is returned for every failure mode — transport, API error,
// empty answer. Callers must treat it as a recoverable miss for the current
// login attempt, never as fatal.
var ErrUnresolved = errors.New("captcha unresolved")

// Solver recognizes the text in a CAPTCHA image.
type Solver interface {
	Solve(ctx context.Context, image []byte) (string, error)
}

// prompt keeps the model from editorializing; anything beyond the literal
// characters breaks the login form.
const prompt = "Please analyze this CAPTCHA image and return ONLY the " +
	"text/characters you see. No explanations, just the characters."

// Client solves CAPTCHAs via a vision-capable chat model.
type Client struct {
	oai   openai.Client
	model string
}

// New builds a solver against the given OpenAI-compatible endpoint. An
// empty API key is accepted; the endpoint will reject calls and every
// Solve returns ErrUnresolved, which the login retry loop absorbs.
func New(apiKey, baseURL, model string) *Client {
	return &Client{
		oai:   openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)),
		model: model,
	}
}

// Solve sends the image as a data URI and returns the recognized text.
// Stateless per call.
func (c *Client) Solve(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrUnresolved)
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s",
		http.DetectContentType(image), base64.StdEncoding.EncodeToString(image))

	completion, err := c.oai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURI}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnresolved, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrUnresolved)
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty answer", ErrUnresolved)
	}
	return text, nil
}
