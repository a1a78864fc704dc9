package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/hashicorp/errwrap"
	openai "github.com/sashabaranov/go-openai"

	"geointel/pkg/coords"
	"geointel/pkg/geo"
)

// OpenAIClient implements Client for OpenAI-compatible endpoints, which
// covers the hosted API as well as local gateways that speak the same
// chat-completions protocol.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a vision client for an OpenAI-compatible endpoint.
// endpoint may be empty to use the default API base URL.
func NewOpenAIClient(endpoint, apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key is required")
	}
	if model == "" {
		model = "gpt-4o"
	}
	config := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		config.BaseURL = endpoint
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(config), model: model}, nil
}

// Analyze implements Client for OpenAIClient.
func (o *OpenAIClient) Analyze(ctx context.Context, image []byte, mimeType string) (*Result, error) {
	image, mimeType, err := Downscale(image, mimeType, maxImageDim)
	if err != nil {
		return nil, err
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	var retv string
	err = retry.Do(func() error {
		base64Image := base64.StdEncoding.EncodeToString(image)
		resp, err := o.client.CreateChatCompletion(
			ctx,
			openai.ChatCompletionRequest{
				Model: o.model,
				Messages: []openai.ChatCompletionMessage{
					{
						Role: openai.ChatMessageRoleUser,
						MultiContent: []openai.ChatMessagePart{
							{
								Type: openai.ChatMessagePartTypeText,
								Text: analysisPrompt,
							},
							{
								Type: openai.ChatMessagePartTypeImageURL,
								ImageURL: &openai.ChatMessageImageURL{
									URL: "data:" + mimeType + ";base64," + base64Image,
								},
							},
						},
					},
				},
			},
		)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("no response from OpenAI")
		}
		retv = resp.Choices[0].Message.Content
		if strings.TrimSpace(retv) == "" {
			return errors.New("empty response from model")
		}
		if len(coords.Extract(retv)) == 0 && geo.PlaceQuery(retv) == "" {
			return errNoLocation
		}
		return nil
	}, retry.Attempts(3), retry.Delay(250*time.Millisecond))
	if errwrap.ContainsType(err, errNoLocation) {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Text: retv, Model: o.model}, nil
}
