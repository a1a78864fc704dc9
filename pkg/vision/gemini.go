package vision

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/hashicorp/errwrap"
	"google.golang.org/genai"

	"geointel/pkg/coords"
	"geointel/pkg/geo"
)

// modelConfig is one entry in the fallback chain. Sampling gets slightly
// looser down the chain since the smaller models need more room to commit
// to coordinates.
type modelConfig struct {
	name        string
	temperature float32
	topP        float32
	topK        float32
	maxTokens   int32
}

// geminiChain is tried in order; the first model that returns usable text
// wins. Model-level failures (quota, 5xx) fall through to the next entry.
var geminiChain = []modelConfig{
	{name: "gemini-2.0-flash-exp", temperature: 0.02, topP: 0.98, topK: 16, maxTokens: 8000},
	{name: "gemini-1.5-pro", temperature: 0.05, topP: 0.95, topK: 20, maxTokens: 4000},
	{name: "gemini-1.5-flash", temperature: 0.05, topP: 0.95, topK: 20, maxTokens: 3500},
}

// GeminiClient implements Client against the Gemini API.
type GeminiClient struct {
	client *genai.Client
	chain  []modelConfig
}

// NewGeminiClient creates a Gemini-backed vision client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client, chain: geminiChain}, nil
}

// Analyze implements Client for GeminiClient.
func (g *GeminiClient) Analyze(ctx context.Context, image []byte, mimeType string) (*Result, error) {
	image, mimeType, err := Downscale(image, mimeType, maxImageDim)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, mc := range g.chain {
		text, err := g.generate(ctx, mc, image, mimeType)
		if err != nil {
			log.Printf("model %s failed: %v", mc.name, err)
			lastErr = err
			continue
		}
		return &Result{Text: text, Model: mc.name}, nil
	}
	return nil, fmt.Errorf("all models in chain failed: %w", lastErr)
}

func (g *GeminiClient) generate(ctx context.Context, mc modelConfig, image []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(analysisPrompt),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(mc.temperature),
		TopP:            genai.Ptr(mc.topP),
		TopK:            genai.Ptr(mc.topK),
		MaxOutputTokens: mc.maxTokens,
	}

	var retv string
	err := retry.Do(func() error {
		resp, err := g.client.Models.GenerateContent(ctx, mc.name, contents, config)
		if err != nil {
			return err
		}
		retv = resp.Text()
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
	return retv, err
}
