// Package vision sends photographs to a vision-language model and returns
// the raw analysis text for downstream coordinate and place extraction.
package vision

import "context"

// Result is one completed model analysis.
type Result struct {
	// Text is the model's full response, structured block included.
	Text string
	// Model is the model that actually produced the text, which on a
	// fallback chain may differ from the first one tried.
	Model string
}

// Client analyzes a single image. Implementations handle their own retry
// and model-fallback policy; callers just get text or an error.
type Client interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (*Result, error)
}

// noLocationError marks a response that parsed fine but contained neither
// coordinates nor place fields. It triggers a retry; if every attempt comes
// back without a location the last text is still returned, since the
// reasoning prose has value on its own.
type noLocationError struct{}

func (noLocationError) Error() string { return "response contains no location signal" }

var errNoLocation = noLocationError{}
