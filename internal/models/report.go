package models

import (
	"time"

	"geointel/pkg/coords"
	"geointel/pkg/exifmeta"
	"geointel/pkg/geocode"
	"geointel/pkg/links"
)

// Report is the finished analysis of one image: everything extracted,
// inferred and cross-referenced, in the shape that gets exported and stored.
type Report struct {
	ID        string    `json:"id"`
	ImageKey  string    `json:"image_key,omitempty"`
	ImageHash string    `json:"image_hash"`
	CreatedAt time.Time `json:"created_at"`

	Meta      *exifmeta.Metadata `json:"metadata,omitempty"`
	Analysis  string             `json:"analysis"`
	ModelUsed string             `json:"model_used,omitempty"`

	Candidates []coords.Candidate    `json:"candidates"`
	Distances  []coords.DistancePair `json:"distances,omitempty"`

	// Consensus is set on multi-image runs when the per-image estimates
	// agree; it is the combined location.
	Consensus *coords.Point `json:"consensus,omitempty"`

	// Address of the primary candidate, when reverse geocoding succeeded.
	Address *geocode.Place `json:"address,omitempty"`

	Verification       map[string]links.Verification `json:"verification,omitempty"`
	ReverseImageSearch map[string]string             `json:"reverse_image_search,omitempty"`
}

// Primary returns the leading candidate. EXIF GPS sorts ahead of model
// output by construction, so index zero is always the best estimate.
func (r *Report) Primary() (coords.Candidate, bool) {
	if len(r.Candidates) == 0 {
		return coords.Candidate{}, false
	}
	return r.Candidates[0], true
}

// Located reports whether the analysis produced at least one candidate.
func (r *Report) Located() bool {
	return len(r.Candidates) > 0
}
