package segmentation

import (
	"context"
	"image"
)

// Candidate is one proposed sub-region of a scene image.
type Candidate struct {
	Bounds image.Rectangle

	// Confidence is on a 0-100 scale; nil when the engine abstains from
	// scoring the region.
	Confidence *float64
}

// Engine proposes candidate regions for an uploaded scene image. It is
// treated as an external collaborator: implementations may be slow, so
// callers bound Detect with a context deadline and never invoke it while
// holding a database transaction.
//
// Detect must fail explicitly on unusable input rather than returning
// garbage, and may legitimately return an empty slice for scenes where
// nothing was found.
type Engine interface {
	Detect(ctx context.Context, img image.Image) ([]Candidate, error)
}
