package core

import (
	"context"
	"log/slog"

	"starbot/internal/types"
)

// Detector finds the items of a route that have not been published yet.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect fetches the route's source, recovers the checkpoint from its
// timeline and returns the new items, oldest first.
func (d *Detector) Detect(ctx context.Context, route *Route) (Batch, error) {
	candidates, err := route.Source.Fetch(ctx)
	if err != nil {
		return Batch{}, types.NewTransientFetchError(route.Name(), "fetch", err)
	}

	for i := range candidates {
		candidates[i].Name = types.ItemName(candidates[i].Name)
	}

	token, err := ResolveCheckpoint(ctx, route.Timeline)
	if err != nil {
		return Batch{}, err
	}

	items := Delta(candidates, token)

	slog.DebugContext(ctx, "Detected new items",
		"candidates", len(candidates),
		"checkpoint", token,
		"new", len(items),
	)

	return Batch{Route: route, Items: items}, nil
}
