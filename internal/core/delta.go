package core

import (
	"slices"

	"starbot/internal/types"
)

// Delta returns the candidates newer than token, oldest first. candidates
// must be ordered newest first. Scanning stops at the first item whose name
// equals token; if none does, every candidate is new.
func Delta(candidates []types.Item, token string) []types.Item {
	fresh := make([]types.Item, 0, len(candidates))
	for _, item := range candidates {
		if token != "" && item.Name == token {
			break
		}
		fresh = append(fresh, item)
	}

	slices.Reverse(fresh)
	return fresh
}
