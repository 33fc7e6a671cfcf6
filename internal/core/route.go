package core

import "starbot/internal/types"

// Route pairs an account with its live source and destination.
type Route struct {
	Account  *types.Account
	Source   types.Source
	Timeline types.Timeline
}

func (r *Route) Name() string {
	return r.Account.Name
}

// Batch is the set of new items found for a route in one cycle, oldest
// first.
type Batch struct {
	Route *Route
	Items []types.Item
}
