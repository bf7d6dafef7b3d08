package api

import (
	"github.com/havenapps/selah/core/daily"
	"github.com/havenapps/selah/core/resolve"
	"github.com/havenapps/selah/core/salvage"
	"github.com/havenapps/selah/core/search"
	"github.com/havenapps/selah/internal/store"
)

// Services bundles the collaborators the handlers dispatch to. Store may
// be nil, in which case generated content is returned but not persisted
// and study listing endpoints report empty results.
type Services struct {
	Resolver *resolve.Resolver
	Daily    *daily.Selector
	Search   *search.Orchestrator
	Pipeline *salvage.Pipeline
	Store    *store.Store
}

// services holds the active service set, set by Start.
var services Services
