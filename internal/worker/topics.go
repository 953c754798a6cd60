// Package worker exposes the engine on a channel mux. It defines the topics
// the worker answers and their payloads.
package worker

import (
	"ngrev/internal/states"
)

// Topics answered by the worker.
const (
	TopicLoadProject       = "load-project"
	TopicPrevState         = "prev-state"
	TopicDirectTransition  = "direct-state-transition"
	TopicGetData           = "get-data"
	TopicGetMetadata       = "get-metadata"
	TopicGetSymbols        = "get-symbols"
	TopicSearchSymbols     = "search-symbols"
	TopicShowApplication   = "show-application"
	TopicToggleLibs        = "toggle-libs"
	TopicToggleModulesOnly = "toggle-modules-only"
)

// LoadProjectRequest is the load-project payload.
type LoadProjectRequest struct {
	Path string `json:"path"`
}

// LoadProjectResult acknowledges a load.
type LoadProjectResult struct {
	Path       string `json:"path"`
	HistoryLen int    `json:"historyLen"`
}

// NodeRequest names a node of the current graph.
type NodeRequest struct {
	ID string `json:"id"`
}

// NavigationResult reports whether a history change happened. An unavailable
// navigation is not a failure.
type NavigationResult struct {
	Available  bool   `json:"available"`
	Outcome    string `json:"outcome,omitempty"`
	HistoryLen int    `json:"historyLen"`
}

// SearchRequest is the search-symbols payload.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// ViewResult carries the application view filters after a toggle.
type ViewResult struct {
	View       states.AppOptions `json:"view"`
	HistoryLen int               `json:"historyLen"`
}
