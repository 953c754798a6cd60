package worker

import (
	"context"
	"log/slog"
	"strings"

	"ngrev/internal/channel"
	"ngrev/internal/engine"
	"ngrev/internal/errors"
	"ngrev/internal/slogutil"
	"ngrev/internal/states"
)

// Worker answers channel requests with an engine.
type Worker struct {
	engine *engine.Engine
	logger *slog.Logger
}

// New creates a worker for e.
func New(e *engine.Engine, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Worker{engine: e, logger: logger}
}

// Register installs a handler for every topic on mux.
func (w *Worker) Register(mux *channel.Mux) {
	mux.Handle(TopicLoadProject, w.loadProject)
	mux.Handle(TopicPrevState, w.prevState)
	mux.Handle(TopicDirectTransition, w.directTransition)
	mux.Handle(TopicGetData, w.getData)
	mux.Handle(TopicGetMetadata, w.getMetadata)
	mux.Handle(TopicGetSymbols, w.getSymbols)
	mux.Handle(TopicSearchSymbols, w.searchSymbols)
	mux.Handle(TopicShowApplication, w.showApplication)
	mux.Handle(TopicToggleLibs, w.toggleLibs)
	mux.Handle(TopicToggleModulesOnly, w.toggleModulesOnly)
}

// NewMux returns a mux with every topic of a new worker for e registered.
func NewMux(e *engine.Engine, logger *slog.Logger) *channel.Mux {
	mux := channel.NewMux(logger)
	New(e, logger).Register(mux)
	return mux
}

func (w *Worker) loadProject(ctx context.Context, req *channel.Request) (interface{}, error) {
	var p LoadProjectRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Path) == "" {
		return nil, errors.New(errors.InvalidRequest, "path is required", nil)
	}

	w.logger.Info("Loading project", "path", p.Path)
	if err := w.engine.Load(ctx, p.Path); err != nil {
		return nil, err
	}
	w.logger.Debug("Initial state ready", "path", p.Path, "state", w.engine.Describe())
	return LoadProjectResult{Path: p.Path, HistoryLen: w.engine.HistoryLen()}, nil
}

// prevState reports an unavailable navigation at the root of history or
// when nothing is loaded.
func (w *Worker) prevState(context.Context, *channel.Request) (interface{}, error) {
	ok := w.engine.Previous()
	return NavigationResult{Available: ok, HistoryLen: w.engine.HistoryLen()}, nil
}

func (w *Worker) directTransition(_ context.Context, req *channel.Request) (interface{}, error) {
	var p NodeRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	out, err := w.engine.DirectTransition(p.ID)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("Direct transition", "id", p.ID, "outcome", out.String(), "state", w.engine.Describe())
	return NavigationResult{
		Available:  out == states.Resolved,
		Outcome:    out.String(),
		HistoryLen: w.engine.HistoryLen(),
	}, nil
}

// getData returns a null payload when no project is loaded.
func (w *Worker) getData(context.Context, *channel.Request) (interface{}, error) {
	return w.engine.Data(), nil
}

func (w *Worker) getMetadata(_ context.Context, req *channel.Request) (interface{}, error) {
	var p NodeRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	return w.engine.Metadata(p.ID), nil
}

func (w *Worker) getSymbols(context.Context, *channel.Request) (interface{}, error) {
	return w.engine.Symbols(), nil
}

func (w *Worker) searchSymbols(ctx context.Context, req *channel.Request) (interface{}, error) {
	var p SearchRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	return w.engine.Search(ctx, p.Query, p.Limit)
}

func (w *Worker) showApplication(context.Context, *channel.Request) (interface{}, error) {
	if err := w.engine.ShowApplication(); err != nil {
		return nil, err
	}
	return ViewResult{View: w.engine.View(), HistoryLen: w.engine.HistoryLen()}, nil
}

func (w *Worker) toggleLibs(context.Context, *channel.Request) (interface{}, error) {
	view := w.engine.ToggleLibs()
	return ViewResult{View: view, HistoryLen: w.engine.HistoryLen()}, nil
}

func (w *Worker) toggleModulesOnly(context.Context, *channel.Request) (interface{}, error) {
	view := w.engine.ToggleModulesOnly()
	return ViewResult{View: view, HistoryLen: w.engine.HistoryLen()}, nil
}
