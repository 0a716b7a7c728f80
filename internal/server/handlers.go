package server

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/superrelativity/relgraph/pkg/buildinfo"
	"github.com/superrelativity/relgraph/pkg/classify"
	"github.com/superrelativity/relgraph/pkg/diagram"
	"github.com/superrelativity/relgraph/pkg/errors"
	"github.com/superrelativity/relgraph/pkg/graph"
	"github.com/superrelativity/relgraph/pkg/layout"
	"github.com/superrelativity/relgraph/pkg/pipeline"
	"github.com/superrelativity/relgraph/pkg/render"
	"github.com/superrelativity/relgraph/pkg/session"
	"github.com/superrelativity/relgraph/pkg/store"
	"github.com/superrelativity/relgraph/pkg/syncjob"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": buildinfo.AppName,
		"version": buildinfo.Version,
	})
}

// =============================================================================
// Classification
// =============================================================================

type classifyRequest struct {
	Relationships    []classify.RawRelationship `json:"relationships"`
	MatchDescription *bool                      `json:"matchDescription,omitempty"`
}

func (s *Server) pipelineOptions() pipeline.Options {
	opts := s.defaults
	opts.Logger = s.logger
	return opts
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Relationships == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "relationships is required"))
		return
	}

	opts := s.pipelineOptions()
	if req.MatchDescription != nil {
		opts.MatchDescription = *req.MatchDescription
	}
	res, err := s.runner.Classify(r.Context(), req.Relationships, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"rules": classify.Rules()})
}

type diagramRequest struct {
	Content string            `json:"content"`
	Aliases map[string]string `json:"aliases,omitempty"`
}

type diagramResponse struct {
	Elements       []diagram.Element          `json:"elements"`
	Relations      []classify.RawRelationship `json:"relations"`
	Classification classify.Result            `json:"classification"`
}

func (s *Server) handleParseDiagram(w http.ResponseWriter, r *http.Request) {
	var req diagramRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "content is required"))
		return
	}

	d := diagram.Parse(req.Content)
	rels := d.Resolve(req.Aliases)
	res, err := s.runner.Classify(r.Context(), rels, s.pipelineOptions())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, diagramResponse{
		Elements:       d.Elements,
		Relations:      rels,
		Classification: res,
	})
}

// =============================================================================
// Layout sessions
// =============================================================================

type layoutRequest struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
	Root  string       `json:"root,omitempty"`
	Depth int          `json:"depth,omitempty"`
	Types []string     `json:"types,omitempty"`
}

type layoutResponse struct {
	SessionID string       `json:"sessionId"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Toggled   *bool        `json:"toggled,omitempty"`
	Layout    graph.Layout `json:"layout"`
}

func newLayoutResponse(sess *session.Session, l graph.Layout) layoutResponse {
	return layoutResponse{SessionID: sess.ID, ExpiresAt: sess.ExpiresAt, Layout: l}
}

func (s *Server) handleCreateLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var g graph.Graph
	switch {
	case req.Root != "":
		q, err := newQuery(req.Root, req.Depth, req.Types)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		g, err = s.queryGraph(r, q)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	case req.Nodes != nil:
		g = graph.Graph{Nodes: req.Nodes, Edges: req.Edges}
	default:
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidGraph, "either nodes or root is required"))
		return
	}

	state, err := s.runner.Layout(r.Context(), g, s.pipelineOptions())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess := session.New(state, s.ttl)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeStore, err, "store session"))
		return
	}
	s.writeJSON(w, http.StatusCreated, newLayoutResponse(sess, state.Layout()))
}

// loadSession validates the path id and loads the session.
func (s *Server) loadSession(r *http.Request) (*session.Session, error) {
	id := chi.URLParam(r, "sessionID")
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(r.Context(), id)
	if stderrors.Is(err, session.ErrNotFound) {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found: %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "load session")
	}
	return sess, nil
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newLayoutResponse(sess, sess.Snapshot.Layout))
}

func (s *Server) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := errors.ValidateSessionID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeStore, err, "delete session"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mutate applies fn to the session's state under the session lock and
// stores the result when fn reports a change.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*layout.State) bool) {
	unlock := s.locks.Lock(chi.URLParam(r, "sessionID"))
	defer unlock()

	sess, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	state := sess.State()
	changed := fn(state)
	if changed {
		sess.Save(state)
		if err := s.sessions.Set(r.Context(), sess); err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeStore, err, "store session"))
			return
		}
	}
	resp := newLayoutResponse(sess, state.Layout())
	resp.Toggled = &changed
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	node := chi.URLParam(r, "nodeID")
	s.mutate(w, r, func(state *layout.State) bool {
		return s.runner.Toggle(r.Context(), state, node)
	})
}

func (s *Server) handleExpandAll(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(state *layout.State) bool {
		state.ExpandAll()
		return true
	})
}

func (s *Server) handleCollapseAll(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(state *layout.State) bool {
		state.CollapseAll()
		return true
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.DefaultFormat
	}
	opts := s.pipelineOptions()
	opts.Formats = []string{format}
	opts.ShowHidden = q.Get("hidden") == "true"
	opts.Detailed = q.Get("detailed") == "true"

	artifacts, err := s.runner.Render(r.Context(), sess.Snapshot.Layout, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", render.ContentType(format))
	w.WriteHeader(http.StatusOK)
	w.Write(artifacts[format])
}

// =============================================================================
// Graph store
// =============================================================================

func newQuery(root string, depth int, types []string) (store.Query, error) {
	if err := errors.ValidateEntityID(root); err != nil {
		return store.Query{}, err
	}
	if err := errors.ValidateDepth(depth); err != nil {
		return store.Query{}, err
	}
	return store.Query{Root: root, Depth: depth, Types: types}, nil
}

func (s *Server) queryGraph(r *http.Request, q store.Query) (graph.Graph, error) {
	g, err := s.store.Graph(r.Context(), q)
	if stderrors.Is(err, store.ErrNotFound) {
		return graph.Graph{}, errors.New(errors.ErrCodeNotFound, "entity not found: %s", q.Root)
	}
	if err != nil {
		return graph.Graph{}, errors.Wrap(errors.ErrCodeStore, err, "query graph")
	}
	return g, nil
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	depth := 0
	if v := params.Get("depth"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "depth must be an integer: %q", v))
			return
		}
		depth = d
	}
	var types []string
	if v := params.Get("types"); v != "" {
		types = strings.Split(v, ",")
	}

	q, err := newQuery(params.Get("root"), depth, types)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.queryGraph(r, q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "entityID")
	if err := errors.ValidateEntityID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	impact, err := s.store.Impact(r.Context(), id)
	if stderrors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "entity not found: %s", id))
		return
	}
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeStore, err, "query impact"))
		return
	}
	s.writeJSON(w, http.StatusOK, impact)
}

// =============================================================================
// Sync
// =============================================================================

var errSyncDisabled = errors.New(errors.ErrCodeUnsupported, "sync is not configured")

type syncStatus struct {
	Last *syncjob.Marker `json:"last"`
	Jobs []store.Job     `json:"jobs"`
}

func (s *Server) handleSyncTrigger(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		s.writeError(w, r, errSyncDisabled)
		return
	}
	job, err := s.sync.Run(r.Context())
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeNetwork, err, "sync failed: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		s.writeError(w, r, errSyncDisabled)
		return
	}
	var status syncStatus
	if m, ok, err := s.sync.LastSync(r.Context()); err != nil {
		s.logger.Warn("read last-sync marker", "err", err)
	} else if ok {
		status.Last = &m
	}
	jobs, err := s.sync.Jobs(r.Context(), 10)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeStore, err, "list jobs"))
		return
	}
	status.Jobs = jobs
	if status.Jobs == nil {
		status.Jobs = []store.Job{}
	}
	s.writeJSON(w, http.StatusOK, status)
}
