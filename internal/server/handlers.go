package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"newsdesk/internal/model"
	"newsdesk/internal/workflow"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const defaultPageSize = 50

func zapRequest(r *http.Request, err error) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if actor := actorFrom(r); actor != nil {
		fields = append(fields, zap.String("actor_id", actor.ID))
	}
	return fields
}

func articleID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid article id", model.ErrInvalidState)
	}
	return id, nil
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", model.ErrInvalidState, err)
	}
	return nil
}

func limitParam(r *http.Request) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		return n
	}
	return defaultPageSize
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var in workflow.SubmitInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	article, err := s.svc.Submit(r.Context(), actorFrom(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, article)
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	articles, err := s.svc.List(r.Context(), actorFrom(r), workflow.ListFilter{
		PublisherID: q.Get("publisher"),
		AuthorID:    q.Get("author"),
		Limit:       limitParam(r),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	articles, err := s.svc.Pending(r.Context(), actorFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	article, err := s.svc.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in workflow.ModifyInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	article, err := s.svc.Modify(r.Context(), actorFrom(r), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Delete(r.Context(), actorFrom(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	approval, err := s.svc.Approve(r.Context(), actorFrom(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, approval)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id, err := articleID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	article, err := s.svc.Reject(r.Context(), actorFrom(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	articles, err := s.svc.Feed(r.Context(), actorFrom(r), limitParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	targets, err := s.svc.Subscriptions(r.Context(), actorFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if targets == nil {
		targets = []model.Target{}
	}
	writeJSON(w, http.StatusOK, targets)
}

func target(r *http.Request) model.Target {
	vars := mux.Vars(r)
	if vars["kind"] == "publishers" {
		return model.PublisherTarget(vars["id"])
	}
	return model.JournalistTarget(vars["id"])
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Subscribe(r.Context(), actorFrom(r), target(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Unsubscribe(r.Context(), actorFrom(r), target(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPublishers(w http.ResponseWriter, r *http.Request) {
	publishers, err := s.directory.Publishers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, publishers)
}

func (s *Server) handleGetPublisher(w http.ResponseWriter, r *http.Request) {
	p, err := s.directory.Publisher(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type memberView struct {
	ActorID string     `json:"actor_id"`
	Role    model.Role `json:"role"`
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.directory.Publisher(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	members, err := s.directory.Members(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]memberView, 0, len(members))
	for actorID, role := range members {
		out = append(out, memberView{ActorID: actorID, Role: role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActorID < out[j].ActorID })
	writeJSON(w, http.StatusOK, out)
}
