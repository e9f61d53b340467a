package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"newsdesk/internal/model"

	"go.uber.org/zap"
)

type actorKey struct{}

// authenticate resolves the gateway-provided actor id into a full record.
// Credentials are checked upstream; here we only refuse anonymous or unknown
// callers.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(ActorHeader))
		if id == "" {
			writeMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}

		actor, err := s.directory.Actor(r.Context(), id)
		if errors.Is(err, model.ErrNotFound) {
			writeMessage(w, http.StatusUnauthorized, "unknown actor")
			return
		}
		if err != nil {
			s.logger.Error("Actor lookup failed", zap.String("actor_id", id), zap.Error(err))
			writeMessage(w, http.StatusInternalServerError, "identity lookup failed")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

func actorFrom(r *http.Request) *model.Actor {
	actor, _ := r.Context().Value(actorKey{}).(*model.Actor)
	return actor
}
