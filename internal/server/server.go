package server

import (
	"context"
	"net/http"
	"time"

	"newsdesk/internal/model"
	"newsdesk/internal/workflow"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ActorHeader carries the id of the actor the upstream gateway authenticated.
const ActorHeader = "X-Actor-ID"

const uuidPattern = "[0-9a-fA-F-]{36}"

// Directory is the read side of actors and publishers the API needs.
type Directory interface {
	Actor(ctx context.Context, id string) (*model.Actor, error)
	Publisher(ctx context.Context, id string) (*model.Publisher, error)
	Publishers(ctx context.Context) ([]model.Publisher, error)
	Members(ctx context.Context, publisherID string) (map[string]model.Role, error)
}

type Server struct {
	svc       *workflow.Service
	directory Directory
	logger    *zap.Logger
	router    *mux.Router
	server    *http.Server
}

func NewServer(svc *workflow.Service, dir Directory, logger *zap.Logger) *Server {
	s := &Server{
		svc:       svc,
		directory: dir,
		logger:    logger,
		router:    mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.authenticate)

	// Articles
	api.HandleFunc("/articles", s.handleListArticles).Methods("GET")
	api.HandleFunc("/articles", s.handleSubmit).Methods("POST")
	api.HandleFunc("/articles/pending", s.handlePending).Methods("GET")
	api.HandleFunc("/articles/{id:"+uuidPattern+"}", s.handleGetArticle).Methods("GET")
	api.HandleFunc("/articles/{id:"+uuidPattern+"}", s.handleModify).Methods("PATCH", "PUT")
	api.HandleFunc("/articles/{id:"+uuidPattern+"}", s.handleDelete).Methods("DELETE")
	api.HandleFunc("/articles/{id:"+uuidPattern+"}/approve", s.handleApprove).Methods("POST")
	api.HandleFunc("/articles/{id:"+uuidPattern+"}/reject", s.handleReject).Methods("POST")

	// Reader side
	api.HandleFunc("/feed", s.handleFeed).Methods("GET")
	api.HandleFunc("/subscriptions", s.handleSubscriptions).Methods("GET")
	api.HandleFunc("/subscriptions/{kind:publishers|journalists}/{id}", s.handleSubscribe).Methods("PUT", "POST")
	api.HandleFunc("/subscriptions/{kind:publishers|journalists}/{id}", s.handleUnsubscribe).Methods("DELETE")

	// Publishers
	api.HandleFunc("/publishers", s.handleListPublishers).Methods("GET")
	api.HandleFunc("/publishers/{id}", s.handleGetPublisher).Methods("GET")
	api.HandleFunc("/publishers/{id}/members", s.handleListMembers).Methods("GET")
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start launches the HTTP server
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("Web server listening", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
