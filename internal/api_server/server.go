package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/config"
	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/jobs"
	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/service"
	"github.com/ilyi1116/auto-video-generation-fold6-sub001/pkg/metrics"
	"github.com/ilyi1116/auto-video-generation-fold6-sub001/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	jobs     *service.JobService
	listener net.Listener
}

// New returns a new instance of the render scheduler API server.
func New(cfg *config.Config, jobSvc *service.JobService, listener net.Listener) *Server {
	return &Server{
		cfg:      cfg,
		jobs:     jobSvc,
		listener: listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/jobs", s.handleSubmitJob)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Delete("/jobs/{id}", s.handleCancelJob)
		r.Get("/stats", s.handleGetStats)
	})

	srv := &http.Server{
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("serving api: %s", s.listener.Addr())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

type submitReply struct {
	JobID string `json:"job_id"`
}

func (r submitReply) Render(w http.ResponseWriter, req *http.Request) error {
	render.Status(req, http.StatusCreated)
	return nil
}

type jobReply struct {
	jobs.Job
}

func (r jobReply) Render(w http.ResponseWriter, req *http.Request) error {
	return nil
}

type jobListReply struct {
	Jobs []jobs.Job `json:"jobs"`
}

func (r jobListReply) Render(w http.ResponseWriter, req *http.Request) error {
	return nil
}

type cancelReply struct {
	Cancelled bool `json:"cancelled"`
}

func (r cancelReply) Render(w http.ResponseWriter, req *http.Request) error {
	return nil
}

type statsReply struct {
	jobs.StatsSnapshot
}

func (r statsReply) Render(w http.ResponseWriter, req *http.Request) error {
	return nil
}

type errorReply struct {
	Error  string `json:"error"`
	status int
}

func (r errorReply) Render(w http.ResponseWriter, req *http.Request) error {
	render.Status(req, r.status)
	return nil
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		_ = render.Render(w, r, errorReply{Error: "invalid request body", status: http.StatusBadRequest})
		return
	}

	id, err := s.jobs.SubmitJob(r.Context(), req)
	if err != nil {
		_ = render.Render(w, r, toErrorReply(err))
		return
	}
	_ = render.Render(w, r, submitReply{JobID: id.String()})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = render.Render(w, r, errorReply{Error: "invalid job id", status: http.StatusBadRequest})
		return
	}

	job, err := s.jobs.GetJob(r.Context(), id)
	if err != nil {
		_ = render.Render(w, r, toErrorReply(err))
		return
	}
	_ = render.Render(w, r, jobReply{job})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.ListFilter{
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
		Type:   r.URL.Query().Get("job_type"),
	}
	_ = render.Render(w, r, jobListReply{Jobs: s.jobs.ListJobs(r.Context(), filter)})
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = render.Render(w, r, errorReply{Error: "invalid job id", status: http.StatusBadRequest})
		return
	}
	_ = render.Render(w, r, cancelReply{Cancelled: s.jobs.CancelJob(r.Context(), id)})
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	_ = render.Render(w, r, statsReply{s.jobs.GetStats(r.Context())})
}

func toErrorReply(err error) errorReply {
	switch err.(type) {
	case *service.ErrJobNotFound:
		return errorReply{Error: err.Error(), status: http.StatusNotFound}
	case *service.ErrUnknownJobType, *service.ErrInvalidRequest:
		return errorReply{Error: err.Error(), status: http.StatusBadRequest}
	case *service.ErrQueueFull:
		return errorReply{Error: err.Error(), status: http.StatusTooManyRequests}
	default:
		return errorReply{Error: "internal server error", status: http.StatusInternalServerError}
	}
}
