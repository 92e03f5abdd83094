package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zeu5/mdp-policy/store"
	"github.com/zeu5/mdp-policy/util"
)

// Server exposes recorded runs over HTTP, read only
type Server struct {
	Addr   string
	store  store.Store
	server *http.Server
}

func NewServer(addr string, s store.Store) *Server {
	srv := &Server{
		Addr:  addr,
		store: s,
	}
	srv.server = &http.Server{
		Addr:    addr,
		Handler: srv.Router(),
	}
	return srv
}

// Router builds the gin engine serving the lookup routes
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/runs", s.handleList)
	r.GET("/runs/:id", s.handleRun)
	r.GET("/runs/:id/policy", s.handlePolicy)
	r.GET("/runs/:id/action/:state", s.handleAction)
	return r
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type runSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"created_at"`
	States    int       `json:"states"`
}

func (s *Server) handleList(c *gin.Context) {
	runs, err := s.store.ListRuns(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]runSummary, len(runs))
	for i, run := range runs {
		out[i] = runSummary{
			ID:        run.ID,
			Name:      run.Name,
			Method:    run.Method,
			CreatedAt: run.CreatedAt,
			States:    len(run.States),
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getRun(c *gin.Context) (store.Run, bool) {
	run, ok, err := s.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return store.Run{}, false
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return store.Run{}, false
	}
	return run, true
}

func (s *Server) handleRun(c *gin.Context) {
	run, ok := s.getRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

// handlePolicy answers in the exported policy file format
func (s *Server) handlePolicy(c *gin.Context) {
	run, ok := s.getRun(c)
	if !ok {
		return
	}
	lines := make([]string, len(run.Policy))
	for i, a := range run.Policy {
		lines[i] = strconv.Itoa(a)
	}
	var buf bytes.Buffer
	if err := util.WriteLines(&buf, lines...); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (s *Server) handleAction(c *gin.Context) {
	state, err := strconv.Atoi(c.Param("state"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state must be an integer"})
		return
	}
	run, ok := s.getRun(c)
	if !ok {
		return
	}
	action, ok := run.Action(state)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "state not in policy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state, "action": action})
}
