// Package intake implements the upstream HTTP surface that delivers
// workloads to the scheduling core: translation of wire JSON into
// validated task.Task values, per-address rate limiting, and
// bearer-token authentication for a host fronting the core.
package intake

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/khryptorgraphics/taskorch/internal/feasibility"
	"github.com/khryptorgraphics/taskorch/internal/schederr"
	"github.com/khryptorgraphics/taskorch/internal/scheduler"
	"github.com/khryptorgraphics/taskorch/internal/task"
	"github.com/khryptorgraphics/taskorch/pkg/audit"
	"github.com/khryptorgraphics/taskorch/pkg/cache"
	"github.com/khryptorgraphics/taskorch/pkg/notify"
)

// Upgrader is the shared websocket upgrader for the downstream agent
// and fault-notification channels; exported so cmd/taskorch can reuse
// it for both websocket endpoints without duplicating CheckOrigin
// policy.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Options configures a Server.
type Options struct {
	Scheduler   *scheduler.Scheduler
	Dispatcher  *notify.Dispatcher
	FaultClient *notify.FaultClient
	Audit       *audit.Store             // nil disables post-mortem persistence
	Mirror      *cache.HyperperiodMirror // nil disables the cross-host cache mirror
	JWTSecret   string                   // empty disables bearer-token validation (dev mode)
	Logger      *slog.Logger

	// RateLimitPerSecond and RateLimitBurst bound how fast one remote
	// address may drive schedule calls. Both default to sensible
	// values when zero.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Server is the upstream intake HTTP surface.
type Server struct {
	opts     Options
	logger   *slog.Logger
	limiters *limiterSet
}

// New constructs a Server. It never invokes scheduler logic itself;
// it only translates and forwards.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RateLimitPerSecond == 0 {
		opts.RateLimitPerSecond = 1
	}
	if opts.RateLimitBurst == 0 {
		opts.RateLimitBurst = 5
	}
	return &Server{
		opts:   opts,
		logger: opts.Logger,
		limiters: newLimiterSet(rate.Limit(opts.RateLimitPerSecond), opts.RateLimitBurst),
	}
}

// Register attaches the intake routes to router.
func (s *Server) Register(router *gin.Engine) {
	group := router.Group("/v1")
	group.Use(s.rateLimit(), s.authenticate())
	group.POST("/workloads/:workload_id/schedule", s.handleSchedule)
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiters.forAddr(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.JWTSecret == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if len(header) < 8 || header[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := jwt.Parse(header[7:], func(t *jwt.Token) (interface{}, error) {
			return []byte(s.opts.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
			return
		}
		c.Next()
	}
}

type scheduleRequest struct {
	Algorithm string      `json:"algorithm"`
	Tasks     []task.Task `json:"tasks"`
}

func (s *Server) handleSchedule(c *gin.Context) {
	workloadID := c.Param("workload_id")

	var req scheduleRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	for i := range req.Tasks {
		if req.Tasks[i].WorkloadID == "" {
			req.Tasks[i].WorkloadID = workloadID
		}
		if err := req.Tasks[i].Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	runID := uuid.NewString()

	result, err := s.opts.Scheduler.Schedule(ctx, req.Algorithm, req.Tasks)
	if err != nil {
		if sErr, ok := err.(schederr.SchedulerError); ok {
			if s.opts.FaultClient != nil {
				s.opts.FaultClient.NotifySchedulerError(sErr)
			}
			if s.opts.Audit != nil {
				if recErr := s.opts.Audit.RecordError(ctx, runID, sErr); recErr != nil {
					s.logger.Warn("audit record error failed", "run_id", runID, "error", recErr)
				}
			}
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if s.opts.Dispatcher != nil {
		s.opts.Dispatcher.Dispatch(result)
	}
	if s.opts.Mirror != nil {
		if _, mirrErr := s.opts.Mirror.Calculate(ctx, workloadID, req.Tasks); mirrErr != nil {
			s.logger.Warn("hyperperiod mirror push failed", "workload_id", workloadID, "error", mirrErr)
		}
	}
	warnings := feasibility.Report(result)
	if len(warnings) > 0 {
		if s.opts.FaultClient != nil {
			s.opts.FaultClient.NotifyFeasibilityWarnings(warnings)
		}
		if s.opts.Audit != nil {
			if recErr := s.opts.Audit.RecordWarnings(ctx, runID, warnings); recErr != nil {
				s.logger.Warn("audit record warnings failed", "run_id", runID, "error", recErr)
			}
		}
	}

	c.JSON(http.StatusOK, result)
}

// limiterSet hands out one rate.Limiter per remote address.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	burst    int
}

func newLimiterSet(r rate.Limit, burst int) *limiterSet {
	return &limiterSet{limiters: make(map[string]*rate.Limiter), r: r, burst: burst}
}

func (s *limiterSet) forAddr(addr string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[addr]
	if !ok {
		l = rate.NewLimiter(s.r, s.burst)
		s.limiters[addr] = l
	}
	return l
}
