package agent

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relev-ai/relevai-go/key"
)

// ginModeOnce guards the global gin mode switch against races when
// several agents run in one process.
var ginModeOnce sync.Once

// tokenResponse is the /v1/token reply.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      string `json:"user_id"`
}

// healthResponse is the /healthz reply.
type healthResponse struct {
	Status string               `json:"status"`
	Keys   map[string]KeyStatus `json:"keys"`
}

// buildEngine assembles the gin engine: middleware chain, token endpoint
// under /v1 (API-key guarded when enabled), health and metrics.
func (a *Agent) buildEngine() *gin.Engine {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	engine := gin.New()
	engine.Use(
		recovery(a.logger),
		requestID(),
		requestLogging(a.logger),
		a.httpMetrics.middleware(),
	)
	if a.cfg.Tracing.Enabled {
		engine.Use(tracing(a.tracer))
	}

	v1 := engine.Group("/v1")
	if a.cfg.Auth.Enabled {
		v1.Use(apiKeyAuth(a.cfg.Auth, a.logger))
	}
	v1.GET("/token", a.handleToken)

	engine.GET("/healthz", a.handleHealthz)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		a.metrics.Registry(), promhttp.HandlerOpts{})))

	return engine
}

// handleToken serves the named key's current access token, renewing it
// first when it is due.
func (a *Agent) handleToken(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "name query parameter is required",
		})
		return
	}

	k, ok := a.keys.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown key"})
		return
	}

	tok, err := k.Token(c.Request.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, key.ErrKeyClosed) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"error":  "token renewal failed",
			"detail": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: tok,
		ExpiresIn:   int64(k.ExpiresIn().Seconds()),
		UserID:      k.UserID(),
	})
}

// handleHealthz reports per-key refresher state. A refresher that gave up
// renewing marks the agent degraded.
func (a *Agent) handleHealthz(c *gin.Context) {
	statuses := a.keys.Statuses()

	status := "ok"
	code := http.StatusOK
	for _, st := range statuses {
		if st.State == string(key.RefresherFailed) {
			status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(code, healthResponse{Status: status, Keys: statuses})
}
