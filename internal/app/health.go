package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

type HealthChecker struct {
	infra Infrastructure
}

func NewHealthChecker(infra Infrastructure) *HealthChecker {
	return &HealthChecker{
		infra: infra,
	}
}

type dependencyStatus struct {
	name string
	err  error
}

func (h *HealthChecker) check(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	results := make(chan dependencyStatus, 2)

	go func() {
		results <- dependencyStatus{name: "postgres", err: h.infra.Postgres().Ping(ctx)}
	}()

	go func() {
		results <- dependencyStatus{name: "redis", err: h.infra.Redis().Ping(ctx)}
	}()

	statuses := make(map[string]error, 2)
	for i := 0; i < 2; i++ {
		r := <-results
		statuses[r.name] = r.err
	}
	return statuses
}

// Handler reports overall health plus a per-dependency breakdown, so a
// probe failure points at the dependency that caused it
func (h *HealthChecker) Handler(c *gin.Context) {
	statuses := h.check(c.Request.Context())

	body := gin.H{"status": "pass"}
	code := http.StatusOK

	for name, err := range statuses {
		if err != nil {
			body[name] = err.Error()
			body["status"] = "fail"
			code = http.StatusServiceUnavailable
		} else {
			body[name] = "pass"
		}
	}

	c.JSON(code, body)
}
