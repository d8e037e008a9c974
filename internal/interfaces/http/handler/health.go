package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"promo-script-ai-api/internal/interfaces/http/dto"
)

const readyTimeout = 2 * time.Second

// HealthChecker 依赖健康检查
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version string
	deps    map[string]HealthChecker
	assets  map[string]bool
}

// NewHealthHandler deps 中值为 nil 的依赖视为未启用；assets 记录各素材服务是否配置了凭证
func NewHealthHandler(version string, deps map[string]HealthChecker, assets map[string]bool) *HealthHandler {
	return &HealthHandler{
		version: version,
		deps:    deps,
		assets:  assets,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Description 检查服务是否可以接收流量
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	resp := readinessResponse{Status: "ok", Checks: make(map[string]*readinessCheck, len(h.deps)+len(h.assets))}
	for name, configured := range h.assets {
		// 未配置凭证时返回演示素材，不影响就绪态
		status := "placeholder"
		if configured {
			status = "ok"
		}
		resp.Checks[name] = &readinessCheck{Status: status}
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for name, dep := range h.deps {
		if dep == nil {
			mu.Lock()
			resp.Checks[name] = &readinessCheck{Status: "disabled"}
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			start := time.Now()
			err := dep.HealthCheck(ctx)
			check := &readinessCheck{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				check.Status, check.Error = "error", err.Error()
			}
			mu.Lock()
			resp.Checks[name] = check
			mu.Unlock()
			return err
		})
	}

	// 已启用的依赖任一不可用即不接收流量
	if err := g.Wait(); err != nil {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// NoRoute 未匹配路由
func (h *HealthHandler) NoRoute(c *gin.Context) {
	dto.Error(c, http.StatusNotFound, "route not found")
}

// Live 存活检查接口
// @Summary 存活检查
// @Description 检查服务是否存活
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}
