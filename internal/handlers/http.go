package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"rolodex/internal/config"
	"rolodex/internal/metrics"
	"rolodex/internal/middlewares"
	"rolodex/internal/services"
)

// Handler 聚合所有依赖（配置、服务、缓存连接）并注册所有 HTTP 路由。
type Handler struct {
	cfg       config.Config
	clientSvc *services.ClientService
	auditSvc  *services.AuditService
	rdb       *redis.Client
}

// New 构造 Handler，将各领域服务注入，用于后续路由注册与处理。
func New(cfg config.Config, cs *services.ClientService, as *services.AuditService, rdb *redis.Client) *Handler {
	return &Handler{cfg: cfg, clientSvc: cs, auditSvc: as, rdb: rdb}
}

// RegisterRoutes 在 Gin 路由上挂载客户记录的全部端点与运维端点。
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	window := h.cfg.Limits.Window
	if window <= 0 {
		window = time.Minute
	}
	// 写端点按来源 IP 限流；Redis 未配置时中间件直接放行
	writeLimit := middlewares.RateLimit(h.rdb, "write", h.cfg.Limits.WritePerMinute, window, func(c *gin.Context) string { return c.ClientIP() })

	// 客户记录 CRUD
	r.POST("/clients", writeLimit, h.createClient)
	r.GET("/clients", h.listClients)
	r.GET("/clients/:client_id", h.getClient)
	r.PUT("/clients/:client_id", writeLimit, h.updateClient)
	r.DELETE("/clients/:client_id", writeLimit, h.deleteClient)

	// 运维端点
	r.GET("/healthz", h.healthz)
	r.GET("/metrics", metrics.Exposer())
	r.GET("/audit", h.listAudit)
}

// @Summary      健康检查
// @Description  验证进程存活以及 MySQL/Redis 连接可用
// @Tags         ops
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /healthz [get]
func (h *Handler) healthz(c *gin.Context) {
	if sqlDB, err := h.clientSvc.DB().DB(); err != nil || sqlDB.PingContext(c) != nil {
		c.JSON(503, gin.H{"status": "degraded", "reason": "mysql"})
		return
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(c).Err(); err != nil {
			c.JSON(503, gin.H{"status": "degraded", "reason": "redis"})
			return
		}
	}
	c.JSON(200, gin.H{"status": "ok"})
}
