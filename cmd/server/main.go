package main

// @title           Rolodex Client Record API
// @version         0.1.0
// @description     基于 Go(Gin) 的客户记录 CRUD 服务：创建、列表、按 ID 查询、全量更新与删除。
// @schemes         http https
// @BasePath        /

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"rolodex/internal/config"
	"rolodex/internal/handlers"
	"rolodex/internal/metrics"
	"rolodex/internal/middlewares"
	"rolodex/internal/services"
	"rolodex/internal/storage"
)

// main 为服务入口：加载配置、初始化日志/存储/服务、注册路由并启动 HTTP 服务。
func main() {
	// 配置结构化日志格式
	log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	// 加载配置（默认值 + config.yaml + .env/环境变量）
	cfg := config.Load()
	// 生产环境基线检查：禁止默认弱口令进入生产。
	if cfg.Env == "prod" {
		if cfg.MySQL.Password == "123456" || cfg.MySQL.Password == "password" || cfg.MySQL.Password == "" {
			log.Fatal("insecure mysql password in prod; set ROLODEX_MYSQL_PASSWORD or mysql.password in config.yaml")
		}
	}
	log.WithFields(log.Fields{
		"env":        cfg.Env,
		"http_addr":  cfg.HTTPAddr,
		"mysql_dsn":  cfg.MySQL.DSNMasked(),
		"redis_addr": cfg.Redis.Addr,
		"cache":      cfg.Cache.Enable,
	}).Info("configuration loaded")

	// 初始化存储（MySQL 必需，Redis 可选）
	db, err := storage.InitMySQL(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect mysql")
	}
	defer storage.CloseMySQL(db)

	rdb, err := storage.InitRedis(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect redis")
	}
	if rdb == nil {
		log.Warn("redis disabled; read cache and write rate limiting are off")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	// 初始化核心服务
	clientSvc := services.NewClientService(db, rdb, cfg)
	auditSvc := services.NewAuditService(db)

	// HTTP 路由与中间件
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestID())
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.SecurityHeaders(cfg))
	router.Use(metrics.Handler())

	// 装载 HTTP 处理器
	h := handlers.New(cfg, clientSvc, auditSvc, rdb)
	h.RegisterRoutes(router)

	// OpenAPI 文档（Stoplight Elements）与静态规范（受配置 docs.enable 控制）
	if cfg.Docs.Enable {
		router.GET("/openapi.json", func(c *gin.Context) {
			if p := config.FirstExisting(cfg.Docs.SpecPath, "docs/openapi.json", "../docs/openapi.json", "../../docs/openapi.json"); p != "" {
				c.File(p)
				return
			}
			c.String(404, "openapi spec not found")
		})
		route := cfg.Docs.Route
		if route == "" {
			route = "/docs"
		}
		router.GET(route, func(c *gin.Context) {
			if p := config.FirstExisting(cfg.Docs.PagePath, "web/stoplight.html", "../web/stoplight.html", "../../web/stoplight.html"); p != "" {
				c.File(p)
				return
			}
			c.String(404, "docs page not found")
		})
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	// 优雅退出
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown")
	} else {
		log.Info("server stopped")
	}
}
