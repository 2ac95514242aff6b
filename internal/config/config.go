package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

// Config 保存进程级配置（内置默认值 + 配置文件 + 环境变量）。
// 字段提供开发友好的默认值；生产环境请通过 config.yaml 或环境变量覆盖。
type Config struct {
	Env      string
	HTTPAddr string
	Docs     DocsConfig
	MySQL    MySQLConfig
	Redis    RedisConfig
	Cache    CacheConfig
	List     ListConfig
	Limits   LimitConfig
	Security SecurityConfig
}

type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Params   string
}

func (m MySQLConfig) DSN() string {
	port := m.Port
	if port == 0 {
		port = 3306
	}
	host := m.Host
	if host == "" {
		host = "127.0.0.1"
	}
	db := m.DBName
	if db == "" {
		db = "rolodex"
	}
	params := m.Params
	if params == "" {
		params = "parseTime=true&loc=Local&charset=utf8mb4,utf8"
	}
	// 注意：Password 可能为空（本地无密码开发），生产强烈建议设置强密码
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", m.User, m.Password, host, port, db, params)
}

func (m MySQLConfig) DSNMasked() string {
	masked := m
	if masked.Password != "" {
		masked.Password = "******"
	}
	return masked.DSN()
}

type RedisConfig struct {
	// Addr 为空时禁用 Redis（读缓存与写限流同时停用）
	Addr     string
	DB       int
	Password string
}

// CacheConfig 控制按 ID 查询的 Redis 旁路缓存。
type CacheConfig struct {
	Enable bool
	TTL    time.Duration
}

// ListConfig 控制列表接口的分页参数边界。
type ListConfig struct {
	DefaultLimit int
	MaxLimit     int
}

type LimitConfig struct {
	// 写操作（POST/PUT/DELETE）按 IP 的限流次数
	WritePerMinute int
	// 时间窗口（默认 1m）
	Window time.Duration
}

type DocsConfig struct {
	// 是否启用内置的 API 文档页面（Stoplight Elements）
	Enable bool
	// 文档访问路径（路由），例如 /docs
	Route string
	// OpenAPI 规范文件路径（相对进程工作目录）
	SpecPath string
	// HTML 页面路径（Stoplight Elements 静态文件）
	PagePath string
}

type SecurityConfig struct {
	HSTS struct {
		Enabled           bool
		MaxAgeSeconds     int
		IncludeSubdomains bool
	}
}

// Load 生成配置：先使用内置默认值，再用配置文件（config.yaml/yml/json）覆盖，
// 最后读取 .env 与进程环境变量（ROLODEX_* 前缀）覆盖。环境变量优先级最高。
func Load() Config {
	// 1) 默认值（本地开发可直接运行）
	cfg := Config{
		Env:      "dev",
		HTTPAddr: ":8080",
		Docs:     DocsConfig{Enable: true, Route: "/docs", SpecPath: "docs/openapi.json", PagePath: "web/stoplight.html"},
		MySQL:    MySQLConfig{Host: "127.0.0.1", Port: 3306, User: "root", Password: "123456", DBName: "rolodex", Params: "parseTime=true&loc=Local&charset=utf8mb4,utf8"},
		Redis:    RedisConfig{Addr: "127.0.0.1:6379", DB: 0, Password: ""},
		Cache:    CacheConfig{Enable: true, TTL: 5 * time.Minute},
		List:     ListConfig{DefaultLimit: 10, MaxLimit: 100},
		Limits:   LimitConfig{WritePerMinute: 120, Window: time.Minute},
		Security: func() SecurityConfig {
			var s SecurityConfig
			s.HSTS.Enabled = true
			s.HSTS.MaxAgeSeconds = 31536000
			s.HSTS.IncludeSubdomains = true
			return s
		}(),
	}

	// 2) 配置文件覆盖（若存在）
	if path := FirstExisting("config.yaml", "config.yml", "config.json"); path != "" {
		_ = loadFromFile(path, &cfg)
	}

	// 3) .env 与环境变量覆盖（部署时注入机密的主要途径）
	_ = godotenv.Load()
	applyEnv(&cfg)
	return cfg
}

// 配置文件格式：YAML 或 JSON。仅非零值会覆盖现有字段。
func loadFromFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var fm fileModel
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(b, &fm); err != nil {
			return err
		}
	} else if ext == ".json" || ext == "" {
		if err := json.Unmarshal(b, &fm); err != nil {
			return err
		}
	} else {
		return errors.New("unsupported config file format")
	}
	fm.apply(cfg)
	return nil
}

// --- 配置文件模型与合并逻辑 ---

type fileModel struct {
	Env      string        `yaml:"env" json:"env"`
	HTTPAddr string        `yaml:"http_addr" json:"http_addr"`
	Docs     *fileDocs     `yaml:"docs" json:"docs"`
	MySQL    *fileMySQL    `yaml:"mysql" json:"mysql"`
	Redis    *fileRedis    `yaml:"redis" json:"redis"`
	Cache    *fileCache    `yaml:"cache" json:"cache"`
	List     *fileList     `yaml:"list" json:"list"`
	Limits   *fileLimits   `yaml:"limits" json:"limits"`
	Security *fileSecurity `yaml:"security" json:"security"`
}

type fileMySQL struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	DBName   string `yaml:"db" json:"db"`
	Params   string `yaml:"params" json:"params"`
}
type fileRedis struct {
	Addr     *string `yaml:"addr" json:"addr"`
	DB       int     `yaml:"db" json:"db"`
	Password string  `yaml:"password" json:"password"`
}
type fileCache struct {
	Enable *bool  `yaml:"enable" json:"enable"`
	TTL    string `yaml:"ttl" json:"ttl"`
}
type fileList struct {
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
	MaxLimit     int `yaml:"max_limit" json:"max_limit"`
}
type fileLimits struct {
	WritePerMinute int    `yaml:"write_per_minute" json:"write_per_minute"`
	Window         string `yaml:"window" json:"window"`
}
type fileDocs struct {
	Enable   *bool  `yaml:"enable" json:"enable"`
	Route    string `yaml:"route" json:"route"`
	SpecPath string `yaml:"spec_path" json:"spec_path"`
	PagePath string `yaml:"page_path" json:"page_path"`
}
type fileSecurity struct {
	HSTS struct {
		Enabled           *bool `yaml:"enabled" json:"enabled"`
		MaxAge            int   `yaml:"max_age" json:"max_age"`
		IncludeSubdomains *bool `yaml:"include_subdomains" json:"include_subdomains"`
	} `yaml:"hsts" json:"hsts"`
}

func (fm *fileModel) apply(cfg *Config) {
	if fm.Env != "" {
		cfg.Env = fm.Env
	}
	if fm.HTTPAddr != "" {
		cfg.HTTPAddr = fm.HTTPAddr
	}
	if fm.Docs != nil {
		if fm.Docs.Enable != nil {
			cfg.Docs.Enable = *fm.Docs.Enable
		}
		if fm.Docs.Route != "" {
			cfg.Docs.Route = fm.Docs.Route
		}
		if fm.Docs.SpecPath != "" {
			cfg.Docs.SpecPath = fm.Docs.SpecPath
		}
		if fm.Docs.PagePath != "" {
			cfg.Docs.PagePath = fm.Docs.PagePath
		}
	}
	if fm.MySQL != nil {
		if fm.MySQL.Host != "" {
			cfg.MySQL.Host = fm.MySQL.Host
		}
		if fm.MySQL.Port != 0 {
			cfg.MySQL.Port = fm.MySQL.Port
		}
		if fm.MySQL.User != "" {
			cfg.MySQL.User = fm.MySQL.User
		}
		if fm.MySQL.Password != "" {
			cfg.MySQL.Password = fm.MySQL.Password
		}
		if fm.MySQL.DBName != "" {
			cfg.MySQL.DBName = fm.MySQL.DBName
		}
		if fm.MySQL.Params != "" {
			cfg.MySQL.Params = fm.MySQL.Params
		}
	}
	if fm.Redis != nil {
		// addr 允许显式置空字符串以禁用 Redis
		if fm.Redis.Addr != nil {
			cfg.Redis.Addr = *fm.Redis.Addr
		}
		if fm.Redis.DB != 0 {
			cfg.Redis.DB = fm.Redis.DB
		}
		if fm.Redis.Password != "" {
			cfg.Redis.Password = fm.Redis.Password
		}
	}
	if fm.Cache != nil {
		if fm.Cache.Enable != nil {
			cfg.Cache.Enable = *fm.Cache.Enable
		}
		if fm.Cache.TTL != "" {
			if d, err := time.ParseDuration(fm.Cache.TTL); err == nil {
				cfg.Cache.TTL = d
			}
		}
	}
	if fm.List != nil {
		if fm.List.DefaultLimit != 0 {
			cfg.List.DefaultLimit = fm.List.DefaultLimit
		}
		if fm.List.MaxLimit != 0 {
			cfg.List.MaxLimit = fm.List.MaxLimit
		}
	}
	if fm.Limits != nil {
		if fm.Limits.WritePerMinute != 0 {
			cfg.Limits.WritePerMinute = fm.Limits.WritePerMinute
		}
		if fm.Limits.Window != "" {
			if d, err := time.ParseDuration(fm.Limits.Window); err == nil {
				cfg.Limits.Window = d
			}
		}
	}
	if fm.Security != nil {
		if fm.Security.HSTS.Enabled != nil {
			cfg.Security.HSTS.Enabled = *fm.Security.HSTS.Enabled
		}
		if fm.Security.HSTS.MaxAge != 0 {
			cfg.Security.HSTS.MaxAgeSeconds = fm.Security.HSTS.MaxAge
		}
		if fm.Security.HSTS.IncludeSubdomains != nil {
			cfg.Security.HSTS.IncludeSubdomains = *fm.Security.HSTS.IncludeSubdomains
		}
	}
}

// applyEnv 读取 ROLODEX_* 环境变量并覆盖配置，供 .env 或容器注入使用。
func applyEnv(cfg *Config) {
	if v := os.Getenv("ROLODEX_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("ROLODEX_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("ROLODEX_MYSQL_HOST"); v != "" {
		cfg.MySQL.Host = v
	}
	if v := os.Getenv("ROLODEX_MYSQL_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MySQL.Port = n
		}
	}
	if v := os.Getenv("ROLODEX_MYSQL_USER"); v != "" {
		cfg.MySQL.User = v
	}
	if v, ok := os.LookupEnv("ROLODEX_MYSQL_PASSWORD"); ok {
		cfg.MySQL.Password = v
	}
	if v := os.Getenv("ROLODEX_MYSQL_DB"); v != "" {
		cfg.MySQL.DBName = v
	}
	if v, ok := os.LookupEnv("ROLODEX_REDIS_ADDR"); ok {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("ROLODEX_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v, ok := os.LookupEnv("ROLODEX_REDIS_PASSWORD"); ok {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ROLODEX_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
}

// FirstExisting 按顺序返回第一个存在的文件路径；若都不存在则返回空字符串。
// 注意：该函数用于在多路径间进行容错查找，如配置文件或静态资源位置。
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
