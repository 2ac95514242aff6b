// Package config 负责加载与解析进程配置，支持 YAML/JSON 配置文件、.env 文件
// 与 ROLODEX_* 环境变量三层覆盖。该层保持无业务依赖，供 main 与其它组件直接读取结构化配置。
package config
