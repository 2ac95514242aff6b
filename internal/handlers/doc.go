// Package handlers 装配 HTTP 传输层：路由注册、请求绑定与校验、
// 统一响应信封以及领域错误到状态码的映射。
package handlers
