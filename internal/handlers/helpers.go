package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	validator "github.com/go-playground/validator/v10"

	"rolodex/internal/storage"
)

// 响应信封统一为 {status, message, data, metadata}；
// 列表响应在 metadata.pagination 中携带分页信息。

func respondSuccess(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{
		"status":   "success",
		"message":  message,
		"data":     data,
		"metadata": gin.H{},
	})
}

func respondError(c *gin.Context, status int, message string, details map[string]string) {
	md := gin.H{}
	if len(details) > 0 {
		md["details"] = details
	}
	c.JSON(status, gin.H{
		"status":   "error",
		"message":  message,
		"data":     nil,
		"metadata": md,
	})
}

func respondPaginated(c *gin.Context, data any, total int64, page, perPage int, hasMore bool) {
	c.JSON(200, gin.H{
		"status":  "success",
		"message": "clients retrieved",
		"data":    data,
		"metadata": gin.H{
			"pagination": gin.H{
				"total_count":    total,
				"page":           page,
				"items_per_page": perPage,
				"has_more":       hasMore,
			},
		},
	})
}

// parseRecordID 解析路径参数 client_id；非法或非数字形式视同不存在的 ID，按 404 处理。
func parseRecordID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("client_id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, 404, "client not found", nil)
		return 0, false
	}
	return id, true
}

// respondBindingError 将 Gin 绑定错误写成 422 响应：
// 字段级校验失败返回按字段的 details；JSON 本身不可解析时消息为 invalid request body。
func respondBindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				out[field] = "required"
			case "email":
				out[field] = "must be a valid email address"
			case "max":
				out[field] = "exceeds maximum length"
			default:
				out[field] = "invalid"
			}
		}
		respondError(c, 422, "validation failed", out)
		return
	}
	respondError(c, 422, "invalid request body", nil)
}

// clientPayload 构造对外的记录表示，时间统一为 RFC3339。
func clientPayload(rec *storage.ClientRecord) gin.H {
	return gin.H{
		"id":         rec.ID,
		"name":       rec.Name,
		"email":      rec.Email,
		"created_at": rec.CreatedAt.Format(time.RFC3339),
	}
}
