package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// @Summary      审计日志查询
// @Description  按事件与记录 ID 过滤返回最近的变更审计日志
// @Tags         ops
// @Produce      json
// @Param        event  query string false "事件（CLIENT_CREATED/CLIENT_UPDATED/CLIENT_DELETED）"
// @Param        record query uint64 false "记录 ID"
// @Param        limit  query int    false "数量（<=1000）"
// @Success      200 {object} map[string]interface{}
// @Router       /audit [get]
func (h *Handler) listAudit(c *gin.Context) {
	event := c.Query("event")
	var recordPtr *uint64
	if v := c.Query("record"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			recordPtr = &id
		}
	}
	limit := 200
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	list, err := h.auditSvc.Query(c, event, recordPtr, limit)
	if err != nil {
		respondError(c, 500, "failed to list audit records", nil)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, it := range list {
		out = append(out, gin.H{
			"ts":         it.Timestamp.Unix(),
			"level":      it.Level,
			"event":      it.Event,
			"record_id":  it.RecordID,
			"desc":       it.Description,
			"ip":         it.IPAddress,
			"request_id": it.RequestID,
			"method":     it.Method,
			"path":       it.Path,
			"status":     it.Status,
			"outcome":    it.Outcome,
		})
	}
	respondSuccess(c, 200, "audit records retrieved", out)
}
