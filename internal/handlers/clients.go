package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"rolodex/internal/metrics"
	"rolodex/internal/services"
)

// 客户记录请求体：PUT 为全量替换语义，两个字段均必填。
type clientRequest struct {
	Name  string `json:"name" binding:"required,max=190"`
	Email string `json:"email" binding:"required,email,max=190"`
}

// bindClientRequest 绑定并规范化请求体；返回 false 时已写出 422 响应。
func (h *Handler) bindClientRequest(c *gin.Context) (*clientRequest, bool) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return nil, false
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" {
		respondError(c, 422, "validation failed", map[string]string{"name": "required"})
		return nil, false
	}
	return &req, true
}

// audit 写入一条携带请求上下文的审计日志；失败的变更同样落审计（outcome=failure）。
func (h *Handler) audit(c *gin.Context, level, event string, recordID *uint64, desc string, status int, outcome string) {
	h.auditSvc.Write(c, level, event, recordID, desc, c.ClientIP(), services.AuditWriteOpts{
		RequestID: c.GetString("request_id"),
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		Status:    status,
		Outcome:   outcome,
	})
}

// @Summary      创建客户记录
// @Description  校验 name/email 后插入新记录，返回含自增 ID 的完整记录
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        body  body   clientRequest  true  "客户字段"
// @Success      201   {object} map[string]interface{}
// @Failure      409   {object} map[string]string "邮箱已被占用"
// @Failure      422   {object} map[string]string "字段缺失或格式错误"
// @Router       /clients [post]
func (h *Handler) createClient(c *gin.Context) {
	req, ok := h.bindClientRequest(c)
	if !ok {
		return
	}
	rec, err := h.clientSvc.Create(c, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			h.audit(c, "WARN", "CLIENT_CREATED", nil, "create rejected: email already registered", 409, "failure")
			respondError(c, 409, "email already registered", map[string]string{"email": "already registered"})
			return
		}
		h.audit(c, "ERROR", "CLIENT_CREATED", nil, "create failed: store error", 500, "failure")
		respondError(c, 500, "failed to create client", nil)
		return
	}
	metrics.RecordsCreated.Inc()
	h.audit(c, "INFO", "CLIENT_CREATED", &rec.ID, "client created", 201, "success")
	respondSuccess(c, 201, "client created", clientPayload(rec))
}

// @Summary      客户记录列表
// @Description  按 ID 升序分页返回全部记录，metadata.pagination 携带总数与翻页信息
// @Tags         clients
// @Produce      json
// @Param        limit  query int false "每页数量（默认 10，上限 100）"
// @Param        offset query int false "起始偏移（默认 0）"
// @Success      200   {object} map[string]interface{}
// @Router       /clients [get]
func (h *Handler) listClients(c *gin.Context) {
	limit := h.cfg.List.DefaultLimit
	if limit <= 0 {
		limit = 10
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if max := h.cfg.List.MaxLimit; max > 0 && limit > max {
		limit = max
	}
	offset := 0
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	list, total, err := h.clientSvc.List(c, limit, offset)
	if err != nil {
		respondError(c, 500, "failed to list clients", nil)
		return
	}
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, clientPayload(&list[i]))
	}
	page := offset/limit + 1
	respondPaginated(c, out, total, page, limit, int64(offset+limit) < total)
}

// @Summary      查询单个客户记录
// @Tags         clients
// @Produce      json
// @Param        client_id path uint64 true "记录 ID"
// @Success      200   {object} map[string]interface{}
// @Failure      404   {object} map[string]string
// @Router       /clients/{client_id} [get]
func (h *Handler) getClient(c *gin.Context) {
	id, ok := parseRecordID(c)
	if !ok {
		return
	}
	rec, err := h.clientSvc.Get(c, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(c, 404, "client not found", nil)
			return
		}
		respondError(c, 500, "failed to get client", nil)
		return
	}
	respondSuccess(c, 200, "client retrieved", clientPayload(rec))
}

// @Summary      更新客户记录（全量替换）
// @Description  覆盖 name 与 email；记录不存在时返回 404，不会发生部分写入
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        client_id path uint64 true "记录 ID"
// @Param        body  body   clientRequest  true  "新的客户字段"
// @Success      200   {object} map[string]interface{}
// @Failure      404   {object} map[string]string
// @Failure      409   {object} map[string]string
// @Failure      422   {object} map[string]string
// @Router       /clients/{client_id} [put]
func (h *Handler) updateClient(c *gin.Context) {
	id, ok := parseRecordID(c)
	if !ok {
		return
	}
	req, ok := h.bindClientRequest(c)
	if !ok {
		return
	}
	rec, err := h.clientSvc.Update(c, id, req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			respondError(c, 404, "client not found", nil)
		case errors.Is(err, services.ErrEmailTaken):
			h.audit(c, "WARN", "CLIENT_UPDATED", &id, "update rejected: email already registered", 409, "failure")
			respondError(c, 409, "email already registered", map[string]string{"email": "already registered"})
		default:
			h.audit(c, "ERROR", "CLIENT_UPDATED", &id, "update failed: store error", 500, "failure")
			respondError(c, 500, "failed to update client", nil)
		}
		return
	}
	h.audit(c, "INFO", "CLIENT_UPDATED", &rec.ID, "client updated", 200, "success")
	respondSuccess(c, 200, "client updated", clientPayload(rec))
}

// @Summary      删除客户记录
// @Description  物理删除指定记录；成功返回 204 无内容
// @Tags         clients
// @Produce      json
// @Param        client_id path uint64 true "记录 ID"
// @Success      204   {string} string "No Content"
// @Failure      404   {object} map[string]string
// @Router       /clients/{client_id} [delete]
func (h *Handler) deleteClient(c *gin.Context) {
	id, ok := parseRecordID(c)
	if !ok {
		return
	}
	if err := h.clientSvc.Delete(c, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(c, 404, "client not found", nil)
			return
		}
		h.audit(c, "ERROR", "CLIENT_DELETED", &id, "delete failed: store error", 500, "failure")
		respondError(c, 500, "failed to delete client", nil)
		return
	}
	metrics.RecordsDeleted.Inc()
	h.audit(c, "INFO", "CLIENT_DELETED", &id, "client deleted", 204, "success")
	c.Status(204)
}
