package handler

import (
	"net/http"
	"strings"
	"time"

	"smartlead_backend/internal/leads/service"
	"smartlead_backend/internal/leads/transport"
	"smartlead_backend/platform/httpkit"
	"smartlead_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest = "invalid request"
	msgMissingTenant  = "missing tenant"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	if val == nil {
		val = validator.New()
	}
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the tenant-scoped scoring routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/score", h.Score)
	rg.POST("/batch-score", h.BatchScore)
	rg.POST("/rescore-stale", h.RescoreStale)
	rg.POST("/:id/rescore", h.Rescore)
}

// RegisterPublicRoutes registers routes that need no tenant.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/classify", h.Classify)
}

func (h *Handler) Score(c *gin.Context) {
	tenantID, ok := mustTenant(c)
	if !ok {
		return
	}

	var req transport.ScoreLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	lead := req.ToLead(tenantID)
	result := h.svc.Score(c.Request.Context(), lead)
	httpkit.OK(c, transport.NewScoreResponse(lead, result))
}

func (h *Handler) Rescore(c *gin.Context) {
	tenantID, ok := mustTenant(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, result, err := h.svc.Rescore(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewScoreResponse(lead, result))
}

func (h *Handler) BatchScore(c *gin.Context) {
	tenantID, ok := mustTenant(c)
	if !ok {
		return
	}

	var req transport.BatchScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	scores, err := h.svc.BatchScore(c.Request.Context(), tenantID, req.LeadIDs)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BatchScoreResponse{Scores: scores})
}

func (h *Handler) Classify(c *gin.Context) {
	var req transport.ClassifyRequest
	if strings.TrimSpace(c.Query("score")) == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "score is required")
		return
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	classification, priority := h.svc.Classify(req.Score)
	httpkit.OK(c, transport.ClassifyResponse{
		Score:          req.Score,
		Classification: classification,
		Priority:       priority,
	})
}

func (h *Handler) RescoreStale(c *gin.Context) {
	tenantID, ok := mustTenant(c)
	if !ok {
		return
	}

	var req transport.RescoreStaleRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	var staleAfter time.Duration
	if req.StaleAfter != "" {
		d, err := time.ParseDuration(req.StaleAfter)
		if err != nil || d <= 0 {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "staleAfter must be a positive duration")
			return
		}
		staleAfter = d
	}

	taskID, staleBefore, limit, err := h.svc.RequestStaleRescore(c.Request.Context(), tenantID, staleAfter, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Accepted(c, transport.RescoreStaleResponse{TaskID: taskID, StaleBefore: staleBefore, Limit: limit})
}

func mustTenant(c *gin.Context) (uuid.UUID, bool) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, msgMissingTenant, nil)
		return uuid.Nil, false
	}
	return tenantID, true
}
