package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/application/service"
	"github.com/garyjia/supplier-workflow/internal/application/workflow"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handlers contains all HTTP request handlers
type handlers struct {
	services Services
	health   HealthFunc
	logger   Logger
}

func newHandlers(services Services, health HealthFunc, logger Logger) *handlers {
	return &handlers{
		services: services,
		health:   health,
		logger:   logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

// TransitionRequest is the body of POST /api/claims/:id/transitions
type TransitionRequest struct {
	Action  string `json:"action" binding:"required"`
	Comment string `json:"comment"`
}

// AcceptRatingRequest is the body of POST /api/ratings/:id/accept
type AcceptRatingRequest struct {
	Comment string `json:"comment"`
}

// ListQuery holds paging query parameters
type ListQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if h.health != nil {
		healthy, details := h.health()
		resp.Components = details
		if !healthy {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, Response{Success: status == http.StatusOK, Data: resp})
}

// CreateClaim handles POST /api/claims
func (h *handlers) CreateClaim(c *gin.Context) {
	actor, _ := actorFrom(c)

	var input service.CreateClaimInput
	if !h.bindBody(c, &input) {
		return
	}

	claim, err := h.services.Claims.CreateClaim(c.Request.Context(), actor, input)
	if err != nil {
		h.fail(c, "Failed to create claim", err)
		return
	}
	respond(c, http.StatusCreated, claim)
}

// ListClaims handles GET /api/claims
func (h *handlers) ListClaims(c *gin.Context) {
	actor, _ := actorFrom(c)

	filter, ok := claimFilter(c)
	if !ok {
		return
	}

	claims, err := h.services.Claims.ListClaims(c.Request.Context(), actor, filter)
	if err != nil {
		h.fail(c, "Failed to list claims", err)
		return
	}
	if claims == nil {
		claims = []*entity.Claim{}
	}
	respond(c, http.StatusOK, claims)
}

// GetClaim handles GET /api/claims/:id and includes the actor's eligibility
func (h *handlers) GetClaim(c *gin.Context) {
	h.describe(c, entity.EntityTypeClaim)
}

// EditClaim handles PATCH /api/claims/:id
func (h *handlers) EditClaim(c *gin.Context) {
	actor, _ := actorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var patch entity.ClaimPatch
	if !h.bindBody(c, &patch) {
		return
	}

	claim, err := h.services.Claims.EditClaim(c.Request.Context(), actor, id, patch)
	if err != nil {
		h.fail(c, "Failed to edit claim", err)
		return
	}
	respond(c, http.StatusOK, claim)
}

// TransitionClaim handles POST /api/claims/:id/transitions
func (h *handlers) TransitionClaim(c *gin.Context) {
	actor, _ := actorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "action is required")
		return
	}

	result, err := h.services.Coordinator.ApplyTransition(c.Request.Context(), workflow.TransitionRequest{
		EntityType: entity.EntityTypeClaim,
		EntityID:   id,
		Action:     req.Action,
		Actor:      actor,
		Comment:    req.Comment,
	})
	if err != nil {
		h.fail(c, "Claim transition failed", err)
		return
	}
	respond(c, http.StatusOK, result)
}

// ExportClaimRegister handles GET /api/claims/export
func (h *handlers) ExportClaimRegister(c *gin.Context) {
	actor, _ := actorFrom(c)

	filter, ok := claimFilter(c)
	if !ok {
		return
	}

	export, err := h.services.Audit.ExportClaimRegister(c.Request.Context(), actor, filter)
	if err != nil {
		h.fail(c, "Failed to export claim register", err)
		return
	}
	attachment(c, export)
}

// CreateRating handles POST /api/ratings
func (h *handlers) CreateRating(c *gin.Context) {
	actor, _ := actorFrom(c)

	var input service.CreateRatingInput
	if !h.bindBody(c, &input) {
		return
	}

	rating, err := h.services.Ratings.CreateRating(c.Request.Context(), actor, input)
	if err != nil {
		h.fail(c, "Failed to create rating", err)
		return
	}
	respond(c, http.StatusCreated, rating)
}

// ListRatings handles GET /api/ratings?supplier_id=
func (h *handlers) ListRatings(c *gin.Context) {
	actor, _ := actorFrom(c)

	var q struct {
		ListQuery
		SupplierID int64 `form:"supplier_id"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	ratings, err := h.services.Ratings.ListRatings(c.Request.Context(), actor, q.SupplierID, q.Limit, q.Offset)
	if err != nil {
		h.fail(c, "Failed to list ratings", err)
		return
	}
	if ratings == nil {
		ratings = []*entity.SupplierRating{}
	}
	respond(c, http.StatusOK, ratings)
}

// GetRating handles GET /api/ratings/:id and includes the acceptance eligibility
func (h *handlers) GetRating(c *gin.Context) {
	h.describe(c, entity.EntityTypeRating)
}

// AcceptRating handles POST /api/ratings/:id/accept
func (h *handlers) AcceptRating(c *gin.Context) {
	actor, _ := actorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req AcceptRatingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	result, err := h.services.Coordinator.ApplyTransition(c.Request.Context(), workflow.TransitionRequest{
		EntityType: entity.EntityTypeRating,
		EntityID:   id,
		Action:     domainwf.TriggerAccept.String(),
		Actor:      actor,
		Comment:    req.Comment,
	})
	if err != nil {
		h.fail(c, "Rating acceptance failed", err)
		return
	}
	respond(c, http.StatusOK, result)
}

// RequestRating handles POST /api/rating-requests
func (h *handlers) RequestRating(c *gin.Context) {
	actor, _ := actorFrom(c)

	var input service.RequestRatingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	req, err := h.services.Ratings.RequestRating(c.Request.Context(), actor, input)
	if err != nil {
		h.fail(c, "Failed to request rating", err)
		return
	}
	respond(c, http.StatusAccepted, req)
}

func (h *handlers) claimAudit(c *gin.Context)  { h.auditTrail(c, entity.EntityTypeClaim) }
func (h *handlers) ratingAudit(c *gin.Context) { h.auditTrail(c, entity.EntityTypeRating) }

func (h *handlers) exportClaimAudit(c *gin.Context)  { h.exportAudit(c, entity.EntityTypeClaim) }
func (h *handlers) exportRatingAudit(c *gin.Context) { h.exportAudit(c, entity.EntityTypeRating) }

func (h *handlers) describe(c *gin.Context, entityType string) {
	actor, _ := actorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.services.Coordinator.Describe(c.Request.Context(), entityType, id, actor)
	if err != nil {
		h.fail(c, "Failed to load "+entityType, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *handlers) auditTrail(c *gin.Context, entityType string) {
	actor, _ := actorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	entries, err := h.services.Audit.Trail(c.Request.Context(), actor, entityType, id)
	if err != nil {
		h.fail(c, "Failed to load audit trail", err)
		return
	}
	if entries == nil {
		entries = []*entity.AuditEntry{}
	}
	respond(c, http.StatusOK, entries)
}

func (h *handlers) exportAudit(c *gin.Context, entityType string) {
	actor, _ := actorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	export, err := h.services.Audit.ExportTrail(c.Request.Context(), actor, entityType, id)
	if err != nil {
		h.fail(c, "Failed to export audit trail", err)
		return
	}
	attachment(c, export)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func claimFilter(c *gin.Context) (port.ClaimFilter, bool) {
	var q struct {
		ListQuery
		Status     string `form:"status"`
		SupplierID int64  `form:"supplier_id"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return port.ClaimFilter{}, false
	}
	return port.ClaimFilter{
		Status:     q.Status,
		SupplierID: q.SupplierID,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}, true
}

func attachment(c *gin.Context, export *service.Export) {
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	c.Data(http.StatusOK, xlsxContentType, export.Content)
}
