package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"kazi.app/attachmentportal/internal/dto"
	"kazi.app/attachmentportal/internal/model"
	"kazi.app/attachmentportal/internal/service"
	"kazi.app/attachmentportal/pkg/apperror"
	"kazi.app/attachmentportal/pkg/response"
	"kazi.app/attachmentportal/pkg/validator"
)

// ReviewHandler serves the staff dashboards: HR triage plus the department
// decision endpoints.
type ReviewHandler struct {
	service service.ApplicationService
	search  service.SearchService
}

func NewReviewHandler(service service.ApplicationService, search service.SearchService) *ReviewHandler {
	return &ReviewHandler{service: service, search: search}
}

// ListApplications returns applications filtered by status/date range. HR and
// admin see everything.
func (h *ReviewHandler) ListApplications(c *gin.Context) {
	var query dto.ListApplicationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ListForwarded returns the applications routed to the caller's department.
func (h *ReviewHandler) ListForwarded(c *gin.Context) {
	dept, err := reviewerDepartment(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.ListForDepartment(c.Request.Context(), dept)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *ReviewHandler) Forward(c *gin.Context) {
	actorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	appID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	var input dto.ForwardApplicationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.Forward(c.Request.Context(), actorID, appID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) RejectPending(c *gin.Context) {
	actorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	appID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	var input dto.RejectApplicationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.RejectPending(c.Request.Context(), actorID, appID, input.Notes)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) CancelPending(c *gin.Context) {
	appID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	if err := h.service.CancelPending(c.Request.Context(), appID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "application cancelled"})
}

// Decide records the accept/reject verdict of the department the application
// was forwarded to. The reviewer's department is taken from their role, never
// from the request body.
func (h *ReviewHandler) Decide(c *gin.Context) {
	actorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	dept, err := reviewerDepartment(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	appID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}

	var input dto.DecideApplicationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.Decide(c.Request.Context(), actorID, dept, appID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Search queries the applications search index.
func (h *ReviewHandler) Search(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	resp, err := h.search.SearchApplications(c.Query("q"), c.Query("status"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"hits": resp.Hits, "total": resp.EstimatedTotalHits})
}

func reviewerDepartment(c *gin.Context) (model.Department, error) {
	role, err := response.GetUserRole(c)
	if err != nil {
		return "", err
	}

	dept := model.Department(role)
	if !dept.Valid() {
		return "", apperror.ErrForbidden
	}

	return dept, nil
}
