package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"kazi.app/attachmentportal/internal/dto"
	"kazi.app/attachmentportal/internal/service"
	"kazi.app/attachmentportal/pkg/response"
	"kazi.app/attachmentportal/pkg/validator"
)

// ApplicationHandler serves the student-facing application endpoints.
type ApplicationHandler struct {
	service service.ApplicationService
}

func NewApplicationHandler(service service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// Submit accepts a multipart form with the submission fields and the four
// required document files.
func (h *ApplicationHandler) Submit(c *gin.Context) {
	studentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.SubmitApplicationInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	docs := service.SubmitDocuments{}
	// Missing files surface as ValidationError in the service, one message per
	// missing field.
	if file, err := c.FormFile("application_letter"); err == nil {
		docs.ApplicationLetter = file
	}
	if file, err := c.FormFile("insurance"); err == nil {
		docs.Insurance = file
	}
	if file, err := c.FormFile("cv"); err == nil {
		docs.CV = file
	}
	if file, err := c.FormFile("introduction_letter"); err == nil {
		docs.IntroductionLetter = file
	}

	resp, err := h.service.Submit(c.Request.Context(), studentID, input, docs)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *ApplicationHandler) GetMine(c *gin.Context) {
	studentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.GetOwn(c.Request.Context(), studentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ApplicationHandler) CancelMine(c *gin.Context) {
	studentID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.CancelOwn(c.Request.Context(), studentID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "application cancelled"})
}
