package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/objective-paper-api/internal/dto"
	"github.com/noah-isme/objective-paper-api/internal/models"
	"github.com/noah-isme/objective-paper-api/internal/render"
	"github.com/noah-isme/objective-paper-api/internal/service"
	appErrors "github.com/noah-isme/objective-paper-api/pkg/errors"
	"github.com/noah-isme/objective-paper-api/pkg/response"
)

// PaperHandler exposes the paper lifecycle endpoints.
type PaperHandler struct {
	papers   *service.PaperService
	sessions *service.SessionService
}

// NewPaperHandler constructs handler.
func NewPaperHandler(papers *service.PaperService, sessions *service.SessionService) *PaperHandler {
	return &PaperHandler{papers: papers, sessions: sessions}
}

// Upload forwards a question spreadsheet to the question bank.
func (h *PaperHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("excelFile")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "excelFile is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	if err := h.papers.Upload(c.Request.Context(), fileHeader.Filename, file); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.UploadResponse{Message: "Successfully uploaded!"})
}

// Generate builds the objective paper and opens an editing session.
func (h *PaperHandler) Generate(c *gin.Context) {
	fileHeader, err := c.FormFile("excelFile")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "excelFile is required"))
		return
	}
	paperType := strings.TrimSpace(c.PostForm("paperType"))
	if paperType == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "paperType is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	result, err := h.papers.Generate(c.Request.Context(), fileHeader.Filename, file, models.PaperType(paperType))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Preview returns the current paper model for the session.
func (h *PaperHandler) Preview(c *gin.Context) {
	model, err := h.papers.Preview(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, model)
}

// UpdateQuestionText applies an inline edit: only the question text changes.
func (h *PaperHandler) UpdateQuestionText(c *gin.Context) {
	index, ok := questionIndex(c)
	if !ok {
		return
	}
	var req dto.UpdateQuestionTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindingError(err))
		return
	}

	if err := h.sessions.UpdateQuestionText(c.Request.Context(), c.Param("sessionId"), index, req.Text); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ReplaceQuestion applies a full edit from the dialog path.
func (h *PaperHandler) ReplaceQuestion(c *gin.Context) {
	index, ok := questionIndex(c)
	if !ok {
		return
	}
	var req dto.ReplaceQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindingError(err))
		return
	}

	fields := service.ReplaceQuestionFields{
		Question: req.Question,
		OptionA:  req.OptionA,
		OptionB:  req.OptionB,
		OptionC:  req.OptionC,
		OptionD:  req.OptionD,
		ImageURL: req.ImageURL,
	}
	if err := h.sessions.ReplaceQuestion(c.Request.Context(), c.Param("sessionId"), index, fields); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetOverrides records operator overrides for the session metadata fields.
func (h *PaperHandler) SetOverrides(c *gin.Context) {
	var req dto.OverridesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindingError(err))
		return
	}
	fields := req.Fields()
	if len(fields) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "no override fields provided"))
		return
	}

	sessionID := c.Param("sessionId")
	for field, value := range fields {
		if err := h.sessions.SetOverride(c.Request.Context(), sessionID, field, value); err != nil {
			response.Error(c, err)
			return
		}
	}
	response.NoContent(c)
}

// Discard drops the session before its TTL expires.
func (h *PaperHandler) Discard(c *gin.Context) {
	if err := h.sessions.Discard(c.Request.Context(), c.Param("sessionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Download renders and streams the paper in the requested format.
func (h *PaperHandler) Download(c *gin.Context) {
	raw := c.DefaultQuery("format", string(render.FormatWord))
	format, ok := render.ParseFormat(raw)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", raw)))
		return
	}

	artifact, err := h.papers.Export(c.Request.Context(), c.Param("sessionId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func questionIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "question index must be an integer"))
		return 0, false
	}
	return index, true
}

// bindingError converts gin/validator binding failures into the common
// validation error shape.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("field %s is %s", verrs[0].Field(), verrs[0].Tag()))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body")
}
