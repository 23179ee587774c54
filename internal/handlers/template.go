package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/services"
)

type TemplateHandler struct {
	templateService services.TemplateService
}

func NewTemplateHandler(templateService services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// Upload accepts an HTML or PDF form under the "file" form key, parses its
// field schema and stores it.
func (th *TemplateHandler) Upload(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing template file"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open upload"})
		return
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}

	template, err := th.templateService.UploadTemplate(
		c.Request.Context(),
		userID,
		c.PostForm("name"),
		fh.Filename,
		c.DefaultPostForm("language", "en"),
		data,
	)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

func (th *TemplateHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	templates, err := th.templateService.ListTemplates(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"templates": templates})
}

func (th *TemplateHandler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	templateID, ok := pathUUID(c, "template_id")
	if !ok {
		return
	}
	template, err := th.templateService.GetTemplate(c.Request.Context(), userID, templateID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, template)
}

func (th *TemplateHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	templateID, ok := pathUUID(c, "template_id")
	if !ok {
		return
	}
	if err := th.templateService.DeleteTemplate(c.Request.Context(), userID, templateID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": "true"})
}
