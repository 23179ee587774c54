package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/services"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

type FillHandler struct {
	fillService *services.FillService
}

func NewFillHandler(fillService *services.FillService) *FillHandler {
	return &FillHandler{fillService: fillService}
}

// Fill renders the template with the entity's canonical data. With
// ?download=true the filled artifact is streamed back directly; otherwise
// the response carries the storage key, resolved values and warnings.
func (fh *FillHandler) Fill(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	templateID, ok := pathUUID(c, "template_id")
	if !ok {
		return
	}
	var req struct {
		EntityID string `json:"entity_id"`
		Language string `json:"language"`
		Download bool   `json:"download"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	entityID, err := uuid.Parse(req.EntityID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entity_id"})
		return
	}

	result, err := fh.fillService.FillTemplate(c.Request.Context(), userID, templateID, entityID, req.Language)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	if req.Download {
		contentType := "text/html"
		if result.Kind == types.TemplateKindPDF {
			contentType = "application/pdf"
		}
		c.Data(http.StatusOK, contentType, result.Content)
		return
	}

	RespondOK(c, gin.H{
		"output_key":        result.OutputKey,
		"kind":              result.Kind,
		"resolved_values":   result.ResolvedValues,
		"warnings":          result.Warnings,
		"validation_report": result.Report,
	})
}
