package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/services"
)

const maxUploadMemory = 32 << 20

type EntityDataHandler struct {
	log             *logger.Logger
	documentService *services.DocumentService
	recordService   *services.RecordService
	entityService   services.EntityService
}

func NewEntityDataHandler(log *logger.Logger, documentService *services.DocumentService, recordService *services.RecordService, entityService services.EntityService) *EntityDataHandler {
	return &EntityDataHandler{
		log:             log.With("handler", "EntityDataHandler"),
		documentService: documentService,
		recordService:   recordService,
		entityService:   entityService,
	}
}

type uploadResult struct {
	FileName      string   `json:"file_name"`
	Status        string   `json:"status"`
	FieldCount    int      `json:"field_count"`
	UpdatedFields []string `json:"updated_fields,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// UploadDocuments accepts one or more files under the "files" form key and
// merges each into the entity's canonical record. Files are processed
// concurrently; merges for the same entity serialize on the record row.
func (eh *EntityDataHandler) UploadDocuments(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	entityID, ok := pathUUID(c, "entity_id")
	if !ok {
		return
	}
	language := c.DefaultQuery("lang", "en")

	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	files := c.Request.MultipartForm.File["files"]
	if len(files) == 0 {
		if single, err := c.FormFile("file"); err == nil {
			files = []*multipart.FileHeader{single}
		}
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	results := make([]uploadResult, len(files))
	g, ctx := errgroup.WithContext(c.Request.Context())
	for i, fh := range files {
		g.Go(func() error {
			results[i] = uploadResult{FileName: fh.Filename}

			f, err := fh.Open()
			if err != nil {
				results[i].Status = "failed"
				results[i].Error = fmt.Sprintf("open upload: %v", err)
				return nil
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				results[i].Status = "failed"
				results[i].Error = fmt.Sprintf("read upload: %v", err)
				return nil
			}

			outcome, err := eh.documentService.IngestDocument(ctx, userID, entityID, fh.Filename, fh.Header.Get("Content-Type"), language, data)
			if err != nil {
				results[i].Status = "failed"
				results[i].Error = err.Error()
				return nil
			}
			results[i].Status = outcome.Status
			results[i].FieldCount = outcome.FieldCount
			results[i].UpdatedFields = outcome.UpdatedFields
			return nil
		})
	}
	_ = g.Wait()

	status := http.StatusOK
	allFailed := true
	for _, r := range results {
		if r.Status != "failed" {
			allFailed = false
			break
		}
	}
	if allFailed {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"results": results})
}

// GetRecord returns the entity's merged canonical record.
func (eh *EntityDataHandler) GetRecord(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	entityID, ok := pathUUID(c, "entity_id")
	if !ok {
		return
	}
	if _, err := eh.entityService.GetEntity(c.Request.Context(), userID, entityID); err != nil {
		RespondServiceError(c, err)
		return
	}
	record, err := eh.recordService.GetRecord(c.Request.Context(), entityID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	fields, err := record.FieldMap()
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"entity_id":   record.EntityID,
		"fields":      fields,
		"status":      record.Status,
		"language":    record.Language,
		"field_count": len(fields),
		"updated_at":  record.UpdatedAt,
	})
}
