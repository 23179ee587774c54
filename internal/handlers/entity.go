package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/services"
)

type EntityHandler struct {
	entityService services.EntityService
}

func NewEntityHandler(entityService services.EntityService) *EntityHandler {
	return &EntityHandler{entityService: entityService}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

type entityRequest struct {
	DisplayName string          `json:"display_name"`
	Metadata    json.RawMessage `json:"metadata"`
}

func (eh *EntityHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req entityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	entity, err := eh.entityService.CreateEntity(c.Request.Context(), userID, req.DisplayName, req.Metadata)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entity)
}

func (eh *EntityHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	entities, err := eh.entityService.ListEntities(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"entities": entities})
}

func (eh *EntityHandler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	entityID, ok := pathUUID(c, "entity_id")
	if !ok {
		return
	}
	entity, err := eh.entityService.GetEntity(c.Request.Context(), userID, entityID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, entity)
}

func (eh *EntityHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	entityID, ok := pathUUID(c, "entity_id")
	if !ok {
		return
	}
	var req entityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	entity, err := eh.entityService.UpdateEntity(c.Request.Context(), userID, entityID, req.DisplayName, req.Metadata)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, entity)
}

func (eh *EntityHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	entityID, ok := pathUUID(c, "entity_id")
	if !ok {
		return
	}
	if err := eh.entityService.DeleteEntity(c.Request.Context(), userID, entityID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": "true"})
}
