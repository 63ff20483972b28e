package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mvdberg/squash-tracker/internal/services"
	"github.com/mvdberg/squash-tracker/pkg/utils"
)

// CredentialHandler manages the advice provider API key. Values are
// write-only: the API never returns a stored key.
type CredentialHandler struct {
	secrets services.SecretStore
}

func NewCredentialHandler(secrets services.SecretStore) *CredentialHandler {
	return &CredentialHandler{secrets: secrets}
}

type setCredentialRequest struct {
	Value string `json:"value" binding:"required"`
}

// SetAdviceKey stores or replaces the advice API key
func (h *CredentialHandler) SetAdviceKey(c *gin.Context) {
	var req setCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	value := strings.TrimSpace(req.Value)
	if value == "" {
		utils.SendValidationError(c, "Key must not be blank", "")
		return
	}

	if err := h.secrets.Set(c.Request.Context(), services.SecretNameAdviceKey, value); err != nil {
		utils.SendInternalError(c, "Failed to store key")
		return
	}

	utils.SendSuccess(c, gin.H{"configured": true})
}

// DeleteAdviceKey removes the stored key
func (h *CredentialHandler) DeleteAdviceKey(c *gin.Context) {
	err := h.secrets.Delete(c.Request.Context(), services.SecretNameAdviceKey)
	if err != nil {
		if errors.Is(err, services.ErrSecretNotFound) {
			utils.SendNotFound(c, "No key configured")
			return
		}
		utils.SendInternalError(c, "Failed to delete key")
		return
	}

	utils.SendSuccess(c, gin.H{"configured": false})
}

// GetAdviceKeyStatus reports whether a key is configured without
// revealing it
func (h *CredentialHandler) GetAdviceKeyStatus(c *gin.Context) {
	_, err := h.secrets.Get(c.Request.Context(), services.SecretNameAdviceKey)
	if err != nil {
		if errors.Is(err, services.ErrSecretNotFound) {
			utils.SendSuccess(c, gin.H{"configured": false})
			return
		}
		utils.SendInternalError(c, "Failed to check key")
		return
	}

	utils.SendSuccess(c, gin.H{"configured": true})
}
