package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mvdberg/squash-tracker/internal/scoring"
	"github.com/mvdberg/squash-tracker/internal/services"
	"github.com/mvdberg/squash-tracker/pkg/utils"
)

// SavedMatchHandler serves the match history: saving the live match,
// browsing past matches, resuming one, and deleting.
type SavedMatchHandler struct {
	store   *services.MatchStore
	session *services.MatchSession
}

func NewSavedMatchHandler(store *services.MatchStore, session *services.MatchSession) *SavedMatchHandler {
	return &SavedMatchHandler{
		store:   store,
		session: session,
	}
}

// SaveMatch persists the live match as played so far
func (h *SavedMatchHandler) SaveMatch(c *gin.Context) {
	var saved interface{}
	var saveErr error
	h.session.Read(func(m *scoring.Match) {
		saved, saveErr = h.store.Save(c.Request.Context(), m)
	})
	if saveErr != nil {
		utils.SendInternalError(c, "Failed to save match")
		return
	}

	utils.SendSuccess(c, saved)
}

// ListMatches returns saved matches, newest first
func (h *SavedMatchHandler) ListMatches(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	matches, total, err := h.store.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		utils.SendInternalError(c, "Failed to list matches")
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	utils.SendSuccessWithMeta(c, matches, &utils.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// GetMatch returns one saved match with its full game tree
func (h *SavedMatchHandler) GetMatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid match id", c.Param("id"))
		return
	}

	match, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrMatchNotFound) {
			utils.SendNotFound(c, "Match not found")
			return
		}
		utils.SendInternalError(c, "Failed to get match")
		return
	}

	utils.SendSuccess(c, match)
}

// LoadMatch replaces the live session with a saved match
func (h *SavedMatchHandler) LoadMatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid match id", c.Param("id"))
		return
	}

	match, err := h.store.Load(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrMatchNotFound) {
			utils.SendNotFound(c, "Match not found")
			return
		}
		utils.SendInternalError(c, "Failed to load match")
		return
	}

	utils.SendSuccess(c, h.session.Replace(match))
}

// DeleteMatch removes a saved match and everything under it
func (h *SavedMatchHandler) DeleteMatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid match id", c.Param("id"))
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrMatchNotFound) {
			utils.SendNotFound(c, "Match not found")
			return
		}
		utils.SendInternalError(c, "Failed to delete match")
		return
	}

	utils.SendSuccess(c, gin.H{"deleted": id})
}
