package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mvdberg/squash-tracker/internal/scoring"
	"github.com/mvdberg/squash-tracker/internal/services"
	"github.com/mvdberg/squash-tracker/pkg/utils"
)

// AdviceHandler generates tactical advice for a player and serves the
// advice history.
type AdviceHandler struct {
	advice  *services.AdviceService
	session *services.MatchSession
}

func NewAdviceHandler(advice *services.AdviceService, session *services.MatchSession) *AdviceHandler {
	return &AdviceHandler{
		advice:  advice,
		session: session,
	}
}

type generateAdviceRequest struct {
	Player    string `json:"player" binding:"required"`
	GameIndex *int   `json:"game_index"`
	MatchID   string `json:"match_id"`
}

// GenerateAdvice builds a game summary and asks the provider for
// coaching advice. The generation runs off the scoring path; this
// handler waits for the result so the client gets a single response.
func (h *AdviceHandler) GenerateAdvice(c *gin.Context) {
	var req generateAdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	player, ok := scoring.ParsePlayer(req.Player)
	if !ok {
		utils.SendValidationError(c, "Invalid player", req.Player)
		return
	}

	var matchID *uuid.UUID
	if req.MatchID != "" {
		id, err := uuid.Parse(req.MatchID)
		if err != nil {
			utils.SendValidationError(c, "Invalid match id", req.MatchID)
			return
		}
		matchID = &id
	}

	// Summarize the requested game under the session lock. The
	// provider call then runs against the value snapshot, so scoring
	// can keep mutating the game in the meantime.
	var summary services.GameSummary
	var indexErr bool
	h.session.Read(func(m *scoring.Match) {
		game := m.CurrentGame()
		if req.GameIndex != nil {
			if *req.GameIndex < 0 || *req.GameIndex >= len(m.Games) {
				indexErr = true
				return
			}
			game = m.Games[*req.GameIndex]
		}
		summary = services.SummarizeGame(game, player)
	})
	if indexErr {
		utils.SendValidationError(c, "Game index out of range", strconv.Itoa(*req.GameIndex))
		return
	}

	result := <-h.advice.GenerateAsync(c.Request.Context(), summary, player, matchID)
	if result.Err != nil {
		h.sendAdviceError(c, result.Err)
		return
	}

	utils.SendSuccess(c, result.Advice)
}

func (h *AdviceHandler) sendAdviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAdviceInvalidRequest):
		utils.SendError(c, http.StatusBadRequest, utils.NewAppError(utils.ErrCodeValidation, "Cannot generate advice for this game", err.Error()))
	case errors.Is(err, services.ErrAdviceMissingCredential):
		utils.SendError(c, http.StatusPreconditionFailed, utils.NewAppError(utils.ErrCodeAdvice, "Advice API key is not configured"))
	case errors.Is(err, services.ErrAdviceInvalidCredential):
		utils.SendError(c, http.StatusBadGateway, utils.NewAppError(utils.ErrCodeAdvice, "Advice API key was rejected"))
	case errors.Is(err, services.ErrAdviceEmptyContent):
		utils.SendError(c, http.StatusBadGateway, utils.NewAppError(utils.ErrCodeAdvice, "Advice provider returned no content"))
	case errors.Is(err, services.ErrAdviceTransport), errors.Is(err, services.ErrAdviceStatus):
		utils.SendError(c, http.StatusBadGateway, utils.NewAppError(utils.ErrCodeAdvice, "Advice provider unavailable", err.Error()))
	default:
		utils.SendInternalError(c, "Failed to generate advice")
	}
}

// GetHistory lists previously generated advice, newest first
func (h *AdviceHandler) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	var matchID *uuid.UUID
	if raw := c.Query("match_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.SendValidationError(c, "Invalid match id", raw)
			return
		}
		matchID = &id
	}

	records, err := h.advice.History(c.Request.Context(), matchID, limit)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch advice history")
		return
	}

	utils.SendSuccess(c, records)
}
