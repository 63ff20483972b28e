package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mvdberg/squash-tracker/internal/scoring"
	"github.com/mvdberg/squash-tracker/internal/services"
	"github.com/mvdberg/squash-tracker/pkg/utils"
)

// MatchHandler exposes the live match workflow. Invalid transitions
// are absorbed by the scoring core, so every endpoint simply returns
// the resulting state.
type MatchHandler struct {
	session *services.MatchSession
}

func NewMatchHandler(session *services.MatchSession) *MatchHandler {
	return &MatchHandler{session: session}
}

type setupMatchRequest struct {
	Player1Name    string `json:"player1_name"`
	Player2Name    string `json:"player2_name"`
	StartingServer string `json:"starting_server"`
	BestOf         int    `json:"best_of"`
}

// SetupMatch starts a fresh match
func (h *MatchHandler) SetupMatch(c *gin.Context) {
	var req setupMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	server := scoring.Player1
	if req.StartingServer != "" {
		parsed, ok := scoring.ParsePlayer(req.StartingServer)
		if !ok {
			utils.SendValidationError(c, "Invalid starting server", req.StartingServer)
			return
		}
		server = parsed
	}

	state := h.session.Setup(req.Player1Name, req.Player2Name, server, req.BestOf)
	utils.SendSuccess(c, state)
}

// GetState returns the current match snapshot
func (h *MatchHandler) GetState(c *gin.Context) {
	utils.SendSuccess(c, h.session.State())
}

type selectPlayerRequest struct {
	Player string `json:"player" binding:"required"`
}

// SelectPlayer records who won the rally
func (h *MatchHandler) SelectPlayer(c *gin.Context) {
	var req selectPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	player, ok := scoring.ParsePlayer(req.Player)
	if !ok {
		utils.SendValidationError(c, "Invalid player", req.Player)
		return
	}

	utils.SendSuccess(c, h.session.SelectPlayer(player))
}

type selectZoneRequest struct {
	Zone string   `json:"zone"`
	X    *float64 `json:"x"`
	Y    *float64 `json:"y"`
}

// SelectZone records where the winning shot landed. Accepts either a
// zone name or normalized court coordinates.
func (h *MatchHandler) SelectZone(c *gin.Context) {
	var req selectZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	var zone scoring.CourtZone
	switch {
	case req.Zone != "":
		parsed, ok := scoring.ParseZone(req.Zone)
		if !ok {
			utils.SendValidationError(c, "Invalid zone", req.Zone)
			return
		}
		zone = parsed
	case req.X != nil && req.Y != nil:
		zone = scoring.ZoneAt(*req.X, *req.Y)
	default:
		utils.SendValidationError(c, "Provide a zone name or x/y coordinates", "")
		return
	}

	utils.SendSuccess(c, h.session.SelectZone(zone))
}

// GoBack steps the selection workflow back one stage
func (h *MatchHandler) GoBack(c *gin.Context) {
	utils.SendSuccess(c, h.session.GoBackStep())
}

// ClearSelection abandons the current point entry
func (h *MatchHandler) ClearSelection(c *gin.Context) {
	utils.SendSuccess(c, h.session.ClearSelection())
}

type addPointRequest struct {
	ShotType string `json:"shot_type" binding:"required"`
}

// AddPoint completes the workflow with the winning shot type
func (h *MatchHandler) AddPoint(c *gin.Context) {
	var req addPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	shot, ok := scoring.ParseShotType(req.ShotType)
	if !ok {
		utils.SendValidationError(c, "Invalid shot type", req.ShotType)
		return
	}

	utils.SendSuccess(c, h.session.AddPoint(shot))
}

// UndoPoint reverts the most recent point
func (h *MatchHandler) UndoPoint(c *gin.Context) {
	utils.SendSuccess(c, h.session.UndoLastPoint())
}

type addLetRequest struct {
	RequestedBy string `json:"requested_by" binding:"required"`
}

// AddLet records a let call
func (h *MatchHandler) AddLet(c *gin.Context) {
	var req addLetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	player, ok := scoring.ParsePlayer(req.RequestedBy)
	if !ok {
		utils.SendValidationError(c, "Invalid player", req.RequestedBy)
		return
	}

	utils.SendSuccess(c, h.session.AddLet(player))
}

// UndoLet removes the most recent let
func (h *MatchHandler) UndoLet(c *gin.Context) {
	utils.SendSuccess(c, h.session.UndoLastLet())
}

// NextGame advances to the next game of the match
func (h *MatchHandler) NextGame(c *gin.Context) {
	utils.SendSuccess(c, h.session.NextGame())
}

// ResetGame clears the current game back to 0-0
func (h *MatchHandler) ResetGame(c *gin.Context) {
	utils.SendSuccess(c, h.session.ResetGame())
}

// ResetMatch starts the whole match over, keeping names and settings
func (h *MatchHandler) ResetMatch(c *gin.Context) {
	utils.SendSuccess(c, h.session.ResetMatch())
}
