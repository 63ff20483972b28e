package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mvdberg/squash-tracker/internal/api/handlers"
	"github.com/mvdberg/squash-tracker/internal/services"
)

// Dependencies carries the services the routes are built on.
type Dependencies struct {
	Session *services.MatchSession
	Store   *services.MatchStore
	Advice  *services.AdviceService
	Secrets services.SecretStore
}

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, deps Dependencies) {
	matchHandler := handlers.NewMatchHandler(deps.Session)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Session)
	savedHandler := handlers.NewSavedMatchHandler(deps.Store, deps.Session)
	adviceHandler := handlers.NewAdviceHandler(deps.Advice, deps.Session)
	credentialHandler := handlers.NewCredentialHandler(deps.Secrets)

	// Live match workflow
	match := group.Group("/match")
	{
		match.POST("/setup", matchHandler.SetupMatch)
		match.GET("", matchHandler.GetState)
		match.POST("/select-player", matchHandler.SelectPlayer)
		match.POST("/select-zone", matchHandler.SelectZone)
		match.POST("/back", matchHandler.GoBack)
		match.POST("/clear", matchHandler.ClearSelection)
		match.POST("/point", matchHandler.AddPoint)
		match.POST("/undo-point", matchHandler.UndoPoint)
		match.POST("/let", matchHandler.AddLet)
		match.POST("/undo-let", matchHandler.UndoLet)
		match.POST("/next-game", matchHandler.NextGame)
		match.POST("/reset-game", matchHandler.ResetGame)
		match.POST("/reset", matchHandler.ResetMatch)

		// Analytics over the live match
		match.GET("/analytics/game", analyticsHandler.GetGameAnalytics)
		match.GET("/analytics/match", analyticsHandler.GetMatchAnalytics)
	}

	// Match history
	group.POST("/matches", savedHandler.SaveMatch)
	group.GET("/matches", savedHandler.ListMatches)
	group.GET("/matches/:id", savedHandler.GetMatch)
	group.POST("/matches/:id/load", savedHandler.LoadMatch)
	group.DELETE("/matches/:id", savedHandler.DeleteMatch)

	// Tactical advice
	group.POST("/advice", adviceHandler.GenerateAdvice)
	group.GET("/advice/history", adviceHandler.GetHistory)

	// Credentials
	group.PUT("/credentials/advice-key", credentialHandler.SetAdviceKey)
	group.DELETE("/credentials/advice-key", credentialHandler.DeleteAdviceKey)
	group.GET("/credentials/advice-key", credentialHandler.GetAdviceKeyStatus)
}
