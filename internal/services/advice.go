package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mvdberg/squash-tracker/internal/models"
	"github.com/mvdberg/squash-tracker/internal/scoring"
)

// SecretNameAdviceKey is the credential used to call the advice provider.
const SecretNameAdviceKey = "openai_api_key"

// Advice failure categories. Handlers map these onto HTTP statuses.
var (
	ErrAdviceInvalidRequest    = errors.New("advice request invalid")
	ErrAdviceMissingCredential = errors.New("advice credential not configured")
	ErrAdviceInvalidCredential = errors.New("advice credential rejected")
	ErrAdviceTransport         = errors.New("advice provider unreachable")
	ErrAdviceStatus            = errors.New("advice provider returned an error")
	ErrAdviceEmptyContent      = errors.New("advice provider returned no content")
)

// TacticalAdvice is the structured coaching output for one player.
type TacticalAdvice struct {
	Summary       string   `json:"summary"`
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Suggestions   []string `json:"suggestions"`
	NextGameFocus string   `json:"next_game_focus"`
	// Fallback is true when the provider replied with free text that
	// could not be parsed into the structure above.
	Fallback bool `json:"fallback,omitempty"`
}

// GameSummary is a pure projection of one game's analytics used to
// build the advice prompt.
type GameSummary struct {
	PlayerName   string
	OpponentName string
	Player1Score int
	Player2Score int
	WinnerName   string
	PointsWon    int
	PointsLost   int
	BestZone     string
	BestShot     string
	OpponentZone string
	ZoneLines    []string
	ShotLines    []string
}

// SummarizeGame gathers the per-zone and per-shot numbers the prompt
// needs, leaving out zones and shots that never came up. The summary
// shares no state with the game, so it may outlive whatever lock the
// caller held while building it.
func SummarizeGame(g *scoring.Game, player scoring.Player) GameSummary {
	opponent := player.Opponent()

	summary := GameSummary{
		PlayerName:   g.Name(player),
		OpponentName: g.Name(opponent),
		Player1Score: g.Player1Score,
		Player2Score: g.Player2Score,
		PointsWon:    len(g.PointsWon(player)),
		PointsLost:   len(g.PointsWon(opponent)),
		BestZone:     "none",
		BestShot:     "none",
		OpponentZone: "none",
	}

	if w, ok := g.Winner(); ok {
		summary.WinnerName = g.Name(w)
	}
	if zone, ok := g.BestZone(player); ok {
		summary.BestZone = string(zone)
	}
	if shot, ok := g.BestShotType(player); ok {
		summary.BestShot = string(shot)
	}
	if zone, ok := g.BestZone(opponent); ok {
		summary.OpponentZone = string(zone)
	}

	for _, zone := range scoring.AllZones {
		won := g.PointsWonInZone(player, zone)
		lost := g.PointsWonInZone(opponent, zone)
		if won > 0 || lost > 0 {
			summary.ZoneLines = append(summary.ZoneLines,
				fmt.Sprintf("%s: %d won, %d lost", zone, won, lost))
		}
	}
	for _, shot := range scoring.AllShotTypes {
		count := g.PointsWonWithShot(player, shot)
		if count > 0 {
			summary.ShotLines = append(summary.ShotLines,
				fmt.Sprintf("%s: %d points", shot, count))
		}
	}

	return summary
}

const adviceSystemPrompt = `You are an experienced squash coach. Analyze the given game statistics and give concrete, actionable advice.

Answer ONLY in this exact JSON format (no markdown, no extra text):
{
    "summary": "Short summary of the game in 1-2 sentences",
    "strengths": ["point 1", "point 2", "point 3"],
    "weaknesses": ["point 1", "point 2"],
    "suggestions": ["advice 1", "advice 2", "advice 3"],
    "next_game_focus": "One concrete focus for the next game"
}`

// chat-completions wire types
type adviceRequest struct {
	Model       string          `json:"model"`
	Messages    []adviceMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type adviceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type adviceResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type adviceAPIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// AdviceResult is delivered on the channel returned by GenerateAsync.
type AdviceResult struct {
	Advice *TacticalAdvice
	Err    error
}

// AdviceService generates tactical advice from game analytics via the
// OpenAI chat-completions API.
type AdviceService struct {
	db             *gorm.DB
	cache          *CacheService
	secrets        SecretStore
	httpClient     *http.Client
	baseURL        string
	model          string
	limiter        *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
	retryAttempts  int
	cacheExpiry    time.Duration
}

type AdviceOptions struct {
	BaseURL     string
	Model       string
	RateLimit   int           // requests per minute
	Timeout     time.Duration // per HTTP request
	CacheExpiry time.Duration
}

func NewAdviceService(db *gorm.DB, cache *CacheService, secrets SecretStore, opts AdviceOptions) *AdviceService {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.CacheExpiry <= 0 {
		opts.CacheExpiry = time.Hour
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "advice-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"circuit":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Info("Advice API circuit breaker state changed")
		},
	})

	return &AdviceService{
		db:             db,
		cache:          cache,
		secrets:        secrets,
		httpClient:     &http.Client{Timeout: opts.Timeout},
		baseURL:        opts.BaseURL,
		model:          opts.Model,
		limiter:        rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RateLimit)), opts.RateLimit),
		circuitBreaker: cb,
		retryAttempts:  3,
		cacheExpiry:    opts.CacheExpiry,
	}
}

// Generate produces tactical advice for one player from a game
// summary. The summary is a value snapshot, so callers must build it
// while they hold whatever lock guards the live game; generation then
// runs safely while the game keeps changing. Responses are cached on
// the summary fingerprint and recorded for later review.
func (s *AdviceService) Generate(ctx context.Context, summary GameSummary, player scoring.Player, matchID *uuid.UUID) (*TacticalAdvice, error) {
	if !player.IsValid() {
		return nil, ErrAdviceInvalidRequest
	}
	if summary.PointsWon+summary.PointsLost == 0 {
		return nil, fmt.Errorf("%w: no points recorded", ErrAdviceInvalidRequest)
	}

	prompt := buildAdvicePrompt(summary)
	fingerprint := adviceFingerprint(prompt)

	if s.cache != nil {
		var cached TacticalAdvice
		if err := s.cache.Get(ctx, AdviceCacheKey(fingerprint), &cached); err == nil {
			return &cached, nil
		}
	}

	apiKey, err := s.secrets.Get(ctx, SecretNameAdviceKey)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return nil, ErrAdviceMissingCredential
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAdviceTransport, err)
	}

	result, err := s.circuitBreaker.Execute(func() (interface{}, error) {
		return s.requestAdvice(ctx, apiKey, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrAdviceTransport)
		}
		return nil, err
	}
	advice := result.(*TacticalAdvice)

	if s.cache != nil {
		if err := s.cache.Set(ctx, AdviceCacheKey(fingerprint), advice, s.cacheExpiry); err != nil {
			logrus.Warnf("Failed to cache advice: %v", err)
		}
	}

	s.record(ctx, summary, advice, player, matchID)

	return advice, nil
}

// GenerateAsync runs Generate on its own goroutine and delivers the
// outcome on the returned channel, so callers never block the scoring
// path while the provider is thinking.
func (s *AdviceService) GenerateAsync(ctx context.Context, summary GameSummary, player scoring.Player, matchID *uuid.UUID) <-chan AdviceResult {
	out := make(chan AdviceResult, 1)
	go func() {
		defer close(out)
		advice, err := s.Generate(ctx, summary, player, matchID)
		out <- AdviceResult{Advice: advice, Err: err}
	}()
	return out
}

// History returns previously generated advice, newest first.
func (s *AdviceService) History(ctx context.Context, matchID *uuid.UUID, limit int) ([]models.AdviceRecord, error) {
	var records []models.AdviceRecord
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if matchID != nil {
		query = query.Where("match_id = ?", *matchID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch advice history: %w", err)
	}
	return records, nil
}

// PruneHistory deletes advice records older than the cutoff and
// returns how many were removed.
func (s *AdviceService) PruneHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AdviceRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune advice history: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// IsHealthy reports whether the provider circuit is closed.
func (s *AdviceService) IsHealthy() bool {
	return s.circuitBreaker.State() == gobreaker.StateClosed
}

func (s *AdviceService) requestAdvice(ctx context.Context, apiKey, prompt string) (*TacticalAdvice, error) {
	reqBody := adviceRequest{
		Model: s.model,
		Messages: []adviceMessage{
			{Role: "system", Content: adviceSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	}

	requestBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAdviceInvalidRequest, err)
	}

	var lastErr error
	for attempt := 0; attempt < s.retryAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrAdviceTransport, ctx.Err())
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(requestBody))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAdviceInvalidRequest, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+apiKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrAdviceTransport, err)
			continue
		}

		advice, retryable, err := s.handleResponse(resp)
		resp.Body.Close()
		if err == nil {
			return advice, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", s.retryAttempts, lastErr)
}

// handleResponse categorizes the provider's reply. The retryable flag
// keeps credential and request errors from burning retry attempts.
func (s *AdviceService) handleResponse(resp *http.Response) (*TacticalAdvice, bool, error) {
	if resp.StatusCode != http.StatusOK {
		var apiErr adviceAPIError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, false, fmt.Errorf("%w: %s", ErrAdviceInvalidCredential, apiErr.Error.Message)
		case http.StatusBadRequest:
			return nil, false, fmt.Errorf("%w: %s", ErrAdviceInvalidRequest, apiErr.Error.Message)
		default:
			return nil, true, fmt.Errorf("%w: status %d: %s", ErrAdviceStatus, resp.StatusCode, apiErr.Error.Message)
		}
	}

	var parsed adviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrAdviceStatus, err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return nil, false, ErrAdviceEmptyContent
	}

	content := parsed.Choices[0].Message.Content
	var advice TacticalAdvice
	if err := json.Unmarshal([]byte(extractJSON(content)), &advice); err != nil || advice.Summary == "" {
		// The model answered in free text. Keep the text so the
		// caller still gets something readable.
		return &TacticalAdvice{
			Summary:       strings.TrimSpace(content),
			NextGameFocus: "Study your opponent and adjust your tactics",
			Fallback:      true,
		}, false, nil
	}

	return &advice, false, nil
}

func (s *AdviceService) record(ctx context.Context, summary GameSummary, advice *TacticalAdvice, player scoring.Player, matchID *uuid.UUID) {
	if s.db == nil {
		return
	}
	requestData, _ := json.Marshal(summary)
	responseData, _ := json.Marshal(advice)

	rec := models.AdviceRecord{
		MatchID:  matchID,
		Player:   string(player),
		Request:  datatypes.JSON(requestData),
		Response: datatypes.JSON(responseData),
		Fallback: advice.Fallback,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		logrus.Warnf("Failed to store advice record: %v", err)
	}
}

func buildAdvicePrompt(summary GameSummary) string {
	var prompt strings.Builder

	prompt.WriteString("SQUASH GAME ANALYSIS\n\n")
	prompt.WriteString(fmt.Sprintf("Player: %s\n", summary.PlayerName))
	prompt.WriteString(fmt.Sprintf("Opponent: %s\n", summary.OpponentName))
	prompt.WriteString(fmt.Sprintf("Final score: %d - %d\n", summary.Player1Score, summary.Player2Score))
	if summary.WinnerName != "" {
		prompt.WriteString(fmt.Sprintf("Winner: %s\n", summary.WinnerName))
	}

	prompt.WriteString(fmt.Sprintf("\nSTATISTICS FOR %s:\n", strings.ToUpper(summary.PlayerName)))
	prompt.WriteString(fmt.Sprintf("- Total points won: %d\n", summary.PointsWon))
	prompt.WriteString(fmt.Sprintf("- Total points lost: %d\n", summary.PointsLost))
	prompt.WriteString(fmt.Sprintf("- Best zone: %s\n", summary.BestZone))
	prompt.WriteString(fmt.Sprintf("- Best shot: %s\n", summary.BestShot))
	prompt.WriteString(fmt.Sprintf("- Zone where opponent scored: %s\n", summary.OpponentZone))

	prompt.WriteString("\nPOINTS PER ZONE:\n")
	prompt.WriteString(strings.Join(summary.ZoneLines, "\n"))
	prompt.WriteString("\n\nSHOTS:\n")
	prompt.WriteString(strings.Join(summary.ShotLines, "\n"))

	prompt.WriteString(fmt.Sprintf("\n\nGive tactical advice for %s for the next game against %s.\n",
		summary.PlayerName, summary.OpponentName))

	return prompt.String()
}

func adviceFingerprint(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:8])
}

// extractJSON pulls the first JSON object out of a reply that may be
// wrapped in markdown fences or prose.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}
	return text
}
