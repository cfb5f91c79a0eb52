package httpapi

import (
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/event"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/leaderboard"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/timer"
	"github.com/riskibarqy/ctf-scoreboard/internal/usecase"
)

type verifyEventRequest struct {
	Password string `json:"password" validate:"required"`
}

type registerTeamRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

type unlockChallengeRequest struct {
	Password string `json:"password"`
}

type submitFlagRequest struct {
	Flag string `json:"flag" validate:"required"`
}

type purchaseHintRequest struct {
	HintIndex *int `json:"hintIndex" validate:"required,min=0"`
}

// Timer amounts are range-checked by TimerService after the privilege check.
type startTimerRequest struct {
	Minutes float64 `json:"minutes"`
}

type extendTimerRequest struct {
	Minutes *float64 `json:"minutes,omitempty"`
}

type eventDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

type sessionDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type verifyEventResponse struct {
	Event   eventDTO   `json:"event"`
	Session sessionDTO `json:"session"`
}

type teamDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	TotalPoints int       `json:"totalPoints"`
	EventID     string    `json:"eventId"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

type registerTeamResponse struct {
	Team    teamDTO    `json:"team"`
	Session sessionDTO `json:"session"`
}

type challengeDTO struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	PasswordProtected bool   `json:"passwordProtected"`
	Unlocked          bool   `json:"unlocked"`
}

type unlockChallengeResponse struct {
	ChallengeID string    `json:"challengeId"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

type ctfDTO struct {
	ID           string   `json:"id"`
	ChallengeID  string   `json:"challengeId"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Points       int      `json:"points"`
	Photo        string   `json:"photo,omitempty"`
	Links        []string `json:"links"`
	HintCosts    []int    `json:"hintCosts"`
	Started      bool     `json:"started"`
	Completed    bool     `json:"completed"`
	PointsEarned int      `json:"pointsEarned"`
}

type startAttemptResponse struct {
	StartTime time.Time `json:"startTime"`
}

// Points and TimeTaken are set only on a correct flag.
type submitFlagResponse struct {
	Correct   bool   `json:"correct"`
	Points    *int   `json:"points,omitempty"`
	TimeTaken *int64 `json:"timeTaken,omitempty"`
}

func toSubmitFlagResponse(result usecase.SubmitFlagResult) submitFlagResponse {
	if !result.Correct {
		return submitFlagResponse{}
	}
	return submitFlagResponse{
		Correct:   true,
		Points:    &result.Points,
		TimeTaken: &result.TimeTakenSeconds,
	}
}

type attemptStatusResponse struct {
	Started      bool       `json:"started"`
	Completed    bool       `json:"completed"`
	StartTime    *time.Time `json:"startTime,omitempty"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	PointsEarned int        `json:"pointsEarned"`
}

type hintDTO struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type purchasedHintsResponse struct {
	PurchasedHints []int     `json:"purchasedHints"`
	Hints          []hintDTO `json:"hints"`
}

type purchaseHintResponse struct {
	HintIndex        int    `json:"hintIndex"`
	Hint             string `json:"hint"`
	Cost             int    `json:"cost"`
	NewTotalPoints   int    `json:"newTotalPoints"`
	AlreadyPurchased bool   `json:"alreadyPurchased"`
}

type standingDTO struct {
	Rank            int      `json:"rank"`
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	TotalPoints     int      `json:"totalPoints"`
	TotalTime       int64    `json:"totalTime"`
	CompletedBadges []string `json:"completedBadges"`
}

type timerDTO struct {
	StartedAt        time.Time `json:"startedAt"`
	DurationSeconds  int64     `json:"durationSeconds"`
	RemainingSeconds int64     `json:"remainingSeconds"`
	IsActive         bool      `json:"isActive"`
}

type leaderboardResponse struct {
	Teams []standingDTO `json:"teams"`
	Timer *timerDTO     `json:"timer"`
}

type timerResponse struct {
	Timer *timerDTO `json:"timer"`
}

func toEventDTO(item event.Event) eventDTO {
	return eventDTO{
		ID:          item.ID,
		Name:        item.Name,
		Date:        item.Date,
		Location:    item.Location,
		Description: item.Description,
	}
}

func toTeamDTO(item team.Team) teamDTO {
	return teamDTO{
		ID:          item.ID,
		Name:        item.Name,
		TotalPoints: item.TotalPoints,
		EventID:     item.EventID,
		Role:        string(item.Role),
		CreatedAt:   item.CreatedAt,
	}
}

func toChallengeDTOs(items []usecase.ChallengeView) []challengeDTO {
	out := make([]challengeDTO, 0, len(items))
	for _, item := range items {
		out = append(out, challengeDTO{
			ID:                item.ID,
			Name:              item.Name,
			Description:       item.Description,
			PasswordProtected: item.PasswordProtected,
			Unlocked:          item.Unlocked,
		})
	}
	return out
}

func toCTFDTOs(items []usecase.CTFView) []ctfDTO {
	out := make([]ctfDTO, 0, len(items))
	for _, item := range items {
		links := item.Links
		if links == nil {
			links = []string{}
		}
		costs := item.HintCosts
		if costs == nil {
			costs = []int{}
		}
		out = append(out, ctfDTO{
			ID:           item.ID,
			ChallengeID:  item.ChallengeID,
			Title:        item.Title,
			Description:  item.Description,
			Points:       item.Points,
			Photo:        item.Photo,
			Links:        links,
			HintCosts:    costs,
			Started:      item.Started,
			Completed:    item.Completed,
			PointsEarned: item.PointsEarned,
		})
	}
	return out
}

func toStandingDTOs(items []leaderboard.Standing) []standingDTO {
	out := make([]standingDTO, 0, len(items))
	for i, item := range items {
		badges := item.CompletedBadges
		if badges == nil {
			badges = []string{}
		}
		out = append(out, standingDTO{
			Rank:            i + 1,
			ID:              item.TeamID,
			Name:            item.Name,
			TotalPoints:     item.TotalPoints,
			TotalTime:       item.TotalTime,
			CompletedBadges: badges,
		})
	}
	return out
}

func toTimerDTO(status *timer.Status) *timerDTO {
	if status == nil {
		return nil
	}
	return &timerDTO{
		StartedAt:        status.StartedAt,
		DurationSeconds:  status.DurationSeconds,
		RemainingSeconds: status.RemainingSeconds,
		IsActive:         status.IsActive,
	}
}
