package api

// Ids travel as decimal strings and timestamps as unix milliseconds.

//
// MatchService
//

// WeightsInput overrides the default scoring weights. Nil fields keep the
// configured default.
type WeightsInput struct {
	Time  *float64 `json:"time,omitempty" validate:"omitnil,gte=0"`
	Level *float64 `json:"level,omitempty" validate:"omitnil,gte=0"`
	City  *float64 `json:"city,omitempty" validate:"omitnil,gte=0"`
}

type FindMatchesRequest struct {
	UserID   string        `json:"user_id"`
	MinScore *float64      `json:"min_score,omitempty"`
	Weights  *WeightsInput `json:"weights,omitempty"`
}

type Match struct {
	CandidateID  string   `json:"candidate_id"`
	Name         string   `json:"name"`
	City         string   `json:"city"`
	Phone        string   `json:"phone"`
	Level        *int     `json:"level"`
	Availability []string `json:"availability"`
	Score        float64  `json:"score"`
}

type FindMatchesResponse struct {
	Matches []*Match `json:"matches"`
}

//
// InvitationService
//

type Invitation struct {
	ID          string `json:"id"`
	SenderID    string `json:"sender_id"`
	ReceiverID  string `json:"receiver_id"`
	ScheduledAt int64  `json:"scheduled_at"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type CreateInvitationRequest struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	// ScheduledAt defaults to the time of the request.
	ScheduledAt *int64 `json:"scheduled_at,omitempty"`
}

type CreateInvitationResponse struct {
	Invitation *Invitation `json:"invitation"`
	Existed    bool        `json:"existed"`
}

type SetInvitationStatusRequest struct {
	InvitationID string `json:"invitation_id"`
	Status       string `json:"status"`
}

type SetInvitationStatusResponse struct {
	Invitation *Invitation `json:"invitation"`
	Updated    bool        `json:"updated"`
}

type ListPendingBySenderRequest struct {
	SenderID string `json:"sender_id"`
}

// PendingSent is the sender-side projection of a pending invitation.
type PendingSent struct {
	ReceiverID  string `json:"receiver_id"`
	ScheduledAt int64  `json:"scheduled_at"`
}

type ListPendingBySenderResponse struct {
	Invitations []*PendingSent `json:"invitations"`
}

type ListPendingByReceiverRequest struct {
	ReceiverID string `json:"receiver_id"`
}

type ListPendingByReceiverResponse struct {
	Invitations []*Invitation `json:"invitations"`
}

type GetPartnerCountRequest struct {
	UserID string `json:"user_id"`
}

type GetPartnerCountResponse struct {
	Count      int64    `json:"count"`
	PartnerIDs []string `json:"partner_ids"`
}

//
// UserService
//

type RegisterRequest struct {
	FullName     string   `json:"full_name" validate:"required,max=128"`
	Age          int      `json:"age" validate:"gt=0,lte=120"`
	Phone        string   `json:"phone" validate:"required,max=32"`
	City         string   `json:"city" validate:"required,max=64"`
	Street       string   `json:"street" validate:"max=128"`
	Gender       string   `json:"gender" validate:"max=16"`
	Level        *int     `json:"level" validate:"required,gte=0,lte=2"`
	Email        string   `json:"email" validate:"required,email,max=128"`
	Password     string   `json:"password" validate:"required,min=6,max=72"`
	Availability []string `json:"availability"`
}

type RegisterResponse struct {
	ID string `json:"id"`
}

type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// User is a public profile. The password hash never leaves the server.
type User struct {
	ID            string   `json:"id"`
	FullName      string   `json:"full_name"`
	Nickname      string   `json:"nickname,omitempty"`
	Age           *int     `json:"age"`
	Phone         string   `json:"phone"`
	City          string   `json:"city"`
	Street        string   `json:"street"`
	Gender        string   `json:"gender"`
	Level         *int     `json:"level"`
	Email         string   `json:"email"`
	Availability  []string `json:"availability"`
	RunsCount     int64    `json:"runs_count"`
	PartnersCount int64    `json:"partners_count"`
	CreatedAt     int64    `json:"created_at"`
}

// UpdateUserRequest carries the updatable fields. Nil means unchanged.
type UpdateUserRequest struct {
	UserID       string    `json:"user_id"`
	FullName     *string   `json:"full_name,omitempty" validate:"omitnil,min=1,max=128"`
	Age          *int      `json:"age,omitempty" validate:"omitnil,gt=0,lte=120"`
	Phone        *string   `json:"phone,omitempty" validate:"omitnil,max=32"`
	City         *string   `json:"city,omitempty" validate:"omitnil,max=64"`
	Street       *string   `json:"street,omitempty" validate:"omitnil,max=128"`
	Gender       *string   `json:"gender,omitempty" validate:"omitnil,max=16"`
	Level        *int      `json:"level,omitempty" validate:"omitnil,gte=0,lte=2"`
	Availability *[]string `json:"availability,omitempty"`
	Password     *string   `json:"password,omitempty" validate:"omitnil,min=6,max=72"`
}

type IncrementRunsCountRequest struct {
	UserID string `json:"user_id"`
	// Delta defaults to 1.
	Delta *int64 `json:"delta,omitempty" validate:"omitnil,gt=0"`
}

type IncrementRunsCountResponse struct {
	UserID    string `json:"user_id"`
	RunsCount int64  `json:"runs_count"`
}

//
// HistoryService
//

type AddRunRequest struct {
	UserID           string  `json:"user_id"`
	AverageHeartRate float64 `json:"average_heart_rate" validate:"gte=0"`
	TotalTimeMinutes float64 `json:"total_time_minutes" validate:"gte=0"`
	AverageSpeedKmh  float64 `json:"average_speed_kmh" validate:"gte=0"`
	TotalDistanceKm  float64 `json:"total_distance_km" validate:"gte=0"`
	RunDate          string  `json:"run_date" validate:"required,max=32"`
}

type Run struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	AverageHeartRate float64 `json:"average_heart_rate"`
	TotalTimeMinutes float64 `json:"total_time_minutes"`
	AverageSpeedKmh  float64 `json:"average_speed_kmh"`
	TotalDistanceKm  float64 `json:"total_distance_km"`
	RunDate          string  `json:"run_date"`
	CreatedAt        int64   `json:"created_at"`
}

type ListRunsRequest struct {
	UserID          string  `json:"user_id"`
	PageSize        int     `json:"page_size,omitempty"`
	PaginationToken *string `json:"pagination_token,omitempty"`
}

type ListRunsResponse struct {
	Runs                []*Run  `json:"runs"`
	NextPaginationToken *string `json:"next_pagination_token,omitempty"`
}
