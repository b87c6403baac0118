package history

import (
	"context"
	"strings"

	"github.com/oggyb/run-together/internal/api"
	"github.com/oggyb/run-together/internal/app"
	"github.com/oggyb/run-together/internal/db"
	svcErr "github.com/oggyb/run-together/internal/errors"
	"github.com/oggyb/run-together/internal/logger"
	"github.com/oggyb/run-together/internal/repository"
	"github.com/oggyb/run-together/internal/utils/pagination"
	"github.com/oggyb/run-together/internal/utils/validate"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service implements the History gRPC API.
type Service struct {
	appCtx      *app.AppContext
	historyRepo *repository.HistoryRepository
	userRepo    *repository.UserRepository

	api.UnimplementedHistoryServiceServer
}

func NewHistoryService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		historyRepo: repository.NewHistoryRepository(appCtx.DB),
		userRepo:    repository.NewUserRepository(appCtx.DB),
	}
}

// AddRun stores a completed run for an existing user.
func (s *Service) AddRun(ctx context.Context, req *api.AddRunRequest) (*api.Run, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("AddRun called", "user", req.UserID, "run_date", req.RunDate)

	userID, err := api.ParseID(req.UserID)
	if err != nil {
		return nil, svcErr.InvalidArgument("user_id must be a valid uint64")
	}
	in := *req
	in.RunDate = strings.TrimSpace(in.RunDate)
	if err := validate.Struct(&in); err != nil {
		return nil, svcErr.InvalidArgument(err.Error())
	}

	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if svcErr.IsNotFound(err) {
			return nil, svcErr.NotFound("user not found")
		}
		log.Error("FindByID failed", "user", userID, "err", err)
		return nil, svcErr.Map(err)
	}

	run := &db.RunHistory{
		UserID:           userID,
		AverageHeartRate: in.AverageHeartRate,
		TotalTimeMinutes: in.TotalTimeMinutes,
		AverageSpeedKmh:  in.AverageSpeedKmh,
		TotalDistanceKm:  in.TotalDistanceKm,
		RunDate:          in.RunDate,
	}
	if err := s.historyRepo.Create(ctx, run); err != nil {
		log.Error("Create run failed", "err", err)
		return nil, svcErr.Map(err)
	}

	return toAPI(run), nil
}

// ListRuns returns a user's runs, newest first.
//
// Behavior:
//   - page_size defaults to 20 and is capped at 100.
//   - Supports cursor-based pagination with pagination_token.
//
// Example:
//
//	svc.ListRuns(ctx, &api.ListRunsRequest{UserID: "42", PageSize: 10})
func (s *Service) ListRuns(ctx context.Context, req *api.ListRunsRequest) (*api.ListRunsResponse, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("ListRuns called", "user", req.UserID, "page_size", req.PageSize)

	userID, err := api.ParseID(req.UserID)
	if err != nil {
		return nil, svcErr.InvalidArgument("user_id must be a valid uint64")
	}
	limit := pagination.ClampLimit(req.PageSize, defaultPageSize, maxPageSize)

	runs, next, err := s.historyRepo.ListByUser(ctx, userID, req.PaginationToken, limit)
	if err != nil {
		log.Error("ListByUser failed", "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &api.ListRunsResponse{Runs: make([]*api.Run, 0, len(runs))}
	for i := range runs {
		resp.Runs = append(resp.Runs, toAPI(&runs[i]))
	}
	resp.NextPaginationToken = next

	return resp, nil
}

func toAPI(r *db.RunHistory) *api.Run {
	return &api.Run{
		ID:               api.FormatID(r.ID),
		UserID:           api.FormatID(r.UserID),
		AverageHeartRate: r.AverageHeartRate,
		TotalTimeMinutes: r.TotalTimeMinutes,
		AverageSpeedKmh:  r.AverageSpeedKmh,
		TotalDistanceKm:  r.TotalDistanceKm,
		RunDate:          r.RunDate,
		CreatedAt:        api.UnixMilli(r.CreatedAt),
	}
}
