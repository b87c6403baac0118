package match

import (
	"context"
	"math"

	"github.com/oggyb/run-together/internal/api"
	"github.com/oggyb/run-together/internal/app"
	"github.com/oggyb/run-together/internal/db"
	svcErr "github.com/oggyb/run-together/internal/errors"
	"github.com/oggyb/run-together/internal/logger"
	"github.com/oggyb/run-together/internal/matching"
	"github.com/oggyb/run-together/internal/metrics"
	"github.com/oggyb/run-together/internal/repository"
	"github.com/oggyb/run-together/internal/utils/validate"
)

// Service implements the Match gRPC API on top of the user repository and
// the pure matching package.
type Service struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository

	api.UnimplementedMatchServiceServer
}

// NewMatchService creates a new Match service with dependencies from AppContext.
func NewMatchService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
	}
}

// FindMatches ranks every other runner against the requesting user.
//
// Behavior:
//   - Loads the user (NotFound when absent) and the rest of the pool.
//   - Weights missing from the request fall back to the configured defaults;
//     negative weights are rejected.
//   - min_score defaults to the configured threshold.
//   - Results are sorted by score desc, then candidate id asc.
//
// Example:
//
//	svc.FindMatches(ctx, &api.FindMatchesRequest{UserID: "42"})
func (s *Service) FindMatches(ctx context.Context, req *api.FindMatchesRequest) (*api.FindMatchesResponse, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("FindMatches called", "user", req.UserID, "min_score", req.MinScore)

	userID, err := api.ParseID(req.UserID)
	if err != nil {
		return nil, svcErr.InvalidArgument("user_id must be a valid uint64")
	}

	weights, err := s.resolveWeights(req.Weights)
	if err != nil {
		return nil, err
	}

	minScore := s.defaultMinScore()
	if req.MinScore != nil {
		if math.IsNaN(*req.MinScore) || math.IsInf(*req.MinScore, 0) {
			return nil, svcErr.InvalidArgument("min_score must be a finite number")
		}
		minScore = *req.MinScore
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if svcErr.IsNotFound(err) {
			return nil, svcErr.NotFound("user not found")
		}
		log.Error("FindByID failed", "user", userID, "err", err)
		return nil, svcErr.Map(err)
	}

	pool, err := s.userRepo.FindAllExcept(ctx, userID)
	if err != nil {
		log.Error("FindAllExcept failed", "err", err)
		return nil, svcErr.Map(err)
	}

	candidates := make([]matching.Profile, 0, len(pool))
	for i := range pool {
		candidates = append(candidates, toProfile(&pool[i]))
	}

	results := matching.FindMatches(toProfile(user), candidates, minScore, weights)

	resp := &api.FindMatchesResponse{Matches: make([]*api.Match, 0, len(results))}
	scores := make([]float64, 0, len(results))
	for _, r := range results {
		resp.Matches = append(resp.Matches, &api.Match{
			CandidateID:  api.FormatID(r.CandidateID),
			Name:         r.Name,
			City:         r.City,
			Phone:        r.Phone,
			Level:        r.Level,
			Availability: r.Availability,
			Score:        r.Score,
		})
		scores = append(scores, r.Score)
	}
	metrics.RecordMatchRequest(len(candidates), scores)

	log.Debug("FindMatches result", "user", userID, "pool", len(candidates), "matches", len(resp.Matches))
	return resp, nil
}

// resolveWeights overlays the request's weights on the configured defaults.
func (s *Service) resolveWeights(in *api.WeightsInput) (matching.Weights, error) {
	w := s.appCtx.Weights
	if in == nil {
		return w, nil
	}
	if err := validate.Struct(in); err != nil {
		return matching.Weights{}, svcErr.InvalidArgument("weights: " + err.Error())
	}
	if in.Time != nil {
		w.Time = *in.Time
	}
	if in.Level != nil {
		w.Level = *in.Level
	}
	if in.City != nil {
		w.City = *in.City
	}
	return w, nil
}

func (s *Service) defaultMinScore() float64 {
	if s.appCtx.Config == nil {
		return matching.DefaultMinScore
	}
	return s.appCtx.Config.Match.MinScore
}

func toProfile(u *db.User) matching.Profile {
	return matching.Profile{
		ID:           u.ID,
		FullName:     u.FullName,
		Nickname:     u.Nickname,
		City:         u.City,
		Phone:        u.Phone,
		Level:        u.Level,
		Availability: u.Availability,
	}
}
