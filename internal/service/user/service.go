package user

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/oggyb/run-together/internal/api"
	"github.com/oggyb/run-together/internal/app"
	"github.com/oggyb/run-together/internal/db"
	svcErr "github.com/oggyb/run-together/internal/errors"
	"github.com/oggyb/run-together/internal/logger"
	"github.com/oggyb/run-together/internal/repository"
	"github.com/oggyb/run-together/internal/utils/validate"
)

// maxIDAttempts bounds the max(id)+1 retry loop under concurrent signups.
const maxIDAttempts = 5

// Service implements the User gRPC API.
type Service struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository

	api.UnimplementedUserServiceServer
}

// NewUserService creates a new User service with dependencies from AppContext.
func NewUserService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
	}
}

// Register creates a runner profile and returns its numeric id.
//
// Behavior:
//   - Validates the payload (age in (0,120], level in {0,1,2}, password >= 6).
//   - Email is unique; a taken email is AlreadyExists.
//   - The password is stored as a bcrypt hash.
//   - Id is max(id)+1, or 0 for the first user. A concurrent signup taking
//     the same id is retried with a fresh max.
//
// Example:
//
//	svc.Register(ctx, &api.RegisterRequest{FullName: "Dana", Email: "dana@example.com", ...})
func (s *Service) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	email := normalizeEmail(req.Email)
	log.Debug("Register called", "email", email)

	in := *req
	in.Email = email
	if err := validate.Struct(&in); err != nil {
		return nil, svcErr.InvalidArgument(err.Error())
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		log.Error("password hashing failed", "err", err)
		return nil, svcErr.Internal()
	}

	age := req.Age
	level := *req.Level
	u := &db.User{
		FullName:     strings.TrimSpace(req.FullName),
		Age:          &age,
		Phone:        strings.TrimSpace(req.Phone),
		City:         strings.TrimSpace(req.City),
		Street:       strings.TrimSpace(req.Street),
		Gender:       strings.TrimSpace(req.Gender),
		Level:        &level,
		Email:        email,
		PasswordHash: hash,
		Availability: cleanSlots(req.Availability),
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.userRepo.NextID(ctx)
		if err != nil {
			log.Error("NextID failed", "err", err)
			return nil, svcErr.Map(err)
		}
		u.ID = id

		err = s.userRepo.Create(ctx, u)
		if err == nil {
			log.Info("user registered", "user", id)
			return &api.RegisterResponse{ID: api.FormatID(id)}, nil
		}
		if !svcErr.IsDuplicate(err) {
			log.Error("Create user failed", "err", err)
			return nil, svcErr.Map(err)
		}
		// either the email or the id was taken concurrently
		if err := s.ensureEmailFree(ctx, email); err != nil {
			return nil, err
		}
		log.Debug("user id taken, retrying", "user", id, "attempt", attempt+1)
	}

	log.Error("could not allocate user id", "attempts", maxIDAttempts)
	return nil, svcErr.Internal()
}

// GetUser returns a public profile.
func (s *Service) GetUser(ctx context.Context, req *api.GetUserRequest) (*api.User, error) {
	logger.FromContext(ctx, s.appCtx.Logger).Debug("GetUser called", "user", req.UserID)

	id, err := api.ParseID(req.UserID)
	if err != nil {
		return nil, svcErr.InvalidArgument("user_id must be a valid uint64")
	}

	u, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAPI(u), nil
}

// UpdateUser writes the fields present in the request and returns the
// updated profile.
//
// Behavior:
//   - Only full_name, age, phone, city, street, gender, level,
//     availability and password can change; email and counters cannot.
//   - Same validation as Register; a new password is re-hashed.
//   - A request with no fields returns the current profile.
func (s *Service) UpdateUser(ctx context.Context, req *api.UpdateUserRequest) (*api.User, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("UpdateUser called", "user", req.UserID)

	id, err := api.ParseID(req.UserID)
	if err != nil {
		return nil, svcErr.InvalidArgument("user_id must be a valid uint64")
	}
	if err := validate.Struct(req); err != nil {
		return nil, svcErr.InvalidArgument(err.Error())
	}

	changes := &db.User{}
	var columns []string

	if req.FullName != nil {
		changes.FullName = strings.TrimSpace(*req.FullName)
		columns = append(columns, "full_name")
	}
	if req.Age != nil {
		age := *req.Age
		changes.Age = &age
		columns = append(columns, "age")
	}
	if req.Phone != nil {
		changes.Phone = strings.TrimSpace(*req.Phone)
		columns = append(columns, "phone")
	}
	if req.City != nil {
		changes.City = strings.TrimSpace(*req.City)
		columns = append(columns, "city")
	}
	if req.Street != nil {
		changes.Street = strings.TrimSpace(*req.Street)
		columns = append(columns, "street")
	}
	if req.Gender != nil {
		changes.Gender = strings.TrimSpace(*req.Gender)
		columns = append(columns, "gender")
	}
	if req.Level != nil {
		level := *req.Level
		changes.Level = &level
		columns = append(columns, "level")
	}
	if req.Availability != nil {
		changes.Availability = cleanSlots(*req.Availability)
		columns = append(columns, "availability")
	}
	if req.Password != nil {
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			log.Error("password hashing failed", "err", err)
			return nil, svcErr.Internal()
		}
		changes.PasswordHash = hash
		columns = append(columns, "password_hash")
	}

	if len(columns) == 0 {
		u, err := s.findUser(ctx, id)
		if err != nil {
			return nil, err
		}
		return toAPI(u), nil
	}

	u, err := s.userRepo.Update(ctx, id, changes, columns)
	if err != nil {
		if svcErr.IsNotFound(err) {
			return nil, svcErr.NotFound("user not found")
		}
		log.Error("Update user failed", "user", id, "err", err)
		return nil, svcErr.Map(err)
	}

	log.Debug("UpdateUser result", "user", id, "columns", columns)
	return toAPI(u), nil
}

// IncrementRunsCount adds delta (default 1) to the user's completed runs.
func (s *Service) IncrementRunsCount(ctx context.Context, req *api.IncrementRunsCountRequest) (*api.IncrementRunsCountResponse, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("IncrementRunsCount called", "user", req.UserID, "delta", req.Delta)

	id, err := api.ParseID(req.UserID)
	if err != nil {
		return nil, svcErr.InvalidArgument("user_id must be a valid uint64")
	}
	if err := validate.Struct(req); err != nil {
		return nil, svcErr.InvalidArgument(err.Error())
	}

	delta := int64(1)
	if req.Delta != nil {
		delta = *req.Delta
	}

	runs, err := s.userRepo.IncrementRuns(ctx, id, delta)
	if err != nil {
		if svcErr.IsNotFound(err) {
			return nil, svcErr.NotFound("user not found")
		}
		log.Error("IncrementRuns failed", "user", id, "err", err)
		return nil, svcErr.Map(err)
	}

	return &api.IncrementRunsCountResponse{UserID: api.FormatID(id), RunsCount: runs}, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Error("FindByEmail failed", "err", err)
		return svcErr.Map(err)
	}
	if existing != nil {
		return svcErr.AlreadyExists("user already exists")
	}
	return nil
}

func (s *Service) findUser(ctx context.Context, id uint64) (*db.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if svcErr.IsNotFound(err) {
			return nil, svcErr.NotFound("user not found")
		}
		logger.FromContext(ctx, s.appCtx.Logger).Error("FindByID failed", "user", id, "err", err)
		return nil, svcErr.Map(err)
	}
	return u, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	cost := bcrypt.DefaultCost
	if s.appCtx.Config != nil && s.appCtx.Config.Security.BcryptCost > 0 {
		cost = s.appCtx.Config.Security.BcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// cleanSlots trims tokens and drops empties. Unknown tokens are kept; the
// scorer ignores them.
func cleanSlots(slots []string) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toAPI(u *db.User) *api.User {
	availability := u.Availability
	if availability == nil {
		availability = []string{}
	}
	return &api.User{
		ID:            api.FormatID(u.ID),
		FullName:      u.FullName,
		Nickname:      u.Nickname,
		Age:           u.Age,
		Phone:         u.Phone,
		City:          u.City,
		Street:        u.Street,
		Gender:        u.Gender,
		Level:         u.Level,
		Email:         u.Email,
		Availability:  availability,
		RunsCount:     u.RunsCount,
		PartnersCount: u.PartnersCount,
		CreatedAt:     api.UnixMilli(u.CreatedAt),
	}
}
