package service

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"kazi.app/attachmentportal/internal/dto"
	"kazi.app/attachmentportal/internal/model"
	"kazi.app/attachmentportal/internal/repository"
	"kazi.app/attachmentportal/pkg/apperror"
)

// attachmentMonths is the standard attachment period: the end date is derived
// from the start date at registration.
const attachmentMonths = 3

type AuthService interface {
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	// RegisterStudent creates a student account with its profile and signs the
	// new user in.
	RegisterStudent(ctx context.Context, input dto.RegisterStudentInput) (*dto.AuthResponse, error)
}

type authService struct {
	repo     repository.UserRepository
	secret   string
	tokenTTL time.Duration
}

func NewAuthService(repo repository.UserRepository) AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	ttl := time.Hour
	if ttlStr := os.Getenv("JWT_TTL_MINUTES"); ttlStr != "" {
		if minutes, err := strconv.Atoi(ttlStr); err == nil {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	return &authService{
		repo:     repo,
		secret:   secret,
		tokenTTL: ttl,
	}
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	return s.buildAuthResponse(user)
}

func (s *authService) RegisterStudent(ctx context.Context, input dto.RegisterStudentInput) (*dto.AuthResponse, error) {
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, errors.New("email is already registered")
	}
	if _, err := s.repo.FindByUsername(ctx, input.Username); err == nil {
		return nil, errors.New("username is already taken")
	}

	role, err := s.repo.FindRoleByName(ctx, "student")
	if err != nil {
		return nil, errors.New("student role not found")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	preferred := model.Department(input.PreferredDepartment)
	if !preferred.Valid() {
		return nil, apperror.ErrInvalidDepartment
	}

	profile := &model.StudentProfile{
		Institution:         input.Institution,
		Course:              input.Course,
		YearOfStudy:         input.YearOfStudy,
		SideHustle:          input.SideHustle,
		PreferredDepartment: preferred,
	}

	if input.AttachmentStart != nil && *input.AttachmentStart != "" {
		start, err := time.Parse("2006-01-02", *input.AttachmentStart)
		if err != nil {
			return nil, errors.New("attachment start date must be in YYYY-MM-DD format")
		}
		end := start.AddDate(0, attachmentMonths, 0)
		profile.AttachmentStart = &start
		profile.AttachmentEnd = &end
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FullName:     input.FullName,
		Phone:        input.Phone,
		RoleID:       &role.ID,
		Role:         *role,
	}

	if err := s.repo.Create(ctx, user, profile); err != nil {
		return nil, err
	}

	return s.buildAuthResponse(user)
}

func (s *authService) buildAuthResponse(user *model.User) (*dto.AuthResponse, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		User: dto.UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role.Name,
		},
	}, nil
}
