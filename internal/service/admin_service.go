package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"kazi.app/attachmentportal/internal/dto"
	"kazi.app/attachmentportal/internal/model"
	"kazi.app/attachmentportal/internal/repository"
)

type AdminService interface {
	// CreateStaffUser provisions an HR, ICT, Registry or admin account. Roles
	// are fixed at creation; there is no elevation flow.
	CreateStaffUser(ctx context.Context, input dto.CreateStaffUserInput) (*dto.UserResponse, error)
	GetAllUsers(ctx context.Context) ([]dto.UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
}

type adminService struct {
	userRepo repository.UserRepository
}

func NewAdminService(userRepo repository.UserRepository) AdminService {
	return &adminService{userRepo: userRepo}
}

func (s *adminService) CreateStaffUser(ctx context.Context, input dto.CreateStaffUserInput) (*dto.UserResponse, error) {
	if _, err := s.userRepo.FindByEmail(ctx, input.Email); err == nil {
		return nil, errors.New("email is already registered")
	}
	if _, err := s.userRepo.FindByUsername(ctx, input.Username); err == nil {
		return nil, errors.New("username is already taken")
	}

	role, err := s.userRepo.FindRoleByName(ctx, input.Role)
	if err != nil {
		return nil, errors.New("role not found")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
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

	if err := s.userRepo.Create(ctx, user, nil); err != nil {
		return nil, err
	}

	return &dto.UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role.Name,
	}, nil
}

func (s *adminService) GetAllUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role.Name,
		})
	}

	return responses, nil
}

func (s *adminService) DeleteUser(ctx context.Context, id string) error {
	return s.userRepo.Delete(ctx, id)
}
