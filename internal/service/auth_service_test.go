package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"kazi.app/attachmentportal/internal/dto"
	"kazi.app/attachmentportal/internal/model"
	"kazi.app/attachmentportal/internal/repository"
)

func strPointer(s string) *string { return &s }

func registerInput(username string) dto.RegisterStudentInput {
	return dto.RegisterStudentInput{
		Username:            username,
		Email:               username + "@students.example.ac.ke",
		Password:            "s3cret-pass",
		FullName:            "Test Student",
		Institution:         "Example University",
		Course:              "BSc Computer Science",
		YearOfStudy:         3,
		PreferredDepartment: "ict",
	}
}

func TestRegisterStudentAndLogin(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&model.Role{Name: "student"}).Error)
	svc := NewAuthService(repository.NewUserRepository(db))
	ctx := context.Background()

	input := registerInput("jane")
	input.AttachmentStart = strPointer("2026-09-01")

	resp, err := svc.RegisterStudent(ctx, input)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "student", resp.User.Role)

	// The attachment period runs three months from the start date.
	var profile model.StudentProfile
	require.NoError(t, db.First(&profile, "user_id = ?", resp.User.ID).Error)
	require.NotNil(t, profile.AttachmentStart)
	require.NotNil(t, profile.AttachmentEnd)
	require.Equal(t, "2026-09-01", profile.AttachmentStart.UTC().Format("2006-01-02"))
	require.Equal(t, "2026-12-01", profile.AttachmentEnd.UTC().Format("2006-01-02"))

	login, err := svc.Login(ctx, dto.LoginInput{Email: input.Email, Password: input.Password})
	require.NoError(t, err)
	require.NotEmpty(t, login.Token)

	_, err = svc.Login(ctx, dto.LoginInput{Email: input.Email, Password: "wrong-pass"})
	require.EqualError(t, err, "invalid credentials")
}

func TestRegisterStudentRejectsDuplicates(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&model.Role{Name: "student"}).Error)
	svc := NewAuthService(repository.NewUserRepository(db))
	ctx := context.Background()

	_, err := svc.RegisterStudent(ctx, registerInput("john"))
	require.NoError(t, err)

	dupEmail := registerInput("john2")
	dupEmail.Email = "john@students.example.ac.ke"
	_, err = svc.RegisterStudent(ctx, dupEmail)
	require.EqualError(t, err, "email is already registered")

	dupUsername := registerInput("john")
	dupUsername.Email = "other@students.example.ac.ke"
	_, err = svc.RegisterStudent(ctx, dupUsername)
	require.EqualError(t, err, "username is already taken")
}

func TestRegisterStudentBadStartDate(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&model.Role{Name: "student"}).Error)
	svc := NewAuthService(repository.NewUserRepository(db))

	input := registerInput("baddate")
	input.AttachmentStart = strPointer("01/09/2026")

	_, err := svc.RegisterStudent(context.Background(), input)
	require.Error(t, err)
}
