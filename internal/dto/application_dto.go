package dto

import (
	"time"

	"github.com/google/uuid"
	"kazi.app/attachmentportal/internal/model"
)

// SubmitApplicationInput carries the non-file form fields of a submission.
// The four document files arrive as multipart file parts alongside it.
type SubmitApplicationInput struct {
	Department string  `form:"department" binding:"required,oneof=hr ict registry"`
	SideHustle *string `form:"side_hustle"`
}

type ForwardApplicationInput struct {
	Department string `json:"department" binding:"required,oneof=hr ict registry"`
	Notes      string `json:"notes"`
}

type DecideApplicationInput struct {
	Decision string `json:"decision" binding:"required,oneof=accepted rejected"`
	Notes    string `json:"notes"`
}

type RejectApplicationInput struct {
	Notes string `json:"notes"`
}

type ListApplicationsQuery struct {
	Status string `form:"status"`
	From   string `form:"from"` // YYYY-MM-DD
	To     string `form:"to"`   // YYYY-MM-DD
}

type StudentSummary struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Institution string    `json:"institution,omitempty"`
	Course      string    `json:"course,omitempty"`
	YearOfStudy int       `json:"year_of_study,omitempty"`
}

type ApplicationResponse struct {
	ID          uuid.UUID               `json:"id"`
	Status      model.ApplicationStatus `json:"status"`
	Department  model.Department        `json:"department"`
	ForwardedTo *model.Department       `json:"forwarded_to,omitempty"`

	ApplicationLetterURL  string `json:"application_letter_url"`
	InsuranceURL          string `json:"insurance_url"`
	CVURL                 string `json:"cv_url"`
	IntroductionLetterURL string `json:"introduction_letter_url"`

	SideHustle *string `json:"side_hustle,omitempty"`

	HRNotes       *string `json:"hr_notes,omitempty"`
	ICTNotes      *string `json:"ict_notes,omitempty"`
	RegistryNotes *string `json:"registry_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student *StudentSummary `json:"student,omitempty"`
}

// NewApplicationResponse maps an application for a staff reader, reviewer
// notes included.
func NewApplicationResponse(app *model.Application) *ApplicationResponse {
	resp := &ApplicationResponse{
		ID:                    app.ID,
		Status:                app.Status,
		Department:            app.Department,
		ForwardedTo:           app.ForwardedTo,
		ApplicationLetterURL:  app.ApplicationLetterURL,
		InsuranceURL:          app.InsuranceURL,
		CVURL:                 app.CVURL,
		IntroductionLetterURL: app.IntroductionLetterURL,
		SideHustle:            app.SideHustle,
		HRNotes:               app.HRNotes,
		ICTNotes:              app.ICTNotes,
		RegistryNotes:         app.RegistryNotes,
		CreatedAt:             app.CreatedAt,
		UpdatedAt:             app.UpdatedAt,
	}

	if app.Student != nil {
		summary := &StudentSummary{
			ID:       app.Student.ID,
			FullName: app.Student.FullName,
			Email:    app.Student.Email,
		}
		if app.Student.Profile != nil {
			summary.Institution = app.Student.Profile.Institution
			summary.Course = app.Student.Profile.Course
			summary.YearOfStudy = app.Student.Profile.YearOfStudy
		}
		resp.Student = summary
	}

	return resp
}

// NewStudentApplicationResponse maps an application for its owner. Internal
// reviewer notes are not exposed to students.
func NewStudentApplicationResponse(app *model.Application) *ApplicationResponse {
	resp := NewApplicationResponse(app)
	resp.HRNotes = nil
	resp.ICTNotes = nil
	resp.RegistryNotes = nil
	resp.Student = nil
	return resp
}
