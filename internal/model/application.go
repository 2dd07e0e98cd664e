package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Department identifies one of the hosting departments a student can be
// attached to.
type Department string

const (
	DepartmentHR       Department = "hr"
	DepartmentICT      Department = "ict"
	DepartmentRegistry Department = "registry"
)

func (d Department) Valid() bool {
	switch d {
	case DepartmentHR, DepartmentICT, DepartmentRegistry:
		return true
	}
	return false
}

// Departments lists all hosting departments in a stable order.
func Departments() []Department {
	return []Department{DepartmentHR, DepartmentICT, DepartmentRegistry}
}

type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusForwarded ApplicationStatus = "forwarded"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusRejected  ApplicationStatus = "rejected"
	StatusCancelled ApplicationStatus = "cancelled"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusForwarded, StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether the application still occupies the student's single
// application slot. A student with an active application cannot submit again.
func (s ApplicationStatus) Active() bool {
	return s == StatusPending || s == StatusForwarded
}

// Application is a student's request for an attachment placement. Each student
// owns at most one row; a cancelled application is reused in place on
// resubmission rather than re-inserted.
type Application struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID         `gorm:"type:uuid;uniqueIndex;not null" json:"student_id"`
	Status    ApplicationStatus `gorm:"size:20;not null;default:'pending'" json:"status"`

	ApplicationLetterURL  string `gorm:"type:text;not null" json:"application_letter_url"`
	InsuranceURL          string `gorm:"type:text;not null" json:"insurance_url"`
	CVURL                 string `gorm:"type:text;not null" json:"cv_url"`
	IntroductionLetterURL string `gorm:"type:text;not null" json:"introduction_letter_url"`

	SideHustle  *string     `gorm:"type:text" json:"side_hustle,omitempty"`
	Department  Department  `gorm:"size:20;not null" json:"department"`
	ForwardedTo *Department `gorm:"size:20" json:"forwarded_to,omitempty"`

	HRNotes       *string `gorm:"type:text" json:"hr_notes,omitempty"`
	ICTNotes      *string `gorm:"type:text" json:"ict_notes,omitempty"`
	RegistryNotes *string `gorm:"type:text" json:"registry_notes,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Student *User `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// DocumentURLs returns the four required document references.
func (a *Application) DocumentURLs() []string {
	return []string{
		a.ApplicationLetterURL,
		a.InsuranceURL,
		a.CVURL,
		a.IntroductionLetterURL,
	}
}

// Notes returns the reviewer notes written by the given department.
func (a *Application) Notes(dept Department) *string {
	switch dept {
	case DepartmentHR:
		return a.HRNotes
	case DepartmentICT:
		return a.ICTNotes
	case DepartmentRegistry:
		return a.RegistryNotes
	}
	return nil
}
