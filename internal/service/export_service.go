package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"kazi.app/attachmentportal/internal/dto"
	"kazi.app/attachmentportal/internal/model"
	"kazi.app/attachmentportal/internal/repository"
)

type ExportService interface {
	// WriteCSV streams a tabular dump of applications matching the query.
	// Reviewer notes are scoped to the exporting role: each department sees
	// its own notes column, admin sees all three.
	WriteCSV(ctx context.Context, w io.Writer, role string, query dto.ListApplicationsQuery) error
}

type exportService struct {
	appRepo repository.ApplicationRepository
}

func NewExportService(appRepo repository.ApplicationRepository) ExportService {
	return &exportService{appRepo: appRepo}
}

func (s *exportService) WriteCSV(ctx context.Context, w io.Writer, role string, query dto.ListApplicationsQuery) error {
	filter, err := buildFilter(query)
	if err != nil {
		return err
	}

	apps, err := s.appRepo.List(ctx, *filter)
	if err != nil {
		return err
	}

	noteDepts := notesDepartmentsForRole(role)

	writer := csv.NewWriter(w)

	header := []string{
		"application_id", "student_name", "email", "institution", "course",
		"year_of_study", "department", "status", "forwarded_to", "submitted_at",
	}
	for _, dept := range noteDepts {
		header = append(header, string(dept)+"_notes")
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i := range apps {
		app := &apps[i]

		record := []string{
			app.ID.String(),
			studentField(app, func(u *model.User) string { return u.FullName }),
			studentField(app, func(u *model.User) string { return u.Email }),
			profileField(app, func(p *model.StudentProfile) string { return p.Institution }),
			profileField(app, func(p *model.StudentProfile) string { return p.Course }),
			profileField(app, func(p *model.StudentProfile) string { return fmt.Sprintf("%d", p.YearOfStudy) }),
			string(app.Department),
			string(app.Status),
			forwardedField(app),
			app.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for _, dept := range noteDepts {
			record = append(record, stringValue(app.Notes(dept)))
		}

		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// notesDepartmentsForRole limits which notes columns a role may export.
func notesDepartmentsForRole(role string) []model.Department {
	switch role {
	case "admin":
		return model.Departments()
	case "hr":
		return []model.Department{model.DepartmentHR}
	case "ict":
		return []model.Department{model.DepartmentICT}
	case "registry":
		return []model.Department{model.DepartmentRegistry}
	}
	return nil
}

func studentField(app *model.Application, f func(*model.User) string) string {
	if app.Student == nil {
		return ""
	}
	return f(app.Student)
}

func profileField(app *model.Application, f func(*model.StudentProfile) string) string {
	if app.Student == nil || app.Student.Profile == nil {
		return ""
	}
	return f(app.Student.Profile)
}

func forwardedField(app *model.Application) string {
	if app.ForwardedTo == nil {
		return ""
	}
	return string(*app.ForwardedTo)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
