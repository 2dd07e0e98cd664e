package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"
	"kazi.app/attachmentportal/internal/dto"
	"kazi.app/attachmentportal/internal/model"
	"kazi.app/attachmentportal/internal/repository"
)

func TestExportCSVScopesNotesToRole(t *testing.T) {
	db := setupTestDB(t)
	student := seedStudent(t, db, "export")

	hrNotes := "strong cover letter"
	ictNotes := "accepted for networks team"
	forwardedTo := model.DepartmentICT
	app := model.Application{
		StudentID:             student.ID,
		Status:                model.StatusAccepted,
		Department:            model.DepartmentICT,
		ForwardedTo:           &forwardedTo,
		HRNotes:               &hrNotes,
		ICTNotes:              &ictNotes,
		ApplicationLetterURL:  "https://files.example.test/a",
		InsuranceURL:          "https://files.example.test/b",
		CVURL:                 "https://files.example.test/c",
		IntroductionLetterURL: "https://files.example.test/d",
	}
	require.NoError(t, db.Create(&app).Error)

	svc := NewExportService(repository.NewApplicationRepository(db))
	ctx := context.Background()

	export := func(role string) [][]string {
		var buf bytes.Buffer
		require.NoError(t, svc.WriteCSV(ctx, &buf, role, dto.ListApplicationsQuery{}))
		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		return records
	}

	// Admin sees every notes column.
	records := export("admin")
	require.Len(t, records, 2)
	header, row := records[0], records[1]
	require.Contains(t, header, "hr_notes")
	require.Contains(t, header, "ict_notes")
	require.Contains(t, header, "registry_notes")
	require.Equal(t, app.ID.String(), row[0])
	require.Equal(t, "Student export", row[1])
	require.Equal(t, "Example University", row[3])
	require.Equal(t, "accepted", row[7])
	require.Equal(t, "ict", row[8])

	// ICT only sees its own notes column.
	records = export("ict")
	header, row = records[0], records[1]
	require.Contains(t, header, "ict_notes")
	require.NotContains(t, header, "hr_notes")
	require.NotContains(t, header, "registry_notes")
	require.Equal(t, ictNotes, row[len(row)-1])

	// HR never sees the deciding department's notes.
	records = export("hr")
	header, row = records[0], records[1]
	require.Contains(t, header, "hr_notes")
	require.NotContains(t, header, "ict_notes")
	require.Equal(t, hrNotes, row[len(row)-1])
}

func TestExportCSVFiltersByStatus(t *testing.T) {
	db := setupTestDB(t)
	studentA := seedStudent(t, db, "filter-a")
	studentB := seedStudent(t, db, "filter-b")

	for _, app := range []model.Application{
		{StudentID: studentA.ID, Status: model.StatusPending, Department: model.DepartmentHR},
		{StudentID: studentB.ID, Status: model.StatusRejected, Department: model.DepartmentHR},
	} {
		require.NoError(t, db.Create(&app).Error)
	}

	svc := NewExportService(repository.NewApplicationRepository(db))

	var buf bytes.Buffer
	err := svc.WriteCSV(context.Background(), &buf, "admin", dto.ListApplicationsQuery{Status: "pending"})
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "pending", records[1][7])
}
