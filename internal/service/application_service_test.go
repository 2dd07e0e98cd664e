package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"kazi.app/attachmentportal/internal/dto"
	"kazi.app/attachmentportal/internal/model"
	"kazi.app/attachmentportal/internal/repository"
	"kazi.app/attachmentportal/pkg/apperror"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.StudentProfile{},
		&model.Application{},
		&model.Settings{},
		&model.Notification{},
	)
	require.NoError(t, err)

	return db
}

func seedSettings(t *testing.T, db *gorm.DB, windowOpen bool, hr, ict, registry int) {
	t.Helper()
	settings := model.Settings{
		ID:                     model.SettingsID,
		WindowOpen:             windowOpen,
		HRTotalSlots:           hr,
		HRRemainingSlots:       hr,
		ICTTotalSlots:          ict,
		ICTRemainingSlots:      ict,
		RegistryTotalSlots:     registry,
		RegistryRemainingSlots: registry,
	}
	require.NoError(t, db.Create(&settings).Error)
}

func seedStudent(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	role := model.Role{Name: "student-" + username}
	require.NoError(t, db.Create(&role).Error)

	user := model.User{
		Username:     username,
		Email:        username + "@students.example.ac.ke",
		PasswordHash: "x",
		FullName:     "Student " + username,
		RoleID:       &role.ID,
	}
	require.NoError(t, db.Create(&user).Error)

	profile := model.StudentProfile{
		UserID:              user.ID,
		Institution:         "Example University",
		Course:              "BSc Information Technology",
		YearOfStudy:         3,
		PreferredDepartment: model.DepartmentICT,
	}
	require.NoError(t, db.Create(&profile).Error)

	return &user
}

// stubStorage is an in-memory storage.FileStorage so submissions run without
// cloudinary.
type stubStorage struct {
	uploads  int
	failAt   int // 1-based upload index that fails; 0 means never
	uploaded []string
	deleted  []string
}

func (s *stubStorage) UploadDocument(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	s.uploads++
	if s.failAt != 0 && s.uploads >= s.failAt {
		return "", errors.New("storage unavailable")
	}
	url := fmt.Sprintf("https://files.example.test/%s/%d-%s", folder, s.uploads, fileName)
	s.uploaded = append(s.uploaded, url)
	return url, nil
}

func (s *stubStorage) DeleteDocument(ctx context.Context, fileURL string) error {
	s.deleted = append(s.deleted, fileURL)
	return nil
}

func makeFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	reader := multipart.NewReader(&buf, mw.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	return form.File["file"][0]
}

func validDocs(t *testing.T) SubmitDocuments {
	t.Helper()
	return SubmitDocuments{
		ApplicationLetter:  makeFileHeader(t, "letter.pdf", []byte("letter")),
		Insurance:          makeFileHeader(t, "insurance.pdf", []byte("cover")),
		CV:                 makeFileHeader(t, "cv.pdf", []byte("cv")),
		IntroductionLetter: makeFileHeader(t, "intro.pdf", []byte("intro")),
	}
}

type testEnv struct {
	db      *gorm.DB
	svc     ApplicationService
	storage *stubStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	appRepo := repository.NewApplicationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	notificationSvc := NewNotificationService(notificationRepo, nil)

	st := &stubStorage{}
	svc := NewApplicationService(appRepo, settingsRepo, userRepo, st, notificationSvc, nil, nil, 0)

	return &testEnv{db: db, svc: svc, storage: st}
}

func TestSubmitWindowClosed(t *testing.T) {
	env := newTestEnv(t)
	seedSettings(t, env.db, false, 5, 5, 5)
	student := seedStudent(t, env.db, "wclosed")

	_, err := env.svc.Submit(context.Background(), student.ID,
		dto.SubmitApplicationInput{Department: "ict"}, validDocs(t))
	require.ErrorIs(t, err, apperror.ErrWindowClosed)
}

func TestSubmitNoSlotsInDepartment(t *testing.T) {
	env := newTestEnv(t)
	seedSettings(t, env.db, true, 5, 0, 5)
	student := seedStudent(t, env.db, "noslots")

	_, err := env.svc.Submit(context.Background(), student.ID,
		dto.SubmitApplicationInput{Department: "ict"}, validDocs(t))
	require.ErrorIs(t, err, apperror.ErrNoSlotsRemaining)
}

func TestSubmitMissingAndInvalidDocuments(t *testing.T) {
	env := newTestEnv(t)
	seedSettings(t, env.db, true, 5, 5, 5)
	student := seedStudent(t, env.db, "baddocs")

	docs := validDocs(t)
	docs.CV = nil
	_, err := env.svc.Submit(context.Background(), student.ID,
		dto.SubmitApplicationInput{Department: "ict"}, docs)
	require.ErrorIs(t, err, apperror.ErrInvalidInput)
	require.Contains(t, err.Error(), "CV")

	docs = validDocs(t)
	docs.Insurance = makeFileHeader(t, "insurance.exe", []byte("nope"))
	_, err = env.svc.Submit(context.Background(), student.ID,
		dto.SubmitApplicationInput{Department: "ict"}, docs)
	require.ErrorIs(t, err, apperror.ErrInvalidInput)

	// Nothing was uploaded or persisted.
	require.Empty(t, env.storage.uploaded)
	var count int64
	require.NoError(t, env.db.Model(&model.Application{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSubmitAndDuplicate(t *testing.T) {
	env := newTestEnv(t)
	seedSettings(t, env.db, true, 5, 5, 5)
	student := seedStudent(t, env.db, "dup")

	resp, err := env.svc.Submit(context.Background(), student.ID,
		dto.SubmitApplicationInput{Department: "ict"}, validDocs(t))
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, resp.Status)
	require.NotEmpty(t, resp.ApplicationLetterURL)
	// Students never see reviewer notes.
	require.Nil(t, resp.HRNotes)

	_, err = env.svc.Submit(context.Background(), student.ID,
		dto.SubmitApplicationInput{Department: "ict"}, validDocs(t))
	require.ErrorIs(t, err, apperror.ErrDuplicateApplication)
}

func TestResubmitAfterCancelReusesRow(t *testing.T) {
	env := newTestEnv(t)
	seedSettings(t, env.db, true, 5, 5, 5)
	student := seedStudent(t, env.db, "resub")
	ctx := context.Background()

	first, err := env.svc.Submit(ctx, student.ID,
		dto.SubmitApplicationInput{Department: "ict"}, validDocs(t))
	require.NoError(t, err)

	require.NoError(t, env.svc.CancelOwn(ctx, student.ID))

	var cancelled model.Application
	require.NoError(t, env.db.First(&cancelled, "student_id = ?", student.ID).Error)
	require.Equal(t, model.StatusCancelled, cancelled.Status)

	second, err := env.svc.Submit(ctx, student.ID,
		dto.SubmitApplicationInput{Department: "registry"}, validDocs(t))
	require.NoError(t, err)

	// Same application identity, fresh content.
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, model.StatusPending, second.Status)
	require.Equal(t, model.DepartmentRegistry, second.Department)
	require.NotEqual(t, first.ApplicationLetterURL, second.ApplicationLetterURL)

	var reloaded model.Application
	require.NoError(t, env.db.First(&reloaded, "id = ?", first.ID).Error)
	require.Nil(t, reloaded.ForwardedTo)
	require.Nil(t, reloaded.HRNotes)

	var count int64
	require.NoError(t, env.db.Model(&model.Application{}).Where("student_id = ?", student.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestForwardAndDecideAuthorization(t *testing.T) {
	env := newTestEnv(t)
	seedSettings(t, env.db, true, 5, 5, 5)
	student := seedStudent(t, env.db, "fwd")
	hr := seedStudent(t, env.db, "fwd-hr")
	ctx := context.Background()

	resp, err := env.svc.Submit(ctx, student.ID,
		dto.SubmitApplicationInput{Department: "ict"}, validDocs(t))
	require.NoError(t, err)

	forwarded, err := env.svc.Forward(ctx, hr.ID, resp.ID,
		dto.ForwardApplicationInput{Department: "ict", Notes: "good fit for networks team"})
	require.NoError(t, err)
	require.Equal(t, model.StatusForwarded, forwarded.Status)
	require.NotNil(t, forwarded.ForwardedTo)
	require.Equal(t, model.DepartmentICT, *forwarded.ForwardedTo)
	require.NotNil(t, forwarded.HRNotes)
	require.Equal(t, "good fit for networks team", *forwarded.HRNotes)

	// The registry has no say over an application forwarded to ICT.
	_, err = env.svc.Decide(ctx, hr.ID, model.DepartmentRegistry, resp.ID,
		dto.DecideApplicationInput{Decision: "accepted"})
	require.ErrorIs(t, err, apperror.ErrForbidden)

	// A student notification was recorded for the forward.
	var notifCount int64
	require.NoError(t, env.db.Model(&model.Notification{}).
		Where("user_id = ? AND type = ?", student.ID, model.NotificationForwarded).
		Count(&notifCount).Error)
	require.EqualValues(t, 1, notifCount)
}

func TestAcceptReservesSlotAtomically(t *testing.T) {
	env := newTestEnv(t)
	seedSettings(t, env.db, true, 5, 1, 5)
	ctx := context.Background()

	studentA := seedStudent(t, env.db, "slot-a")
	studentB := seedStudent(t, env.db, "slot-b")
	hr := seedStudent(t, env.db, "slot-hr")

	appA, err := env.svc.Submit(ctx, studentA.ID, dto.SubmitApplicationInput{Department: "ict"}, validDocs(t))
	require.NoError(t, err)
	appB, err := env.svc.Submit(ctx, studentB.ID, dto.SubmitApplicationInput{Department: "ict"}, validDocs(t))
	require.NoError(t, err)

	_, err = env.svc.Forward(ctx, hr.ID, appA.ID, dto.ForwardApplicationInput{Department: "ict"})
	require.NoError(t, err)
	_, err = env.svc.Forward(ctx, hr.ID, appB.ID, dto.ForwardApplicationInput{Department: "ict"})
	require.NoError(t, err)

	decided, err := env.svc.Decide(ctx, hr.ID, model.DepartmentICT, appA.ID,
		dto.DecideApplicationInput{Decision: "accepted", Notes: "welcome aboard"})
	require.NoError(t, err)
	require.Equal(t, model.StatusAccepted, decided.Status)
	require.NotNil(t, decided.ICTNotes)

	var settings model.Settings
	require.NoError(t, env.db.First(&settings, model.SettingsID).Error)
	require.Equal(t, 0, settings.ICTRemainingSlots)

	// The last slot is gone: the second acceptance fails and the status flip
	// rolls back with it.
	_, err = env.svc.Decide(ctx, hr.ID, model.DepartmentICT, appB.ID,
		dto.DecideApplicationInput{Decision: "accepted"})
	require.ErrorIs(t, err, apperror.ErrNoSlotsRemaining)

	var appBRow model.Application
	require.NoError(t, env.db.First(&appBRow, "id = ?", appB.ID).Error)
	require.Equal(t, model.StatusForwarded, appBRow.Status)

	require.NoError(t, env.db.First(&settings, model.SettingsID).Error)
	require.Equal(t, 0, settings.ICTRemainingSlots)
}

func TestRejectNeedsNoCapacity(t *testing.T) {
	env := newTestEnv(t)
	seedSettings(t, env.db, true, 5, 1, 0)
	ctx := context.Background()

	student := seedStudent(t, env.db, "rej")
	hr := seedStudent(t, env.db, "rej-hr")

	app, err := env.svc.Submit(ctx, student.ID, dto.SubmitApplicationInput{Department: "ict"}, validDocs(t))
	require.NoError(t, err)
	_, err = env.svc.Forward(ctx, hr.ID, app.ID, dto.ForwardApplicationInput{Department: "registry"})
	require.NoError(t, err)

	// Registry has zero slots but can still reject.
	decided, err := env.svc.Decide(ctx, hr.ID, model.DepartmentRegistry, app.ID,
		dto.DecideApplicationInput{Decision: "rejected", Notes: "no supervisor available"})
	require.NoError(t, err)
	require.Equal(t, model.StatusRejected, decided.Status)
	require.NotNil(t, decided.RegistryNotes)

	var settings model.Settings
	require.NoError(t, env.db.First(&settings, model.SettingsID).Error)
	require.Equal(t, 0, settings.RegistryRemainingSlots)
}

func TestHRTriageRejectPending(t *testing.T) {
	env := newTestEnv(t)
	seedSettings(t, env.db, true, 5, 5, 5)
	ctx := context.Background()

	student := seedStudent(t, env.db, "triage")
	hr := seedStudent(t, env.db, "triage-hr")

	app, err := env.svc.Submit(ctx, student.ID, dto.SubmitApplicationInput{Department: "hr"}, validDocs(t))
	require.NoError(t, err)

	rejected, err := env.svc.RejectPending(ctx, hr.ID, app.ID, "incomplete insurance cover")
	require.NoError(t, err)
	require.Equal(t, model.StatusRejected, rejected.Status)

	// Only pending applications can be triaged.
	_, err = env.svc.RejectPending(ctx, hr.ID, app.ID, "again")
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDecideUnknownApplication(t *testing.T) {
	env := newTestEnv(t)
	seedSettings(t, env.db, true, 5, 5, 5)

	_, err := env.svc.Decide(context.Background(), uuid.New(), model.DepartmentICT, uuid.New(),
		dto.DecideApplicationInput{Decision: "accepted"})
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSubmitStorageFailureCleansUp(t *testing.T) {
	env := newTestEnv(t)
	seedSettings(t, env.db, true, 5, 5, 5)
	student := seedStudent(t, env.db, "storefail")

	env.storage.failAt = 3

	_, err := env.svc.Submit(context.Background(), student.ID,
		dto.SubmitApplicationInput{Department: "ict"}, validDocs(t))
	require.Error(t, err)

	// The two documents stored before the failure were deleted again.
	require.Len(t, env.storage.deleted, 2)
	var count int64
	require.NoError(t, env.db.Model(&model.Application{}).Count(&count).Error)
	require.Zero(t, count)
}
