package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"kazi.app/attachmentportal/internal/dto"
	"kazi.app/attachmentportal/internal/model"
	"kazi.app/attachmentportal/internal/repository"
	"kazi.app/attachmentportal/pkg/apperror"
	"kazi.app/attachmentportal/pkg/storage"
)

const maxDocumentSize = 5 << 20 // 5 MiB per document

var allowedDocumentExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// SubmitDocuments carries the four required document uploads of a submission.
type SubmitDocuments struct {
	ApplicationLetter  *multipart.FileHeader
	Insurance          *multipart.FileHeader
	CV                 *multipart.FileHeader
	IntroductionLetter *multipart.FileHeader
}

type ApplicationService interface {
	// Submit creates (or, after a cancellation, reuses) the student's
	// application. Slots are only reserved at acceptance; submission checks
	// capacity as a soft gate so students cannot apply into a full department.
	Submit(ctx context.Context, studentID uuid.UUID, input dto.SubmitApplicationInput, docs SubmitDocuments) (*dto.ApplicationResponse, error)
	GetOwn(ctx context.Context, studentID uuid.UUID) (*dto.ApplicationResponse, error)
	CancelOwn(ctx context.Context, studentID uuid.UUID) error

	List(ctx context.Context, query dto.ListApplicationsQuery) ([]*dto.ApplicationResponse, error)
	ListForDepartment(ctx context.Context, dept model.Department) ([]*dto.ApplicationResponse, error)

	Forward(ctx context.Context, actorID, appID uuid.UUID, input dto.ForwardApplicationInput) (*dto.ApplicationResponse, error)
	RejectPending(ctx context.Context, actorID, appID uuid.UUID, notes string) (*dto.ApplicationResponse, error)
	CancelPending(ctx context.Context, appID uuid.UUID) error

	// Decide records the forwarded-to department's accept/reject verdict. An
	// acceptance reserves one slot atomically with the status flip.
	Decide(ctx context.Context, actorID uuid.UUID, reviewer model.Department, appID uuid.UUID, input dto.DecideApplicationInput) (*dto.ApplicationResponse, error)
}

type applicationService struct {
	appRepo       repository.ApplicationRepository
	settingsRepo  repository.SettingsRepository
	userRepo      repository.UserRepository
	fileStorage   storage.FileStorage
	notifications NotificationService
	search        SearchService
	redisClient   *redis.Client
	submitLimit   time.Duration
	uploadFolder  string
}

func NewApplicationService(
	appRepo repository.ApplicationRepository,
	settingsRepo repository.SettingsRepository,
	userRepo repository.UserRepository,
	fileStorage storage.FileStorage,
	notifications NotificationService,
	search SearchService,
	redisClient *redis.Client,
	submitLimit time.Duration,
) ApplicationService {
	return &applicationService{
		appRepo:       appRepo,
		settingsRepo:  settingsRepo,
		userRepo:      userRepo,
		fileStorage:   fileStorage,
		notifications: notifications,
		search:        search,
		redisClient:   redisClient,
		submitLimit:   submitLimit,
		uploadFolder:  "applications",
	}
}

func (s *applicationService) Submit(ctx context.Context, studentID uuid.UUID, input dto.SubmitApplicationInput, docs SubmitDocuments) (*dto.ApplicationResponse, error) {
	allowed, err := CheckAndSetRateLimit(ctx, s.redisClient, studentID, "submit_application", s.submitLimit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.ErrRateLimitExceeded
	}

	resp, err := s.submit(ctx, studentID, input, docs)
	if err != nil {
		// A failed submission should not lock the student out of retrying.
		if clearErr := ClearRateLimit(ctx, s.redisClient, studentID, "submit_application"); clearErr != nil {
			log.Printf("failed to clear submit rate limit for %s: %v", studentID, clearErr)
		}
		return nil, err
	}

	return resp, nil
}

func (s *applicationService) submit(ctx context.Context, studentID uuid.UUID, input dto.SubmitApplicationInput, docs SubmitDocuments) (*dto.ApplicationResponse, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.WindowOpen {
		return nil, apperror.ErrWindowClosed
	}

	dept := model.Department(input.Department)
	if !dept.Valid() {
		return nil, apperror.ErrInvalidDepartment
	}
	if settings.Slots(dept).Remaining <= 0 {
		return nil, apperror.ErrNoSlotsRemaining
	}

	existing, err := s.appRepo.FindByStudentID(ctx, studentID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status != model.StatusCancelled {
		return nil, apperror.ErrDuplicateApplication
	}

	if err := validateDocuments(docs); err != nil {
		return nil, err
	}

	urls, err := s.uploadDocuments(ctx, docs)
	if err != nil {
		return nil, err
	}

	var app *model.Application
	if existing != nil {
		// Resubmission after cancellation reuses the same row: prior document
		// references, routing state and reviewer notes are cleared.
		app = existing
		app.Status = model.StatusPending
		app.Department = dept
		app.ForwardedTo = nil
		app.HRNotes = nil
		app.ICTNotes = nil
		app.RegistryNotes = nil
		app.ApplicationLetterURL = urls[0]
		app.InsuranceURL = urls[1]
		app.CVURL = urls[2]
		app.IntroductionLetterURL = urls[3]
		app.SideHustle = input.SideHustle

		if err := s.appRepo.Save(ctx, app); err != nil {
			s.deleteUploaded(ctx, urls)
			return nil, err
		}
	} else {
		app = &model.Application{
			StudentID:             studentID,
			Status:                model.StatusPending,
			Department:            dept,
			ApplicationLetterURL:  urls[0],
			InsuranceURL:          urls[1],
			CVURL:                 urls[2],
			IntroductionLetterURL: urls[3],
			SideHustle:            input.SideHustle,
		}

		if err := s.appRepo.Create(ctx, app); err != nil {
			s.deleteUploaded(ctx, urls)
			return nil, err
		}
	}

	s.indexApplication(ctx, app.ID)

	return dto.NewStudentApplicationResponse(app), nil
}

func (s *applicationService) GetOwn(ctx context.Context, studentID uuid.UUID) (*dto.ApplicationResponse, error) {
	app, err := s.appRepo.FindByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	return dto.NewStudentApplicationResponse(app), nil
}

func (s *applicationService) CancelOwn(ctx context.Context, studentID uuid.UUID) error {
	if err := s.appRepo.CancelOwn(ctx, studentID); err != nil {
		return err
	}

	app, err := s.appRepo.FindByStudentID(ctx, studentID)
	if err == nil {
		s.indexApplication(ctx, app.ID)
	}

	return nil
}

func (s *applicationService) List(ctx context.Context, query dto.ListApplicationsQuery) ([]*dto.ApplicationResponse, error) {
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}

	apps, err := s.appRepo.List(ctx, *filter)
	if err != nil {
		return nil, err
	}

	return toResponses(apps), nil
}

func (s *applicationService) ListForDepartment(ctx context.Context, dept model.Department) ([]*dto.ApplicationResponse, error) {
	if !dept.Valid() {
		return nil, apperror.ErrInvalidDepartment
	}

	apps, err := s.appRepo.List(ctx, repository.ApplicationFilter{ForwardedTo: &dept})
	if err != nil {
		return nil, err
	}

	return toResponses(apps), nil
}

func (s *applicationService) Forward(ctx context.Context, actorID, appID uuid.UUID, input dto.ForwardApplicationInput) (*dto.ApplicationResponse, error) {
	dept := model.Department(input.Department)
	if !dept.Valid() {
		return nil, apperror.ErrInvalidDepartment
	}

	if err := s.appRepo.Forward(ctx, appID, dept, input.Notes); err != nil {
		return nil, err
	}

	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, app, actorID, model.NotificationForwarded,
		fmt.Sprintf("Your application has been forwarded to the %s department.", strings.ToUpper(string(dept))))
	s.indexApplication(ctx, app.ID)

	return dto.NewApplicationResponse(app), nil
}

func (s *applicationService) RejectPending(ctx context.Context, actorID, appID uuid.UUID, notes string) (*dto.ApplicationResponse, error) {
	if err := s.appRepo.RejectPending(ctx, appID, notes); err != nil {
		return nil, err
	}

	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, app, actorID, model.NotificationRejected, "Your application has been rejected.")
	s.indexApplication(ctx, app.ID)

	return dto.NewApplicationResponse(app), nil
}

func (s *applicationService) CancelPending(ctx context.Context, appID uuid.UUID) error {
	if err := s.appRepo.CancelPending(ctx, appID); err != nil {
		return err
	}

	s.indexApplication(ctx, appID)
	return nil
}

func (s *applicationService) Decide(ctx context.Context, actorID uuid.UUID, reviewer model.Department, appID uuid.UUID, input dto.DecideApplicationInput) (*dto.ApplicationResponse, error) {
	if !reviewer.Valid() {
		return nil, apperror.ErrInvalidDepartment
	}

	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if app.Status != model.StatusForwarded {
		return nil, apperror.ErrNotFound
	}
	if app.ForwardedTo == nil || *app.ForwardedTo != reviewer {
		return nil, apperror.ErrForbidden
	}

	switch model.ApplicationStatus(input.Decision) {
	case model.StatusAccepted:
		if err := s.appRepo.Accept(ctx, appID, reviewer, input.Notes); err != nil {
			return nil, err
		}
		s.notify(ctx, app, actorID, model.NotificationAccepted,
			fmt.Sprintf("Congratulations! Your application has been accepted by the %s department.", strings.ToUpper(string(reviewer))))
	case model.StatusRejected:
		if err := s.appRepo.Reject(ctx, appID, reviewer, input.Notes); err != nil {
			return nil, err
		}
		s.notify(ctx, app, actorID, model.NotificationRejected, "Your application has been rejected.")
	default:
		return nil, apperror.ErrInvalidInput
	}

	updated, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}

	s.indexApplication(ctx, updated.ID)

	return dto.NewApplicationResponse(updated), nil
}

func validateDocuments(docs SubmitDocuments) error {
	required := []struct {
		name string
		file *multipart.FileHeader
	}{
		{"application letter", docs.ApplicationLetter},
		{"insurance cover", docs.Insurance},
		{"CV", docs.CV},
		{"introduction letter", docs.IntroductionLetter},
	}

	for _, doc := range required {
		if doc.file == nil {
			return fmt.Errorf("%w: %s is required", apperror.ErrInvalidInput, doc.name)
		}
		if doc.file.Size > maxDocumentSize {
			return fmt.Errorf("%w: %s exceeds the 5MB limit", apperror.ErrInvalidInput, doc.name)
		}
		ext := strings.ToLower(filepath.Ext(doc.file.Filename))
		if !allowedDocumentExtensions[ext] {
			return fmt.Errorf("%w: %s has an unsupported file type %q", apperror.ErrInvalidInput, doc.name, ext)
		}
	}

	return nil
}

// uploadDocuments stores the four documents in submission order. If any upload
// fails, documents already stored for this submission are deleted so no
// orphaned blobs remain.
func (s *applicationService) uploadDocuments(ctx context.Context, docs SubmitDocuments) ([4]string, error) {
	var urls [4]string
	files := [4]*multipart.FileHeader{docs.ApplicationLetter, docs.Insurance, docs.CV, docs.IntroductionLetter}

	for i, file := range files {
		url, err := s.uploadOne(ctx, file)
		if err != nil {
			s.deleteUploaded(ctx, urls)
			return urls, fmt.Errorf("failed to store %s: %w", file.Filename, err)
		}
		urls[i] = url
	}

	return urls, nil
}

func (s *applicationService) uploadOne(ctx context.Context, file *multipart.FileHeader) (string, error) {
	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return s.fileStorage.UploadDocument(ctx, f, s.uploadFolder, file.Filename)
}

func (s *applicationService) deleteUploaded(ctx context.Context, urls [4]string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.fileStorage.DeleteDocument(ctx, url); err != nil {
			log.Printf("failed to delete uploaded document %s: %v", url, err)
		}
	}
}

func (s *applicationService) notify(ctx context.Context, app *model.Application, actorID uuid.UUID, eventType, message string) {
	if s.notifications == nil {
		return
	}

	notification := &model.Notification{
		UserID:        app.StudentID,
		ActorID:       actorID,
		ApplicationID: app.ID,
		Type:          eventType,
		Message:       message,
	}
	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		log.Printf("failed to create notification for application %s: %v", app.ID, err)
	}
}

func (s *applicationService) indexApplication(ctx context.Context, appID uuid.UUID) {
	if s.search == nil {
		return
	}

	app, err := s.appRepo.FindByID(ctx, appID)
	if err != nil {
		log.Printf("failed to load application %s for indexing: %v", appID, err)
		return
	}
	if err := s.search.IndexApplication(app); err != nil {
		log.Printf("failed to index application %s: %v", appID, err)
	}
}

func buildFilter(query dto.ListApplicationsQuery) (*repository.ApplicationFilter, error) {
	filter := &repository.ApplicationFilter{}

	if query.Status != "" {
		status := model.ApplicationStatus(query.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", apperror.ErrInvalidInput, query.Status)
		}
		filter.Status = &status
	}
	if query.From != "" {
		from, err := time.Parse("2006-01-02", query.From)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid from date", apperror.ErrInvalidInput)
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := time.Parse("2006-01-02", query.To)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid to date", apperror.ErrInvalidInput)
		}
		// Inclusive end date: filter strictly before the next day.
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}

	return filter, nil
}

func toResponses(apps []model.Application) []*dto.ApplicationResponse {
	responses := make([]*dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		responses = append(responses, dto.NewApplicationResponse(&apps[i]))
	}
	return responses
}
