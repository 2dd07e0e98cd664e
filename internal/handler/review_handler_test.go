package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"kazi.app/attachmentportal/internal/model"
	"kazi.app/attachmentportal/internal/repository"
	"kazi.app/attachmentportal/internal/service"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
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

// asUser simulates the auth middleware chain: a verified token plus a role
// lookup.
func asUser(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID.String())
		c.Set("user_role", role)
		c.Next()
	}
}

func newReviewRouter(db *gorm.DB, userID uuid.UUID, role string) *gin.Engine {
	appRepo := repository.NewApplicationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)
	appSvc := service.NewApplicationService(appRepo, settingsRepo, userRepo, nil, nil, nil, nil, 0)
	h := NewReviewHandler(appSvc, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	review := router.Group("/api/review", asUser(userID, role))
	review.GET("/applications", h.ListForwarded)
	review.POST("/applications/:id/decision", h.Decide)
	return router
}

func seedForwardedApplication(t *testing.T, db *gorm.DB, dept model.Department) *model.Application {
	t.Helper()

	user := model.User{
		Username:     "handler-student-" + string(dept),
		Email:        "handler-" + string(dept) + "@students.example.ac.ke",
		PasswordHash: "x",
		FullName:     "Handler Student",
	}
	require.NoError(t, db.Create(&user).Error)

	app := model.Application{
		StudentID:   user.ID,
		Status:      model.StatusForwarded,
		Department:  dept,
		ForwardedTo: &dept,
	}
	require.NoError(t, db.Create(&app).Error)
	return &app
}

func TestDecideEndpointAccepts(t *testing.T) {
	db := setupHandlerDB(t)
	require.NoError(t, db.Create(&model.Settings{ID: model.SettingsID, WindowOpen: true, ICTTotalSlots: 2, ICTRemainingSlots: 2}).Error)
	app := seedForwardedApplication(t, db, model.DepartmentICT)

	router := newReviewRouter(db, uuid.New(), "ict")

	body, _ := json.Marshal(gin.H{"decision": "accepted", "notes": "start on Monday"})
	req := httptest.NewRequest(http.MethodPost, "/api/review/applications/"+app.ID.String()+"/decision", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status   model.ApplicationStatus `json:"status"`
		ICTNotes *string                 `json:"ict_notes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, model.StatusAccepted, resp.Status)
	require.NotNil(t, resp.ICTNotes)

	var settings model.Settings
	require.NoError(t, db.First(&settings, model.SettingsID).Error)
	require.Equal(t, 1, settings.ICTRemainingSlots)
}

func TestDecideEndpointWrongDepartment(t *testing.T) {
	db := setupHandlerDB(t)
	require.NoError(t, db.Create(&model.Settings{ID: model.SettingsID, WindowOpen: true, ICTTotalSlots: 2, ICTRemainingSlots: 2}).Error)
	app := seedForwardedApplication(t, db, model.DepartmentICT)

	// Registry staff cannot decide an application forwarded to ICT.
	router := newReviewRouter(db, uuid.New(), "registry")

	body, _ := json.Marshal(gin.H{"decision": "accepted"})
	req := httptest.NewRequest(http.MethodPost, "/api/review/applications/"+app.ID.String()+"/decision", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)

	var row model.Application
	require.NoError(t, db.First(&row, "id = ?", app.ID).Error)
	require.Equal(t, model.StatusForwarded, row.Status)
}

func TestDecideEndpointRejectsNonDepartmentRole(t *testing.T) {
	db := setupHandlerDB(t)
	router := newReviewRouter(db, uuid.New(), "admin")

	body, _ := json.Marshal(gin.H{"decision": "accepted"})
	req := httptest.NewRequest(http.MethodPost, "/api/review/applications/"+uuid.NewString()+"/decision", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Admin has no reviewing department of its own.
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestListForwardedScopedToRole(t *testing.T) {
	db := setupHandlerDB(t)
	seedForwardedApplication(t, db, model.DepartmentICT)
	seedForwardedApplication(t, db, model.DepartmentRegistry)

	router := newReviewRouter(db, uuid.New(), "ict")

	req := httptest.NewRequest(http.MethodGet, "/api/review/applications", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			ForwardedTo *model.Department `json:"forwarded_to"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.NotNil(t, resp.Data[0].ForwardedTo)
	require.Equal(t, model.DepartmentICT, *resp.Data[0].ForwardedTo)
}
