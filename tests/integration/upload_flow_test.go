package integration_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/config"
	"github.com/aulavid/aulavid-api/internal/database"
	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/handler"
	"github.com/aulavid/aulavid-api/internal/middleware"
	"github.com/aulavid/aulavid-api/internal/models"
	"github.com/aulavid/aulavid-api/internal/repository"
	"github.com/aulavid/aulavid-api/internal/router"
	"github.com/aulavid/aulavid-api/internal/service"
	"github.com/aulavid/aulavid-api/pkg/mux"
)

const (
	superuserToken = "super-flow-token"
	webhookSecret  = "whsec-flow"
)

// flowProvider stands in for the transcoding provider. Fields are mutated
// between steps to walk the upload through its lifecycle.
type flowProvider struct {
	upload mux.Upload
	asset  mux.Asset
}

func (p *flowProvider) CreateDirectUpload(context.Context) (mux.Upload, error) {
	return p.upload, nil
}

func (p *flowProvider) GetUpload(_ context.Context, uploadID string) (mux.Upload, error) {
	upload := p.upload
	upload.ID = uploadID
	return upload, nil
}

func (p *flowProvider) GetAsset(_ context.Context, assetID string) (mux.Asset, error) {
	asset := p.asset
	asset.ID = assetID
	return asset, nil
}

func (p *flowProvider) DeleteAsset(context.Context, string) error {
	return nil
}

type noopEvents struct{}

func (noopEvents) PublishStatus(models.Video, string) {}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func setupFlowApp(t *testing.T, provider *flowProvider) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := config.Config{
		AppName:          "AulaVid API",
		JWTSecret:        "flow-access-secret",
		JWTRefreshSecret: "flow-refresh-secret",
		AdminSecretToken: superuserToken,
		MuxWebhookSecret: webhookSecret,
		UploadMaxBytes:   1 << 30,
		StaleAfter:       time.Hour,
		PortalCacheTTL:   time.Minute,
		RateLimitMax:     100,
		RateLimitWindow:  time.Minute,
	}

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	professorRepo := repository.NewProfessorRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	accessLogRepo := repository.NewAccessLogRepository(db)

	events := noopEvents{}
	reconcileService := service.NewReconcileService(videoRepo, professorRepo, subjectRepo, provider, events, cfg.StaleAfter, logger)
	uploadService := service.NewUploadService(videoRepo, subjectRepo, provider, events, cfg.UploadMaxBytes, logger)
	videoService := service.NewVideoService(videoRepo, subjectRepo, provider, reconcileService, logger)
	subjectService := service.NewSubjectService(subjectRepo, videoRepo, logger)
	studentService := service.NewStudentService(studentRepo, subjectRepo, logger)
	professorService := service.NewProfessorService(professorRepo, logger)
	accessService := service.NewAccessService(studentRepo, subjectRepo, accessLogRepo, cfg.JWTSecret, logger)
	authService := service.NewAuthService(professorRepo, cfg.JWTSecret, cfg.JWTRefreshSecret, logger)
	portalService := service.NewPortalService(studentRepo, subjectRepo, videoRepo, accessLogRepo, nil, cfg.PortalCacheTTL, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})

	router.Register(app, cfg, router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(accessService, authService, validate, logger),
		SubjectHandler:   handler.NewSubjectHandler(subjectService, validate, logger),
		VideoHandler:     handler.NewVideoHandler(videoService, reconcileService, validate, logger),
		StudentHandler:   handler.NewStudentHandler(studentService, validate, logger),
		ProfessorHandler: handler.NewProfessorHandler(professorService, validate, logger),
		UploadHandler:    handler.NewUploadHandler(uploadService, validate, logger),
		WebhookHandler:   handler.NewWebhookHandler(reconcileService, cfg.MuxWebhookSecret, logger),
		PortalHandler:    handler.NewPortalHandler(portalService, logger),
	})

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope[T any](t *testing.T, resp *http.Response) envelope[T] {
	t.Helper()

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out envelope[T]
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func signedWebhook(t *testing.T, event dto.WebhookEvent) *http.Request {
	t.Helper()

	body, err := json.Marshal(event)
	require.NoError(t, err)

	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mux", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("mux-signature", fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	return req
}

func TestUploadToPortalFlow(t *testing.T) {
	provider := &flowProvider{
		upload: mux.Upload{ID: "upload-flow-1", URL: "https://storage.mux.test/upload-flow-1", Status: mux.UploadStatusWaiting},
	}
	app := setupFlowApp(t, provider)

	// Step 1: provision a professor through the superuser surface.
	resp := doJSON(t, app, http.MethodPost, "/api/v1/superuser/professors", superuserToken, dto.ProfessorCreateRequest{
		Name:     "Dr. Rivera",
		Email:    "rivera@example.edu",
		Password: "correct horse battery",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Step 2: professor signs in.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", dto.ProfessorLoginRequest{
		Email:    "rivera@example.edu",
		Password: "correct horse battery",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	login := decodeEnvelope[dto.ProfessorLoginResponse](t, resp)
	require.NotEmpty(t, login.Data.AccessToken)
	accessToken := login.Data.AccessToken

	// Step 3: create a subject to hang the video on.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/admin/subjects", accessToken, dto.SubjectCreateRequest{
		Name: "Cardiology",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	subject := decodeEnvelope[dto.SubjectResponse](t, resp)
	require.NotZero(t, subject.Data.ID)

	// Step 4: request a direct upload slot.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/admin/uploads", accessToken, dto.UploadCreateRequest{
		Name:      "Beta blockers",
		SubjectID: subject.Data.ID,
		Size:      512 * 1024 * 1024,
		Type:      "video/mp4",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decodeEnvelope[dto.UploadCreateResponse](t, resp)
	require.Equal(t, "upload-flow-1", created.Data.UploadID)
	require.NotEmpty(t, created.Data.UploadURL)

	// Step 5: confirm while the provider is still transcoding.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/admin/uploads/upload-flow-1/confirm", accessToken, dto.UploadConfirmRequest{
		Name:      "Beta blockers",
		SubjectID: subject.Data.ID,
		Size:      512 * 1024 * 1024,
		MimeType:  "video/mp4",
		Tags:      []string{"cardio"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	confirmed := decodeEnvelope[dto.VideoResponse](t, resp)
	require.Equal(t, models.VideoStatusProcessing, confirmed.Data.Status)
	videoID := confirmed.Data.ID

	// Step 6: the provider reports the asset ready via webhook.
	webhookReq := signedWebhook(t, dto.WebhookEvent{
		Type: service.EventAssetReady,
		Data: dto.WebhookEventData{
			ID:          "asset-flow-1",
			Status:      "ready",
			UploadID:    "upload-flow-1",
			Duration:    1845.2,
			AspectRatio: "16:9",
			PlaybackIDs: []dto.WebhookPlaybackID{{ID: "pb-flow-1", Policy: "public"}},
		},
	})
	webhookResp, err := app.Test(webhookReq, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, webhookResp.StatusCode)

	// Step 7: the admin surface now shows the settled video.
	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/admin/videos/%d", videoID), accessToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	video := decodeEnvelope[dto.VideoResponse](t, resp)
	require.Equal(t, models.VideoStatusReady, video.Data.Status)
	require.True(t, video.Data.IsActive)
	require.Equal(t, "pb-flow-1", video.Data.MuxPlaybackID)

	// Step 8: enroll a student with access to the subject.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/admin/students", accessToken, dto.StudentCreateRequest{
		Name:            "Ana Ruiz",
		AllowedSubjects: []uint{subject.Data.ID},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	student := decodeEnvelope[dto.StudentResponse](t, resp)
	require.NotEmpty(t, student.Data.Code)

	// Step 9: the student verifies the code and binds the first device.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/verify", "", dto.StudentVerifyRequest{
		Code:     student.Data.Code,
		DeviceID: "tablet-ana",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	verify := decodeEnvelope[dto.StudentVerifyResponse](t, resp)
	require.True(t, verify.Data.Allowed)
	require.NotEmpty(t, verify.Data.Token)

	// Step 10: the portal catalog lists the ready video with a stream URL.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/student/videos", verify.Data.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	catalog := decodeEnvelope[dto.PortalVideoListResponse](t, resp)
	require.Len(t, catalog.Data.Videos, 1)
	require.Equal(t, videoID, catalog.Data.Videos[0].ID)
	require.Equal(t, "https://stream.mux.com/pb-flow-1.m3u8", catalog.Data.Videos[0].StreamURL)
	require.Len(t, catalog.Data.Subjects, 1)
	require.Equal(t, "Cardiology", catalog.Data.Subjects[0].Name)
}

func TestSecondDeviceOnSameNetworkKeepsAccess(t *testing.T) {
	provider := &flowProvider{
		upload: mux.Upload{ID: "upload-bind-1", URL: "https://storage.mux.test/upload-bind-1", Status: mux.UploadStatusWaiting},
	}
	app := setupFlowApp(t, provider)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/superuser/professors", superuserToken, dto.ProfessorCreateRequest{
		Name:     "Dr. Rivera",
		Email:    "rivera@example.edu",
		Password: "correct horse battery",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", dto.ProfessorLoginRequest{
		Email:    "rivera@example.edu",
		Password: "correct horse battery",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	login := decodeEnvelope[dto.ProfessorLoginResponse](t, resp)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/admin/students", login.Data.AccessToken, dto.StudentCreateRequest{
		Name: "Ana Ruiz",
		Code: "MED-2027",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/verify", "", dto.StudentVerifyRequest{
		Code:     "MED-2027",
		DeviceID: "tablet-ana",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Requests made through app.Test share one source address, so a second
	// device still matches the bound network and stays allowed. Full
	// mismatches are exercised against the access service directly.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/verify", "", dto.StudentVerifyRequest{
		Code:        "MED-2027",
		DeviceID:    "phone-else",
		Fingerprint: "phone-else-fp",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	second := decodeEnvelope[dto.StudentVerifyResponse](t, resp)
	require.True(t, second.Data.Allowed)
	require.NotEmpty(t, second.Data.Token)
}
