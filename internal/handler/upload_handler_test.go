package handler_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/handler"
	"github.com/aulavid/aulavid-api/internal/models"
	"github.com/aulavid/aulavid-api/internal/service"
)

type mockUploadService struct {
	createResult  dto.UploadCreateResponse
	createErr     error
	confirmResult models.Video
	confirmErr    error
	lastUploadID  string
}

func (m *mockUploadService) CreateUpload(_ context.Context, _ uint, _ dto.UploadCreateRequest) (dto.UploadCreateResponse, error) {
	return m.createResult, m.createErr
}

func (m *mockUploadService) ConfirmUpload(_ context.Context, _ uint, uploadID string, _ dto.UploadConfirmRequest) (models.Video, error) {
	m.lastUploadID = uploadID
	return m.confirmResult, m.confirmErr
}

func newUploadApp(svc *mockUploadService) *fiber.App {
	app := fiber.New()
	validate := validator.New(validator.WithRequiredStructEnabled())
	handler.NewUploadHandler(svc, validate, zerolog.New(io.Discard)).Register(app.Group("/uploads"))
	return app
}

func TestUploadHandler_CreateSuccess(t *testing.T) {
	svc := &mockUploadService{createResult: dto.UploadCreateResponse{
		UploadID:  "upload-1",
		UploadURL: "https://storage.example.com/put",
	}}
	app := newUploadApp(svc)

	req := jsonRequest(t, http.MethodPost, "/uploads", dto.UploadCreateRequest{
		Name:      "Lecture 1",
		SubjectID: 1,
		Size:      1024,
		Type:      "video/mp4",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Data dto.UploadCreateResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "upload-1", body.Data.UploadID)
}

func TestUploadHandler_CreateTooLarge(t *testing.T) {
	svc := &mockUploadService{createErr: service.ErrUploadTooLarge}
	app := newUploadApp(svc)

	req := jsonRequest(t, http.MethodPost, "/uploads", dto.UploadCreateRequest{
		Name:      "Lecture 1",
		SubjectID: 1,
		Size:      2*1024*1024*1024 + 1,
		Type:      "video/mp4",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.Contains(t, body.Message, "2GB", "rejection must name the size limit")
}

func TestUploadHandler_CreateWrongType(t *testing.T) {
	svc := &mockUploadService{createErr: service.ErrUploadTypeNotAllowed}
	app := newUploadApp(svc)

	req := jsonRequest(t, http.MethodPost, "/uploads", dto.UploadCreateRequest{
		Name:      "Notes",
		SubjectID: 1,
		Size:      1,
		Type:      "application/pdf",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUploadHandler_ConfirmSuccess(t *testing.T) {
	svc := &mockUploadService{confirmResult: models.Video{
		Name:   "Lecture 1",
		Status: models.VideoStatusProcessing,
	}}
	app := newUploadApp(svc)

	req := jsonRequest(t, http.MethodPost, "/uploads/upload-9/confirm", dto.UploadConfirmRequest{
		Name:      "Lecture 1",
		SubjectID: 1,
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "upload-9", svc.lastUploadID)

	var body struct {
		Data dto.VideoResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, models.VideoStatusProcessing, body.Data.Status)
}

func TestUploadHandler_ConfirmUploadFailed(t *testing.T) {
	svc := &mockUploadService{confirmErr: service.ErrUploadFailed}
	app := newUploadApp(svc)

	req := jsonRequest(t, http.MethodPost, "/uploads/upload-9/confirm", dto.UploadConfirmRequest{
		Name:      "Lecture 1",
		SubjectID: 1,
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestUploadHandler_ConfirmAssetFailed(t *testing.T) {
	svc := &mockUploadService{confirmErr: service.ErrAssetFailed}
	app := newUploadApp(svc)

	req := jsonRequest(t, http.MethodPost, "/uploads/upload-9/confirm", dto.UploadConfirmRequest{
		Name:      "Lecture 1",
		SubjectID: 1,
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}
