package contract_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/handler"
	"github.com/aulavid/aulavid-api/internal/service"
)

type stubAccessService struct {
	response dto.StudentVerifyResponse
}

func (s stubAccessService) Verify(context.Context, dto.StudentVerifyRequest, string) (dto.StudentVerifyResponse, error) {
	return s.response, nil
}

func (s stubAccessService) Refresh(context.Context, uint, string, string) (dto.StudentVerifyResponse, error) {
	return s.response, nil
}

type deniedAccessService struct {
	response dto.StudentVerifyResponse
}

func (s deniedAccessService) Verify(context.Context, dto.StudentVerifyRequest, string) (dto.StudentVerifyResponse, error) {
	return s.response, service.ErrDeviceMismatch
}

func (s deniedAccessService) Refresh(context.Context, uint, string, string) (dto.StudentVerifyResponse, error) {
	return s.response, service.ErrDeviceMismatch
}

type stubAuthService struct{}

func (stubAuthService) Login(context.Context, dto.ProfessorLoginRequest) (dto.ProfessorLoginResponse, error) {
	return dto.ProfessorLoginResponse{}, nil
}

func (stubAuthService) Refresh(context.Context, string) (dto.ProfessorRefreshResponse, error) {
	return dto.ProfessorRefreshResponse{}, nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func validateBody(t *testing.T, resp *http.Response, schema *jsonschema.Schema) {
	t.Helper()

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestStudentVerifyContract(t *testing.T) {
	schema := compileSchema(t, "student_verify.schema.json")

	now := time.Now().UTC()
	result := dto.StudentVerifyResponse{
		Allowed: true,
		Token:   "session-token",
		Student: &dto.StudentResponse{
			ID:              7,
			Code:            "MED-2027",
			Name:            "Ana Ruiz",
			Authorized:      true,
			AllowedSubjects: []uint{1, 2},
			DeviceBound:     true,
			EnrolledAt:      now,
		},
		Subjects: []dto.SubjectResponse{
			{ID: 1, Name: "Anatomy", IsActive: true, CreatedAt: now, UpdatedAt: now},
			{ID: 2, Name: "Histology", IsActive: true, CreatedAt: now, UpdatedAt: now},
		},
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	authHandler := handler.NewAuthHandler(stubAccessService{response: result}, stubAuthService{}, validate, zerolog.Nop())

	app := fiber.New()
	authHandler.Register(app.Group("/api/v1/auth"))

	payload, err := json.Marshal(dto.StudentVerifyRequest{Code: "MED-2027", DeviceID: "device-1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	validateBody(t, resp, schema)
}

func TestStudentVerifyDeviceMismatchContract(t *testing.T) {
	schema := compileSchema(t, "student_verify.schema.json")

	result := dto.StudentVerifyResponse{
		Allowed: false,
		Reason:  "code is already in use on another device",
	}

	serviceStub := deniedAccessService{response: result}
	validate := validator.New(validator.WithRequiredStructEnabled())
	authHandler := handler.NewAuthHandler(serviceStub, stubAuthService{}, validate, zerolog.Nop())

	app := fiber.New()
	authHandler.Register(app.Group("/api/v1/auth"))

	payload, err := json.Marshal(dto.StudentVerifyRequest{Code: "MED-2027", DeviceID: "device-2"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	validateBody(t, resp, schema)
}
