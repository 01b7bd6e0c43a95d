package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grouplab-go-api/internal/dto"
	"github.com/noah-isme/grouplab-go-api/internal/handler"
	"github.com/noah-isme/grouplab-go-api/internal/rules"
)

type stubSubmissionService struct {
	response dto.SubmissionResponse
}

func (s stubSubmissionService) Submit(context.Context, uint, dto.SubmissionCreateRequest, *multipart.FileHeader, bool) (dto.SubmissionResponse, error) {
	return s.response, nil
}

func (s stubSubmissionService) ListByDeliverable(context.Context, uint) ([]dto.SubmissionResponse, error) {
	return []dto.SubmissionResponse{s.response}, nil
}

func (s stubSubmissionService) GetForStudent(context.Context, uint, uint) (dto.SubmissionResponse, error) {
	return s.response, nil
}

func (s stubSubmissionService) Withdraw(context.Context, uint, dto.SubmissionWithdrawRequest) error {
	return nil
}

func TestSubmissionResponseContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "submission.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	response := dto.SubmissionResponse{
		ID:               12,
		DeliverableID:    3,
		GroupID:          7,
		Kind:             "archive",
		FilePath:         "https://files.test/submission.zip",
		FileName:         "submission.zip",
		FileSize:         2048,
		SubmittedAt:      now,
		IsLate:           true,
		HoursLate:        2,
		PenaltyPoints:    1.0,
		ValidationStatus: "valid",
		Validation: &rules.Result{
			Valid: true,
			Details: []rules.Outcome{
				{Rule: rules.KindFilePresence, Valid: true, Message: "all required paths present"},
			},
			Warnings: []string{"folder_structure not applicable to git repositories"},
		},
		Group:     dto.GroupLite{ID: 7, Name: "Team Raft", Size: 3},
		CreatedAt: now,
		UpdatedAt: now,
	}

	svc := stubSubmissionService{response: response}
	submissionHandler := handler.NewSubmissionHandler(svc, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v2/deliverables/:deliverableID/submissions", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		c.Locals("user_role", "student")
		return c.Next()
	})
	submissionHandler.Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/deliverables/3/submissions/mine?student_id=1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
