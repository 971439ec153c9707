package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
	"github.com/allisson/piivault/internal/audit/http/dto"
	"github.com/allisson/piivault/internal/audit/usecase/mocks"
)

// setupTestHandler creates a test handler with mocked dependencies.
func setupTestHandler(t *testing.T) (*AuditHandler, *mocks.MockAuditUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := new(mocks.MockAuditUseCase)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewAuditHandler(mockUseCase, logger), mockUseCase
}

// createTestContext creates a test Gin context with the given request.
func createTestContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func newListedEntry(t *testing.T) *auditDomain.Entry {
	t.Helper()

	subjectID := uuid.Must(uuid.NewV7())
	return &auditDomain.Entry{
		ID:           uuid.Must(uuid.NewV7()),
		Seq:          1,
		RequestID:    "req-1",
		ActorID:      "svc-crm",
		Action:       auditDomain.ActionEnvelopeOpen,
		SubjectID:    &subjectID,
		Outcome:      auditDomain.OutcomeSuccess,
		Detail:       "opened for purpose billing",
		PrevHash:     auditDomain.GenesisHash(),
		EntryHash:    []byte("entry hash"),
		Signature:    []byte("signature"),
		SigningKeyID: "key1",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestAuditHandler_ListHandler(t *testing.T) {
	t.Run("Success_NoFilters", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		entry := newListedEntry(t)

		mockUseCase.On("List", mock.Anything, &auditDomain.Filter{}, 0, 50).
			Return([]*auditDomain.Entry{entry}, nil)

		c, w := createTestContext(http.MethodGet, "/v1/audit-entries")
		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListAuditEntriesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 1)
		assert.Equal(t, entry.ID.String(), response.Data[0].ID)
		assert.Equal(t, "svc-crm", response.Data[0].ActorID)
		assert.Equal(t, "envelope.open", response.Data[0].Action)
		assert.Equal(t, "success", response.Data[0].Outcome)
		assert.Equal(t, entry.SubjectID.String(), response.Data[0].SubjectID)
		assert.Empty(t, response.Data[0].EnvelopeID)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Success_AllFilters", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		subjectID := uuid.Must(uuid.NewV7())
		from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)

		expectedFilter := &auditDomain.Filter{
			SubjectID:     &subjectID,
			Action:        auditDomain.ActionEnvelopeOpen,
			Outcome:       auditDomain.OutcomeDenied,
			CreatedAtFrom: &from,
			CreatedAtTo:   &to,
		}

		mockUseCase.On("List", mock.Anything, expectedFilter, 10, 25).
			Return([]*auditDomain.Entry{}, nil)

		url := "/v1/audit-entries?subject_id=" + subjectID.String() +
			"&action=envelope.open&outcome=denied" +
			"&created_at_from=2025-06-01T00:00:00Z&created_at_to=2025-06-30T23:59:59Z" +
			"&offset=10&limit=25"

		c, w := createTestContext(http.MethodGet, url)
		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListAuditEntriesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Empty(t, response.Data)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("InvalidSubjectID", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/audit-entries?subject_id=not-a-uuid")
		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidTimeBound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/audit-entries?created_at_from=yesterday")
		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidPagination", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/audit-entries?limit=5000")
		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UseCaseFailure", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("List", mock.Anything, mock.Anything, 0, 50).
			Return(nil, assert.AnError)

		c, w := createTestContext(http.MethodGet, "/v1/audit-entries")
		handler.ListHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
