package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	consentDomain "github.com/allisson/piivault/internal/consent/domain"
	"github.com/allisson/piivault/internal/consent/http/dto"
	"github.com/allisson/piivault/internal/consent/usecase/mocks"
	"github.com/allisson/piivault/internal/httputil"
	subjectDomain "github.com/allisson/piivault/internal/subject/domain"
)

// setupTestHandler creates a test handler with mocked dependencies.
func setupTestHandler(t *testing.T) (*ConsentHandler, *mocks.MockConsentUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := new(mocks.MockConsentUseCase)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewConsentHandler(mockUseCase, logger), mockUseCase
}

// createTestContext creates a test Gin context with the given request and an
// actor in the request context when one is provided.
func createTestContext(method, path, actor string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req = req.WithContext(httputil.WithActor(req.Context(), actor))
	}
	c.Request = req

	return c, w
}

func newConsentRecord(subjectID uuid.UUID, purpose string, granted bool) *consentDomain.ConsentRecord {
	return &consentDomain.ConsentRecord{
		ID:        uuid.Must(uuid.NewV7()),
		SubjectID: subjectID,
		Purpose:   purpose,
		Granted:   granted,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestNewConsentHandler(t *testing.T) {
	handler, _ := setupTestHandler(t)
	assert.NotNil(t, handler)
}

func TestConsentHandler_SetConsentHandler(t *testing.T) {
	subjectID := uuid.Must(uuid.NewV7())
	path := "/v1/subjects/" + subjectID.String() + "/consents"

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		record := newConsentRecord(subjectID, "marketing", true)

		mockUseCase.On("SetConsent", mock.Anything, subjectID, "marketing", true, "svc-crm").
			Return(record, nil)

		c, w := createTestContext(http.MethodPut, path, "svc-crm",
			strings.NewReader(`{"purpose": "marketing", "granted": true}`))
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.SetConsentHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ConsentRecordResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, record.ID.String(), response.ID)
		assert.Equal(t, subjectID.String(), response.SubjectID)
		assert.Equal(t, "marketing", response.Purpose)
		assert.True(t, response.Granted)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("ExplicitFalseGranted", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		record := newConsentRecord(subjectID, "marketing", false)

		mockUseCase.On("SetConsent", mock.Anything, subjectID, "marketing", false, "svc-crm").
			Return(record, nil)

		c, w := createTestContext(http.MethodPut, path, "svc-crm",
			strings.NewReader(`{"purpose": "marketing", "granted": false}`))
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.SetConsentHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ConsentRecordResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response.Granted)
	})

	t.Run("MissingActor", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodPut, path, "",
			strings.NewReader(`{"purpose": "marketing", "granted": true}`))
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.SetConsentHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "SetConsent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidSubjectID", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodPut, "/v1/subjects/nope/consents", "svc-crm",
			strings.NewReader(`{"purpose": "marketing", "granted": true}`))
		c.Params = gin.Params{{Key: "subject_id", Value: "nope"}}
		handler.SetConsentHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "SetConsent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MissingGranted", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodPut, path, "svc-crm",
			strings.NewReader(`{"purpose": "marketing"}`))
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.SetConsentHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "SetConsent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BlankPurpose", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodPut, path, "svc-crm",
			strings.NewReader(`{"purpose": "   ", "granted": true}`))
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.SetConsentHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "SetConsent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ErasedSubject", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("SetConsent", mock.Anything, subjectID, "marketing", true, "svc-crm").
			Return(nil, subjectDomain.ErrSubjectErased)

		c, w := createTestContext(http.MethodPut, path, "svc-crm",
			strings.NewReader(`{"purpose": "marketing", "granted": true}`))
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.SetConsentHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("SubjectNotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("SetConsent", mock.Anything, subjectID, "marketing", true, "svc-crm").
			Return(nil, subjectDomain.ErrSubjectNotFound)

		c, w := createTestContext(http.MethodPut, path, "svc-crm",
			strings.NewReader(`{"purpose": "marketing", "granted": true}`))
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.SetConsentHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestConsentHandler_ListCurrentHandler(t *testing.T) {
	subjectID := uuid.Must(uuid.NewV7())
	path := "/v1/subjects/" + subjectID.String() + "/consents"

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		records := []*consentDomain.ConsentRecord{
			newConsentRecord(subjectID, "analytics", true),
			newConsentRecord(subjectID, "marketing", false),
		}
		mockUseCase.On("ListCurrent", mock.Anything, subjectID).Return(records, nil)

		c, w := createTestContext(http.MethodGet, path, "svc-crm", nil)
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.ListCurrentHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListConsentRecordsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 2)
		assert.Equal(t, "analytics", response.Data[0].Purpose)
		assert.True(t, response.Data[0].Granted)
		assert.Equal(t, "marketing", response.Data[1].Purpose)
		assert.False(t, response.Data[1].Granted)
	})

	t.Run("EmptyList", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("ListCurrent", mock.Anything, subjectID).
			Return([]*consentDomain.ConsentRecord{}, nil)

		c, w := createTestContext(http.MethodGet, path, "svc-crm", nil)
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.ListCurrentHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data": []}`, w.Body.String())
	})

	t.Run("SubjectNotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("ListCurrent", mock.Anything, subjectID).
			Return(nil, subjectDomain.ErrSubjectNotFound)

		c, w := createTestContext(http.MethodGet, path, "svc-crm", nil)
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.ListCurrentHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestConsentHandler_GetStatusHandler(t *testing.T) {
	subjectID := uuid.Must(uuid.NewV7())
	path := "/v1/subjects/" + subjectID.String() + "/consents/marketing"

	t.Run("Granted", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("IsGranted", mock.Anything, subjectID, "marketing").Return(true, nil)

		c, w := createTestContext(http.MethodGet, path, "svc-crm", nil)
		c.Params = gin.Params{
			{Key: "subject_id", Value: subjectID.String()},
			{Key: "purpose", Value: "marketing"},
		}
		handler.GetStatusHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ConsentStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, subjectID.String(), response.SubjectID)
		assert.Equal(t, "marketing", response.Purpose)
		assert.True(t, response.Granted)
	})

	t.Run("NoRecordReportsFalse", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("IsGranted", mock.Anything, subjectID, "marketing").Return(false, nil)

		c, w := createTestContext(http.MethodGet, path, "svc-crm", nil)
		c.Params = gin.Params{
			{Key: "subject_id", Value: subjectID.String()},
			{Key: "purpose", Value: "marketing"},
		}
		handler.GetStatusHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ConsentStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response.Granted)
	})

	t.Run("InvalidSubjectID", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/subjects/nope/consents/marketing", "svc-crm", nil)
		c.Params = gin.Params{
			{Key: "subject_id", Value: "nope"},
			{Key: "purpose", Value: "marketing"},
		}
		handler.GetStatusHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "IsGranted", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UseCaseError", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("IsGranted", mock.Anything, subjectID, "marketing").
			Return(false, assert.AnError)

		c, w := createTestContext(http.MethodGet, path, "svc-crm", nil)
		c.Params = gin.Params{
			{Key: "subject_id", Value: subjectID.String()},
			{Key: "purpose", Value: "marketing"},
		}
		handler.GetStatusHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
