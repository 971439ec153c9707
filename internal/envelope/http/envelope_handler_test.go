package http

import (
	"encoding/base64"
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
	cryptoDomain "github.com/allisson/piivault/internal/crypto/domain"
	envelopeDomain "github.com/allisson/piivault/internal/envelope/domain"
	"github.com/allisson/piivault/internal/envelope/http/dto"
	"github.com/allisson/piivault/internal/envelope/usecase/mocks"
	"github.com/allisson/piivault/internal/httputil"
	rtbfDomain "github.com/allisson/piivault/internal/rtbf/domain"
	subjectDomain "github.com/allisson/piivault/internal/subject/domain"
)

func setupTestHandler(t *testing.T) (*EnvelopeHandler, *mocks.MockEnvelopeUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := new(mocks.MockEnvelopeUseCase)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewEnvelopeHandler(mockUseCase, logger), mockUseCase
}

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

func newEnvelope(subjectID uuid.UUID, label string) *envelopeDomain.Envelope {
	return &envelopeDomain.Envelope{
		ID:          uuid.Must(uuid.NewV7()),
		SubjectID:   subjectID,
		Label:       label,
		AlgorithmID: cryptoDomain.AESGCM,
		MasterKeyID: "mk-2026-01",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func recordParams(subjectID, envelopeID uuid.UUID) gin.Params {
	return gin.Params{
		{Key: "subject_id", Value: subjectID.String()},
		{Key: "envelope_id", Value: envelopeID.String()},
	}
}

func TestNewEnvelopeHandler(t *testing.T) {
	handler, _ := setupTestHandler(t)
	assert.NotNil(t, handler)
}

func TestEnvelopeHandler_SealHandler(t *testing.T) {
	subjectID := uuid.Must(uuid.NewV7())
	path := "/v1/subjects/" + subjectID.String() + "/records"
	plaintext := []byte(`{"email":"alice@example.com"}`)
	encoded := base64.StdEncoding.EncodeToString(plaintext)

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		envelope := newEnvelope(subjectID, "contact")

		mockUseCase.On("Seal", mock.Anything, subjectID, "contact", plaintext, "svc-crm").
			Return(envelope, nil)

		c, w := createTestContext(http.MethodPost, path, "svc-crm",
			strings.NewReader(`{"label": "contact", "data": "`+encoded+`"}`))
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.SealHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.EnvelopeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, envelope.ID.String(), response.ID)
		assert.Equal(t, subjectID.String(), response.SubjectID)
		assert.Equal(t, "contact", response.Label)
		assert.Equal(t, "aes-gcm", response.AlgorithmID)
		assert.Equal(t, "mk-2026-01", response.MasterKeyID)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("MissingActor", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, path, "",
			strings.NewReader(`{"label": "contact", "data": "`+encoded+`"}`))
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.SealHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "Seal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidSubjectID", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/subjects/nope/records", "svc-crm",
			strings.NewReader(`{"label": "contact", "data": "`+encoded+`"}`))
		c.Params = gin.Params{{Key: "subject_id", Value: "nope"}}
		handler.SealHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Seal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidBase64", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, path, "svc-crm",
			strings.NewReader(`{"label": "contact", "data": "not base64!!!"}`))
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.SealHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Seal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BlankLabel", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, path, "svc-crm",
			strings.NewReader(`{"label": "   ", "data": "`+encoded+`"}`))
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.SealHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Seal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ErasedSubject", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Seal", mock.Anything, subjectID, "contact", plaintext, "svc-crm").
			Return(nil, subjectDomain.ErrSubjectErased)

		c, w := createTestContext(http.MethodPost, path, "svc-crm",
			strings.NewReader(`{"label": "contact", "data": "`+encoded+`"}`))
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.SealHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestEnvelopeHandler_ListHandler(t *testing.T) {
	subjectID := uuid.Must(uuid.NewV7())
	path := "/v1/subjects/" + subjectID.String() + "/records"

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		envelopes := []*envelopeDomain.Envelope{
			newEnvelope(subjectID, "contact"),
			newEnvelope(subjectID, "billing"),
		}
		mockUseCase.On("ListBySubject", mock.Anything, subjectID, 0, 50).Return(envelopes, nil)

		c, w := createTestContext(http.MethodGet, path, "svc-crm", nil)
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListEnvelopesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 2)
		assert.Equal(t, "contact", response.Data[0].Label)
		assert.Equal(t, "billing", response.Data[1].Label)
		assert.Equal(t, 0, response.Offset)
		assert.Equal(t, 50, response.Limit)
	})

	t.Run("CustomPagination", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("ListBySubject", mock.Anything, subjectID, 10, 5).
			Return([]*envelopeDomain.Envelope{}, nil)

		c, w := createTestContext(http.MethodGet, path+"?offset=10&limit=5", "svc-crm", nil)
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("InvalidPagination", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, path+"?limit=9999", "svc-crm", nil)
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "ListBySubject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("SubjectNotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("ListBySubject", mock.Anything, subjectID, 0, 50).
			Return(nil, subjectDomain.ErrSubjectNotFound)

		c, w := createTestContext(http.MethodGet, path, "svc-crm", nil)
		c.Params = gin.Params{{Key: "subject_id", Value: subjectID.String()}}
		handler.ListHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestEnvelopeHandler_OpenHandler(t *testing.T) {
	subjectID := uuid.Must(uuid.NewV7())
	envelope := newEnvelope(subjectID, "contact")
	path := "/v1/subjects/" + subjectID.String() + "/records/" + envelope.ID.String()
	plaintext := []byte(`{"email":"alice@example.com"}`)

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Get", mock.Anything, envelope.ID).Return(envelope, nil)
		mockUseCase.On("Open", mock.Anything, envelope.ID, "", "svc-crm").Return(plaintext, nil)

		c, w := createTestContext(http.MethodGet, path, "svc-crm", nil)
		c.Params = recordParams(subjectID, envelope.ID)
		handler.OpenHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.OpenRecordResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, envelope.ID.String(), response.ID)

		decoded, err := base64.StdEncoding.DecodeString(response.Data)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decoded)
	})

	t.Run("PurposeForwarded", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Get", mock.Anything, envelope.ID).Return(envelope, nil)
		mockUseCase.On("Open", mock.Anything, envelope.ID, "marketing", "svc-crm").Return(plaintext, nil)

		c, w := createTestContext(http.MethodGet, path+"?purpose=marketing", "svc-crm", nil)
		c.Params = recordParams(subjectID, envelope.ID)
		handler.OpenHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("MissingActor", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, path, "", nil)
		c.Params = recordParams(subjectID, envelope.ID)
		handler.OpenHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "Open", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("WrongSubject", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		otherSubjectID := uuid.Must(uuid.NewV7())

		mockUseCase.On("Get", mock.Anything, envelope.ID).Return(envelope, nil)

		c, w := createTestContext(http.MethodGet, path, "svc-crm", nil)
		c.Params = recordParams(otherSubjectID, envelope.ID)
		handler.OpenHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUseCase.AssertNotCalled(t, "Open", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ConsentDenied", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Get", mock.Anything, envelope.ID).Return(envelope, nil)
		mockUseCase.On("Open", mock.Anything, envelope.ID, "marketing", "svc-crm").
			Return(nil, consentDomain.ErrConsentDenied)

		c, w := createTestContext(http.MethodGet, path+"?purpose=marketing", "svc-crm", nil)
		c.Params = recordParams(subjectID, envelope.ID)
		handler.OpenHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("DestroyedEnvelope", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Get", mock.Anything, envelope.ID).Return(envelope, nil)
		mockUseCase.On("Open", mock.Anything, envelope.ID, "", "svc-crm").
			Return(nil, envelopeDomain.ErrEnvelopeDestroyed)

		c, w := createTestContext(http.MethodGet, path, "svc-crm", nil)
		c.Params = recordParams(subjectID, envelope.ID)
		handler.OpenHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("DeletionCompleted", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Get", mock.Anything, envelope.ID).Return(envelope, nil)
		mockUseCase.On("Open", mock.Anything, envelope.ID, "", "svc-crm").
			Return(nil, rtbfDomain.ErrDeletionCompleted)

		c, w := createTestContext(http.MethodGet, path, "svc-crm", nil)
		c.Params = recordParams(subjectID, envelope.ID)
		handler.OpenHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Get", mock.Anything, envelope.ID).
			Return(nil, envelopeDomain.ErrEnvelopeNotFound)

		c, w := createTestContext(http.MethodGet, path, "svc-crm", nil)
		c.Params = recordParams(subjectID, envelope.ID)
		handler.OpenHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestEnvelopeHandler_DestroyHandler(t *testing.T) {
	subjectID := uuid.Must(uuid.NewV7())
	envelope := newEnvelope(subjectID, "contact")
	path := "/v1/subjects/" + subjectID.String() + "/records/" + envelope.ID.String()

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Get", mock.Anything, envelope.ID).Return(envelope, nil)
		mockUseCase.On("Destroy", mock.Anything, envelope.ID, "svc-crm").Return(nil)

		c, w := createTestContext(http.MethodDelete, path, "svc-crm", nil)
		c.Params = recordParams(subjectID, envelope.ID)
		handler.DestroyHandler(c)
		// The handler sets the status without a body; outside a running
		// engine the recorder only sees it after an explicit flush.
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("MissingActor", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodDelete, path, "", nil)
		c.Params = recordParams(subjectID, envelope.ID)
		handler.DestroyHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "Destroy", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("WrongSubject", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		otherSubjectID := uuid.Must(uuid.NewV7())

		mockUseCase.On("Get", mock.Anything, envelope.ID).Return(envelope, nil)

		c, w := createTestContext(http.MethodDelete, path, "svc-crm", nil)
		c.Params = recordParams(otherSubjectID, envelope.ID)
		handler.DestroyHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUseCase.AssertNotCalled(t, "Destroy", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidEnvelopeID", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodDelete, "/v1/subjects/"+subjectID.String()+"/records/nope", "svc-crm", nil)
		c.Params = gin.Params{
			{Key: "subject_id", Value: subjectID.String()},
			{Key: "envelope_id", Value: "nope"},
		}
		handler.DestroyHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Destroy", mock.Anything, mock.Anything, mock.Anything)
	})
}
