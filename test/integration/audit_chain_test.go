package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDTO "github.com/allisson/piivault/internal/audit/http/dto"
	"github.com/allisson/piivault/internal/testutil"
)

// TestIntegration_AuditChain_VerifyAndTamperDetection drives API traffic,
// verifies the resulting hash chain end to end, then tampers with a ledger
// row directly in the database and checks that verification fails.
func TestIntegration_AuditChain_VerifyAndTamperDetection(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range driverCases() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			headBefore := testutil.AuditChainHead(t, ctx.db, tc.dbDriver)

			// Generate ledger entries: registration, seal, open
			subject := ctx.registerSubject(t, "eve@example.com")
			envelope := ctx.sealRecord(t, subject.ID, "phone", []byte("+31-20-555-0100"))

			resp, _ := ctx.makeRequest(
				t,
				http.MethodGet,
				"/v1/subjects/"+subject.ID+"/records/"+envelope.ID,
				nil,
				true,
			)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			t.Run("01_ChainHeadAdvances", func(t *testing.T) {
				headAfter := testutil.AuditChainHead(t, ctx.db, tc.dbDriver)
				assert.NotEqual(t, headBefore, headAfter, "ledger appends should advance the chain head")
			})

			t.Run("02_ListAuditEntries", func(t *testing.T) {
				resp, body := ctx.makeRequest(
					t,
					http.MethodGet,
					"/v1/audit-entries?subject_id="+subject.ID,
					nil,
					true,
				)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response auditDTO.ListAuditEntriesResponse
				require.NoError(t, json.Unmarshal(body, &response))
				require.NotEmpty(t, response.Data)

				for _, entry := range response.Data {
					assert.Equal(t, testActor, entry.ActorID)
					assert.Equal(t, subject.ID, entry.SubjectID)
				}
			})

			auditUseCase, err := ctx.container.AuditUseCase()
			require.NoError(t, err)

			t.Run("03_VerifyChainPasses", func(t *testing.T) {
				report, err := auditUseCase.VerifyChain(context.Background(), nil, nil)
				require.NoError(t, err)
				assert.True(t, report.Valid)
				assert.GreaterOrEqual(t, report.Checked, 3, "register, seal and open should all be audited")
				assert.Nil(t, report.FirstInvalidID)
			})

			t.Run("04_TamperedEntryDetected", func(t *testing.T) {
				// Rewrite the oldest entry's actor directly in the database
				var err error
				if tc.dbDriver == "postgres" {
					_, err = ctx.db.Exec(
						`UPDATE audit_entries SET actor_id = 'mallory'
						 WHERE seq = (SELECT MIN(seq) FROM audit_entries)`,
					)
				} else {
					_, err = ctx.db.Exec(
						`UPDATE audit_entries SET actor_id = 'mallory' ORDER BY seq LIMIT 1`,
					)
				}
				require.NoError(t, err)

				report, err := auditUseCase.VerifyChain(context.Background(), nil, nil)
				require.NoError(t, err)
				assert.False(t, report.Valid, "tampered entry should fail verification")
				assert.NotNil(t, report.FirstInvalidID)
				assert.NotEmpty(t, report.Reason)
			})
		})
	}
}
