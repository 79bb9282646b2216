package transport

import (
	"testing"

	"smartlead_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestScoreLeadRequest_ToLead(t *testing.T) {
	tenant := uuid.New()
	req := ScoreLeadRequest{
		Email:    "  jane@acme.com ",
		Company:  "Acme Inc",
		Phone:    "(202) 456-1111",
		Notes:    "<p>urgent need</p>",
		JobTitle: "CEO",
	}

	lead := req.ToLead(tenant)

	require.Equal(t, uuid.Nil, lead.ID)
	require.Equal(t, tenant, lead.TenantID)
	require.Equal(t, "jane@acme.com", lead.Email)
	require.Equal(t, "+12024561111", lead.Phone)
	require.Equal(t, "urgent need", lead.Notes)
}

func TestScoreLeadRequest_Validation(t *testing.T) {
	v := validator.New()
	budget := int64(-5)

	require.NoError(t, v.Struct(ScoreLeadRequest{Email: "jane@acme.com"}))
	require.Error(t, v.Struct(ScoreLeadRequest{}))
	require.Error(t, v.Struct(ScoreLeadRequest{Email: "a@b.com", EstimatedBudget: &budget}))
	require.Error(t, v.Struct(ScoreLeadRequest{Email: "a@b.com", LinkedInURL: "not a url"}))
}

func TestBatchScoreRequest_Validation(t *testing.T) {
	v := validator.New()
	require.Error(t, v.Struct(BatchScoreRequest{}))
	require.NoError(t, v.Struct(BatchScoreRequest{LeadIDs: []uuid.UUID{uuid.New()}}))
}
