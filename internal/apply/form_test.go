package apply

import (
	"context"
	"testing"
	"time"

	"combinator-portal/internal/api"
	"combinator-portal/internal/common/errors"
	"combinator-portal/internal/common/httpclient"
	"combinator-portal/internal/common/logger"
	"combinator-portal/internal/models"
	"combinator-portal/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() *Form {
	return &Form{
		CompanyName:   "PayFlow",
		Industry:      "fintech",
		Location:      "Berlin",
		TeamSize:      3,
		Pitch:         "Instant settlement for marketplaces",
		Problem:       "Sellers wait days for payouts",
		Solution:      "Real-time clearing over existing rails",
		FundingStage:  "seed",
		FundingNeeded: 500000,
	}
}

func newSubmitter(t *testing.T) (*Submitter, *api.FakeBackend) {
	t.Helper()
	backend := api.NewFakeBackend()
	t.Cleanup(backend.Close)
	token := backend.AddUser("ada@example.com", "secret", models.User{ID: "u1", Email: "ada@example.com"})

	h := httpclient.New(backend.URL(), 5*time.Second, httpclient.StaticToken(token), logger.NewTestLogger(t))
	return NewSubmitter(api.NewClient(h, logger.NewTestLogger(t)), logger.NewTestLogger(t)), backend
}

func TestValidateAcceptsCompleteForm(t *testing.T) {
	require.NoError(t, validForm().Validate())
}

func TestValidateReportsEveryFailingField(t *testing.T) {
	f := &Form{TeamSize: 0, FundingNeeded: -1}
	err := f.Validate()
	require.Error(t, err)

	var ve *errors.ValidationError
	require.ErrorAs(t, err, &ve)

	got := make(map[string]bool)
	for _, fe := range ve.Fields {
		got[fe.Field] = true
	}
	for _, want := range []string{
		"companyName", "industry", "location", "teamSize",
		"pitch", "problem", "solution", "fundingStage", "fundingNeeded",
	} {
		assert.True(t, got[want], "missing field %s", want)
	}
}

func TestValidateRejectsUnknownEnums(t *testing.T) {
	f := validForm()
	f.Industry = "blockchain"
	f.FundingStage = "series-z"

	var ve *errors.ValidationError
	require.ErrorAs(t, f.Validate(), &ve)
	assert.Len(t, ve.Fields, 2)
}

func TestSubmitCreatesSubmittedApplication(t *testing.T) {
	s, backend := newSubmitter(t)

	app, err := s.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, status.Submitted, app.Status)
	assert.Equal(t, "u1", app.OwnerID())
	assert.NotNil(t, backend.App(app.ID))
}

func TestSubmitInvalidFormNeverReachesNetwork(t *testing.T) {
	s, backend := newSubmitter(t)

	_, err := s.Submit(context.Background(), &Form{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, backend.Requests())
}

func TestSubmitRefusesDuplicateInFlight(t *testing.T) {
	s, _ := newSubmitter(t)

	s.mu.Lock()
	s.inFlight = true
	s.mu.Unlock()

	_, err := s.Submit(context.Background(), validForm())
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), "in progress")
}
