package listings

import (
	"context"
	"testing"
	"time"

	"combinator-portal/internal/api"
	"combinator-portal/internal/common/httpclient"
	"combinator-portal/internal/common/logger"
	"combinator-portal/internal/models"
	"combinator-portal/internal/session"
	"combinator-portal/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startup(id, company string, views int) models.Application {
	return models.Application{
		ID:           id,
		CompanyName:  company,
		Industry:     models.IndustryFintech,
		FundingStage: models.StageSeed,
		Location:     "Berlin",
		Pitch:        "Payments for everyone",
		Status:       status.Approved,
		Views:        models.Views{Total: views},
	}
}

func newCatalog(t *testing.T) (*Catalog, *api.FakeBackend, *ViewerIdentity) {
	t.Helper()
	backend := api.NewFakeBackend()
	t.Cleanup(backend.Close)
	token := backend.AddUser("v@example.com", "secret", models.User{ID: "viewer", Email: "v@example.com"})

	fs, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)
	viewer := NewViewerIdentity(fs)

	h := httpclient.New(backend.URL(), 5*time.Second, httpclient.StaticToken(token), logger.NewTestLogger(t))
	cat := NewCatalog(api.NewClient(h, logger.NewTestLogger(t)), viewer, logger.NewTestLogger(t))
	return cat, backend, viewer
}

func TestDefaultOrderingIsByViews(t *testing.T) {
	cat, backend, _ := newCatalog(t)
	backend.Seed(
		startup("a1", "PayFlow", 3),
		startup("a2", "MediScan", 10),
		startup("a3", "GreenGrid", 7),
	)
	require.NoError(t, cat.Fetch(context.Background()))

	got := cat.Applications(Filter{})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a2", "a3", "a1"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestActiveFilterSuppressesViewRanking(t *testing.T) {
	cat, backend, _ := newCatalog(t)
	low := startup("a1", "PayFlow", 1)
	high := startup("a2", "CoinDesk", 50)
	backend.Seed(low, high)
	require.NoError(t, cat.Fetch(context.Background()))

	got := cat.Applications(Filter{Industry: "fintech"})
	require.Len(t, got, 2)
	// Backend order preserved, not view-ranked.
	assert.Equal(t, "a1", got[0].ID)
}

func TestFacetAndSearchFilters(t *testing.T) {
	cat, backend, _ := newCatalog(t)
	fin := startup("a1", "PayFlow", 0)
	med := startup("a2", "MediScan", 0)
	med.Industry = models.IndustryHealthtech
	med.FundingStage = models.StageSeriesA
	med.Location = "London"
	med.Pitch = "Diagnostics at home"
	backend.Seed(fin, med)
	require.NoError(t, cat.Fetch(context.Background()))

	assert.Len(t, cat.Applications(Filter{Industry: "healthtech"}), 1)
	assert.Len(t, cat.Applications(Filter{FundingStage: "seed"}), 1)
	assert.Len(t, cat.Applications(Filter{Location: "london"}), 1)
	assert.Len(t, cat.Applications(Filter{Search: "diagnostics"}), 1)
	assert.Empty(t, cat.Applications(Filter{Search: "robotics"}))
}

func TestFeaturedTakesTopN(t *testing.T) {
	cat, backend, _ := newCatalog(t)
	backend.Seed(
		startup("a1", "PayFlow", 3),
		startup("a2", "MediScan", 10),
		startup("a3", "GreenGrid", 7),
	)
	require.NoError(t, cat.Fetch(context.Background()))

	top := cat.Featured(2)
	require.Len(t, top, 2)
	assert.Equal(t, "a2", top[0].ID)
	assert.Equal(t, "a3", top[1].ID)

	assert.Len(t, cat.Featured(10), 3)
}

func TestFetchFailureKeepsCatalog(t *testing.T) {
	cat, backend, _ := newCatalog(t)
	backend.Seed(startup("a1", "PayFlow", 1))
	require.NoError(t, cat.Fetch(context.Background()))

	backend.FailNextList(1)
	require.Error(t, cat.Fetch(context.Background()))
	assert.Len(t, cat.Applications(Filter{}), 1)
}

func TestViewerIdentityIsStable(t *testing.T) {
	fs, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)

	v := NewViewerIdentity(fs)
	first, err := v.ID(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, first)

	again, err := v.ID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// A fresh identity over the same persistence resolves the same id.
	second := NewViewerIdentity(fs)
	restored, err := second.ID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, restored)
}

func TestRecordViewIsFireAndForget(t *testing.T) {
	cat, backend, _ := newCatalog(t)
	backend.Seed(startup("a1", "PayFlow", 0))
	require.NoError(t, cat.Fetch(context.Background()))

	cat.RecordView("a1")
	require.Eventually(t, func() bool {
		return backend.App("a1").Views.Total == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Recording against a missing id must not panic or block; the failure
	// is logged in the background.
	cat.RecordView("missing")
	time.Sleep(50 * time.Millisecond)
}
