// Package listings implements the public startup directory: an in-memory
// catalog of applications with text and facet filtering, a view-ranked
// default ordering, the featured selection for the landing page, and
// fire-and-forget view recording under a persisted anonymous viewer id.
package listings

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"combinator-portal/internal/api"
	"combinator-portal/internal/common/logger"
	"combinator-portal/internal/models"
	"combinator-portal/internal/session"
)

// viewerKey names the durable slot holding the anonymous viewer id.
const viewerKey = "viewerId"

// ViewerIdentity is the stable anonymous id used to dedupe view counts.
// It is minted once and persisted alongside the session keys.
type ViewerIdentity struct {
	persistence session.Persistence

	mu sync.Mutex
	id string
}

func NewViewerIdentity(p session.Persistence) *ViewerIdentity {
	return &ViewerIdentity{persistence: p}
}

// ID returns the persisted viewer id, minting and storing one on first use.
func (v *ViewerIdentity) ID(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.id != "" {
		return v.id, nil
	}

	stored, err := v.persistence.Get(ctx, viewerKey)
	if err == nil && stored != "" {
		v.id = stored
		return v.id, nil
	}
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return "", err
	}

	v.id = uuid.NewString()
	if err := v.persistence.Set(ctx, viewerKey, v.id); err != nil {
		return "", err
	}
	return v.id, nil
}

// Filter narrows the catalog. Zero-valued fields are inactive; a fully zero
// filter means the catalog keeps its view-ranked default ordering.
type Filter struct {
	Search       string
	Industry     string
	FundingStage string
	Location     string
}

func (f Filter) active() bool {
	return f.Search != "" || f.Industry != "" || f.FundingStage != "" || f.Location != ""
}

// Catalog holds the fetched application list for the public pages.
type Catalog struct {
	api    *api.Client
	viewer *ViewerIdentity
	log    logger.Logger

	mu   sync.RWMutex
	apps []models.Application
}

func NewCatalog(client *api.Client, viewer *ViewerIdentity, log logger.Logger) *Catalog {
	return &Catalog{api: client, viewer: viewer, log: log}
}

// Fetch replaces the catalog with the backend's full list. A failed fetch
// leaves the previous contents in place.
func (c *Catalog) Fetch(ctx context.Context) error {
	apps, err := c.api.ListApplications(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.apps = apps
	c.mu.Unlock()
	return nil
}

// Applications returns the catalog narrowed by f. With no active filter the
// result is ordered by total views descending; any active filter suppresses
// the view ranking and keeps the backend's order.
func (c *Catalog) Applications(f Filter) []models.Application {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Application, 0, len(c.apps))
	needle := strings.ToLower(f.Search)
	for _, app := range c.apps {
		if f.Industry != "" && string(app.Industry) != f.Industry {
			continue
		}
		if f.FundingStage != "" && string(app.FundingStage) != f.FundingStage {
			continue
		}
		if f.Location != "" && !strings.EqualFold(app.Location, f.Location) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(app.CompanyName), needle) &&
			!strings.Contains(strings.ToLower(app.Pitch), needle) {
			continue
		}
		out = append(out, app)
	}

	if !f.active() {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Views.Total > out[j].Views.Total
		})
	}
	return out
}

// Featured returns the n most viewed startups for the landing page.
func (c *Catalog) Featured(n int) []models.Application {
	ranked := c.Applications(Filter{})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// RecordView reports a profile view in the background. Navigation never
// waits on it; a failure is logged and dropped.
func (c *Catalog) RecordView(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		viewerID, err := c.viewer.ID(ctx)
		if err != nil {
			c.log.WithError(err).Warn("viewer identity unavailable", map[string]interface{}{
				"application_id": id,
			})
			return
		}
		if err := c.api.RecordView(ctx, id, viewerID); err != nil {
			c.log.WithError(err).Warn("view recording failed", map[string]interface{}{
				"application_id": id,
			})
		}
	}()
}
