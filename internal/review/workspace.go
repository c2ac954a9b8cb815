// Package review implements the admin review workspace: a snapshot of every
// application kept consistent with the backend, the automatic submitted ->
// under_review sweep, admin transition commands, and the query state (search,
// status filter, sorting) the dashboard presents over the snapshot.
package review

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"combinator-portal/internal/api"
	"combinator-portal/internal/authz"
	"combinator-portal/internal/common/errors"
	"combinator-portal/internal/common/logger"
	"combinator-portal/internal/common/metrics"
	"combinator-portal/internal/models"
	"combinator-portal/internal/status"
)

// SortField selects the column the snapshot is ordered by.
type SortField string

const (
	SortByCompanyName SortField = "companyName"
	SortByIndustry    SortField = "industry"
	SortByStatus      SortField = "status"
	SortByCreatedAt   SortField = "createdAt"
)

// SessionSource exposes the current session to the workspace. The session
// store satisfies it.
type SessionSource interface {
	Current() *models.Session
}

const defaultSweepConcurrency = 4

// Workspace is the admin review surface. All reads and mutations go through
// its mutex; the api client is only ever called while the lock is NOT held,
// so a slow backend never blocks readers of the previous snapshot.
type Workspace struct {
	api         *api.Client
	sessions    SessionSource
	log         logger.Logger
	concurrency int
	collator    *collate.Collator

	mu           sync.RWMutex
	snapshot     []models.Application
	search       string
	statusFilter status.Status // empty means all
	sortField    SortField
	sortAsc      bool
	selectedID   string
}

// NewWorkspace builds a workspace. concurrency bounds how many automatic
// transitions a single sweep issues at once; zero or negative selects the
// default.
func NewWorkspace(client *api.Client, sessions SessionSource, concurrency int, log logger.Logger) *Workspace {
	if concurrency <= 0 {
		concurrency = defaultSweepConcurrency
	}
	return &Workspace{
		api:         client,
		sessions:    sessions,
		log:         log,
		concurrency: concurrency,
		collator:    collate.New(language.English, collate.IgnoreCase),
		sortField:   SortByCreatedAt,
		sortAsc:     false,
	}
}

func (w *Workspace) authorize() error {
	if !authz.CanManageApplications(w.sessions.Current()) {
		return errors.NewAuthorizationError("admin access required")
	}
	return nil
}

// Refresh loads the full application list, applies the automatic
// submitted -> under_review transition to every submitted item, and replaces
// the snapshot with a refetch taken after all transition attempts settled.
// Per-item transition failures are logged and never abort the sweep; the
// failed item simply keeps its last known status. A cancelled context
// abandons the sweep and leaves the previous snapshot in place.
func (w *Workspace) Refresh(ctx context.Context) error {
	if err := w.authorize(); err != nil {
		return err
	}

	apps, err := w.api.ListApplications(ctx)
	if err != nil {
		return err
	}

	var pending []string
	for _, app := range apps {
		if status.CanTransition(app.Status, status.UnderReview, status.ActorSystem) {
			pending = append(pending, app.ID)
		}
	}

	if len(pending) == 0 {
		w.commit(apps)
		return nil
	}

	w.sweep(ctx, pending)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	final, err := w.api.ListApplications(ctx)
	if err != nil {
		return err
	}
	w.commit(final)
	return nil
}

// sweep issues the automatic transitions for ids, at most w.concurrency at a
// time, collecting failures without stopping.
func (w *Workspace) sweep(ctx context.Context, ids []string) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, w.concurrency)

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := w.api.UpdateStatus(ctx, id, status.UnderReview)
			if err != nil {
				metrics.ReviewSweepFailures.Inc()
				metrics.StatusTransitions.WithLabelValues(string(status.UnderReview), "failure").Inc()
				w.log.WithError(err).Warn("automatic transition failed", map[string]interface{}{
					"application_id": id,
				})
				return
			}
			metrics.StatusTransitions.WithLabelValues(string(status.UnderReview), "success").Inc()
		}(id)
	}
	wg.Wait()
}

// Transition applies an admin decision to one application: the target must be
// a legal admin transition from the item's current status, the backend is
// updated, and the snapshot is replaced by a fresh fetch so aggregate counts
// never drift from the server's view. If the transitioned item was open in
// the detail inspector it is deselected.
func (w *Workspace) Transition(ctx context.Context, id string, target status.Status) error {
	if err := w.authorize(); err != nil {
		return err
	}

	w.mu.RLock()
	app := findApp(w.snapshot, id)
	w.mu.RUnlock()
	if app == nil {
		return errors.NewValidationError("unknown application " + id)
	}
	if !status.CanTransition(app.Status, target, status.ActorAdmin) {
		return errors.NewValidationError(
			"cannot move application from " + string(app.Status) + " to " + string(target))
	}

	_, updateErr := w.api.UpdateStatus(ctx, id, target)
	result := "success"
	if updateErr != nil {
		result = "failure"
	}
	metrics.StatusTransitions.WithLabelValues(string(target), result).Inc()

	// Refetch regardless of the outcome: on a backend rejection the server's
	// view stands, and the stale optimistic status must not survive locally.
	if final, err := w.api.ListApplications(ctx); err == nil {
		w.commitAfterTransition(final, id)
	} else if updateErr == nil {
		updateErr = err
	}

	return updateErr
}

func (w *Workspace) commit(apps []models.Application) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snapshot = apps
	if w.selectedID != "" && findApp(w.snapshot, w.selectedID) == nil {
		w.selectedID = ""
	}
}

func (w *Workspace) commitAfterTransition(apps []models.Application, transitioned string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snapshot = apps
	if w.selectedID == transitioned || findApp(w.snapshot, w.selectedID) == nil {
		w.selectedID = ""
	}
}

func findApp(apps []models.Application, id string) *models.Application {
	for i := range apps {
		if apps[i].ID == id {
			return &apps[i]
		}
	}
	return nil
}

// SetSearch sets the case-insensitive substring filter applied over company
// name, industry and location.
func (w *Workspace) SetSearch(q string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.search = strings.TrimSpace(q)
}

// SetStatusFilter restricts the visible list to a single status. The zero
// value shows all statuses.
func (w *Workspace) SetStatusFilter(s status.Status) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.statusFilter = s
}

// SortBy orders the visible list by field. Reselecting the active field
// flips the direction; a new field starts ascending.
func (w *Workspace) SortBy(field SortField) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if field == w.sortField {
		w.sortAsc = !w.sortAsc
		return
	}
	w.sortField = field
	w.sortAsc = true
}

// Applications returns the filtered, sorted view of the snapshot. The slice
// is a copy; callers may not mutate workspace state through it. The write
// lock is held because the collator buffers state between comparisons.
func (w *Workspace) Applications() []models.Application {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]models.Application, 0, len(w.snapshot))
	needle := strings.ToLower(w.search)
	for _, app := range w.snapshot {
		if w.statusFilter != "" && app.Status != w.statusFilter {
			continue
		}
		if needle != "" && !matches(app, needle) {
			continue
		}
		out = append(out, app)
	}

	field, asc := w.sortField, w.sortAsc
	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		switch field {
		case SortByCompanyName:
			less = w.collator.CompareString(out[i].CompanyName, out[j].CompanyName) < 0
		case SortByIndustry:
			less = w.collator.CompareString(string(out[i].Industry), string(out[j].Industry)) < 0
		case SortByStatus:
			less = w.collator.CompareString(string(out[i].Status), string(out[j].Status)) < 0
		default:
			less = out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if asc {
			return less
		}
		return !less && !equalOn(field, out[i], out[j])
	})
	return out
}

func equalOn(field SortField, a, b models.Application) bool {
	switch field {
	case SortByCompanyName:
		return strings.EqualFold(a.CompanyName, b.CompanyName)
	case SortByIndustry:
		return a.Industry == b.Industry
	case SortByStatus:
		return a.Status == b.Status
	default:
		return a.CreatedAt.Equal(b.CreatedAt)
	}
}

func matches(app models.Application, needle string) bool {
	return strings.Contains(strings.ToLower(app.CompanyName), needle) ||
		strings.Contains(strings.ToLower(string(app.Industry)), needle) ||
		strings.Contains(strings.ToLower(app.Location), needle)
}

// StatusCounts returns per-status totals over the full snapshot, ignoring
// the active search and filter. This backs the stats panel.
func (w *Workspace) StatusCounts() map[status.Status]int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	counts := make(map[status.Status]int)
	for _, app := range w.snapshot {
		counts[app.Status]++
	}
	return counts
}

// Select opens the detail inspector on the given application. It reports
// whether the id is present in the current snapshot.
func (w *Workspace) Select(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if findApp(w.snapshot, id) == nil {
		return false
	}
	w.selectedID = id
	return true
}

// Selected returns a copy of the application open in the detail inspector,
// or nil when nothing is selected.
func (w *Workspace) Selected() *models.Application {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.selectedID == "" {
		return nil
	}
	app := findApp(w.snapshot, w.selectedID)
	if app == nil {
		return nil
	}
	cp := *app
	return &cp
}

// Deselect closes the detail inspector.
func (w *Workspace) Deselect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selectedID = ""
}

// ActionsFor lists the admin decisions available for an application in its
// current status. Only items under review offer any.
func ActionsFor(app models.Application) []status.Status {
	return status.AdminTargets(app.Status)
}
