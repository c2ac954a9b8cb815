package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"combinator-portal/internal/models"
	"combinator-portal/internal/status"
)

// RecordedRequest is one request the fake backend served, captured for
// assertions.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Body          []byte
}

type fakeAccount struct {
	password string
	user     models.User
}

// FakeBackend is an in-process stand-in for the portal backend, implementing
// the consumed HTTP contract over httptest. It is deliberately strict about
// the status transition table so tests exercise the same rejections a real
// backend would produce.
type FakeBackend struct {
	mu         sync.Mutex
	srv        *httptest.Server
	accounts   map[string]fakeAccount // email -> account
	tokens     map[string]string      // token -> email
	apps       []*models.Application
	failStatus map[string]int // application id -> forced HTTP status on PATCH
	failList   int            // count of upcoming list calls to fail
	requests   []RecordedRequest
	strictAuth bool
	nextID     int
}

// NewFakeBackend starts the fake server. Callers own Close.
func NewFakeBackend() *FakeBackend {
	b := &FakeBackend{
		accounts:   make(map[string]fakeAccount),
		tokens:     make(map[string]string),
		failStatus: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", b.handleRegister)
	mux.HandleFunc("POST /login", b.handleLogin)
	mux.HandleFunc("GET /api/applications", b.handleList)
	mux.HandleFunc("POST /api/applications", b.handleCreate)
	mux.HandleFunc("GET /api/applications/{id}", b.handleGet)
	mux.HandleFunc("PUT /api/applications/{id}", b.handleUpdate)
	mux.HandleFunc("PATCH /api/applications/{id}/status", b.handleStatus)
	mux.HandleFunc("POST /api/applications/{id}/views", b.handleView)
	mux.HandleFunc("PUT /api/applications/{id}/team-members", b.handleAppend)
	mux.HandleFunc("PUT /api/applications/{id}/updates", b.handleAppend)
	mux.HandleFunc("PUT /api/applications/{id}/investments", b.handleAppend)

	b.srv = httptest.NewServer(b.record(mux))
	return b
}

func (b *FakeBackend) URL() string { return b.srv.URL }
func (b *FakeBackend) Close()      { b.srv.Close() }

// StrictAuth makes /api routes demand a known bearer token and admin-only
// routes demand an admin account.
func (b *FakeBackend) StrictAuth() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.strictAuth = true
}

// AddUser registers a login account. Returns the bearer token the backend
// will hand out for it.
func (b *FakeBackend) AddUser(email, password string, user models.User) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[email] = fakeAccount{password: password, user: user}
	token := "token-" + user.ID
	b.tokens[token] = email
	return token
}

// Seed installs applications, replacing any existing ones.
func (b *FakeBackend) Seed(apps ...models.Application) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.apps = b.apps[:0]
	for i := range apps {
		a := apps[i]
		b.apps = append(b.apps, &a)
	}
}

// App returns a copy of the stored application, nil when absent.
func (b *FakeBackend) App(id string) *models.Application {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.apps {
		if a.ID == id {
			cp := *a
			return &cp
		}
	}
	return nil
}

// FailStatusUpdate forces the next status PATCH for id to fail with code.
func (b *FakeBackend) FailStatusUpdate(id string, code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failStatus[id] = code
}

// FailNextList makes the next n list fetches return a 500.
func (b *FakeBackend) FailNextList(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failList = n
}

// Requests returns every request served so far.
func (b *FakeBackend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// RequestCount counts served requests matching method and a path suffix.
func (b *FakeBackend) RequestCount(method, pathSuffix string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && strings.HasSuffix(r.Path, pathSuffix) {
			n++
		}
	}
	return n
}

func (b *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// caller resolves the bearer token to a user. ok is false only in strict
// mode with a missing or unknown token.
func (b *FakeBackend) caller(r *http.Request) (models.User, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	email, known := b.tokens[token]
	if !known {
		return models.User{}, !b.strictAuth
	}
	return b.accounts[email].user, true
}

func (b *FakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || body.Password == "" {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[body.Email]; exists {
		writeMessage(w, http.StatusBadRequest, "User already exists")
		return
	}
	b.nextID++
	user := models.User{ID: fmt.Sprintf("user-%d", b.nextID), Name: body.Name, Email: body.Email}
	b.accounts[body.Email] = fakeAccount{password: body.Password, user: user}
	b.tokens["token-"+user.ID] = body.Email
	writeJSON(w, http.StatusCreated, map[string]string{})
}

func (b *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	account, ok := b.accounts[body.Email]
	if !ok || account.password != body.Password {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":  account.user,
		"token": "token-" + account.user.ID,
	})
}

func (b *FakeBackend) handleList(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.caller(r); !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if b.failList > 0 {
		b.failList--
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	apps := make([]models.Application, len(b.apps))
	for i, a := range b.apps {
		apps[i] = *a
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

func (b *FakeBackend) handleCreate(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	caller, ok := b.caller(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var app models.Application
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	b.nextID++
	app.ID = fmt.Sprintf("app-%d", b.nextID)
	app.Status = status.Initial()
	app.CreatedAt = time.Now().UTC()
	if app.OwnerID() == "" {
		app.UserID = models.OwnerRef{UserID: caller.ID}
	}
	b.apps = append(b.apps, &app)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"application": app})
}

func (b *FakeBackend) find(id string) *models.Application {
	for _, a := range b.apps {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (b *FakeBackend) handleGet(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	app := b.find(r.PathValue("id"))
	if app == nil {
		writeMessage(w, http.StatusNotFound, "Application not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"application": *app})
}

func (b *FakeBackend) handleUpdate(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.caller(r); !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	app := b.find(r.PathValue("id"))
	if app == nil {
		writeMessage(w, http.StatusNotFound, "Application not found")
		return
	}
	// Patch the provided fields onto the stored record. Status is protected:
	// only the status endpoint may change it.
	keep := app.Status
	if err := json.NewDecoder(r.Body).Decode(app); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	app.Status = keep
	writeJSON(w, http.StatusOK, map[string]interface{}{"application": *app})
}

func (b *FakeBackend) handleStatus(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	caller, ok := b.caller(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if b.strictAuth && !caller.IsAdmin {
		writeMessage(w, http.StatusForbidden, "Admin access required")
		return
	}

	id := r.PathValue("id")
	if code, forced := b.failStatus[id]; forced {
		delete(b.failStatus, id)
		writeMessage(w, code, "Status update failed")
		return
	}

	app := b.find(id)
	if app == nil {
		writeMessage(w, http.StatusNotFound, "Application not found")
		return
	}

	var body struct {
		Status status.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !status.CanTransition(app.Status, body.Status, status.ActorAdmin) {
		writeMessage(w, http.StatusBadRequest,
			fmt.Sprintf("Cannot transition from %s to %s", app.Status, body.Status))
		return
	}
	app.Status = body.Status
	writeJSON(w, http.StatusOK, map[string]interface{}{"application": *app})
}

func (b *FakeBackend) handleView(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	app := b.find(r.PathValue("id"))
	if app == nil {
		writeMessage(w, http.StatusNotFound, "Application not found")
		return
	}
	var body struct {
		ViewerID string `json:"viewerId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	app.Views.Total++
	if body.ViewerID != "" {
		seen := false
		for _, u := range app.Views.UniqueUsers {
			if u == body.ViewerID {
				seen = true
				break
			}
		}
		if !seen {
			app.Views.UniqueUsers = append(app.Views.UniqueUsers, body.ViewerID)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{})
}

func (b *FakeBackend) handleAppend(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.caller(r); !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	app := b.find(r.PathValue("id"))
	if app == nil {
		writeMessage(w, http.StatusNotFound, "Application not found")
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/team-members"):
		var m models.TeamMember
		if json.Unmarshal(data, &m) != nil || m.Name == "" {
			writeMessage(w, http.StatusBadRequest, "Invalid team member")
			return
		}
		app.TeamMembers = append(app.TeamMembers, m)
	case strings.HasSuffix(r.URL.Path, "/updates"):
		var u models.Update
		if json.Unmarshal(data, &u) != nil || u.Title == "" {
			writeMessage(w, http.StatusBadRequest, "Invalid update")
			return
		}
		app.Updates = append(app.Updates, u)
	case strings.HasSuffix(r.URL.Path, "/investments"):
		var inv models.Investment
		if json.Unmarshal(data, &inv) != nil || inv.InvestorName == "" {
			writeMessage(w, http.StatusBadRequest, "Invalid investment")
			return
		}
		app.Investments = append(app.Investments, inv)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"application": *app})
}
