package authz

import (
	"testing"

	"combinator-portal/internal/models"

	"github.com/stretchr/testify/assert"
)

func session(id string, admin bool) *models.Session {
	return &models.Session{
		User:  models.User{ID: id, Name: "Test", Email: "test@example.com", IsAdmin: admin},
		Token: "tok",
	}
}

func appOwnedBy(ownerID string) *models.Application {
	return &models.Application{ID: "app-1", UserID: models.OwnerRef{UserID: ownerID}}
}

func TestCanEditProfile(t *testing.T) {
	tests := []struct {
		name string
		sess *models.Session
		app  *models.Application
		want bool
	}{
		{"owner may edit", session("u1", false), appOwnedBy("u1"), true},
		{"admin may edit any", session("admin", true), appOwnedBy("u1"), true},
		{"other user may not edit", session("u2", false), appOwnedBy("u1"), false},
		{"no session", nil, appOwnedBy("u1"), false},
		{"no application", session("u1", false), nil, false},
		{"unloaded owner reference fails closed", session("u1", false), appOwnedBy(""), false},
		{"empty token is unauthenticated", &models.Session{User: models.User{ID: "u1"}}, appOwnedBy("u1"), false},
		{"expanded owner object matches", session("u1", false),
			&models.Application{ID: "a", UserID: models.OwnerRef{User: &models.User{ID: "u1"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanEditProfile(tt.sess, tt.app))
		})
	}
}

func TestCanEditProfileBothSidesEmpty(t *testing.T) {
	// An unauthenticated zero-id session must not match an application whose
	// owner id is also empty.
	sess := &models.Session{Token: "tok"}
	assert.False(t, CanEditProfile(sess, appOwnedBy("")))
}

func TestCanManageApplications(t *testing.T) {
	assert.True(t, CanManageApplications(session("admin", true)))
	assert.False(t, CanManageApplications(session("u1", false)))
	assert.False(t, CanManageApplications(nil))
	assert.False(t, CanManageApplications(&models.Session{User: models.User{ID: "u1", IsAdmin: true}})) // no token
}
