// Package authz is the portal's ownership/authorization gate: pure
// predicates over the current session and the target application. They are
// recomputed on every call from current inputs, since either side can change
// (login, logout, navigating to another application), and they fail closed
// on partial data: an owner reference that has not finished loading grants
// nothing.
package authz

import "combinator-portal/internal/models"

// CanEditProfile reports whether the session may mutate an application's
// profile (field edits, team member / update / investment appends). True
// for the owning account and for admin reviewers.
func CanEditProfile(sess *models.Session, app *models.Application) bool {
	if !sess.Authenticated() || app == nil {
		return false
	}
	if sess.User.IsAdmin {
		return true
	}
	owner := app.OwnerID()
	return owner != "" && owner == sess.User.ID
}

// CanManageApplications reports whether the session may use the admin
// review workspace and trigger status transitions.
func CanManageApplications(sess *models.Session) bool {
	return sess.Admin()
}
