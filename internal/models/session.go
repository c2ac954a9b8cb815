package models

// Session is the process-wide authenticated identity: the current user plus
// the bearer token attached to every outbound request. A zero Session means
// no one is logged in.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Authenticated reports whether the session carries a usable identity.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.User.ID != ""
}

// Admin reports whether the session belongs to an admin reviewer.
func (s *Session) Admin() bool {
	return s.Authenticated() && s.User.IsAdmin
}
