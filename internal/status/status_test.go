package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  Status
		to    Status
		actor Actor
		want  bool
	}{
		{"system moves submitted to under_review", Submitted, UnderReview, ActorSystem, true},
		{"admin may trigger the automatic transition", Submitted, UnderReview, ActorAdmin, true},
		{"admin approves under_review", UnderReview, Approved, ActorAdmin, true},
		{"admin rejects under_review", UnderReview, Rejected, ActorAdmin, true},
		{"admin requests info on under_review", UnderReview, InfoRequested, ActorAdmin, true},
		{"system may not approve", UnderReview, Approved, ActorSystem, false},
		{"system may not reject", UnderReview, Rejected, ActorSystem, false},
		{"submitted cannot be approved directly", Submitted, Approved, ActorAdmin, false},
		{"approved is terminal", Approved, Rejected, ActorAdmin, false},
		{"rejected is terminal", Rejected, UnderReview, ActorAdmin, false},
		{"info_requested has no forward transition", InfoRequested, UnderReview, ActorAdmin, false},
		{"draft has no transitions in scope", Draft, Submitted, ActorAdmin, false},
		{"self transition is not legal", UnderReview, UnderReview, ActorAdmin, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to, tt.actor))
		})
	}
}

func TestAdminTargets(t *testing.T) {
	assert.ElementsMatch(t,
		[]Status{Approved, Rejected, InfoRequested},
		AdminTargets(UnderReview))

	for _, s := range []Status{Draft, Submitted, Approved, Rejected, InfoRequested} {
		assert.Empty(t, AdminTargets(s), "no actions offered for %s", s)
	}
}

func TestAdminTargetsMatchTable(t *testing.T) {
	// Every offered action must be a legal admin transition and vice versa.
	for _, from := range All() {
		offered := map[Status]bool{}
		for _, to := range AdminTargets(from) {
			offered[to] = true
			assert.True(t, CanTransition(from, to, ActorAdmin),
				"offered action %s -> %s must be in the table", from, to)
		}
		for _, to := range All() {
			if from == Submitted && to == UnderReview {
				continue // automatic, not an offered admin action
			}
			if CanTransition(from, to, ActorAdmin) {
				assert.True(t, offered[to],
					"legal admin transition %s -> %s must be offered", from, to)
			}
		}
	}
}

func TestValid(t *testing.T) {
	for _, s := range All() {
		assert.True(t, Valid(s))
	}
	assert.False(t, Valid("pending"))
	assert.False(t, Valid(""))
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal(Approved))
	assert.True(t, Terminal(Rejected))
	assert.True(t, Terminal(InfoRequested))
	assert.False(t, Terminal(Submitted))
	assert.False(t, Terminal(UnderReview))
	assert.False(t, Terminal(Draft))
}

func TestInitial(t *testing.T) {
	assert.Equal(t, Submitted, Initial())
}

func TestIsTransitionTarget(t *testing.T) {
	assert.True(t, IsTransitionTarget(UnderReview))
	assert.True(t, IsTransitionTarget(Approved))
	assert.False(t, IsTransitionTarget(Submitted))
	assert.False(t, IsTransitionTarget(Draft))
}
