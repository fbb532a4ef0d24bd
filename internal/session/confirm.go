package session

import (
	"context"
	"crypto/subtle"

	"github.com/rs/xid"
)

// Destructive actions that need a second click.
const (
	ActionDeletePost    = "delete_post"
	ActionDeleteAccount = "delete_account"
)

// Confirmation is a pending destructive action. The confirming request must
// echo Nonce, so a stale or forged form cannot trigger the action.
type Confirmation struct {
	Action string
	Target int
	Nonce  string
}

// Matches reports whether c is the pending confirmation for action on target.
func (c Confirmation) Matches(action string, target int) bool {
	return c.Action == action && c.Target == target
}

// BeginConfirm records a pending action, replacing any earlier one, and
// returns its nonce.
func (m *Manager) BeginConfirm(ctx context.Context, action string, target int) string {
	c := Confirmation{Action: action, Target: target, Nonce: xid.New().String()}
	m.sm.Put(ctx, keyConfirm, c)
	return c.Nonce
}

// PendingConfirm returns the action waiting for confirmation, if any.
func (m *Manager) PendingConfirm(ctx context.Context) (Confirmation, bool) {
	c, ok := m.sm.Get(ctx, keyConfirm).(Confirmation)
	return c, ok
}

// ConsumeConfirm checks nonce against the pending action and clears it.
// The pending confirmation is cleared even when the nonce does not match.
func (m *Manager) ConsumeConfirm(ctx context.Context, action string, target int, nonce string) bool {
	c, ok := m.sm.Pop(ctx, keyConfirm).(Confirmation)
	if !ok || !c.Matches(action, target) || nonce == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Nonce), []byte(nonce)) == 1
}

// CancelConfirm drops the pending action.
func (m *Manager) CancelConfirm(ctx context.Context) {
	m.sm.Remove(ctx, keyConfirm)
}
