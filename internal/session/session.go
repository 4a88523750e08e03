// Package session keeps the locally cached data consistent with whoever is
// signed in to the site. Cached submissions and problem metadata belong to
// one user; a change of identity discards them.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/abhisek/leetprob/internal/store"
)

// ActionKind enumerates the storage mutations a transition can require.
type ActionKind int

const (
	// ClearAll discards every user-scoped cache.
	ClearAll ActionKind = iota + 1
	// SetIdentity records User as the stored identity.
	SetIdentity
	// ClearIdentity forgets the stored identity.
	ClearIdentity
)

func (k ActionKind) String() string {
	switch k {
	case ClearAll:
		return "clear-all"
	case SetIdentity:
		return "set-identity"
	case ClearIdentity:
		return "clear-identity"
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Action is one step of a transition. User is set for SetIdentity only.
type Action struct {
	Kind ActionKind
	User string
}

// Reconcile decides which actions bring storage in line with the current
// identity. An empty string means nobody is signed in.
//
//	stored  current  actions
//	""      "u"      SetIdentity(u)
//	"a"     "b"      ClearAll, SetIdentity(b)
//	"a"     ""       ClearAll, ClearIdentity
//	x       x        none
func Reconcile(stored, current string) []Action {
	switch {
	case current != "" && stored == "":
		return []Action{{Kind: SetIdentity, User: current}}
	case current != "" && current != stored:
		return []Action{{Kind: ClearAll}, {Kind: SetIdentity, User: current}}
	case current == "" && stored != "":
		return []Action{{Kind: ClearAll}, {Kind: ClearIdentity}}
	}
	return nil
}

// Clearer is a user-scoped cache that ClearAll empties.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Manager applies Reconcile's decisions to the key-value store.
type Manager struct {
	kv       store.KV
	clearers []Clearer
	logger   zerolog.Logger
}

// NewManager returns a Manager over kv. The clearers are the caches that
// belong to the signed-in user.
func NewManager(kv store.KV, logger zerolog.Logger, clearers ...Clearer) *Manager {
	return &Manager{
		kv:       kv,
		clearers: clearers,
		logger:   logger.With().Str("component", "session").Logger(),
	}
}

// Current returns the stored identity, "" when none.
func (m *Manager) Current(ctx context.Context) (string, error) {
	var user string
	if _, err := store.GetJSON(ctx, m.kv, store.KeyLastUser, &user); err != nil {
		return "", fmt.Errorf("read stored identity: %w", err)
	}
	return user, nil
}

// Reconcile compares the stored identity with current and applies the
// resulting actions in order. It returns the actions it applied.
func (m *Manager) Reconcile(ctx context.Context, current string) ([]Action, error) {
	stored, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}

	actions := Reconcile(stored, current)
	switch {
	case len(actions) == 0:
		return nil, nil
	case stored == "":
		m.logger.Info().Str("user", current).Msg("first login detected, storing username")
	case current == "":
		m.logger.Info().Str("previous", stored).Msg("user logged out, clearing stored data")
	default:
		m.logger.Info().Str("previous", stored).Str("user", current).Msg("user changed, clearing stored data")
	}

	for _, a := range actions {
		if err := m.apply(ctx, a); err != nil {
			return nil, fmt.Errorf("apply %s: %w", a.Kind, err)
		}
	}
	return actions, nil
}

// Reset clears every user-scoped cache and the stored identity regardless of
// who is signed in.
func (m *Manager) Reset(ctx context.Context) error {
	if err := m.apply(ctx, Action{Kind: ClearAll}); err != nil {
		return err
	}
	return m.apply(ctx, Action{Kind: ClearIdentity})
}

func (m *Manager) apply(ctx context.Context, a Action) error {
	switch a.Kind {
	case ClearAll:
		var errs []error
		for _, c := range m.clearers {
			errs = append(errs, c.Clear(ctx))
		}
		return errors.Join(errs...)
	case SetIdentity:
		return store.SetJSON(ctx, m.kv, store.KeyLastUser, a.User)
	case ClearIdentity:
		return m.kv.Remove(ctx, store.KeyLastUser)
	}
	return fmt.Errorf("unknown action %v", a.Kind)
}
