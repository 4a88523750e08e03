package session

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/abhisek/leetprob/internal/store"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name            string
		stored, current string
		want            []Action
	}{
		{"first login", "", "alice", []Action{{Kind: SetIdentity, User: "alice"}}},
		{"same user", "alice", "alice", nil},
		{"user switch", "alice", "bob", []Action{{Kind: ClearAll}, {Kind: SetIdentity, User: "bob"}}},
		{"logout", "alice", "", []Action{{Kind: ClearAll}, {Kind: ClearIdentity}}},
		{"anonymous stays anonymous", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.stored, tt.current)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reconcile(%q, %q) = %v, want %v", tt.stored, tt.current, got, tt.want)
			}
		})
	}
}

// keyClearer removes its keys from the shared store, like the real caches.
type keyClearer struct {
	kv    store.KV
	keys  []string
	calls int
	err   error
}

func (c *keyClearer) Clear(ctx context.Context) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	return c.kv.Remove(ctx, c.keys...)
}

func seed(t *testing.T, kv store.KV, user string) {
	t.Helper()
	ctx := context.Background()
	if user != "" {
		if err := store.SetJSON(ctx, kv, store.KeyLastUser, user); err != nil {
			t.Fatal(err)
		}
	}
	err := kv.Set(ctx, map[string][]byte{
		store.KeySubmissions:      []byte(`[{"id":"1"}]`),
		store.KeyProblemCache:     []byte(`{"two-sum":{}}`),
		store.KeyDifficultyTotals: []byte(`{"Easy":{"total":1,"solved":1}}`),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func newTestManager(kv store.KV) (*Manager, *keyClearer) {
	c := &keyClearer{kv: kv, keys: []string{store.KeySubmissions, store.KeyProblemCache}}
	return NewManager(kv, zerolog.Nop(), c), c
}

func TestManager_UserSwitchClearsUserData(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	seed(t, kv, "alice")
	m, clearer := newTestManager(kv)

	actions, err := m.Reconcile(ctx, "bob")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(actions) != 2 || clearer.calls != 1 {
		t.Fatalf("actions = %v, clears = %d", actions, clearer.calls)
	}

	if user, _ := m.Current(ctx); user != "bob" {
		t.Errorf("stored user = %q, want bob", user)
	}
	got, _ := kv.Get(ctx, store.KeySubmissions, store.KeyProblemCache, store.KeyDifficultyTotals)
	if _, ok := got[store.KeySubmissions]; ok {
		t.Error("submissions should be cleared")
	}
	if _, ok := got[store.KeyProblemCache]; ok {
		t.Error("problem cache should be cleared")
	}
	if _, ok := got[store.KeyDifficultyTotals]; !ok {
		t.Error("difficulty totals must survive a user switch")
	}
}

func TestManager_FirstLoginKeepsData(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	seed(t, kv, "")
	m, clearer := newTestManager(kv)

	if _, err := m.Reconcile(ctx, "alice"); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if clearer.calls != 0 {
		t.Errorf("first login must not clear, got %d clears", clearer.calls)
	}
	if user, _ := m.Current(ctx); user != "alice" {
		t.Errorf("stored user = %q", user)
	}
}

func TestManager_Logout(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	seed(t, kv, "alice")
	m, _ := newTestManager(kv)

	if _, err := m.Reconcile(ctx, ""); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if user, _ := m.Current(ctx); user != "" {
		t.Errorf("stored user = %q, want empty", user)
	}
	if kv.Len() != 1 {
		t.Errorf("only difficulty totals should remain, have %d keys", kv.Len())
	}
}

func TestManager_SameUserIsNoop(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	seed(t, kv, "alice")
	m, clearer := newTestManager(kv)

	actions, err := m.Reconcile(ctx, "alice")
	if err != nil || actions != nil || clearer.calls != 0 {
		t.Fatalf("actions = %v, err = %v, clears = %d", actions, err, clearer.calls)
	}
}

func TestManager_ClearFailureIsReported(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	seed(t, kv, "alice")
	boom := errors.New("boom")
	m := NewManager(kv, zerolog.Nop(), &keyClearer{kv: kv, err: boom})

	_, err := m.Reconcile(ctx, "bob")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	// Identity must not advance past a failed clear.
	if user, _ := m.Current(ctx); user != "alice" {
		t.Errorf("stored user = %q, want alice", user)
	}
}

func TestManager_Reset(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	seed(t, kv, "alice")
	m, clearer := newTestManager(kv)

	if err := m.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if clearer.calls != 1 {
		t.Errorf("clears = %d", clearer.calls)
	}
	if user, _ := m.Current(ctx); user != "" {
		t.Errorf("stored user = %q", user)
	}
}
