package mutation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type modifyCall struct {
	IDs    []string
	Add    []string
	Remove []string
}

type fakeModifier struct {
	mu          sync.Mutex
	modifyErr   error
	batchErr    error
	modifyCalls []modifyCall
	batchCalls  []modifyCall
}

func (f *fakeModifier) ModifyMessage(_ context.Context, id string, add, remove []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modifyCalls = append(f.modifyCalls, modifyCall{IDs: []string{id}, Add: add, Remove: remove})
	return f.modifyErr
}

func (f *fakeModifier) BatchModifyMessages(_ context.Context, ids, add, remove []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls = append(f.batchCalls, modifyCall{IDs: ids, Add: add, Remove: remove})
	return f.batchErr
}

// fakeStore keeps the list entry and the open copy separately, like the
// inbox does.
type fakeStore struct {
	list map[string][]string
	open map[string][]string
}

func newFakeStore(id string, labels ...string) *fakeStore {
	return &fakeStore{
		list: map[string][]string{id: append([]string(nil), labels...)},
		open: map[string][]string{id: append([]string(nil), labels...)},
	}
}

func (s *fakeStore) UpdateLabels(id string, update func([]string) []string) {
	if ids, ok := s.list[id]; ok {
		s.list[id] = update(ids)
	}
	if ids, ok := s.open[id]; ok {
		s.open[id] = update(ids)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "applied", Applied.String())
	assert.Equal(t, "confirmed", Confirmed.String())
	assert.Equal(t, "rolled_back", RolledBack.String())
	assert.Equal(t, "State(9)", State(9).String())

	assert.False(t, Applied.Final())
	assert.True(t, Confirmed.Final())
	assert.True(t, RolledBack.Final())
}

func TestApplyConfirmed(t *testing.T) {
	mod := &fakeModifier{}
	store := newFakeStore("m1", "INBOX")
	c := NewCoordinator(mod, store, nil, nil)

	m := c.Apply(context.Background(), "m1", []string{"Label_1"}, nil)

	assert.Equal(t, Confirmed, m.State)
	assert.NoError(t, m.Err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, KindSingle, m.Kind)
	assert.Equal(t, []string{"m1"}, m.MessageIDs)

	assert.Equal(t, []string{"INBOX", "Label_1"}, store.list["m1"])
	assert.Equal(t, []string{"INBOX", "Label_1"}, store.open["m1"])

	require.Len(t, mod.modifyCalls, 1)
	assert.Equal(t, []string{"m1"}, mod.modifyCalls[0].IDs)
	assert.Equal(t, []string{"Label_1"}, mod.modifyCalls[0].Add)
}

func TestApplyAddThenRemoveLeavesLabelAbsent(t *testing.T) {
	store := newFakeStore("m1", "INBOX")
	c := NewCoordinator(&fakeModifier{}, store, nil, nil)

	m := c.Apply(context.Background(), "m1", []string{"L"}, []string{"L"})

	assert.Equal(t, Confirmed, m.State)
	assert.Equal(t, []string{"INBOX"}, store.list["m1"])
	assert.Equal(t, []string{"INBOX"}, store.open["m1"])
}

func TestApplyFailureKeepsLocalChange(t *testing.T) {
	serverErr := errors.New("gmail modify failed with status 500")
	mod := &fakeModifier{modifyErr: serverErr}
	store := newFakeStore("m1", "INBOX", "UNREAD")
	c := NewCoordinator(mod, store, nil, nil)

	m := c.Apply(context.Background(), "m1", nil, []string{"UNREAD"})

	assert.Equal(t, RolledBack, m.State)
	assert.ErrorIs(t, m.Err, serverErr)

	// The optimistic change stays in place on both copies.
	assert.Equal(t, []string{"INBOX"}, store.list["m1"])
	assert.Equal(t, []string{"INBOX"}, store.open["m1"])
	assert.Len(t, mod.modifyCalls, 1, "no retry after failure")
}

func TestApplyWithoutStore(t *testing.T) {
	c := NewCoordinator(&fakeModifier{}, nil, nil, nil)
	m := c.Apply(context.Background(), "m1", []string{"STARRED"}, nil)
	assert.Equal(t, Confirmed, m.State)
}

func TestApplyIssuesUniqueIDs(t *testing.T) {
	c := NewCoordinator(&fakeModifier{}, nil, nil, nil)
	a := c.Apply(context.Background(), "m1", []string{"A"}, nil)
	b := c.Apply(context.Background(), "m1", []string{"B"}, nil)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestBulk(t *testing.T) {
	tests := []struct {
		name         string
		batchErr     error
		reloadErr    error
		wantState    State
		wantReloaded bool
		wantErr      bool
	}{
		{
			name:         "success reloads the view",
			wantState:    Confirmed,
			wantReloaded: true,
		},
		{
			name:         "failure skips reload",
			batchErr:     errors.New("gmail batch_modify failed"),
			wantState:    RolledBack,
			wantReloaded: false,
			wantErr:      true,
		},
		{
			name:         "reload failure after confirmed batch",
			reloadErr:    errors.New("list failed"),
			wantState:    Confirmed,
			wantReloaded: true,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := &fakeModifier{batchErr: tt.batchErr}
			c := NewCoordinator(mod, nil, nil, nil)

			reloaded := false
			reload := func(context.Context) error {
				reloaded = true
				return tt.reloadErr
			}

			ids := []string{"m1", "m2", "m3"}
			m, err := c.Bulk(context.Background(), ids, []string{"Label_7"}, nil, reload)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, m.State)
			assert.Equal(t, KindBulk, m.Kind)
			assert.Equal(t, tt.wantReloaded, reloaded)

			require.Len(t, mod.batchCalls, 1, "exactly one batch request")
			assert.Equal(t, ids, mod.batchCalls[0].IDs)
			assert.Equal(t, []string{"Label_7"}, mod.batchCalls[0].Add)
			assert.Empty(t, mod.modifyCalls)
		})
	}
}

func TestBulkEmptySelection(t *testing.T) {
	mod := &fakeModifier{}
	c := NewCoordinator(mod, nil, nil, nil)

	m, err := c.Bulk(context.Background(), nil, []string{"Label_7"}, nil, func(context.Context) error {
		t.Fatal("reload must not be called")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, Idle, m.State)
	assert.Empty(t, mod.batchCalls)
}
