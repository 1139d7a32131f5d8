package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Append(context.Context, Event) error { return errors.New("sink down") }
func (failingStore) ListByActor(context.Context, string) ([]Event, error) {
	return nil, errors.New("sink down")
}
func (failingStore) ListRecent(context.Context, int) ([]Event, error) {
	return nil, errors.New("sink down")
}

func TestPublisherEmitFillsDefaults(t *testing.T) {
	store := NewMemoryStore()
	pub := NewPublisher(store)

	pub.Emit(context.Background(), Event{
		Actor:  "0xAbCd",
		Action: ActionIssue,
	})

	events, err := store.ListByActor(context.Background(), "0xabcd")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisherEmitFailOpen(t *testing.T) {
	pub := NewPublisher(failingStore{})

	// Must not panic or surface the error to the caller.
	pub.Emit(context.Background(), Event{Actor: "0x1", Action: ActionRevoke})
}

func TestPublisherNilSafe(t *testing.T) {
	var pub *Publisher
	pub.Emit(context.Background(), Event{Action: ActionConnect})
}

func TestMemoryStoreListRecent(t *testing.T) {
	store := NewMemoryStore()
	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(context.Background(), Event{
			ID:        string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Actor:     "0x1",
			Action:    ActionIssue,
		}))
	}

	recent, err := store.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "e", recent[0].ID)
	assert.Equal(t, "d", recent[1].ID)
}

func TestMemoryStoreActorMatchIsCaseInsensitive(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Append(context.Background(), Event{
		ID: "1", Actor: "0xBEEF", Action: ActionRegister,
	}))

	events, err := store.ListByActor(context.Background(), "0xbeef")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
