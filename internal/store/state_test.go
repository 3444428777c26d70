package store

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBadgerStore(t *testing.T) *Store {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Store{badger: db}
}

func TestStore_KVRoundTrip(t *testing.T) {
	st := setupBadgerStore(t)

	_, err := st.GetKV("scheduler:state")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, st.SetKV("scheduler:state", []byte(`{"sent_today":2}`)))

	val, err := st.GetKV("scheduler:state")
	require.NoError(t, err)
	assert.JSONEq(t, `{"sent_today":2}`, string(val))
}

func TestStore_VectorHistoryRing(t *testing.T) {
	st := setupBadgerStore(t)

	history, err := st.VectorSnapshots()
	require.NoError(t, err)
	assert.Empty(t, history)

	for i := 0; i < 5; i++ {
		snapshot := json.RawMessage(fmt.Sprintf(`{"seq":%d}`, i))
		require.NoError(t, st.AppendVectorSnapshot(snapshot, 3))
	}

	history, err = st.VectorSnapshots()
	require.NoError(t, err)
	require.Len(t, history, 3)
	// Oldest first, newest three retained.
	assert.JSONEq(t, `{"seq":2}`, string(history[0]))
	assert.JSONEq(t, `{"seq":4}`, string(history[2]))
}

func TestStore_NilBadgerDisablesHistory(t *testing.T) {
	st := setupTestStore(t)

	require.NoError(t, st.AppendVectorSnapshot(json.RawMessage(`{}`), 10))

	history, err := st.VectorSnapshots()
	require.NoError(t, err)
	assert.Empty(t, history)
}
