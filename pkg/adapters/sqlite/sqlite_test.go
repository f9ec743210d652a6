package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/triage/internal/nodestore"
	"github.com/aretw0/triage/pkg/adapters/sqlite"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "triage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seed(t *testing.T, db *sqlite.DB) {
	t.Helper()
	ctx := context.Background()
	_, err := db.SQL().ExecContext(ctx, `CREATE TABLE questions (id INTEGER, label TEXT, answers TEXT, next TEXT)`)
	require.NoError(t, err)
	_, err = db.SQL().ExecContext(ctx, `CREATE TABLE prompts (id INTEGER, label TEXT, action TEXT)`)
	require.NoError(t, err)

	for _, r := range ports.ContractQuestions {
		_, err := db.SQL().ExecContext(ctx, `INSERT INTO questions (id, label, answers, next) VALUES (?, ?, ?, ?)`,
			r["id"], r["label"], r["answers"], r["next"])
		require.NoError(t, err)
	}
	for _, r := range ports.ContractPrompts {
		_, err := db.SQL().ExecContext(ctx, `INSERT INTO prompts (id, label, action) VALUES (?, ?, ?)`,
			r["id"], r["label"], r["action"])
		require.NoError(t, err)
	}
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, openDB(t).Store())
}

func TestSQLiteSource_Contract(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ports.RunTableSourceContract(t, db.Source())
}

func TestSQLiteSource_LoadsIntoNodeStore(t *testing.T) {
	db := openDB(t)
	seed(t, db)

	store, err := nodestore.Load(context.Background(), db.Source())
	require.NoError(t, err)

	q, err := store.Question("1")
	require.NoError(t, err)
	assert.Equal(t, "Fever?", q.Label)
	assert.Equal(t, []string{"question:2", "prompt:1"}, q.Next)
}

func TestSQLiteSource_NullAction(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	_, err := db.SQL().Exec(`INSERT INTO prompts (id, label, action) VALUES (3, 'Watch', NULL)`)
	require.NoError(t, err)

	rows, err := db.Source().Rows(context.Background(), ports.TablePrompts)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	action, ok := rows[2]["action"]
	assert.True(t, ok)
	assert.Empty(t, action)
}

func TestSQLiteStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	db, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	state := domain.NewState("s1", domain.DefaultEntryRef)
	state.Phase = domain.PhaseFailed
	state.Error = `prompt "99" not found`
	require.NoError(t, db.Store().Save(ctx, "s1", state))
	require.NoError(t, db.Close())

	reopened, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Store().Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseFailed, loaded.Phase)
	assert.Equal(t, state.Error, loaded.Error)
	assert.Equal(t, domain.DefaultEntryRef, loaded.Current)
}
