package storage_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/storage"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/testutil"
	"github.com/AhmedFT-hub/FT-Agent-Studio/migrations"
)

// testDB is shared by every test in this package; nil when Docker is unavailable.
var testDB *storage.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	tc, err := testutil.StartPostgres()
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres unavailable, skipping integration tests: %v\n", err)
		os.Exit(m.Run())
	}

	testDB, err = tc.NewTestDB(ctx, testutil.TestLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create DB: %v\n", err)
		tc.Terminate()
		os.Exit(1)
	}

	code := m.Run()

	testDB.Close(ctx)
	tc.Terminate()
	os.Exit(code)
}

func requireDB(t *testing.T) *storage.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres container not available")
	}
	return testDB
}

var idSeq int

func newCustom(name string) model.AgentRecord {
	idSeq++
	return model.AgentRecord{
		ID:                 fmt.Sprintf("custom-test-%d-%d", time.Now().UnixNano(), idSeq),
		Name:               name,
		Slug:               model.Slugify(name),
		Description:        "desc of " + name,
		Category:           model.CategoryOther,
		Tags:               []string{"t1"},
		Status:             model.StatusLive,
		ExternalURL:        "https://example.com/" + model.Slugify(name),
		ImageURL:           model.DefaultImageURL,
		LastUpdated:        "Jan 2026",
		PrimaryActionLabel: model.DefaultPrimaryActionLabel,
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := requireDB(t)
	ran, err := db.RunMigrations(context.Background(), migrations.FS)
	require.NoError(t, err)
	assert.Empty(t, ran)

	applied, err := db.AppliedMigrations(context.Background())
	require.NoError(t, err)
	assert.True(t, applied["001_custom_agents.sql"])
	assert.True(t, applied["002_agent_overrides.sql"])
}

func TestCustomAgents_InsertListOrder(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()

	first := newCustom("First Agent")
	second := newCustom("Second Agent")
	require.NoError(t, db.InsertCustomAgent(ctx, first))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, db.InsertCustomAgent(ctx, second))

	agents, err := db.ListCustomAgents(ctx)
	require.NoError(t, err)

	pos := map[string]int{}
	for i, a := range agents {
		pos[a.ID] = i
	}
	require.Contains(t, pos, first.ID)
	require.Contains(t, pos, second.ID)
	assert.Less(t, pos[second.ID], pos[first.ID], "newest first")
	assert.Equal(t, first, agents[pos[first.ID]])
}

func TestCustomAgents_DuplicateID(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()

	a := newCustom("Dup")
	require.NoError(t, db.InsertCustomAgent(ctx, a))
	err := db.InsertCustomAgent(ctx, a)
	assert.ErrorIs(t, err, storage.ErrDuplicateID)
}

func TestCustomAgents_Update(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()

	a := newCustom("Before Rename")
	require.NoError(t, db.InsertCustomAgent(ctx, a))

	got, err := db.UpdateCustomAgent(ctx, a.ID, model.AgentPatch{
		Name: model.Ptr("After  Rename"),
		Tags: &[]string{},
	})
	require.NoError(t, err)
	assert.Equal(t, "After  Rename", got.Name)
	assert.Equal(t, "after-rename", got.Slug)
	assert.Equal(t, []string{}, got.Tags)
	assert.Equal(t, a.Description, got.Description, "absent fields are untouched")

	stored, err := db.GetCustomAgent(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)

	_, err = db.UpdateCustomAgent(ctx, "custom-missing", model.AgentPatch{Name: model.Ptr("x")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCustomAgents_DeleteIsIdempotent(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()

	a := newCustom("Doomed")
	require.NoError(t, db.InsertCustomAgent(ctx, a))
	require.NoError(t, db.DeleteCustomAgent(ctx, a.ID))
	require.NoError(t, db.DeleteCustomAgent(ctx, a.ID))

	_, err := db.GetCustomAgent(ctx, a.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOverrides_UpsertMergesOnTop(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	const id = "3"
	t.Cleanup(func() { _ = db.DeleteOverride(ctx, id) })

	first, err := db.UpsertOverride(ctx, id, model.AgentPatch{Status: model.Ptr(model.StatusBeta)})
	require.NoError(t, err)
	assert.Equal(t, []string{"status"}, first.Fields())

	second, err := db.UpsertOverride(ctx, id, model.AgentPatch{
		Name: model.Ptr("Renamed"),
		Tags: &[]string{"a"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "tags", "status"}, second.Fields())
	assert.Equal(t, model.StatusBeta, *second.Status)

	all, err := db.ListOverrides(ctx)
	require.NoError(t, err)
	require.Contains(t, all, id)
	assert.Equal(t, second, all[id])
	assert.Nil(t, all[id].Description, "unset columns stay absent")
}

func TestOverrides_EmptyTagsDistinctFromAbsent(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	const id = "4"
	t.Cleanup(func() { _ = db.DeleteOverride(ctx, id) })

	got, err := db.UpsertOverride(ctx, id, model.AgentPatch{Tags: &[]string{}})
	require.NoError(t, err)
	require.NotNil(t, got.Tags)
	assert.Empty(t, *got.Tags)
}

func TestOverrides_EmptyOptionalStringsStayAbsent(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	const id = "6"
	t.Cleanup(func() { _ = db.DeleteOverride(ctx, id) })

	got, err := db.UpsertOverride(ctx, id, model.AgentPatch{
		PrimaryActionLabel: model.Ptr("Open"),
		ImageURL:           model.Ptr(""),
	})
	require.NoError(t, err)
	assert.Nil(t, got.ImageURL)

	got, err = db.UpsertOverride(ctx, id, model.AgentPatch{PrimaryActionLabel: model.Ptr("")})
	require.NoError(t, err)
	require.NotNil(t, got.PrimaryActionLabel)
	assert.Equal(t, "Open", *got.PrimaryActionLabel)
}

func TestOverrides_DeleteIsIdempotent(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	const id = "5"

	_, err := db.UpsertOverride(ctx, id, model.AgentPatch{Name: model.Ptr("x")})
	require.NoError(t, err)
	require.NoError(t, db.DeleteOverride(ctx, id))
	require.NoError(t, db.DeleteOverride(ctx, id))

	all, err := db.ListOverrides(ctx)
	require.NoError(t, err)
	assert.NotContains(t, all, id)
}

func TestNotify_RoundTrip(t *testing.T) {
	db := requireDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, db.Listen(ctx, storage.ChannelAgents))
	require.NoError(t, db.Notify(ctx, storage.ChannelAgents, `{"kind":"created"}`))

	channel, payload, err := db.WaitForNotification(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.ChannelAgents, channel)
	assert.JSONEq(t, `{"kind":"created"}`, payload)
}
