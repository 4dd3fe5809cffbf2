package attypes_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lestrrat-go/attypes"
	"github.com/lestrrat-go/attypes/airtable"
	"github.com/lestrrat-go/attypes/dts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"
)

func schema(tables ...string) map[string]interface{} {
	l := make([]map[string]interface{}, len(tables))
	for i, name := range tables {
		l[i] = map[string]interface{}{
			"id":             "tbl" + name,
			"name":           name,
			"primaryFieldId": "fld1",
			"fields": []map[string]interface{}{
				{"id": "fld1", "name": "Name", "type": "singleLineText"},
				{"id": "fld2", "name": "Due Date", "type": "date"},
			},
		}
	}
	return map[string]interface{}{"name": "base", "tables": l}
}

func newBuilder(dir string) *dts.Builder {
	b := dts.New()
	b.Dir = dir
	b.Now = func() time.Time { return time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC) }
	return b
}

func TestRun(t *testing.T) {
	defer gock.Off()

	gock.New(airtable.DefaultEndpoint).
		Get("/v0/meta/bases/b1/tables").
		MatchHeader("Authorization", "Bearer token").
		Reply(200).
		JSON(schema("Tasks", "People"))
	gock.New(airtable.DefaultEndpoint).
		Get("/v0/meta/bases/b2/tables").
		MatchHeader("Authorization", "Bearer token").
		Reply(200).
		JSON(schema("Invoices"))

	dir := t.TempDir()
	g := attypes.New(airtable.New("token"), newBuilder(dir))
	require.NoError(t, g.Run(context.Background(), []string{"b1", "b2"}))

	b1, err := os.ReadFile(filepath.Join(dir, "Airtable-b1.d.ts"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(b1), "export interface "))
	assert.Contains(t, string(b1), "export interface AirtableTasks {")
	assert.Contains(t, string(b1), "export interface AirtablePeople {")
	assert.Contains(t, string(b1), "// List of Tables: Tasks, People\n")

	b2, err := os.ReadFile(filepath.Join(dir, "Airtable-b2.d.ts"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(b2), "export interface "))
	assert.Contains(t, string(b2), `  "Due Date"?: string; // date`)

	assert.True(t, gock.IsDone())
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	defer gock.Off()

	gock.New(airtable.DefaultEndpoint).
		Get("/v0/meta/bases/b1/tables").
		Reply(200).
		JSON(schema("Tasks"))
	gock.New(airtable.DefaultEndpoint).
		Get("/v0/meta/bases/b2/tables").
		Reply(403).
		JSON(map[string]interface{}{"error": map[string]interface{}{"type": "INVALID_PERMISSIONS_OR_MODEL_NOT_FOUND"}})

	dir := t.TempDir()
	g := attypes.New(airtable.New("token"), newBuilder(dir))
	err := g.Run(context.Background(), []string{"b1", "b2", "b3"})
	require.Error(t, err)

	var ferr *airtable.FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "b2", ferr.BaseID)
	assert.Equal(t, 403, ferr.StatusCode)

	_, err = os.Stat(filepath.Join(dir, "Airtable-b1.d.ts"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "Airtable-b2.d.ts"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "Airtable-b3.d.ts"))
	assert.True(t, os.IsNotExist(err))
}

type fakeFetcher struct {
	mu      sync.Mutex
	fetched []string
	fail    map[string]error
}

func (f *fakeFetcher) FetchTables(_ context.Context, baseID string) (*airtable.Base, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, baseID)
	f.mu.Unlock()

	if err, ok := f.fail[baseID]; ok {
		return nil, err
	}
	return &airtable.Base{
		ID:   baseID,
		Name: "Base " + baseID,
		Tables: []airtable.Table{
			{Name: "Items", PrimaryFieldID: "f1", Fields: []airtable.Field{{ID: "f1", Name: "Name", Type: "singleLineText"}}},
		},
	}, nil
}

type recordingProcessor struct {
	mu        sync.Mutex
	processed []string
}

func (p *recordingProcessor) Process(b *airtable.Base) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed = append(p.processed, b.ID)
	return nil
}

func TestRun_Sequential(t *testing.T) {
	f := &fakeFetcher{fail: map[string]error{"b2": errors.New("boom")}}
	p := &recordingProcessor{}

	err := attypes.New(f, p).Run(context.Background(), []string{"b1", "b2", "b3"})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"b1", "b2"}, f.fetched)
	assert.Equal(t, []string{"b1"}, p.processed)
}

func TestRun_Concurrent(t *testing.T) {
	f := &fakeFetcher{}
	p := &recordingProcessor{}

	g := attypes.New(f, p)
	g.Concurrency = 4
	ids := []string{"b1", "b2", "b3", "b4", "b5"}
	require.NoError(t, g.Run(context.Background(), ids))

	sort.Strings(p.processed)
	assert.Equal(t, ids, p.processed)
}

func TestRun_ConcurrentMatchesSequential(t *testing.T) {
	f := &fakeFetcher{}
	ids := []string{"b1", "b2", "b3"}

	seqDir := t.TempDir()
	require.NoError(t, attypes.New(f, newBuilder(seqDir)).Run(context.Background(), ids))

	parDir := t.TempDir()
	g := attypes.New(f, newBuilder(parDir))
	g.Concurrency = 3
	require.NoError(t, g.Run(context.Background(), ids))

	for _, id := range ids {
		want, err := os.ReadFile(filepath.Join(seqDir, dts.Filename(id)))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(parDir, dts.Filename(id)))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), id)
	}
}

func TestRun_Canceled(t *testing.T) {
	f := &fakeFetcher{}
	p := &recordingProcessor{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := attypes.New(f, p).Run(ctx, []string{"b1"})
	assert.Equal(t, context.Canceled, err)
	assert.Empty(t, f.fetched)
}
