package tablestore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cochinpm/client/internal/httpclient"
	"github.com/cochinpm/client/pkg/constants"
	apperrors "github.com/cochinpm/client/pkg/errors"
	"github.com/cochinpm/client/pkg/models"
)

// fakeTablesBackend serves the table endpoints and counts hits per path
type fakeTablesBackend struct {
	mu         sync.Mutex
	hits       map[string]int
	failList   bool
	lastCreate map[string]interface{}
}

func (f *fakeTablesBackend) hit(path string) {
	f.mu.Lock()
	f.hits[path]++
	f.mu.Unlock()
}

func (f *fakeTablesBackend) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func startTablesBackend(t *testing.T) (*fakeTablesBackend, *httptest.Server) {
	t.Helper()
	backend := &fakeTablesBackend{hits: make(map[string]int)}

	mux := http.NewServeMux()
	mux.HandleFunc(constants.APIAuthCSRF, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: constants.CookieCSRF, Value: "csrf-ts", Path: "/"})
		json.NewEncoder(w).Encode(models.CSRFResponse{CSRFToken: "csrf-ts"})
	})
	mux.HandleFunc(constants.APITables, func(w http.ResponseWriter, r *http.Request) {
		backend.hit(r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			backend.mu.Lock()
			fail := backend.failList
			backend.mu.Unlock()
			if fail {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode([]models.Table{
				{ID: "t1", Name: "Projets", Slug: "projets"},
				{ID: "t2", Name: "Contacts", Slug: "contacts"},
			})
		case http.MethodPost:
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			backend.mu.Lock()
			backend.lastCreate = body
			backend.mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(models.Table{
				ID:   "t3",
				Name: body["name"].(string),
				Slug: body["slug"].(string),
			})
		}
	})
	mux.HandleFunc(constants.APITables+"t1/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/add_field/") {
			backend.hit(r.URL.Path)
			var field models.Field
			json.NewDecoder(r.Body).Decode(&field)
			w.WriteHeader(http.StatusCreated)
			field.ID = "f-new"
			json.NewEncoder(w).Encode(field)
			return
		}
		backend.hit(r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(models.Table{
				ID: "t1", Name: "Projets", Slug: "projets",
				Fields: []models.Field{{ID: "f1", Slug: "nom_projet", Name: "Nom projet", FieldType: constants.FieldTypeText}},
			})
		case http.MethodPatch:
			var patch map[string]interface{}
			json.NewDecoder(r.Body).Decode(&patch)
			table := models.Table{ID: "t1", Name: "Projets", Slug: "projets"}
			if name, ok := patch["name"].(string); ok {
				table.Name = name
			}
			json.NewEncoder(w).Encode(table)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	mux.HandleFunc(constants.APITables+"missing/", func(w http.ResponseWriter, r *http.Request) {
		backend.hit(r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Not found."})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return backend, server
}

func newTestStore(t *testing.T, server *httptest.Server) (*Store, *httpclient.Client) {
	t.Helper()
	client := httpclient.New(server.URL, nil)
	return NewStore(client), client
}

func TestFetchTablesIsMemoised(t *testing.T) {
	backend, server := startTablesBackend(t)
	store, _ := newTestStore(t, server)

	first, err := store.FetchTables(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := store.FetchTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.hitCount(constants.APITables), "second call must be served from cache")
}

func TestFetchTableWithFieldsIsMemoisedPerID(t *testing.T) {
	backend, server := startTablesBackend(t)
	store, _ := newTestStore(t, server)

	first, err := store.FetchTableWithFields(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, first.Fields, 1)

	second, err := store.FetchTableWithFields(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.hitCount(constants.APITable("t1")))
}

func TestFetchedTablesAreCopies(t *testing.T) {
	_, server := startTablesBackend(t)
	store, _ := newTestStore(t, server)

	first, err := store.FetchTableWithFields(context.Background(), "t1")
	require.NoError(t, err)
	first.Fields[0].Slug = "mutated"

	second, err := store.FetchTableWithFields(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "nom_projet", second.Fields[0].Slug, "callers must not mutate the cache")
}

func TestCreateTableDerivesSlug(t *testing.T) {
	backend, server := startTablesBackend(t)
	store, client := newTestStore(t, server)
	require.NoError(t, client.Get(context.Background(), constants.APIAuthCSRF, nil))

	created, err := store.CreateTable(context.Background(), models.Table{Name: "Détails Projet"})
	require.NoError(t, err)
	assert.Equal(t, "details-projet", created.Slug)

	backend.mu.Lock()
	sent := backend.lastCreate
	backend.mu.Unlock()
	assert.Equal(t, "details-projet", sent["slug"])

	cached, ok := store.CachedTable("t3")
	require.True(t, ok)
	assert.Equal(t, "Détails Projet", cached.Name)
}

func TestCreateTableKeepsExplicitSlug(t *testing.T) {
	backend, server := startTablesBackend(t)
	store, client := newTestStore(t, server)
	require.NoError(t, client.Get(context.Background(), constants.APIAuthCSRF, nil))

	_, err := store.CreateTable(context.Background(), models.Table{Name: "Projets", Slug: "mes-projets"})
	require.NoError(t, err)

	backend.mu.Lock()
	sent := backend.lastCreate
	backend.mu.Unlock()
	assert.Equal(t, "mes-projets", sent["slug"])
}

func TestUpdateTableInvalidatesFieldCache(t *testing.T) {
	backend, server := startTablesBackend(t)
	store, client := newTestStore(t, server)
	require.NoError(t, client.Get(context.Background(), constants.APIAuthCSRF, nil))

	_, err := store.FetchTableWithFields(context.Background(), "t1")
	require.NoError(t, err)

	updated, err := store.UpdateTable(context.Background(), "t1", map[string]interface{}{"name": "Projets 2024"})
	require.NoError(t, err)
	assert.Equal(t, "Projets 2024", updated.Name)

	_, err = store.FetchTableWithFields(context.Background(), "t1")
	require.NoError(t, err)
	// GET, PATCH, then GET again after invalidation
	assert.Equal(t, 3, backend.hitCount(constants.APITable("t1")))
}

func TestDeleteTableEvictsEverywhere(t *testing.T) {
	_, server := startTablesBackend(t)
	store, client := newTestStore(t, server)
	require.NoError(t, client.Get(context.Background(), constants.APIAuthCSRF, nil))

	tables, err := store.FetchTables(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 2)

	require.NoError(t, store.DeleteTable(context.Background(), "t1"))

	tables, err = store.FetchTables(context.Background())
	require.NoError(t, err)
	assert.Len(t, tables, 1)
	assert.Equal(t, "t2", tables[0].ID)

	_, ok := store.CachedTable("t1")
	assert.False(t, ok)
}

func TestAddFieldInvalidatesSchema(t *testing.T) {
	backend, server := startTablesBackend(t)
	store, client := newTestStore(t, server)
	require.NoError(t, client.Get(context.Background(), constants.APIAuthCSRF, nil))

	_, err := store.FetchTableWithFields(context.Background(), "t1")
	require.NoError(t, err)

	field, err := store.AddFieldToTable(context.Background(), "t1", models.Field{
		Slug: "statut", Name: "Statut", FieldType: constants.FieldTypeChoice,
	})
	require.NoError(t, err)
	assert.Equal(t, "f-new", field.ID)
	assert.Equal(t, 1, backend.hitCount(constants.APITableAddField("t1")))

	_, err = store.FetchTableWithFields(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.hitCount(constants.APITable("t1")), "schema cache must be refetched after add_field")
}

func TestFetchErrorKeepsPriorData(t *testing.T) {
	backend, server := startTablesBackend(t)
	store, _ := newTestStore(t, server)

	first, err := store.FetchTables(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)

	backend.mu.Lock()
	backend.failList = true
	backend.mu.Unlock()
	store.Invalidate("t1")

	again, err := store.FetchTables(context.Background())
	require.Error(t, err)
	assert.Equal(t, first, again, "a failed refresh keeps the previous list visible")
	assert.NotEmpty(t, store.Err())
}

func TestFetchMissingTableIsNotFound(t *testing.T) {
	_, server := startTablesBackend(t)
	store, _ := newTestStore(t, server)

	_, err := store.FetchTableWithFields(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestInvalidateAllClearsList(t *testing.T) {
	backend, server := startTablesBackend(t)
	store, _ := newTestStore(t, server)

	_, err := store.FetchTables(context.Background())
	require.NoError(t, err)

	store.InvalidateAll()

	_, err = store.FetchTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, backend.hitCount(constants.APITables))

	_, ok := store.CachedTable("t1")
	assert.False(t, ok)
}
