package records

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cochinpm/client/internal/httpclient"
	"github.com/cochinpm/client/internal/tablestore"
	"github.com/cochinpm/client/pkg/constants"
	"github.com/cochinpm/client/pkg/models"
)

// fakeRecordsBackend captures request bodies and serves canned records
type fakeRecordsBackend struct {
	mu          sync.Mutex
	lastQuery   url.Values
	lastPayload map[string]interface{}
	byTable     map[string][]models.Record
}

func startRecordsBackend(t *testing.T, backend *fakeRecordsBackend) *httptest.Server {
	t.Helper()
	if backend.byTable == nil {
		backend.byTable = make(map[string][]models.Record)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(constants.APIAuthCSRF, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: constants.CookieCSRF, Value: "csrf-rc", Path: "/"})
		json.NewEncoder(w).Encode(models.CSRFResponse{CSRFToken: "csrf-rc"})
	})
	mux.HandleFunc(constants.APIRecordsByTable, func(w http.ResponseWriter, r *http.Request) {
		backend.mu.Lock()
		backend.lastQuery = r.URL.Query()
		records := backend.byTable[r.URL.Query().Get("table_id")]
		backend.mu.Unlock()
		if records == nil {
			records = []models.Record{}
		}
		json.NewEncoder(w).Encode(records)
	})
	mux.HandleFunc(constants.APIRecordCreateWithValues, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)
		backend.mu.Lock()
		backend.lastPayload = payload
		backend.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Record{"id": "r-new"})
	})
	mux.HandleFunc("/api/database/records/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(models.Record{"id": "r1", "nom": "Alpha"})
		case http.MethodPatch:
			var payload map[string]interface{}
			json.NewDecoder(r.Body).Decode(&payload)
			backend.mu.Lock()
			backend.lastPayload = payload
			backend.mu.Unlock()
			json.NewEncoder(w).Encode(models.Record{"id": "r1"})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestCoordinator(t *testing.T, server *httptest.Server) (*Coordinator, *httpclient.Client) {
	t.Helper()
	client := httpclient.New(server.URL, nil)
	tables := tablestore.NewStore(client)
	return NewCoordinator(client, tables), client
}

func TestFetchRecordsEncodesFilters(t *testing.T) {
	backend := &fakeRecordsBackend{}
	server := startRecordsBackend(t, backend)
	coord, _ := newTestCoordinator(t, server)

	_, err := coord.FetchRecords(context.Background(), "t1", map[string]string{
		"statut": "Actif",
		"annee":  "2024",
		"vide":   "",
	})
	require.NoError(t, err)

	backend.mu.Lock()
	query := backend.lastQuery
	backend.mu.Unlock()
	assert.Equal(t, "t1", query.Get("table_id"))
	assert.Equal(t, "Actif", query.Get("field_statut"))
	assert.Equal(t, "2024", query.Get("field_annee"))
	_, present := query["field_vide"]
	assert.False(t, present, "empty filter values are omitted")
}

func TestCreateRecordSendsNormalisedValues(t *testing.T) {
	backend := &fakeRecordsBackend{}
	server := startRecordsBackend(t, backend)
	coord, client := newTestCoordinator(t, server)
	require.NoError(t, client.Get(context.Background(), constants.APIAuthCSRF, nil))

	created, err := coord.CreateRecord(context.Background(), "t1", map[string]interface{}{
		"nom":        "Alpha",
		"actif":      true,
		"archive":    false,
		"montant":    12.5,
		"vide":       "",
		"rien":       nil,
		"id":         "injected",
		"created_at": "2024-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "r-new", created.ID())

	backend.mu.Lock()
	payload := backend.lastPayload
	backend.mu.Unlock()
	assert.Equal(t, "t1", payload["table_id"])
	values, ok := payload["values"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"nom":     "Alpha",
		"actif":   "true",
		"archive": "false",
		"montant": "12.5",
	}, values)
}

func TestUpdateRecordSendsValuesOnly(t *testing.T) {
	backend := &fakeRecordsBackend{}
	server := startRecordsBackend(t, backend)
	coord, client := newTestCoordinator(t, server)
	require.NoError(t, client.Get(context.Background(), constants.APIAuthCSRF, nil))

	_, err := coord.UpdateRecord(context.Background(), "r1", map[string]interface{}{"nom": "Beta"})
	require.NoError(t, err)

	backend.mu.Lock()
	payload := backend.lastPayload
	backend.mu.Unlock()
	_, hasTableID := payload["table_id"]
	assert.False(t, hasTableID, "updates address the record, not the table")
	assert.Equal(t, map[string]interface{}{"nom": "Beta"}, payload["values"])
}

func TestDeleteRecord(t *testing.T) {
	backend := &fakeRecordsBackend{}
	server := startRecordsBackend(t, backend)
	coord, client := newTestCoordinator(t, server)
	require.NoError(t, client.Get(context.Background(), constants.APIAuthCSRF, nil))

	assert.NoError(t, coord.DeleteRecord(context.Background(), "r1"))
}

func TestNormalizeValues(t *testing.T) {
	out := NormalizeValues(map[string]interface{}{
		"nom":        "Alpha",
		"actif":      true,
		"archive":    false,
		"montant":    3.0,
		"vide":       "",
		"rien":       nil,
		"id":         "x",
		"created_at": "x",
		"updated_at": "x",
	})
	assert.Equal(t, map[string]string{
		"nom":     "Alpha",
		"actif":   "true",
		"archive": "false",
		"montant": "3",
	}, out)
}
