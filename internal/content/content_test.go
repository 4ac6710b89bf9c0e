package content

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/database"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

const remoteServices = `[{"id": 7, "name": "HELADERAS", "icon": "🧊", "items": ["Carga de gas"], "price": 30000}]`
const remotePrices = `[{"id": 3, "service": "Carga de gas", "price": 30000, "time": "2hs"}]`

func testDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func remoteServer(t *testing.T, services, prices http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/data/services.json", services)
	mux.HandleFunc("/data/prices.json", prices)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func serve(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func fail(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

func TestLoader_Load(t *testing.T) {
	var stamps []string
	srv := remoteServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			stamps = append(stamps, r.URL.Query().Get("t"))
			serve(remoteServices)(w, r)
		},
		serve(remotePrices),
	)

	loader := &Loader{
		BaseURL: srv.URL + "/data/",
		now:     func() time.Time { return time.UnixMilli(1700000000123) },
	}
	services, prices, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, services, 1)
	assert.Equal(t, "HELADERAS", services[0].Name)
	assert.Len(t, prices, 1)
	assert.Equal(t, []string{"1700000000123"}, stamps)
}

func TestLoader_OneDocumentFailsBothFail(t *testing.T) {
	srv := remoteServer(t, serve(remoteServices), fail(http.StatusNotFound))

	loader := &Loader{BaseURL: srv.URL + "/data"}
	services, prices, err := loader.Load(context.Background())

	require.Error(t, err)
	assert.Nil(t, services)
	assert.Nil(t, prices)
}

func TestLoader_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := remoteServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			serve(remoteServices)(w, r)
		},
		serve(remotePrices),
	)

	loader := &Loader{BaseURL: srv.URL + "/data", Retries: 2, Backoff: time.Millisecond}
	_, _, err := loader.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLoader_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := remoteServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusForbidden)
		},
		serve(remotePrices),
	)

	loader := &Loader{BaseURL: srv.URL + "/data", Retries: 3, Backoff: time.Millisecond}
	_, _, err := loader.Load(context.Background())

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoader_StalledRequestTimesOut(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	srv := remoteServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		},
		serve(remotePrices),
	)

	loader := &Loader{BaseURL: srv.URL + "/data", Timeout: 50 * time.Millisecond}
	start := time.Now()
	_, _, err := loader.Load(context.Background())

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLoader_MalformedDocument(t *testing.T) {
	srv := remoteServer(t, serve(`{"not": "an array"}`), serve(remotePrices))

	loader := &Loader{BaseURL: srv.URL + "/data"}
	_, _, err := loader.Load(context.Background())
	require.Error(t, err)
}

func TestStore_Hydrate(t *testing.T) {
	t.Run("remote wins", func(t *testing.T) {
		// given
		db := testDB(t)
		srv := remoteServer(t, serve(remoteServices), serve(remotePrices))
		store := NewStore(db)

		// when
		source, err := store.Hydrate(context.Background(), &Loader{BaseURL: srv.URL + "/data"})

		// then
		require.NoError(t, err)
		assert.Equal(t, SourceRemote, source)
		assert.Equal(t, 7, store.Services()[0].ID)
		assert.Equal(t, SourceRemote, store.Source())
	})

	t.Run("one remote document fails, both fall back together", func(t *testing.T) {
		// given
		db := testDB(t)
		srv := remoteServer(t, serve(remoteServices), fail(http.StatusInternalServerError))
		store := NewStore(db)

		// when
		source, err := store.Hydrate(context.Background(), &Loader{BaseURL: srv.URL + "/data"})

		// then
		require.NoError(t, err)
		assert.Equal(t, SourceFallback, source)
		fallbackServices, fallbackPrices, err := LoadFallback()
		require.NoError(t, err)
		assert.Equal(t, fallbackServices, store.Services())
		assert.Equal(t, fallbackPrices, store.Prices())
	})

	t.Run("snapshot used when remote unavailable", func(t *testing.T) {
		// given
		db := testDB(t)
		first := NewStore(db)
		_, err := first.Hydrate(context.Background(), nil)
		require.NoError(t, err)
		_, err = first.AddService(models.ServiceInput{Name: "hornos", Icon: "🔥", Items: "Resistencia", Price: "9000"})
		require.NoError(t, err)

		// when
		second := NewStore(db)
		source, err := second.Hydrate(context.Background(), &Loader{BaseURL: "http://127.0.0.1:1/data", Timeout: time.Second})

		// then
		require.NoError(t, err)
		assert.Equal(t, SourceSnapshot, source)
		assert.Equal(t, first.Services(), second.Services())
	})

	t.Run("partial snapshot is ignored", func(t *testing.T) {
		// given
		db := testDB(t)
		require.NoError(t, models.SetValue(db, models.KeyServicesCatalog, remoteServices))

		// when
		source, err := NewStore(db).Hydrate(context.Background(), nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, SourceFallback, source)
	})
}

func TestStore_ServiceMutations(t *testing.T) {
	db := testDB(t)
	store := NewStore(db)
	_, err := store.Hydrate(context.Background(), nil)
	require.NoError(t, err)

	created, err := store.AddService(models.ServiceInput{Name: "lavarropas", Icon: "🧺", Items: "Bomba\nMotor", Price: "18000"})
	require.NoError(t, err)
	assert.Equal(t, 3, created.ID)
	assert.Equal(t, "LAVARROPAS", created.Name)

	updated, err := store.UpdateService(created.ID, models.ServiceInput{Name: "Lavarropas", Icon: "🧺", Items: "Bomba", Price: "20000"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	services := store.Services()
	require.Len(t, services, 3)
	assert.Equal(t, created.ID, services[2].ID, "update keeps position")
	assert.Equal(t, 20000, services[2].Price)

	_, err = store.UpdateService(99, models.ServiceInput{Name: "x", Icon: "x", Items: "x", Price: "1"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	removed, err := store.DeleteService(1)
	require.NoError(t, err)
	assert.True(t, removed)
	ids := []int{}
	for _, s := range store.Services() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []int{2, 3}, ids)

	removed, err = store.DeleteService(1)
	require.NoError(t, err)
	assert.False(t, removed)

	raw, err := models.GetValue(db, models.KeyServicesCatalog)
	require.NoError(t, err)
	assert.Contains(t, raw, `"LAVARROPAS"`)
	assert.NotContains(t, raw, `"TELEVISORES"`)
}

func TestStore_PriceMutations(t *testing.T) {
	db := testDB(t)
	store := NewStore(db)
	_, err := store.Hydrate(context.Background(), nil)
	require.NoError(t, err)

	p, err := store.AddPrice(models.PriceInput{Service: "Cambio de display", Price: "18000", Time: "2-3"})
	require.NoError(t, err)
	assert.Equal(t, 5, p.ID)
	assert.Equal(t, "2-3hs", p.Time)

	_, err = store.AddPrice(models.PriceInput{Service: "", Price: "1", Time: "1"})
	assert.ErrorIs(t, err, models.ErrMissingFields)
	assert.Len(t, store.Prices(), 5, "rejected input leaves the list unchanged")

	removed, err := store.DeletePrice(2)
	require.NoError(t, err)
	assert.True(t, removed)
	prices := store.Prices()
	assert.Equal(t, []int{1, 3, 4, 5}, []int{prices[0].ID, prices[1].ID, prices[2].ID, prices[3].ID})
}

func TestStore_ReadersGetCopies(t *testing.T) {
	store := NewStore(testDB(t))
	_, err := store.Hydrate(context.Background(), nil)
	require.NoError(t, err)

	services := store.Services()
	services[0].Items[0] = "mutated"
	services[0].Name = "mutated"

	fresh := store.Services()
	assert.NotEqual(t, "mutated", fresh[0].Name)
	assert.NotEqual(t, "mutated", fresh[0].Items[0])
}

func TestStore_SaveFailureKeepsState(t *testing.T) {
	db := testDB(t)
	store := NewStore(db)
	_, err := store.Hydrate(context.Background(), nil)
	require.NoError(t, err)
	before := store.Services()

	db.Close()
	_, err = store.AddService(models.ServiceInput{Name: "x", Icon: "x", Items: "x", Price: "1"})

	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrMissingFields))
	assert.Equal(t, before, store.Services())
}
