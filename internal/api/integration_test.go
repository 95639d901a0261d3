package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"guesthouse/internal/config"
	"guesthouse/internal/database"
	"guesthouse/internal/models"
	"guesthouse/internal/report"
	"guesthouse/internal/repository"
	"guesthouse/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Integration-style test: the HTTP API over the SQLite store, including the
// reports and the workbook export.
func TestSQLiteBookingFunnel(t *testing.T) {
	db := newIntegrationDB(t)
	ctx := context.Background()

	rooms := models.FallbackRooms()
	catalog := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		catalog = append(catalog, *r)
	}
	require.NoError(t, db.SyncRooms(ctx, catalog))

	store := repository.NewFailoverStore(db, repository.NewMemoryStore(), 0, nopLogger())
	bookings := service.NewBookingService(store, nil, nil, config.BookingConfig{LockedInsert: true}, nopLogger())
	payments := service.NewPaymentService(store, nil, nil, nopLogger())

	cfg := openConfig()
	srv := NewHTTPServer(&cfg, HTTPDeps{
		Bookings: bookings,
		Payments: payments,
		Reports:  db,
		Exporter: report.NewExcelExporter(db, t.TempDir(), nopLogger()),
		Rooms:    service.NewRoomService(db, nil, nopLogger()),
		Mode:     store,
	}, nopLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	env := &testEnv{ts: ts}

	b := env.createBooking(t, "3", futureDate(60), futureDate(62))
	assert.Equal(t, int64(12600), b.TotalAmount)
	assert.Equal(t, int64(6300), b.DepositAmount)

	resp, _ := env.do(t, http.MethodPost, "/api/v1/bookings", bookingPayload("3", futureDate(61), futureDate(63)), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, data := env.do(t, http.MethodPost, "/api/v1/bookings/"+b.ID+"/payments", map[string]any{
		"amount": 6300, "payment_type": "deposit", "payment_method": "bank_transfer",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	stored, err := db.FindBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusDepositPaid, stored.PaymentStatus)
	assert.True(t, stored.DepositPaid)

	t.Run("Report", func(t *testing.T) {
		resp, data := env.do(t, http.MethodGet, "/api/v1/admin/reports/revenue", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

		var body struct {
			Report string              `json:"report"`
			Data   models.RevenueTotal `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, "revenue", body.Report)
		assert.Equal(t, int64(6300), body.Data.Total)
		assert.Equal(t, int64(1), body.Data.Payments)

		resp, _ = env.do(t, http.MethodGet, "/api/v1/admin/reports/occupancy", nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Export", func(t *testing.T) {
		res, err := http.Get(ts.URL + "/api/v1/admin/export")
		require.NoError(t, err)
		defer res.Body.Close()

		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.True(t, strings.HasPrefix(res.Header.Get("Content-Disposition"), "attachment;"))

		f, err := excelize.OpenReader(res.Body)
		require.NoError(t, err)
		defer f.Close()

		v, err := f.GetCellValue(report.SheetBookings, "A2")
		require.NoError(t, err)
		assert.Equal(t, b.ID, v)
	})

	t.Run("AdminRooms", func(t *testing.T) {
		resp, data := env.do(t, http.MethodPut, "/api/v1/admin/rooms/4", map[string]any{
			"name": "Garden Cottage", "capacity": 4, "bb": 4000, "full_board": 6000, "amenities": []string{"Garden"},
		}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

		resp, data = env.do(t, http.MethodGet, "/api/v1/rooms/4", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var room models.Room
		require.NoError(t, json.Unmarshal(data, &room))
		assert.Equal(t, "Garden Cottage", room.Name)
		assert.Equal(t, int64(6000), room.FullBoard)

		resp, _ = env.do(t, http.MethodPut, "/api/v1/admin/rooms/5", map[string]any{"name": "", "capacity": 0}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		// room 3 still holds the pending booking
		resp, _ = env.do(t, http.MethodDelete, "/api/v1/admin/rooms/3", nil, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		resp, _ = env.do(t, http.MethodDelete, "/api/v1/admin/rooms/4", nil, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = env.do(t, http.MethodDelete, "/api/v1/admin/rooms/4", nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Readiness", func(t *testing.T) {
		resp, data := env.do(t, http.MethodGet, "/readyz", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(data), `"mode":"live"`)
	})
}

func newIntegrationDB(t *testing.T) *database.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "integration.db")
	db, err := database.NewDB(path, nopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
