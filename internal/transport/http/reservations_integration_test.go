package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/21f3002068/Park-Ease/internal/app"
	"github.com/21f3002068/Park-Ease/internal/clock"
	"github.com/21f3002068/Park-Ease/internal/domain"
	"github.com/21f3002068/Park-Ease/internal/storage/postgres"
	"github.com/21f3002068/Park-Ease/internal/testutil"
)

// TestReservationFlow_HTTPIntegration walks a booking through its whole
// life against a real database: book, check in, check out, and verify
// the freed spot is handed to the waiting pending reservation.
func TestReservationFlow_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	arrival := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	clk := clock.NewManual(arrival.Add(-time.Hour))

	bookingSvc := app.NewBookingService(postgres.NewBookingRepository(pool), postgres.NewAccountRepository(pool), clk, nil)
	lifecycleSvc := app.NewLifecycleService(postgres.NewLifecycleRepository(pool), clk, nil)
	registrySvc := app.NewRegistryService(postgres.NewRegistryRepository(pool), clk, nil)

	handler := NewRouter(RouterConfig{
		Booker:     bookingSvc,
		Lifecycle:  lifecycleSvc,
		Registry:   registrySvc,
		AdminToken: "secret",
	})

	userID, vehicleID := testutil.InsertUserAndVehicle(t, ctx, pool, "driver@example.com", "KA-01-0042")
	lotID, spotIDs := testutil.InsertLotAndSpots(t, ctx, pool, "Central", 1)

	do := func(method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
		t.Helper()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var decoded map[string]any
		if rec.Body.Len() > 0 {
			_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
		}
		return rec, decoded
	}

	bookBody := `{"lot_id":"` + lotID + `","user_id":"` + userID + `","vehicle_id":"` + vehicleID +
		`","from":"2025-03-10T10:00:00Z","to":"2025-03-10T12:00:00Z"}`

	// First booking takes the only spot.
	rec, first := do(http.MethodPost, "/reservations", bookBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("book: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if first["status"] != "confirmed" {
		t.Fatalf("expected confirmed, got %v", first["status"])
	}
	if first["spot_id"] != spotIDs[0] {
		t.Fatalf("expected spot %s, got %v", spotIDs[0], first["spot_id"])
	}
	firstID, _ := first["id"].(string)

	// Second identical window queues as pending.
	rec, second := do(http.MethodPost, "/reservations", bookBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second book: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if second["status"] != "pending" {
		t.Fatalf("expected pending, got %v", second["status"])
	}
	if _, assigned := second["spot_id"]; assigned {
		t.Fatalf("pending booking has a spot: %v", second["spot_id"])
	}
	secondID, _ := second["id"].(string)

	// Arriving five minutes late is within tolerance.
	clk.Set(arrival.Add(5 * time.Minute))
	rec, checkin := do(http.MethodPost, "/reservations/"+firstID+"/checkin", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("checkin: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if checkin["rejected"] != false {
		t.Fatalf("expected rejected=false, got %v", checkin["rejected"])
	}

	var spotStatus string
	if err := pool.QueryRow(ctx, `SELECT status FROM spots WHERE id = $1`, spotIDs[0]).Scan(&spotStatus); err != nil {
		t.Fatalf("query spot: %v", err)
	}
	if spotStatus != string(domain.SpotOccupied) {
		t.Fatalf("expected occupied spot, got %s", spotStatus)
	}

	// Ninety minutes of parking bills one and a half hours.
	clk.Set(arrival.Add(5*time.Minute + 90*time.Minute))
	rec, checkout := do(http.MethodPost, "/reservations/"+firstID+"/checkout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if checkout["status"] != "parked_out" {
		t.Fatalf("expected parked_out, got %v", checkout["status"])
	}
	if cost, _ := checkout["cost_cents"].(float64); int64(cost) != 15000 {
		t.Fatalf("expected cost 15000, got %v", checkout["cost_cents"])
	}

	// The freed spot goes to the waiting reservation.
	rec, promoted := do(http.MethodGet, "/reservations/"+secondID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get promoted: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if promoted["status"] != "confirmed" {
		t.Fatalf("expected promoted reservation confirmed, got %v", promoted["status"])
	}
	if promoted["spot_id"] != spotIDs[0] {
		t.Fatalf("expected promoted onto spot %s, got %v", spotIDs[0], promoted["spot_id"])
	}

	// Settled reservations can be purged.
	rec, _ = do(http.MethodDelete, "/reservations/"+firstID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestNoShow_HTTPIntegration books, misses the tolerance window and
// verifies the rejection plus the recorded reason.
func TestNoShow_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	arrival := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	clk := clock.NewManual(arrival.Add(-time.Hour))

	bookingSvc := app.NewBookingService(postgres.NewBookingRepository(pool), postgres.NewAccountRepository(pool), clk, nil)
	lifecycleSvc := app.NewLifecycleService(postgres.NewLifecycleRepository(pool), clk, nil)

	handler := NewRouter(RouterConfig{
		Booker:    bookingSvc,
		Lifecycle: lifecycleSvc,
		Registry:  &fakeRegistry{},
	})

	userID, vehicleID := testutil.InsertUserAndVehicle(t, ctx, pool, "late@example.com", "KA-01-0099")
	lotID, spotIDs := testutil.InsertLotAndSpots(t, ctx, pool, "Central", 1)

	body := `{"lot_id":"` + lotID + `","user_id":"` + userID + `","vehicle_id":"` + vehicleID +
		`","from":"2025-03-10T10:00:00Z","to":"2025-03-10T12:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("book: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var booked map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &booked); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resID, _ := booked["id"].(string)

	clk.Set(arrival.Add(25 * time.Minute))
	req = httptest.NewRequest(http.MethodPost, "/reservations/"+resID+"/checkin", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("checkin: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Reservation reservationResponse `json:"reservation"`
		Rejected    bool                `json:"rejected"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Rejected || result.Reservation.Status != "rejected" {
		t.Fatalf("expected rejection, got %+v", result)
	}
	if result.Reservation.Reason == nil || *result.Reservation.Reason != "Showed up too late." {
		t.Fatalf("unexpected reason: %v", result.Reservation.Reason)
	}

	var spotStatus string
	if err := pool.QueryRow(ctx, `SELECT status FROM spots WHERE id = $1`, spotIDs[0]).Scan(&spotStatus); err != nil {
		t.Fatalf("query spot: %v", err)
	}
	if spotStatus != string(domain.SpotAvailable) {
		t.Fatalf("expected freed spot, got %s", spotStatus)
	}
}
