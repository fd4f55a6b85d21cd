package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/21f3002068/Park-Ease/internal/domain"
	"github.com/21f3002068/Park-Ease/internal/events"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. It
// satisfies BookingRepository, LifecycleRepository, RegistryRepository and
// AccountStore so the services can be exercised against one shared state.
type fakeStore struct {
	mu           sync.Mutex
	lots         map[string]domain.Lot
	spots        map[string]domain.Spot
	reservations map[string]domain.Reservation
	resOrder     []string
	users        map[string]domain.User
	vehicles     map[string]domain.Vehicle

	// codeCollisions makes the next N CreateReservation calls fail as if
	// the booking code hit the unique constraint.
	codeCollisions int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lots:         make(map[string]domain.Lot),
		spots:        make(map[string]domain.Spot),
		reservations: make(map[string]domain.Reservation),
		users:        make(map[string]domain.User),
		vehicles:     make(map[string]domain.Vehicle),
	}
}

func (f *fakeStore) addLot(lot domain.Lot) {
	f.lots[lot.ID] = lot
}

func (f *fakeStore) addSpot(spot domain.Spot) {
	f.spots[spot.ID] = spot
}

func (f *fakeStore) addReservation(r domain.Reservation) {
	f.reservations[r.ID] = r
	f.resOrder = append(f.resOrder, r.ID)
}

func (f *fakeStore) addUserWithVehicle(userID, vehicleID string) {
	f.users[userID] = domain.User{ID: userID, Email: userID + "@example.com"}
	f.vehicles[vehicleID] = domain.Vehicle{ID: vehicleID, UserID: userID, Plate: "KA-01-" + vehicleID}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeStore) GetLot(_ context.Context, lotID string) (domain.Lot, error) {
	lot, ok := f.lots[lotID]
	if !ok {
		return domain.Lot{}, domain.ErrLotNotFound
	}
	return lot, nil
}

func (f *fakeStore) GetLotForUpdate(ctx context.Context, lotID string) (domain.Lot, error) {
	return f.GetLot(ctx, lotID)
}

func (f *fakeStore) ListLots(_ context.Context) ([]domain.Lot, error) {
	out := make([]domain.Lot, 0, len(f.lots))
	for _, lot := range f.lots {
		out = append(out, lot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) CreateLot(_ context.Context, lot domain.Lot) error {
	f.lots[lot.ID] = lot
	return nil
}

func (f *fakeStore) SetLotActive(_ context.Context, id string, active bool) error {
	lot, ok := f.lots[id]
	if !ok {
		return domain.ErrLotNotFound
	}
	lot.Active = active
	f.lots[id] = lot
	return nil
}

func (f *fakeStore) DeleteLot(_ context.Context, id string) error {
	if _, ok := f.lots[id]; !ok {
		return domain.ErrLotNotFound
	}
	delete(f.lots, id)
	for spotID, spot := range f.spots {
		if spot.LotID == id {
			delete(f.spots, spotID)
		}
	}
	return nil
}

func (f *fakeStore) CreateSpots(_ context.Context, spots []domain.Spot) error {
	for _, s := range spots {
		f.spots[s.ID] = s
	}
	return nil
}

func (f *fakeStore) listSpots(lotID string, statuses []domain.SpotStatus) []domain.Spot {
	var out []domain.Spot
	for _, s := range f.spots {
		if s.LotID != lotID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, st := range statuses {
				if s.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (f *fakeStore) ListSpotsForUpdate(_ context.Context, lotID string, statuses []domain.SpotStatus) ([]domain.Spot, error) {
	return f.listSpots(lotID, statuses), nil
}

func (f *fakeStore) ListSpotsByLot(_ context.Context, lotID string, statuses []domain.SpotStatus) ([]domain.Spot, error) {
	return f.listSpots(lotID, statuses), nil
}

func (f *fakeStore) GetSpotForUpdate(_ context.Context, spotID string) (domain.Spot, error) {
	spot, ok := f.spots[spotID]
	if !ok {
		return domain.Spot{}, domain.ErrSpotNotFound
	}
	return spot, nil
}

func (f *fakeStore) SetSpotStatus(_ context.Context, spotID string, status domain.SpotStatus) error {
	spot, ok := f.spots[spotID]
	if !ok {
		return domain.ErrSpotNotFound
	}
	spot.Status = status
	f.spots[spotID] = spot
	return nil
}

func (f *fakeStore) CountUsableSpots(_ context.Context, lotID string) (int, error) {
	n := 0
	for _, s := range f.spots {
		if s.LotID == lotID && s.Status != domain.SpotDisabled {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) HasConflict(_ context.Context, spotID string, w domain.Window) (bool, error) {
	for _, r := range f.reservations {
		if r.SpotID == nil || *r.SpotID != spotID {
			continue
		}
		if r.Status.Terminal() {
			continue
		}
		if r.Window().Overlaps(w) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateReservation(_ context.Context, r domain.Reservation) error {
	if f.codeCollisions > 0 {
		f.codeCollisions--
		return domain.ErrBookingCodeTaken
	}
	for _, existing := range f.reservations {
		if existing.Code == r.Code {
			return domain.ErrBookingCodeTaken
		}
	}
	f.reservations[r.ID] = r
	f.resOrder = append(f.resOrder, r.ID)
	return nil
}

func (f *fakeStore) GetReservation(_ context.Context, id string) (domain.Reservation, error) {
	r, ok := f.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return r, nil
}

func (f *fakeStore) GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error) {
	return f.GetReservation(ctx, id)
}

func (f *fakeStore) GetReservationByCode(_ context.Context, code string) (domain.Reservation, error) {
	for _, r := range f.reservations {
		if r.Code == code {
			return r, nil
		}
	}
	return domain.Reservation{}, domain.ErrReservationNotFound
}

func (f *fakeStore) UpdateReservation(_ context.Context, r domain.Reservation) error {
	if _, ok := f.reservations[r.ID]; !ok {
		return domain.ErrReservationNotFound
	}
	f.reservations[r.ID] = r
	return nil
}

func (f *fakeStore) DeleteReservation(_ context.Context, id string) error {
	if _, ok := f.reservations[id]; !ok {
		return domain.ErrReservationNotFound
	}
	delete(f.reservations, id)
	return nil
}

func (f *fakeStore) ListReservationsByUser(_ context.Context, userID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, id := range f.resOrder {
		r, ok := f.reservations[id]
		if ok && r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListPendingByLot returns unassigned pending reservations ordered by
// expected arrival, then creation order.
func (f *fakeStore) ListPendingByLot(_ context.Context, lotID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, id := range f.resOrder {
		r, ok := f.reservations[id]
		if !ok {
			continue
		}
		if r.LotID == lotID && r.Status == domain.StatusPending && r.SpotID == nil {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpectedArrival.Before(out[j].ExpectedArrival)
	})
	return out, nil
}

func (f *fakeStore) ListActiveBySpot(_ context.Context, spotID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, id := range f.resOrder {
		r, ok := f.reservations[id]
		if !ok {
			continue
		}
		if r.SpotID != nil && *r.SpotID == spotID && !r.Status.Terminal() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) CountActiveReservations(_ context.Context, lotID string) (int, error) {
	n := 0
	for _, r := range f.reservations {
		if r.LotID == lotID && !r.Status.Terminal() {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) GetVehicle(_ context.Context, id string) (domain.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return domain.Vehicle{}, domain.ErrVehicleNotOwned
	}
	return v, nil
}

func (f *fakeStore) VehicleBelongsToUser(_ context.Context, vehicleID, userID string) (bool, error) {
	v, ok := f.vehicles[vehicleID]
	return ok && v.UserID == userID, nil
}

// testArrival is the expected arrival used across the service tests:
// well inside the fixture lot's 06:00-22:00 UTC hours.
var testArrival = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func testLot(id string) domain.Lot {
	opens, _ := domain.ParseTimeOfDay("06:00")
	closes, _ := domain.ParseTimeOfDay("22:00")
	return domain.Lot{
		ID:         id,
		Name:       "Lot " + id,
		PriceCents: 10000,
		Capacity:   3,
		OpensAt:    opens,
		ClosesAt:   closes,
		Timezone:   "UTC",
		Active:     true,
		CreatedAt:  testArrival.Add(-24 * time.Hour),
	}
}

func strPtr(s string) *string { return &s }

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ReservationEvent
	fail   bool
}

func (p *recordingPublisher) PublishReservation(ev events.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	if p.fail {
		return errors.New("broker unavailable")
	}
	return nil
}

func (p *recordingPublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Status)
	}
	return out
}
