package bookings

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"ticketly/internal/reservations"
	"ticketly/internal/seats"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHoldSource struct {
	mu        sync.Mutex
	holds     map[string]*reservations.Hold
	getErr    error
	discarded []string
}

func newFakeHoldSource() *fakeHoldSource {
	return &fakeHoldSource{holds: make(map[string]*reservations.Hold)}
}

func (f *fakeHoldSource) GetHold(ctx context.Context, token string) (*reservations.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	hold, ok := f.holds[token]
	if !ok {
		return nil, reservations.ErrReservationNotFound
	}
	copied := *hold
	return &copied, nil
}

func (f *fakeHoldSource) Discard(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.holds, token)
	f.discarded = append(f.discarded, token)
	return nil
}

type fakeSeatStore struct {
	mu    sync.Mutex
	seats map[uuid.UUID]*seats.Seat
}

func newFakeSeatStore() *fakeSeatStore {
	return &fakeSeatStore{seats: make(map[uuid.UUID]*seats.Seat)}
}

func (f *fakeSeatStore) addReserved(eventID uuid.UUID, row, number string, price float64, token string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	t := token
	f.seats[id] = &seats.Seat{
		ID:               id,
		EventID:          eventID,
		Row:              row,
		SeatNumber:       number,
		Section:          "ORCHESTRA",
		Price:            price,
		Status:           seats.StatusReserved,
		ReservationToken: &t,
	}
	return id
}

func (f *fakeSeatStore) CreateSeats(ctx context.Context, rows []seats.Seat) error { return nil }

func (f *fakeSeatStore) GetSeatByID(ctx context.Context, id uuid.UUID) (*seats.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seat, ok := f.seats[id]
	if !ok {
		return nil, seats.ErrSeatNotFound
	}
	copied := *seat
	return &copied, nil
}

func (f *fakeSeatStore) GetSeatsByIDs(ctx context.Context, seatIDs []uuid.UUID) ([]seats.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []seats.Seat
	for _, id := range seatIDs {
		if seat, ok := f.seats[id]; ok {
			result = append(result, *seat)
		}
	}
	return result, nil
}

func (f *fakeSeatStore) GetSeatsByEventID(ctx context.Context, eventID uuid.UUID) ([]seats.Seat, error) {
	return nil, nil
}

func (f *fakeSeatStore) GetSeatsByToken(ctx context.Context, token string) ([]seats.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []seats.Seat
	for _, seat := range f.seats {
		if seat.ReservationToken != nil && *seat.ReservationToken == token {
			result = append(result, *seat)
		}
	}
	return result, nil
}

func (f *fakeSeatStore) ReserveSeats(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID, token string) ([]seats.Seat, error) {
	return nil, nil
}

func (f *fakeSeatStore) ReleaseSeats(ctx context.Context, token string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var released int64
	for _, seat := range f.seats {
		if seat.ReservationToken != nil && *seat.ReservationToken == token && seat.Status == seats.StatusReserved {
			seat.Status = seats.StatusAvailable
			seat.ReservationToken = nil
			released++
		}
	}
	return released, nil
}

func (f *fakeSeatStore) FindReservedTokens(ctx context.Context) ([]string, error) { return nil, nil }

// fakeRepository finalizes against the fake seat store the way the Postgres
// repository does: count the RESERVED rows under the token, flip them, and
// fail on a shortfall.
type fakeRepository struct {
	mu       sync.Mutex
	store    *fakeSeatStore
	bookings map[uuid.UUID]*Booking
}

func newFakeRepository(store *fakeSeatStore) *fakeRepository {
	return &fakeRepository{store: store, bookings: make(map[uuid.UUID]*Booking)}
}

func (f *fakeRepository) CreateWithSeats(ctx context.Context, booking *Booking, token string, expectedSeats int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	var flipped []*seats.Seat
	for _, seat := range f.store.seats {
		if seat.ReservationToken != nil && *seat.ReservationToken == token && seat.Status == seats.StatusReserved {
			flipped = append(flipped, seat)
		}
	}
	if len(flipped) != expectedSeats {
		return ErrSeatsNotHeld
	}
	for _, seat := range flipped {
		seat.Status = seats.StatusBooked
	}

	copied := *booking
	copied.CreatedAt = time.Now()
	f.bookings[booking.ID] = &copied
	return nil
}

func (f *fakeRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeRepository) GetBookingByRef(ctx context.Context, ref string) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, booking := range f.bookings {
		if booking.BookingRef == ref {
			copied := *booking
			return &copied, nil
		}
	}
	return nil, ErrBookingNotFound
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*Booking
}

func (f *fakePublisher) PublishBookingConfirmed(ctx context.Context, booking *Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, booking)
	return nil
}

type bookingFixture struct {
	holds     *fakeHoldSource
	store     *fakeSeatStore
	repo      *fakeRepository
	publisher *fakePublisher
	service   Service
	token     string
	eventID   uuid.UUID
	seatIDs   []uuid.UUID
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	holds := newFakeHoldSource()
	store := newFakeSeatStore()
	repo := newFakeRepository(store)
	publisher := &fakePublisher{}

	eventID := uuid.New()
	token := uuid.New().String()
	seatIDs := []uuid.UUID{
		store.addReserved(eventID, "A", "1", 100, token),
		store.addReserved(eventID, "A", "2", 100, token),
	}

	now := time.Now()
	holds.holds[token] = &reservations.Hold{
		Token:       token,
		EventID:     eventID,
		SeatIDs:     []string{seatIDs[0].String(), seatIDs[1].String()},
		TotalAmount: 200,
		CreatedAt:   now,
		ExpiresAt:   now.Add(10 * time.Minute),
	}

	return &bookingFixture{
		holds:     holds,
		store:     store,
		repo:      repo,
		publisher: publisher,
		service:   NewService(repo, holds, store, publisher, nil),
		token:     token,
		eventID:   eventID,
		seatIDs:   seatIDs,
	}
}

func confirmRequest(token string, amount float64) ConfirmRequest {
	return ConfirmRequest{
		ReservationToken: token,
		Customer: CustomerInput{
			Name:  "Dana Whitfield",
			Email: "dana@example.com",
			Phone: "+15550100",
		},
		Payment: PaymentInput{
			Method:        "card",
			TransactionID: uuid.New().String(),
			Amount:        amount,
		},
	}
}

func TestConfirmSuccess(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	booking, err := fx.service.Confirm(ctx, confirmRequest(fx.token, 200))
	require.NoError(t, err)
	require.NotNil(t, booking)

	assert.Regexp(t, regexp.MustCompile(`^TKT-\d{8}-[A-HJ-NP-Z2-9]{6}$`), booking.BookingRef)
	assert.Equal(t, "CONFIRMED", booking.Status)
	assert.Equal(t, 2, booking.TotalSeats)
	assert.Equal(t, 200.0, booking.TotalAmount)
	assert.Equal(t, fx.eventID.String(), booking.EventID)
	assert.Len(t, booking.Seats, 2)

	// Seats are durable now
	for _, id := range fx.seatIDs {
		seat, err := fx.store.GetSeatByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, seats.StatusBooked, seat.Status)
	}

	// Hold discarded and notification published
	assert.Equal(t, []string{fx.token}, fx.holds.discarded)
	require.Len(t, fx.publisher.published, 1)
	assert.Equal(t, booking.BookingRef, fx.publisher.published[0].BookingRef)
}

func TestConfirmUnknownToken(t *testing.T) {
	fx := newBookingFixture(t)

	_, err := fx.service.Confirm(context.Background(), confirmRequest(uuid.New().String(), 200))
	assert.ErrorIs(t, err, reservations.ErrReservationNotFound)
}

func TestConfirmExpiredHold(t *testing.T) {
	fx := newBookingFixture(t)
	fx.holds.getErr = reservations.ErrReservationExpired

	_, err := fx.service.Confirm(context.Background(), confirmRequest(fx.token, 200))
	assert.ErrorIs(t, err, reservations.ErrReservationExpired)
	assert.Empty(t, fx.publisher.published)
}

func TestConfirmAmountMismatch(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	_, err := fx.service.Confirm(ctx, confirmRequest(fx.token, 150))
	assert.ErrorIs(t, err, ErrAmountMismatch)

	// Seats untouched
	for _, id := range fx.seatIDs {
		seat, err := fx.store.GetSeatByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, seats.StatusReserved, seat.Status)
	}
}

func TestConfirmLosesToSweep(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	// A sweep released the seats between hold verification and finalization
	_, err := fx.store.ReleaseSeats(ctx, fx.token)
	require.NoError(t, err)

	_, err = fx.service.Confirm(ctx, confirmRequest(fx.token, 200))
	assert.ErrorIs(t, err, ErrSeatsNotHeld)
	assert.Empty(t, fx.publisher.published)
}

func TestConfirmIsNotRepeatable(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	_, err := fx.service.Confirm(ctx, confirmRequest(fx.token, 200))
	require.NoError(t, err)

	// The hold is gone after the first confirmation
	_, err = fx.service.Confirm(ctx, confirmRequest(fx.token, 200))
	assert.ErrorIs(t, err, reservations.ErrReservationNotFound)
}

func TestGetBooking(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	created, err := fx.service.Confirm(ctx, confirmRequest(fx.token, 200))
	require.NoError(t, err)

	byID, err := fx.service.GetBooking(ctx, uuid.MustParse(created.BookingID))
	require.NoError(t, err)
	assert.Equal(t, created.BookingRef, byID.BookingRef)

	byRef, err := fx.service.GetBookingByRef(ctx, created.BookingRef)
	require.NoError(t, err)
	assert.Equal(t, created.BookingID, byRef.BookingID)

	_, err = fx.service.GetBooking(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestGenerateBookingRefFormat(t *testing.T) {
	ref, err := generateBookingRef(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^TKT-20260901-[A-HJ-NP-Z2-9]{6}$`), ref)
}
