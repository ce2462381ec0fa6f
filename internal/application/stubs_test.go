package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/BengkelGo/service-marketplace/internal/cache"
	"github.com/BengkelGo/service-marketplace/internal/domain"
	"github.com/BengkelGo/service-marketplace/internal/domain/booking"
	"github.com/BengkelGo/service-marketplace/internal/domain/quote"
	"github.com/BengkelGo/service-marketplace/internal/domain/refund"
	"github.com/BengkelGo/service-marketplace/internal/domain/review"
	"github.com/BengkelGo/service-marketplace/internal/domain/vehicle"
	"github.com/BengkelGo/service-marketplace/internal/domain/workshop"
	"github.com/BengkelGo/service-marketplace/internal/notification"
	"github.com/BengkelGo/service-marketplace/internal/payment"
)

// --- In-memory repositories ---

type memBookings struct {
	items     map[uuid.UUID]*booking.Booking
	order     []uuid.UUID
	updateErr error
}

func newMemBookings(bks ...*booking.Booking) *memBookings {
	m := &memBookings{items: make(map[uuid.UUID]*booking.Booking)}
	for _, bk := range bks {
		m.items[bk.ID()] = bk
		m.order = append(m.order, bk.ID())
	}
	return m
}

func (m *memBookings) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	bk, ok := m.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return bk, nil
}

func (m *memBookings) FindByCustomerID(_ context.Context, customerID uuid.UUID, _, _ int) ([]*booking.Booking, int64, error) {
	var out []*booking.Booking
	for _, id := range m.order {
		if m.items[id].CustomerID() == customerID {
			out = append(out, m.items[id])
		}
	}
	return out, int64(len(out)), nil
}

func (m *memBookings) FindByWorkshopID(_ context.Context, workshopID uuid.UUID, _, _ int) ([]*booking.Booking, int64, error) {
	var out []*booking.Booking
	for _, id := range m.order {
		if m.items[id].WorkshopID() == workshopID {
			out = append(out, m.items[id])
		}
	}
	return out, int64(len(out)), nil
}

func (m *memBookings) ListAll(_ context.Context, _, _ int) ([]*booking.Booking, int64, error) {
	out := make([]*booking.Booking, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id])
	}
	return out, int64(len(out)), nil
}

func (m *memBookings) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, bk := range m.items {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (m *memBookings) Save(_ context.Context, bk *booking.Booking) error {
	m.items[bk.ID()] = bk
	m.order = append(m.order, bk.ID())
	return nil
}

func (m *memBookings) Update(_ context.Context, bk *booking.Booking) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.items[bk.ID()]; !ok {
		return domain.NewNotFoundError("booking", bk.ID().String())
	}
	m.items[bk.ID()] = bk
	return nil
}

type memQuotes struct {
	items   map[uuid.UUID]*quote.Quote
	order   []uuid.UUID
	deleted []uuid.UUID
}

func newMemQuotes(qs ...*quote.Quote) *memQuotes {
	m := &memQuotes{items: make(map[uuid.UUID]*quote.Quote)}
	for _, q := range qs {
		m.items[q.ID()] = q
		m.order = append(m.order, q.ID())
	}
	return m
}

func (m *memQuotes) FindByID(_ context.Context, id uuid.UUID) (*quote.Quote, error) {
	q, ok := m.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("quote", id.String())
	}
	return q, nil
}

func (m *memQuotes) FindActiveByBookingID(_ context.Context, bookingID uuid.UUID) (*quote.Quote, error) {
	for _, id := range m.order {
		q := m.items[id]
		if q.BookingID() == bookingID && q.IsPending() {
			return q, nil
		}
	}
	return nil, domain.NewNotFoundError("quote", bookingID.String())
}

func (m *memQuotes) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*quote.Quote, error) {
	for i := len(m.order) - 1; i >= 0; i-- {
		if q := m.items[m.order[i]]; q.BookingID() == bookingID {
			return q, nil
		}
	}
	return nil, domain.NewNotFoundError("quote", bookingID.String())
}

func (m *memQuotes) Save(_ context.Context, q *quote.Quote) error {
	m.items[q.ID()] = q
	m.order = append(m.order, q.ID())
	return nil
}

func (m *memQuotes) Update(_ context.Context, q *quote.Quote) error {
	if _, ok := m.items[q.ID()]; !ok {
		return domain.NewNotFoundError("quote", q.ID().String())
	}
	m.items[q.ID()] = q
	return nil
}

func (m *memQuotes) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return domain.NewNotFoundError("quote", id.String())
	}
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type memRefunds struct {
	items map[uuid.UUID]*refund.RefundCase
	order []uuid.UUID
}

func newMemRefunds(rcs ...*refund.RefundCase) *memRefunds {
	m := &memRefunds{items: make(map[uuid.UUID]*refund.RefundCase)}
	for _, rc := range rcs {
		m.items[rc.ID()] = rc
		m.order = append(m.order, rc.ID())
	}
	return m
}

func (m *memRefunds) FindByID(_ context.Context, id uuid.UUID) (*refund.RefundCase, error) {
	rc, ok := m.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("refund case", id.String())
	}
	return rc, nil
}

func (m *memRefunds) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*refund.RefundCase, error) {
	for i := len(m.order) - 1; i >= 0; i-- {
		if rc := m.items[m.order[i]]; rc.BookingID() == bookingID {
			return rc, nil
		}
	}
	return nil, domain.NewNotFoundError("refund case", bookingID.String())
}

func (m *memRefunds) FindByWorkshopID(_ context.Context, workshopID uuid.UUID, _, _ int) ([]*refund.RefundCase, int64, error) {
	var out []*refund.RefundCase
	for _, id := range m.order {
		if m.items[id].WorkshopID() == workshopID {
			out = append(out, m.items[id])
		}
	}
	return out, int64(len(out)), nil
}

func (m *memRefunds) Save(_ context.Context, rc *refund.RefundCase) error {
	m.items[rc.ID()] = rc
	m.order = append(m.order, rc.ID())
	return nil
}

func (m *memRefunds) Update(_ context.Context, rc *refund.RefundCase) error {
	if _, ok := m.items[rc.ID()]; !ok {
		return domain.NewNotFoundError("refund case", rc.ID().String())
	}
	m.items[rc.ID()] = rc
	return nil
}

type memReviews struct {
	items map[uuid.UUID]*review.Review
	order []uuid.UUID
}

func newMemReviews(rvs ...*review.Review) *memReviews {
	m := &memReviews{items: make(map[uuid.UUID]*review.Review)}
	for _, rv := range rvs {
		m.items[rv.ID()] = rv
		m.order = append(m.order, rv.ID())
	}
	return m
}

func (m *memReviews) FindByID(_ context.Context, id uuid.UUID) (*review.Review, error) {
	rv, ok := m.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("review", id.String())
	}
	return rv, nil
}

func (m *memReviews) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*review.Review, error) {
	for _, id := range m.order {
		if m.items[id].BookingID() == bookingID {
			return m.items[id], nil
		}
	}
	return nil, domain.NewNotFoundError("review", bookingID.String())
}

func (m *memReviews) FindByWorkshopID(_ context.Context, workshopID uuid.UUID, _, _ int) ([]*review.Review, int64, error) {
	var out []*review.Review
	for _, id := range m.order {
		if m.items[id].WorkshopID() == workshopID {
			out = append(out, m.items[id])
		}
	}
	return out, int64(len(out)), nil
}

func (m *memReviews) Save(_ context.Context, rv *review.Review) error {
	m.items[rv.ID()] = rv
	m.order = append(m.order, rv.ID())
	return nil
}

func (m *memReviews) Update(_ context.Context, rv *review.Review) error {
	if _, ok := m.items[rv.ID()]; !ok {
		return domain.NewNotFoundError("review", rv.ID().String())
	}
	m.items[rv.ID()] = rv
	return nil
}

type memVehicles struct {
	items map[uuid.UUID]*vehicle.Vehicle
	order []uuid.UUID
}

func newMemVehicles(vs ...*vehicle.Vehicle) *memVehicles {
	m := &memVehicles{items: make(map[uuid.UUID]*vehicle.Vehicle)}
	for _, v := range vs {
		m.items[v.ID()] = v
		m.order = append(m.order, v.ID())
	}
	return m
}

func (m *memVehicles) FindByID(_ context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	v, ok := m.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("vehicle", id.String())
	}
	return v, nil
}

func (m *memVehicles) FindByCustomerID(_ context.Context, customerID uuid.UUID) ([]*vehicle.Vehicle, error) {
	var out []*vehicle.Vehicle
	for _, id := range m.order {
		v, ok := m.items[id]
		if !ok {
			continue
		}
		if v.CustomerID() == customerID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memVehicles) CountByCustomerID(_ context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	for _, v := range m.items {
		if v.CustomerID() == customerID {
			count++
		}
	}
	return count, nil
}

func (m *memVehicles) Save(_ context.Context, v *vehicle.Vehicle) error {
	m.items[v.ID()] = v
	m.order = append(m.order, v.ID())
	return nil
}

func (m *memVehicles) Update(_ context.Context, v *vehicle.Vehicle) error {
	if _, ok := m.items[v.ID()]; !ok {
		return domain.NewNotFoundError("vehicle", v.ID().String())
	}
	m.items[v.ID()] = v
	return nil
}

func (m *memVehicles) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return domain.NewNotFoundError("vehicle", id.String())
	}
	delete(m.items, id)
	return nil
}

func (m *memVehicles) SetPrimary(_ context.Context, customerID, vehicleID uuid.UUID) error {
	target, ok := m.items[vehicleID]
	if !ok || target.CustomerID() != customerID {
		return domain.NewNotFoundError("vehicle", vehicleID.String())
	}
	for id, v := range m.items {
		if v.CustomerID() != customerID {
			continue
		}
		m.items[id] = vehicle.Reconstruct(v.ID(), v.CustomerID(), v.Name(), v.Plate(), v.Model(), v.Year(),
			id == vehicleID, v.Version(), v.CreatedAt(), time.Now().UTC())
	}
	return nil
}

type memWorkshops struct {
	items map[uuid.UUID]*workshop.Workshop
	order []uuid.UUID
	finds int
}

func newMemWorkshops(wss ...*workshop.Workshop) *memWorkshops {
	m := &memWorkshops{items: make(map[uuid.UUID]*workshop.Workshop)}
	for _, ws := range wss {
		m.items[ws.ID()] = ws
		m.order = append(m.order, ws.ID())
	}
	return m
}

func (m *memWorkshops) FindByID(_ context.Context, id uuid.UUID) (*workshop.Workshop, error) {
	m.finds++
	ws, ok := m.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("workshop", id.String())
	}
	return ws, nil
}

func (m *memWorkshops) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*workshop.Workshop, error) {
	var out []*workshop.Workshop
	for _, id := range m.order {
		if m.items[id].IsOwnedBy(ownerID) {
			out = append(out, m.items[id])
		}
	}
	return out, nil
}

func (m *memWorkshops) ListAll(_ context.Context, _, _ int) ([]*workshop.Workshop, int64, error) {
	out := make([]*workshop.Workshop, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id])
	}
	return out, int64(len(out)), nil
}

func (m *memWorkshops) Save(_ context.Context, ws *workshop.Workshop) error {
	m.items[ws.ID()] = ws
	m.order = append(m.order, ws.ID())
	return nil
}

func (m *memWorkshops) Update(_ context.Context, ws *workshop.Workshop) error {
	if _, ok := m.items[ws.ID()]; !ok {
		return domain.NewNotFoundError("workshop", ws.ID().String())
	}
	m.items[ws.ID()] = ws
	return nil
}

// --- Collaborator stubs ---

type recordingNotifier struct {
	sent []notification.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notif notification.Notification) {
	n.sent = append(n.sent, notif)
}

func (n *recordingNotifier) types() []string {
	out := make([]string, len(n.sent))
	for i, notif := range n.sent {
		out[i] = notif.Type
	}
	return out
}

func (n *recordingNotifier) byType(typ string) *notification.Notification {
	for i := range n.sent {
		if n.sent[i].Type == typ {
			return &n.sent[i]
		}
	}
	return nil
}

type errGateway struct {
	err error
}

func (g errGateway) ProcessPayment(_ context.Context, _ uuid.UUID, _ float64, _ payment.MethodDetails) (payment.Result, error) {
	return payment.Result{}, g.err
}

type recordingCanceller struct {
	cancelled []uuid.UUID
	err       error
}

func (c *recordingCanceller) ForceCancelForRefund(_ context.Context, bookingID uuid.UUID) error {
	if c.err != nil {
		return c.err
	}
	c.cancelled = append(c.cancelled, bookingID)
	return nil
}

type memCache struct {
	data    map[string][]byte
	deleted []string
	failing bool
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest any) error {
	if c.failing {
		return context.DeadlineExceeded
	}
	raw, ok := c.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if c.failing {
		return context.DeadlineExceeded
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	if c.failing {
		return context.DeadlineExceeded
	}
	for _, key := range keys {
		delete(c.data, key)
		c.deleted = append(c.deleted, key)
	}
	return nil
}

// --- Fixtures ---

func testWorkshop(t *testing.T, ownerID uuid.UUID) *workshop.Workshop {
	t.Helper()
	ws, err := workshop.NewWorkshop(ownerID, "Uptown Motors", "12 Jalan Ampang, Kuala Lumpur", "+60123456789", []string{"servicing", "brakes"})
	require.NoError(t, err)
	return ws
}

func testBooking(t *testing.T, customerID, workshopID uuid.UUID) *booking.Booking {
	t.Helper()
	bk, err := booking.NewBooking(customerID, workshopID, "Honda Civic", "WXY 1234", "repair",
		[]string{"brake pads"}, "2026-09-01", "10:00")
	require.NoError(t, err)
	return bk
}

func testQuote(t *testing.T, bookingID, workshopID uuid.UUID) *quote.Quote {
	t.Helper()
	q, err := quote.NewQuote(bookingID, workshopID, []quote.LineItem{
		{Name: "Brake pads", Price: 30},
		{Name: "Brake fluid", Price: 50},
	}, 0, "worn pads", "")
	require.NoError(t, err)
	return q
}

// quotedBooking wires a booking and a pending quote together the way the
// quote engine does, leaving the booking in quoted with the total attached.
func quotedBooking(t *testing.T, customerID, workshopID uuid.UUID) (*booking.Booking, *quote.Quote) {
	t.Helper()
	bk := testBooking(t, customerID, workshopID)
	q := testQuote(t, bk.ID(), workshopID)
	require.NoError(t, bk.AttachQuote(q.ID(), q.Total()))
	return bk, q
}

func paidBooking(t *testing.T, customerID, workshopID uuid.UUID) *booking.Booking {
	t.Helper()
	bk, _ := quotedBooking(t, customerID, workshopID)
	require.NoError(t, bk.MarkPaid())
	return bk
}

func completedBooking(t *testing.T, customerID, workshopID uuid.UUID) *booking.Booking {
	t.Helper()
	bk := paidBooking(t, customerID, workshopID)
	require.NoError(t, bk.StartRepair())
	require.NoError(t, bk.MarkReady())
	require.NoError(t, bk.Complete())
	return bk
}
