package orders

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/merchstore/go-points-orders/internal/authz"
	"github.com/merchstore/go-points-orders/internal/catalog"
	"github.com/merchstore/go-points-orders/internal/fault"
	"github.com/merchstore/go-points-orders/internal/inventory"
	"github.com/merchstore/go-points-orders/internal/points"
	"github.com/merchstore/go-points-orders/internal/store"
)

// Publisher emits lifecycle events. Satisfied by kafka.Producer; nil disables
// publishing (tests, audit-less deployments).
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// LineInput is a checkout request line.
type LineInput struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

type Filter struct {
	UserID string
	Status Status
}

// Service drives orders through their lifecycle. It is the only writer of
// variants and accounts: every mutation happens under key locks covering the
// order, the owner's account, and all touched variants, so a transition is
// all-or-nothing as far as any other caller can observe.
type Service struct {
	store   store.Store
	locks   *store.KeyLocks
	pub     Publisher
	log     *zap.Logger
	name    string
	nowFunc func() time.Time
}

func NewService(st store.Store, locks *store.KeyLocks, pub Publisher, logger *zap.Logger, name string) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   st,
		locks:   locks,
		pub:     pub,
		log:     logger,
		name:    name,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// Checkout prices the cart against the catalog, debits the buyer and creates
// the order in NEW. Stock is not reserved here: points move immediately,
// reservation waits for review so unreviewed orders don't starve inventory.
func (s *Service) Checkout(ctx context.Context, userID, role string, lines []LineInput) (Order, error) {
	if userID == "" {
		return Order{}, fault.New(fault.Validation, "field", "user_id")
	}
	if len(lines) == 0 {
		return Order{}, fault.New(fault.Validation, "field", "items")
	}
	for _, l := range lines {
		if l.SKU == "" || l.Qty < 1 {
			return Order{}, fault.New(fault.Validation, "sku", l.SKU, "qty", l.Qty)
		}
	}

	keys := []string{store.AccountKey(userID)}
	for _, l := range lines {
		keys = append(keys, store.VariantKey(l.SKU))
	}
	release := s.locks.Acquire(keys...)
	defer release()

	// Resolve every SKU before any financial mutation.
	items := make([]Item, 0, len(lines))
	total := 0
	for _, l := range lines {
		v, err := catalog.LoadVariant(ctx, s.store, l.SKU)
		if err != nil {
			return Order{}, err
		}
		line := v.PricePoints * l.Qty
		items = append(items, Item{SKU: l.SKU, Qty: l.Qty, UnitPoints: v.PricePoints, LinePoints: line})
		total += line
	}

	id, err := s.store.NextID(ctx, store.SeqOrders)
	if err != nil {
		return Order{}, err
	}

	now := s.nowFunc()
	acc, err := points.LoadAccount(ctx, s.store, userID)
	if err != nil {
		return Order{}, err
	}
	acc, entry, err := points.Debit(acc, total, points.ReasonOrderCreated, id, now)
	if err != nil {
		return Order{}, err
	}
	if err := points.SaveAccount(ctx, s.store, acc); err != nil {
		return Order{}, err
	}
	if err := points.AppendLedger(ctx, s.store, entry); err != nil {
		return Order{}, err
	}

	o := Order{
		ID:          id,
		UserID:      userID,
		Status:      StatusNew,
		Items:       items,
		TotalPoints: total,
		CreatedAt:   now,
		UpdatedAt:   now,
		History:     []HistoryEntry{{TS: now, To: StatusNew, ByRole: role}},
	}
	if err := s.saveOrder(ctx, o); err != nil {
		return Order{}, err
	}

	s.emit(EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID: o.ID, UserID: o.UserID, Items: o.Items, TotalPoints: o.TotalPoints,
	})
	s.log.Info("order created",
		zap.Int64("order_id", o.ID),
		zap.String("user_id", userID),
		zap.Int("total_points", total))
	return o, nil
}

// Get returns one order by id.
func (s *Service) Get(ctx context.Context, orderID int64) (Order, error) {
	return s.loadOrder(ctx, orderID)
}

// List returns orders sorted by id, optionally filtered by owner and status.
func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	raw, err := s.store.List(ctx, store.BucketOrders)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(raw))
	for _, b := range raw {
		var o Order
		if err := json.Unmarshal(b, &o); err != nil {
			return nil, err
		}
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Transition moves an order to target, running the side effects the target
// state demands before the status commits. Nothing is observable halfway: the
// whole transition runs under the order's, account's and variants' key locks.
func (s *Service) Transition(ctx context.Context, orderID int64, target Status, role string) (Order, error) {
	o, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}

	release := s.locks.Acquire(s.transitionKeys(o)...)
	defer release()

	// Reload under the lock; the first read only named the keys.
	o, err = s.loadOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(o.Status, target) {
		return Order{}, fault.New(fault.InvalidStatusTransition,
			"from", o.Status, "to", target, "allowed", AllowedNext(o.Status))
	}
	if target == StatusCancelled && !CanCancelFrom(o.Status) {
		return Order{}, fault.New(fault.CancelNotAllowed, "status", o.Status)
	}
	return s.apply(ctx, o, target, role)
}

// Cancel is the buyer-facing cancellation path. Buyers may only cancel their
// own orders; admins may cancel any. Side effects are identical to the
// CANCELLED transition because both routes share apply.
func (s *Service) Cancel(ctx context.Context, orderID int64, callerID, role string) (Order, error) {
	o, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if role == authz.RoleBuyer {
		if callerID == "" {
			return Order{}, fault.New(fault.Validation, "field", "user_id")
		}
		if o.UserID != callerID {
			return Order{}, fault.New(fault.Forbidden, "order_id", orderID)
		}
	}

	release := s.locks.Acquire(s.transitionKeys(o)...)
	defer release()

	o, err = s.loadOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !CanCancelFrom(o.Status) {
		return Order{}, fault.New(fault.CancelNotAllowed, "status", o.Status)
	}
	return s.apply(ctx, o, StatusCancelled, role)
}

// apply runs target-state side effects, commits the status and appends
// history. Caller holds all locks and has validated the transition.
func (s *Service) apply(ctx context.Context, o Order, target Status, role string) (Order, error) {
	from := o.Status
	now := s.nowFunc()
	lines := o.Lines()

	switch target {
	case StatusUnderReview:
		// Reserve is idempotent at the order level: a reserved order is
		// left alone.
		if !o.Reserved {
			vars, err := s.loadVariants(ctx, lines)
			if err != nil {
				return Order{}, err
			}
			vars, err = inventory.Reserve(vars, lines)
			if err != nil {
				return Order{}, err
			}
			if err := s.saveVariants(ctx, vars); err != nil {
				return Order{}, err
			}
			o.Reserved = true
			s.emit(EventStockReserved, o.ID, StockMovedPayload{OrderID: o.ID, Items: o.Items})
		}

	case StatusCancelled:
		if o.Reserved {
			vars, err := s.loadVariants(ctx, lines)
			if err != nil {
				return Order{}, err
			}
			vars = inventory.Release(vars, lines)
			if err := s.saveVariants(ctx, vars); err != nil {
				return Order{}, err
			}
			o.Reserved = false
		}
		acc, err := points.LoadAccount(ctx, s.store, o.UserID)
		if err != nil {
			return Order{}, err
		}
		acc, entry, err := points.Credit(acc, o.TotalPoints, points.ReasonOrderCancelled, o.ID, now)
		if err != nil {
			return Order{}, err
		}
		if err := points.SaveAccount(ctx, s.store, acc); err != nil {
			return Order{}, err
		}
		if err := points.AppendLedger(ctx, s.store, entry); err != nil {
			return Order{}, err
		}
		s.emit(EventOrderCancelled, o.ID, OrderCancelledPayload{
			OrderID: o.ID, UserID: o.UserID, RefundPoints: o.TotalPoints,
		})

	case StatusCompleted:
		vars, err := s.loadVariants(ctx, lines)
		if err != nil {
			return Order{}, err
		}
		vars, err = inventory.Consume(vars, lines, o.Reserved)
		if err != nil {
			return Order{}, err
		}
		if err := s.saveVariants(ctx, vars); err != nil {
			return Order{}, err
		}
		o.Reserved = false
		s.emit(EventStockConsumed, o.ID, StockMovedPayload{OrderID: o.ID, Items: o.Items})
	}

	o.Status = target
	o.UpdatedAt = now
	o.History = append(o.History, HistoryEntry{TS: now, From: from, To: target, ByRole: role})
	if err := s.saveOrder(ctx, o); err != nil {
		return Order{}, err
	}

	s.emit(EventOrderStatusChanged, o.ID, StatusChangedPayload{
		OrderID: o.ID, From: from, To: target, ByRole: role,
	})
	s.log.Info("order status changed",
		zap.Int64("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("by_role", role))
	return o, nil
}

func (s *Service) transitionKeys(o Order) []string {
	keys := []string{store.OrderKey(o.ID), store.AccountKey(o.UserID)}
	for _, it := range o.Items {
		keys = append(keys, store.VariantKey(it.SKU))
	}
	return keys
}

func (s *Service) loadVariants(ctx context.Context, lines []inventory.Line) (map[string]catalog.Variant, error) {
	out := make(map[string]catalog.Variant, len(lines))
	for _, l := range lines {
		v, err := catalog.LoadVariant(ctx, s.store, l.SKU)
		if err != nil {
			return nil, err
		}
		out[l.SKU] = v
	}
	return out, nil
}

func (s *Service) saveVariants(ctx context.Context, vars map[string]catalog.Variant) error {
	for _, v := range vars {
		if err := catalog.SaveVariant(ctx, s.store, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) loadOrder(ctx context.Context, id int64) (Order, error) {
	b, err := s.store.Get(ctx, store.BucketOrders, strconv.FormatInt(id, 10))
	if errors.Is(err, store.ErrNotFound) {
		return Order{}, fault.New(fault.NotFound, "order_id", id)
	}
	if err != nil {
		return Order{}, err
	}
	var o Order
	if err := json.Unmarshal(b, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *Service) saveOrder(ctx context.Context, o Order) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, store.BucketOrders, strconv.FormatInt(o.ID, 10), b)
}

func (s *Service) emit(eventType string, orderID int64, payload any) {
	if s.pub == nil {
		return
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("marshal event payload", zap.String("event", eventType), zap.Error(err))
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    s.nowFunc(),
		Producer:      s.name,
		CorrelationID: strconv.FormatInt(orderID, 10),
		Payload:       pb,
	}
	b, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("marshal event envelope", zap.String("event", eventType), zap.Error(err))
		return
	}
	s.pub.Publish(PartitionKey(orderID), b,
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
