package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"resort/internal/database"
	"resort/internal/domain"
	"resort/internal/events"
	"resort/internal/metrics"
	"resort/internal/models"

	"github.com/rs/zerolog"
)

// CheckoutRequest holds the delivery details captured on the order.
type CheckoutRequest struct {
	ShippingAddress string
	PhoneNumber     string
	Note            string
}

type OrderService struct {
	db       domain.Database
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewOrderService(db domain.Database, eventBus domain.EventPublisher, logger *zerolog.Logger) *OrderService {
	return &OrderService{db: db, eventBus: eventBus, logger: logger}
}

// Checkout turns the user's cart into a PENDING order. Stock for every line is
// reserved in the same transaction that creates the order and deletes the
// cart, so a failure leaves stock, cart and orders untouched.
func (s *OrderService) Checkout(ctx context.Context, userID int64, req CheckoutRequest) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithTx(ctx, func(tx domain.Store) error {
		if _, err := tx.GetUserByID(ctx, userID); err != nil {
			return err
		}
		cart, err := tx.GetCartByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("%w: user %d has no cart", ErrNotFound, userID)
			}
			return err
		}
		if len(cart.Items) == 0 {
			return fmt.Errorf("%w: cart is empty", ErrInvalidArgument)
		}

		ids := make([]int64, 0, len(cart.Items))
		for _, item := range cart.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return err
		}

		order = &models.Order{
			UserID:          userID,
			Status:          models.OrderPending,
			ShippingAddress: req.ShippingAddress,
			PhoneNumber:     req.PhoneNumber,
			Note:            req.Note,
		}
		for _, item := range cart.Items {
			p, ok := products[item.ProductID]
			if !ok {
				return fmt.Errorf("%w: product %d no longer exists", ErrNotFound, item.ProductID)
			}
			if p.Stock < item.Quantity {
				return fmt.Errorf("%w: insufficient stock for %q: %d requested, %d left",
					ErrInvalidState, p.Name, item.Quantity, p.Stock)
			}
			item.ProductName = p.Name
			item.ProductPrice = p.Price
			order.Items = append(order.Items, models.SnapshotCartItem(item))
		}
		order.FreezeTotals()

		lines := append([]models.OrderItem(nil), order.Items...)
		sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
		for _, line := range lines {
			if err := tx.Reserve(ctx, models.KindProduct, line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, database.ErrInsufficientStock) {
					return fmt.Errorf("%w: insufficient stock for %q: %w", ErrInvalidState, line.ProductName, err)
				}
				return err
			}
		}

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		return tx.DeleteCart(ctx, cart.ID)
	})
	if err != nil {
		err = translate(err)
		metrics.IncCheckout(checkoutOutcome(err))
		s.logger.Info().Err(err).Int64("user_id", userID).Msg("Checkout rejected")
		return nil, err
	}

	metrics.IncCheckout("ok")
	metrics.IncTransition("order", string(order.Status))
	s.logger.Info().
		Int64("order_id", order.ID).
		Int64("user_id", userID).
		Int("total_items", order.TotalItems).
		Str("total_price", order.TotalPrice.String()).
		Msg("Order created")
	s.publishEvent(events.EventOrderCreated, order, "", 0)
	return order, nil
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInvalidState):
		return "insufficient_stock"
	case errors.Is(err, ErrInvalidArgument):
		return "empty_cart"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// Cancel moves a PENDING order to CANCELLED and returns every line to stock.
// Lines whose product has since been deleted are skipped.
func (s *OrderService) Cancel(ctx context.Context, orderID int64, p models.Principal) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithTx(ctx, func(tx domain.Store) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !p.Owns(o.UserID) {
			return fmt.Errorf("%w: order %d belongs to another user", ErrForbidden, orderID)
		}
		if o.Status != models.OrderPending {
			return fmt.Errorf("%w: order %d is %s, only pending orders can be cancelled", ErrInvalidState, orderID, o.Status)
		}

		ok, err := tx.TransitionOrderStatus(ctx, orderID, []models.OrderStatus{models.OrderPending}, models.OrderCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: order %d was changed concurrently", ErrInvalidState, orderID)
		}

		lines := append([]models.OrderItem(nil), o.Items...)
		sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
		for _, line := range lines {
			err := tx.Release(ctx, models.KindProduct, line.ProductID, line.Quantity)
			if errors.Is(err, database.ErrNotFound) {
				s.logger.Warn().Int64("order_id", orderID).Int64("product_id", line.ProductID).
					Msg("Product no longer exists, stock not released")
				continue
			}
			if err != nil {
				return err
			}
		}

		order, err = tx.GetOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	metrics.IncTransition("order", string(order.Status))
	s.logger.Info().Int64("order_id", orderID).Int64("by", p.UserID).Msg("Order cancelled")
	s.publishEvent(events.EventOrderCancelled, order, models.OrderPending, p.UserID)
	return order, nil
}

// UpdateStatus is the admin override. Any valid status is accepted and stock
// is never touched.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, rawStatus string, adminID int64) (*models.Order, error) {
	status, err := models.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	var (
		order *models.Order
		prev  models.OrderStatus
	)
	err = s.db.WithTx(ctx, func(tx domain.Store) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		prev = o.Status
		if err := tx.SetOrderStatus(ctx, orderID, status); err != nil {
			return err
		}
		order, err = tx.GetOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	if prev != status && !prev.CanTransition(status) {
		s.logger.Warn().
			Int64("order_id", orderID).
			Str("from", string(prev)).
			Str("to", string(status)).
			Bool("outside_transition_table", true).
			Msg("Order status overridden")
	}
	metrics.IncTransition("order", string(status))
	s.publishEvent(events.EventOrderStatusChanged, order, prev, adminID)
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, orderID int64, p models.Principal) (*models.Order, error) {
	order, err := s.db.GetOrder(ctx, orderID)
	if err != nil {
		return nil, translate(err)
	}
	if !p.Owns(order.UserID) {
		return nil, fmt.Errorf("%w: order %d belongs to another user", ErrForbidden, orderID)
	}
	return order, nil
}

func (s *OrderService) ListForUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	orders, err := s.db.ListOrdersByUser(ctx, userID)
	return orders, translate(err)
}

func (s *OrderService) ListAll(ctx context.Context, filter models.ListFilter) ([]*models.Order, error) {
	orders, err := s.db.ListOrders(ctx, filter.Normalize())
	return orders, translate(err)
}

// Delete removes an order and its lines. Reserved stock stays reserved.
func (s *OrderService) Delete(ctx context.Context, orderID, adminID int64) error {
	var order *models.Order
	err := s.db.WithTx(ctx, func(tx domain.Store) error {
		var err error
		if order, err = tx.GetOrder(ctx, orderID); err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return translate(err)
	}

	if order.Status == models.OrderPending {
		s.logger.Warn().Int64("order_id", orderID).Msg("Pending order deleted, stock not released")
	}
	s.publishEvent(events.EventOrderDeleted, order, "", adminID)
	return nil
}

func (s *OrderService) publishEvent(eventType string, o *models.Order, prev models.OrderStatus, changedBy int64) {
	if s.eventBus == nil {
		return
	}
	payload := events.OrderEventPayload{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		PrevStatus: string(prev),
		TotalPrice: o.TotalPrice,
		TotalItems: o.TotalItems,
		ChangedBy:  changedBy,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
