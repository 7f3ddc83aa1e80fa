package order

import (
	"context"
	"fmt"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/zellijstore/commerce/internal/domain/identity"
)

// Cancel cancels an order that is still pending. The requester must own the
// order or be an administrator. On success every item's quantity is released
// back to inventory and the status becomes cancelled, all in one transaction.
// Orders past pending cannot be cancelled; nothing changes in that case.
func (s *Service) Cancel(ctx context.Context, orderID int64, requester identity.User) error {
	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != requester.ID && !requester.Admin {
			// Hide foreign orders from non-admins rather than confirming
			// their existence.
			return ErrNotFound
		}
		if o.Status != StatusPending {
			return ErrNotPending
		}

		for _, item := range o.Items {
			if err := tx.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("release stock for product %d: %w", item.ProductID, err)
			}
		}

		o.Status = StatusCancelled
		return tx.UpdateStatus(ctx, o)
	})
	if err != nil {
		return err
	}

	zctx.From(ctx).Info("order cancelled",
		zap.Int64("order_id", orderID),
		zap.String("requested_by", requester.ID),
	)
	return nil
}

// AdvanceStatus is the administrator operation that moves an order to a new
// status. The transition is not validated beyond administrator trust. The
// shipped and delivered timestamps are stamped the first time their status
// is reached and never overwritten; the tracking number is recorded when
// provided on the transition to shipped.
func (s *Service) AdvanceStatus(ctx context.Context, orderID int64, status Status, trackingNumber string) error {
	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		o.Status = status
		now := s.now()

		switch status {
		case StatusShipped:
			if o.ShippedDate == nil {
				o.ShippedDate = &now
			}
			if trackingNumber != "" {
				o.TrackingNumber = trackingNumber
			}
		case StatusDelivered:
			if o.DeliveredDate == nil {
				o.DeliveredDate = &now
			}
		}

		return tx.UpdateStatus(ctx, o)
	})
	if err != nil {
		return err
	}

	zctx.From(ctx).Info("order status updated",
		zap.Int64("order_id", orderID),
		zap.String("status", string(status)),
	)
	return nil
}

// Stats returns the admin dashboard aggregates.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.store.OrderStats(ctx)
}

// Recent returns the most recently placed orders across all users.
func (s *Service) Recent(ctx context.Context, limit int) ([]Order, error) {
	return s.store.RecentOrders(ctx, limit)
}
