package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

const uniqueViolation = "23505"

// CreateOrder stores the order, its items and an OrderCompleted outbox event
// in one transaction. The order id and creation time are assigned by the
// database. A second order for the same payment returns ErrDuplicatePayment.
func (r *Repository) CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	err := r.execTX(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, total_amount, status, payment_id)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at`,
			order.UserID,
			order.TotalAmount,
			order.Status,
			order.PaymentID,
		).Scan(&order.ID, &order.CreatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return ErrDuplicatePayment
			}
			return fmt.Errorf("insert order: %w", err)
		}

		if err := insertItems(ctx, tx, &order); err != nil {
			return err
		}

		payload, err := json.Marshal(domain.NewOrderCompleted(order))
		if err != nil {
			return fmt.Errorf("marshal order event: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_events (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
			order.ID.String(),
			domain.EventOrderCompleted,
			payload,
		)
		if err != nil {
			return fmt.Errorf("insert order event: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	if len(order.Items) == 0 {
		return nil
	}

	vehicleIDs := make([]string, len(order.Items))
	quantities := make([]int64, len(order.Items))
	prices := make([]string, len(order.Items))
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		vehicleIDs[i] = order.Items[i].VehicleID
		quantities[i] = int64(order.Items[i].Quantity)
		prices[i] = order.Items[i].Price.String()
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO order_items (order_id, vehicle_id, quantity, price)
		 SELECT $1::uuid, v, q, p
		 FROM unnest($2::text[], $3::int[], $4::numeric[]) AS t(v, q, p)`,
		order.ID,
		pq.Array(vehicleIDs),
		pq.Array(quantities),
		pq.Array(prices),
	)
	if err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByPaymentID(ctx context.Context, paymentID string) (domain.Order, error) {
	var order domain.Order
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, total_amount, status, payment_id, created_at
		 FROM orders WHERE payment_id = $1`,
		paymentID,
	).Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.PaymentID, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("query order by payment id: %w", err)
	}

	items, err := r.orderItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items
	return order, nil
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, total_amount, status, payment_id, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.PaymentID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for i := range orders {
		if orders[i].Items, err = r.orderItems(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *Repository) orderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, vehicle_id, quantity, price
		 FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.OrderID, &it.VehicleID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}
