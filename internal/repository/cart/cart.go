package cartrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"
	"github.com/fazamuttaqien/lendora/internal/repository"
	"github.com/fazamuttaqien/lendora/pkg/telemetry"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Carts live in one redis hash per customer, one field per product.
type cartRepository struct {
	client *redis.Client
	ttl    time.Duration
	rec    *telemetry.Recorder
}

func key(customerID uint64) string {
	return fmt.Sprintf("cart:%d", customerID)
}

// Get implements repository.CartRepository. Items are ordered by product id.
func (r *cartRepository) Get(ctx context.Context, customerID uint64) ([]domain.CartItem, error) {
	ctx, op := r.rec.Start(ctx, "GetCart", "hgetall",
		attribute.String("db.system", "redis"),
		attribute.Int64("customer.id", int64(customerID)),
	)
	defer op.End()

	fields, err := r.client.HGetAll(ctx, key(customerID)).Result()
	if err != nil {
		return nil, op.Fail(err, "redis_error", "Failed to read cart", zap.Uint64("customer_id", customerID))
	}

	items := make([]domain.CartItem, 0, len(fields))
	for field, raw := range fields {
		var item domain.CartItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, op.Fail(err, "decode_error", "Corrupt cart entry",
				zap.Uint64("customer_id", customerID), zap.String("field", field))
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	op.Succeed("Cart read", zap.Uint64("customer_id", customerID), zap.Int("items", len(items)))

	return items, nil
}

// GetItem implements repository.CartRepository.
func (r *cartRepository) GetItem(ctx context.Context, customerID, productID uint64) (*domain.CartItem, error) {
	ctx, op := r.rec.Start(ctx, "GetCartItem", "hget",
		attribute.String("db.system", "redis"),
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("product.id", int64(productID)),
	)
	defer op.End()

	raw, err := r.client.HGet(ctx, key(customerID), strconv.FormatUint(productID, 10)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			op.NotFound("Cart item not found", zap.Uint64("product_id", productID))
			return nil, nil
		}
		return nil, op.Fail(err, "redis_error", "Failed to read cart item", zap.Uint64("product_id", productID))
	}

	var item domain.CartItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, op.Fail(err, "decode_error", "Corrupt cart entry", zap.Uint64("product_id", productID))
	}

	op.Succeed("Cart item read", zap.Uint64("product_id", productID))

	return &item, nil
}

// SetItem implements repository.CartRepository. Writing refreshes the cart TTL.
func (r *cartRepository) SetItem(ctx context.Context, customerID uint64, item domain.CartItem) error {
	ctx, op := r.rec.Start(ctx, "SetCartItem", "hset",
		attribute.String("db.system", "redis"),
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("product.id", int64(item.ProductID)),
	)
	defer op.End()

	raw, err := json.Marshal(item)
	if err != nil {
		return op.Fail(err, "encode_error", "Failed to encode cart item", zap.Uint64("product_id", item.ProductID))
	}

	k := key(customerID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, strconv.FormatUint(item.ProductID, 10), raw)
		pipe.Expire(ctx, k, r.ttl)
		return nil
	})
	if err != nil {
		return op.Fail(err, "redis_error", "Failed to write cart item", zap.Uint64("product_id", item.ProductID))
	}

	op.Succeed("Cart item written",
		zap.Uint64("customer_id", customerID),
		zap.Uint64("product_id", item.ProductID),
		zap.Int("quantity", item.Quantity),
	)

	return nil
}

// RemoveItem implements repository.CartRepository. Removing an absent item is not an error.
func (r *cartRepository) RemoveItem(ctx context.Context, customerID, productID uint64) error {
	ctx, op := r.rec.Start(ctx, "RemoveCartItem", "hdel",
		attribute.String("db.system", "redis"),
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("product.id", int64(productID)),
	)
	defer op.End()

	if err := r.client.HDel(ctx, key(customerID), strconv.FormatUint(productID, 10)).Err(); err != nil {
		return op.Fail(err, "redis_error", "Failed to remove cart item", zap.Uint64("product_id", productID))
	}

	op.Succeed("Cart item removed", zap.Uint64("customer_id", customerID), zap.Uint64("product_id", productID))

	return nil
}

// Clear implements repository.CartRepository.
func (r *cartRepository) Clear(ctx context.Context, customerID uint64) error {
	ctx, op := r.rec.Start(ctx, "ClearCart", "del",
		attribute.String("db.system", "redis"),
		attribute.Int64("customer.id", int64(customerID)),
	)
	defer op.End()

	if err := r.client.Del(ctx, key(customerID)).Err(); err != nil {
		return op.Fail(err, "redis_error", "Failed to clear cart", zap.Uint64("customer_id", customerID))
	}

	op.Succeed("Cart cleared", zap.Uint64("customer_id", customerID))

	return nil
}

func NewCartRepository(
	client *redis.Client,
	ttl time.Duration,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.CartRepository {
	return &cartRepository{
		client: client,
		ttl:    ttl,
		rec:    telemetry.NewRecorder(telemetry.RepositoryLayer, "cart", meter, tracer, log),
	}
}
