package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/config"
	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/pkg/common"
)

// TopicOrderPaid is published on the event bus once an order has been
// finalized as paid, with the order id as argument.
const TopicOrderPaid = "order.paid"

// PaymentService drives the order payment state machine: it creates
// external checkout sessions for card payments and consumes the
// provider's asynchronous outcome notifications.
type PaymentService struct {
	db  *gorm.DB
	cfg *config.AppConfig
	sc  *client.API
	bus evbus.Bus
}

func NewPaymentService(db *gorm.DB, cfg *config.AppConfig, bus evbus.Bus) *PaymentService {
	sc := &client.API{}
	sc.Init(cfg.Stripe.SecretKey, nil)
	return &PaymentService{db: db, cfg: cfg, sc: sc, bus: bus}
}

// CreateCheckoutSession builds a Stripe checkout session for the
// order and returns the redirect URL. The order stays pending/pending
// until the webhook arrives. Orders carrying a coupon are charged as
// one consolidated line at the discounted total so the charge always
// matches what the Order Assembler computed.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, orderID int64) (string, error) {
	var order domain.Order
	if err := s.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return "", ErrOrderNotFound
	}
	var items []domain.OrderItem
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return "", storeErr("list order items", err)
	}

	currency := order.Currency
	if currency == "" {
		currency = s.cfg.Shipping.Currency
	}

	var lineItems []*stripe.CheckoutSessionLineItemParams
	if order.CouponID != nil {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("Order %d (discounted)", order.ID)),
				},
				UnitAmount: stripe.Int64(toCents(order.Total)),
			},
			Quantity: stripe.Int64(1),
		})
	} else {
		for _, it := range items {
			name := it.Name
			if name == "" {
				name = "Product"
			}
			lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(name),
					},
					UnitAmount: stripe.Int64(toCents(it.UnitPrice)),
				},
				Quantity: stripe.Int64(int64(it.Quantity)),
			})
		}
		if order.ShippingCost.Sign() > 0 {
			lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Shipping"),
					},
					UnitAmount: stripe.Int64(toCents(order.ShippingCost)),
				},
				Quantity: stripe.Int64(1),
			})
		}
	}

	appURL := s.cfg.System.AppURL
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(fmt.Sprintf("%s/checkout/success?orderId=%d", appURL, order.ID)),
		CancelURL:          stripe.String(appURL + "/checkout?error=canceled"),
	}
	params.AddMetadata("order_id", strconv.FormatInt(order.ID, 10))

	sess, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}
	return sess.URL, nil
}

// MarkTransferPending confirms a bank-transfer order. The transition
// is a no-op (the order is already pending/pending); reconciliation of
// the actual transfer happens through the admin API.
func (s *PaymentService) MarkTransferPending(ctx context.Context, orderID int64) error {
	var order domain.Order
	if err := s.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return ErrOrderNotFound
	}
	err := s.db.WithContext(ctx).Model(&order).Updates(map[string]interface{}{
		"status":         domain.OrderStatusPending,
		"payment_status": domain.PaymentStatusPending,
		"updated_at":     time.Now(),
	}).Error
	return storeErr("mark transfer pending", err)
}

// HandleWebhook verifies and processes one raw provider notification.
// Signature failure rejects the whole call before the payload is
// parsed. Processing is idempotent per provider event id: redelivered
// events return success without touching state again. Unhandled event
// types are accepted and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.cfg.Stripe.WebhookSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		orderID, err := strconv.ParseInt(sess.Metadata["order_id"], 10, 64)
		if err != nil {
			zap.L().Warn("webhook session without order id", zap.String("event_id", event.ID))
			return nil
		}
		intentID := ""
		if sess.PaymentIntent != nil {
			intentID = sess.PaymentIntent.ID
		}
		amount := decimal.NewFromInt(sess.AmountTotal).Div(decimal.NewFromInt(100))
		return s.completeOrder(ctx, string(event.Type), event.ID, orderID, intentID, amount, string(sess.Currency))

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return fmt.Errorf("decode payment intent: %w", err)
		}
		// order status is deliberately left untouched, only the
		// transaction trail records the failure
		err := s.db.WithContext(ctx).Model(&domain.Transaction{}).
			Where("payment_intent_id = ?", intent.ID).
			Update("status", domain.TxnStatusFailed).Error
		return storeErr("mark transaction failed", err)

	default:
		zap.L().Debug("ignoring webhook event", zap.String("type", string(event.Type)))
		return nil
	}
}

// completeOrder finalizes a paid order inside one transaction guarded
// by the webhook_events dedup row.
func (s *PaymentService) completeOrder(ctx context.Context, eventType, eventID string, orderID int64, intentID string, amount decimal.Decimal, currency string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&domain.WebhookEvent{
			ID:         common.UUIDint64(),
			EventID:    eventID,
			EventType:  eventType,
			ReceivedAt: time.Now(),
		}).Error; err != nil {
			return err
		}
		return MarkOrderPaid(tx, orderID, domain.PaymentMethodCard, intentID, amount, currency)
	})
	if err != nil {
		// a redelivered event trips the unique index on event_id;
		// that is success, the first delivery already did the work
		var seen int64
		s.db.WithContext(ctx).Model(&domain.WebhookEvent{}).Where("event_id = ?", eventID).Count(&seen)
		if seen > 0 {
			zap.L().Info("duplicate webhook event ignored", zap.String("event_id", eventID))
			return nil
		}
		return err
	}

	if s.bus != nil {
		s.bus.Publish(TopicOrderPaid, orderID)
	}
	return nil
}

// MarkOrderPaid transitions an order to processing/paid, appends the
// completed transaction and retires the owning active cart. It runs
// against the given handle so callers control transactionality; the
// webhook path and the admin bank-transfer confirmation both use it.
func MarkOrderPaid(tx *gorm.DB, orderID int64, method, intentID string, amount decimal.Decimal, currency string) error {
	var order domain.Order
	err := tx.Where("id = ?", orderID).First(&order).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrOrderNotFound
	case err != nil:
		return storeErr("query order", err)
	}

	err = tx.Model(&domain.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":         domain.OrderStatusProcessing,
		"payment_status": domain.PaymentStatusPaid,
		"updated_at":     time.Now(),
	}).Error
	if err != nil {
		return storeErr("update order status", err)
	}

	if err := tx.Create(&domain.Transaction{
		ID:              common.UUIDint64(),
		OrderID:         order.ID,
		PaymentMethod:   method,
		Amount:          amount,
		Currency:        currency,
		Status:          domain.TxnStatusCompleted,
		PaymentIntentID: intentID,
		CreatedAt:       time.Now(),
	}).Error; err != nil {
		return storeErr("create transaction", err)
	}

	// retire the active cart so the next add-to-cart starts fresh
	identity := Identity{UserID: order.UserID, GuestToken: order.GuestToken}
	err = identity.scope(tx.Model(&domain.Cart{})).
		Where("status = ?", domain.CartStatusActive).
		Updates(map[string]interface{}{
			"status":     domain.CartStatusCompleted,
			"updated_at": time.Now(),
		}).Error
	return storeErr("retire cart", err)
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}
