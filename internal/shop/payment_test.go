package shop

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/config"
	"github.com/pyropuff/pyroshop/internal/domain"
	"github.com/pyropuff/pyroshop/pkg/common"
)

const testWebhookSecret = "whsec_test_secret"

func newPaymentService(t *testing.T) (*PaymentService, evbus.Bus) {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.AppConfig{}
	cfg.Stripe.SecretKey = "sk_test_key"
	cfg.Stripe.WebhookSecret = testWebhookSecret
	cfg.System.AppURL = "http://127.0.0.1:8000"
	bus := evbus.New()
	return NewPaymentService(db, cfg, bus), bus
}

func signPayload(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func sessionCompletedPayload(eventID string, orderID int64, amountCents int64) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"api_version": %q,
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"object": "checkout.session",
				"amount_total": %d,
				"currency": "usd",
				"payment_intent": "pi_test_123",
				"metadata": {"order_id": "%d"}
			}
		}
	}`, eventID, stripe.APIVersion, amountCents, orderID))
}

func seedPendingOrder(t *testing.T, db *gorm.DB, identity Identity, total string) *domain.Order {
	t.Helper()
	order := &domain.Order{
		ID:            common.UUIDint64(),
		UserID:        identity.UserID,
		GuestToken:    identity.GuestToken,
		Subtotal:      dec(total),
		Total:         dec(total),
		Currency:      "usd",
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: domain.PaymentMethodCard,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	svc, _ := newPaymentService(t)

	payload := sessionCompletedPayload("evt_bad_sig", 1, 1000)
	err := svc.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrWebhookSignature)

	var count int64
	svc.db.Model(&domain.WebhookEvent{}).Count(&count)
	assert.Zero(t, count)
}

func TestHandleWebhookCompletesOrder(t *testing.T) {
	svc, bus := newPaymentService(t)
	identity := GuestIdentity(common.NewGuestToken())
	order := seedPendingOrder(t, svc.db, identity, "150.00")

	cart := domain.Cart{
		ID:         common.UUIDint64(),
		GuestToken: identity.GuestToken,
		Status:     domain.CartStatusActive,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, svc.db.Create(&cart).Error)

	var paidOrders []int64
	require.NoError(t, bus.Subscribe(TopicOrderPaid, func(orderID int64) {
		paidOrders = append(paidOrders, orderID)
	}))

	payload := sessionCompletedPayload("evt_complete_1", order.ID, 15000)
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, signPayload(payload)))

	var reloaded domain.Order
	require.NoError(t, svc.db.Where("id = ?", order.ID).First(&reloaded).Error)
	assert.Equal(t, domain.OrderStatusProcessing, reloaded.Status)
	assert.Equal(t, domain.PaymentStatusPaid, reloaded.PaymentStatus)

	var txn domain.Transaction
	require.NoError(t, svc.db.Where("order_id = ?", order.ID).First(&txn).Error)
	assert.Equal(t, domain.TxnStatusCompleted, txn.Status)
	assert.Equal(t, "pi_test_123", txn.PaymentIntentID)
	assert.True(t, decimal.NewFromInt(150).Equal(txn.Amount))

	var reloadedCart domain.Cart
	require.NoError(t, svc.db.Where("id = ?", cart.ID).First(&reloadedCart).Error)
	assert.Equal(t, domain.CartStatusCompleted, reloadedCart.Status)

	assert.Equal(t, []int64{order.ID}, paidOrders)
}

func TestHandleWebhookIdempotent(t *testing.T) {
	svc, bus := newPaymentService(t)
	identity := GuestIdentity(common.NewGuestToken())
	order := seedPendingOrder(t, svc.db, identity, "50.00")

	published := 0
	require.NoError(t, bus.Subscribe(TopicOrderPaid, func(orderID int64) {
		published++
	}))

	payload := sessionCompletedPayload("evt_redelivered", order.ID, 5000)
	sig := signPayload(payload)

	require.NoError(t, svc.HandleWebhook(context.Background(), payload, sig))
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, sig))

	var txnCount int64
	svc.db.Model(&domain.Transaction{}).Where("order_id = ?", order.ID).Count(&txnCount)
	assert.EqualValues(t, 1, txnCount)

	var eventCount int64
	svc.db.Model(&domain.WebhookEvent{}).Where("event_id = ?", "evt_redelivered").Count(&eventCount)
	assert.EqualValues(t, 1, eventCount)

	assert.Equal(t, 1, published)
}

func TestHandleWebhookPaymentFailed(t *testing.T) {
	svc, _ := newPaymentService(t)
	identity := GuestIdentity(common.NewGuestToken())
	order := seedPendingOrder(t, svc.db, identity, "20.00")

	require.NoError(t, svc.db.Create(&domain.Transaction{
		ID:              common.UUIDint64(),
		OrderID:         order.ID,
		PaymentMethod:   domain.PaymentMethodCard,
		Amount:          dec("20.00"),
		Currency:        "usd",
		Status:          domain.TxnStatusCompleted,
		PaymentIntentID: "pi_failed_1",
		CreatedAt:       time.Now(),
	}).Error)

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_failed_1",
		"object": "event",
		"api_version": %q,
		"type": "payment_intent.payment_failed",
		"data": {"object": {"object": "payment_intent", "id": "pi_failed_1"}}
	}`, stripe.APIVersion))
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, signPayload(payload)))

	var txn domain.Transaction
	require.NoError(t, svc.db.Where("payment_intent_id = ?", "pi_failed_1").First(&txn).Error)
	assert.Equal(t, domain.TxnStatusFailed, txn.Status)

	// the order itself stays pending
	var reloaded domain.Order
	require.NoError(t, svc.db.Where("id = ?", order.ID).First(&reloaded).Error)
	assert.Equal(t, domain.OrderStatusPending, reloaded.Status)
	assert.Equal(t, domain.PaymentStatusPending, reloaded.PaymentStatus)
}

func TestHandleWebhookIgnoresUnknownEventType(t *testing.T) {
	svc, _ := newPaymentService(t)

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_other_1",
		"object": "event",
		"api_version": %q,
		"type": "customer.created",
		"data": {"object": {"object": "customer", "id": "cus_1"}}
	}`, stripe.APIVersion))
	assert.NoError(t, svc.HandleWebhook(context.Background(), payload, signPayload(payload)))
}

func TestMarkOrderPaidUnknownOrder(t *testing.T) {
	db := newTestDB(t)
	err := MarkOrderPaid(db, 424242, domain.PaymentMethodTransfer, "", dec("10"), "usd")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMarkTransferPendingUnknownOrder(t *testing.T) {
	svc, _ := newPaymentService(t)
	err := svc.MarkTransferPending(context.Background(), 424242)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
