package shop

import (
	"fmt"

	evbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/pyropuff/pyroshop/config"
	"github.com/pyropuff/pyroshop/internal/domain"
)

// Notifier mails a short confirmation when an order is paid. It hangs
// off the event bus so payment processing never waits on SMTP.
type Notifier struct {
	db  *gorm.DB
	cfg config.SmtpConfig
}

func NewNotifier(db *gorm.DB, cfg config.SmtpConfig) *Notifier {
	return &Notifier{db: db, cfg: cfg}
}

func (n *Notifier) Subscribe(bus evbus.Bus) error {
	return bus.SubscribeAsync(TopicOrderPaid, n.onOrderPaid, false)
}

func (n *Notifier) onOrderPaid(orderID int64) {
	if !n.cfg.Enabled {
		return
	}

	var order domain.Order
	if err := n.db.Where("id = ?", orderID).First(&order).Error; err != nil {
		zap.L().Warn("notify: order lookup failed", zap.Int64("order_id", orderID), zap.Error(err))
		return
	}
	if order.UserID == "" {
		return
	}
	var profile domain.Customer
	if err := n.db.Where("id = ?", order.UserID).First(&profile).Error; err != nil || profile.Email == "" {
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", profile.Email)
	m.SetHeader("Subject", fmt.Sprintf("Order %d payment received", order.ID))
	m.SetBody("text/plain", fmt.Sprintf("We received your payment of %s %s. Your order is now being processed.",
		order.Total.StringFixed(2), order.Currency))

	d := gomail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.Username, n.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		zap.L().Warn("notify: send failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
}
