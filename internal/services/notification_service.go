package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"

	"github.com/example/wayra/internal/models"
)

// NotificationService pushes back-office alerts to Telegram. Every send is
// best-effort: a failure is logged and never propagated into the business
// flow that triggered it.
type NotificationService struct {
	botToken    string
	adminChatID string
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(botToken, adminChatID string) *NotificationService {
	return &NotificationService{
		botToken:    botToken,
		adminChatID: adminChatID,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *NotificationService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *NotificationService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// FormatPrice formats an amount with currency symbol and thousand separators.
func FormatPrice(amount float64, currency string) string {
	symbol := currency + " "
	if currency == "" || currency == "PEN" {
		symbol = "S/ "
	}

	cents := int64(math.Round(amount * 100))
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	str := fmt.Sprintf("%d", cents/100)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return fmt.Sprintf("%s%s%s.%02d", symbol, sign, result.String(), cents%100)
}

// NotifyNewOrder alerts the admin chat about a freshly placed order. It is
// meant to run on its own goroutine; errors are logged and swallowed.
func (s *NotificationService) NotifyNewOrder(order *models.Order) {
	if s == nil || s.adminChatID == "" || order == nil {
		return
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			item.ProductName,
			item.Quantity,
			FormatPrice(item.UnitPrice, order.Currency),
			FormatPrice(item.Subtotal-item.Discount, order.Currency),
		))
	}

	customerName := ""
	customerPhone := ""
	if len(order.CustomerSnapshot) > 0 {
		var personal PersonalDataInput
		if err := json.Unmarshal(order.CustomerSnapshot, &personal); err == nil {
			customerName = strings.TrimSpace(personal.FirstName + " " + personal.LastName)
			customerPhone = personal.Phone
		}
	}

	paymentText := "contado"
	if order.PaymentMethod != nil {
		paymentText = order.PaymentMethod.Name
	}
	if order.PaymentType == models.PaymentTypeCredit {
		paymentText = fmt.Sprintf("%s (%d cuotas de %s)",
			paymentText,
			order.InstallmentCount,
			FormatPrice(order.InstallmentAmount, order.Currency),
		)
	}

	message := fmt.Sprintf(`<b>🛒 NUEVO PEDIDO</b>
<b>📋 Pedido:</b> %s
<b>👤 Cliente:</b> %s
<b>📞 Teléfono:</b> %s
<b>📦 Productos:</b>
%s
<b>💰 Total:</b> %s
<b>💳 Pago:</b> %s
<b>📍 Estado:</b> %s
━━━━━━━━━━━━━━━━━━`,
		order.OrderNumber,
		customerName,
		customerPhone,
		itemsList.String(),
		FormatPrice(order.Total, order.Currency),
		paymentText,
		order.Status,
	)

	if err := s.SendToAdmin(strings.TrimSpace(message)); err != nil {
		log.Printf("[Telegram] New order notification failed for %s: %v", order.OrderNumber, err)
	}
}

// NotifyPaymentCaptured alerts the admin chat that a payment settled.
func (s *NotificationService) NotifyPaymentCaptured(payment *models.Payment) {
	if s == nil || s.adminChatID == "" || payment == nil {
		return
	}

	message := fmt.Sprintf(`<b>✅ PAGO CONFIRMADO</b>
<b>📋 Referencia:</b> %s
<b>💰 Monto:</b> %s
━━━━━━━━━━━━━━━━━━`,
		payment.Reference,
		FormatPrice(payment.Amount, payment.Currency),
	)

	if err := s.SendToAdmin(strings.TrimSpace(message)); err != nil {
		log.Printf("[Telegram] Payment notification failed for %s: %v", payment.Reference, err)
	}
}

// NotifyOrderStatus alerts the admin chat about a lifecycle change driven by
// the back office.
func (s *NotificationService) NotifyOrderStatus(order *models.Order, previous string) {
	if s == nil || s.adminChatID == "" || order == nil {
		return
	}

	message := fmt.Sprintf(`<b>📦 PEDIDO ACTUALIZADO</b>
<b>📋 Pedido:</b> %s
<b>📍 Estado:</b> %s → %s`,
		order.OrderNumber,
		previous,
		order.Status,
	)

	if err := s.SendToAdmin(strings.TrimSpace(message)); err != nil {
		log.Printf("[Telegram] Status notification failed for %s: %v", order.OrderNumber, err)
	}
}
