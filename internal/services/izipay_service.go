package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/example/wayra/internal/apperr"
	"github.com/example/wayra/internal/config"
	"github.com/example/wayra/internal/models"
)

// IzipayService talks to the Izipay payment gateway: it requests signed
// form tokens for client-side capture and verifies the signed answers the
// gateway posts back.
type IzipayService struct {
	cfg    *config.Config
	client *http.Client
}

// NewIzipayService constructs IzipayService with a bounded HTTP client.
// Gateway calls are not retried; a failure surfaces to the caller.
func NewIzipayService(cfg *config.Config) *IzipayService {
	return &IzipayService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.GatewayTimeout},
	}
}

// FormTokenResult carries the opaque session token and the public key the
// client embeds in the payment form.
type FormTokenResult struct {
	FormToken string `json:"form_token"`
	PublicKey string `json:"public_key"`
}

// GatewayResult is the normalized outcome of a verified gateway answer.
type GatewayResult struct {
	Success         bool
	OrderID         string
	TransactionUUID string
	OrderStatus     string
	Amount          float64
	Currency        string
}

type createPaymentRequest struct {
	Amount   int64                 `json:"amount"`
	Currency string                `json:"currency"`
	OrderID  string                `json:"orderId"`
	Customer createPaymentCustomer `json:"customer"`
}

type createPaymentCustomer struct {
	Email          string         `json:"email"`
	BillingDetails billingDetails `json:"billingDetails"`
}

type billingDetails struct {
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	IdentityCode string `json:"identityCode,omitempty"`
	Country      string `json:"country,omitempty"`
}

type createPaymentResponse struct {
	Status string `json:"status"`
	Answer struct {
		FormToken    string `json:"formToken"`
		ErrorCode    string `json:"errorCode"`
		ErrorMessage string `json:"errorMessage"`
	} `json:"answer"`
}

// CreateFormToken requests a payment-session token for a pending order.
func (s *IzipayService) CreateFormToken(ctx context.Context, order *models.Order) (*FormTokenResult, error) {
	if order.Status != models.OrderStatusPending {
		return nil, apperr.Validationf("a form token can only be issued for pending orders; order %s is %s",
			order.OrderNumber, order.Status)
	}

	var personal PersonalDataInput
	if len(order.CustomerSnapshot) > 0 {
		_ = json.Unmarshal(order.CustomerSnapshot, &personal)
	}

	payload := createPaymentRequest{
		Amount:   int64(math.Round(order.Total * 100)),
		Currency: order.Currency,
		OrderID:  order.OrderNumber,
		Customer: createPaymentCustomer{
			Email: personal.Email,
			BillingDetails: billingDetails{
				FirstName:    personal.FirstName,
				LastName:     personal.LastName,
				PhoneNumber:  personal.Phone,
				IdentityCode: personal.DocumentNumber,
				Country:      s.cfg.DefaultCountry,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.Internal("izipay request marshal", err)
	}

	url := strings.TrimRight(s.cfg.IzipayEndpoint, "/") + "/api-payment/V4/Charge/CreatePayment"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Internal("izipay request build", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+basicAuth(s.cfg.IzipayUsername, s.cfg.IzipayPassword))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperr.Gateway("payment gateway request failed", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.Gateway(fmt.Sprintf("payment gateway returned status %d", resp.StatusCode), nil)
	}

	var parsed createPaymentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, apperr.Gateway("payment gateway answer unmarshal", err)
	}
	if parsed.Status != "SUCCESS" || parsed.Answer.FormToken == "" {
		return nil, apperr.Gateway(fmt.Sprintf("payment gateway refused the session: %s %s",
			parsed.Answer.ErrorCode, parsed.Answer.ErrorMessage), nil)
	}

	return &FormTokenResult{
		FormToken: parsed.Answer.FormToken,
		PublicKey: s.cfg.IzipayPublicKey,
	}, nil
}

// VerifyAnswer checks the kr-hash over a kr-answer payload. The synchronous
// return URL signs with the password, the IPN with the HMAC key; kr-hash-key
// says which.
func (s *IzipayService) VerifyAnswer(krAnswer, krHash, krHashKey string) error {
	key := s.cfg.IzipayHMACKey
	if krHashKey == "password" {
		key = s.cfg.IzipayPassword
	}
	return verifyAnswerHash(krAnswer, krHash, key)
}

func verifyAnswerHash(krAnswer, krHash, key string) error {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(krAnswer))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(krHash))) {
		return apperr.Validationf("gateway answer signature mismatch")
	}
	return nil
}

type gatewayAnswer struct {
	OrderStatus  string `json:"orderStatus"`
	OrderDetails struct {
		OrderID          string `json:"orderId"`
		OrderTotalAmount int64  `json:"orderTotalAmount"`
		OrderCurrency    string `json:"orderCurrency"`
	} `json:"orderDetails"`
	Transactions []struct {
		UUID string `json:"uuid"`
	} `json:"transactions"`
}

// ParseAnswer decodes a kr-answer payload into the normalized result. Only
// the PAID status counts as success; every other status fails the order.
func ParseAnswer(krAnswer string) (*GatewayResult, error) {
	var answer gatewayAnswer
	if err := json.Unmarshal([]byte(krAnswer), &answer); err != nil {
		return nil, apperr.Validationf("malformed gateway answer: %v", err)
	}
	if answer.OrderDetails.OrderID == "" {
		return nil, apperr.Validationf("gateway answer does not identify an order")
	}

	result := &GatewayResult{
		Success:     answer.OrderStatus == "PAID",
		OrderID:     answer.OrderDetails.OrderID,
		OrderStatus: answer.OrderStatus,
		Amount:      float64(answer.OrderDetails.OrderTotalAmount) / 100,
		Currency:    answer.OrderDetails.OrderCurrency,
	}
	if len(answer.Transactions) > 0 {
		result.TransactionUUID = answer.Transactions[0].UUID
	}
	return result, nil
}

// HandleAnswer verifies and parses a signed answer in one step.
func (s *IzipayService) HandleAnswer(krAnswer, krHash, krHashKey string) (*GatewayResult, error) {
	if err := s.VerifyAnswer(krAnswer, krHash, krHashKey); err != nil {
		return nil, err
	}
	return ParseAnswer(krAnswer)
}

func basicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
