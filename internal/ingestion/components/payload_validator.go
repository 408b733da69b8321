package components

import (
	"bytes"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/payment-webhook-ledger/internal/domain/shared"
	"github.com/payment-webhook-ledger/internal/domain/webhook"
	"github.com/payment-webhook-ledger/internal/ingestion/service"
)

// Upper bounds follow the transactions table columns
const (
	maxIdentifierLength = 255
	maxLabelLength      = 100
	maxEmailLength      = 320
	maxAmountDigits     = 16 // NUMERIC(18, 2)
)

var (
	countryCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// PayloadValidator checks a decoded event and stops at the first violated rule.
// Rules run in a fixed order so the reported field is deterministic.
type PayloadValidator struct {
	currencies []string
	statuses   []shared.TransactionStatus
}

func NewPayloadValidator() *PayloadValidator {
	return &PayloadValidator{
		currencies: shared.SupportedCurrencies,
		statuses:   shared.ValidTransactionStatuses,
	}
}

func (v *PayloadValidator) Validate(event *webhook.IncomingEvent) error {
	if err := validateRequired(event); err != nil {
		return err
	}
	if err := validateLengths(event); err != nil {
		return err
	}

	data := event.Data
	if err := validateAmount(data.Amount); err != nil {
		return err
	}

	if !slices.Contains(v.currencies, strings.ToUpper(strings.TrimSpace(data.Currency))) {
		return &service.ValidationError{
			Field:   "data.currency",
			Message: "currency must be one of: " + strings.Join(v.currencies, ", "),
		}
	}

	if !slices.Contains(v.statuses, shared.TransactionStatus(data.Status)) {
		names := make([]string, len(v.statuses))
		for i, s := range v.statuses {
			names[i] = string(s)
		}
		return &service.ValidationError{
			Field:   "data.status",
			Message: "status must be one of: " + strings.Join(names, ", "),
		}
	}

	for _, party := range []struct {
		path  string
		party *webhook.Party
	}{
		{"data.sender", data.Sender},
		{"data.receiver", data.Receiver},
	} {
		if !countryCodePattern.MatchString(strings.ToUpper(strings.TrimSpace(party.party.Country))) {
			return &service.ValidationError{
				Field:   party.path + ".country",
				Message: "country must be a 2-letter ISO code",
			}
		}
	}

	if !emailPattern.MatchString(data.Sender.Email) {
		return &service.ValidationError{Field: "data.sender.email", Message: "email must be a valid address"}
	}
	if !emailPattern.MatchString(data.Receiver.Email) {
		return &service.ValidationError{Field: "data.receiver.email", Message: "email must be a valid address"}
	}

	return nil
}

func validateRequired(event *webhook.IncomingEvent) error {
	if blank(event.EventID) {
		return required("event_id")
	}
	if blank(event.EventType) {
		return required("event_type")
	}
	if event.Data == nil {
		return required("data")
	}

	data := event.Data
	if blank(data.TransactionID) {
		return required("data.transaction_id")
	}
	if isNullJSON(data.Amount) {
		return required("data.amount")
	}
	if blank(data.Currency) {
		return required("data.currency")
	}
	if err := requiredParty("data.sender", data.Sender); err != nil {
		return err
	}
	if err := requiredParty("data.receiver", data.Receiver); err != nil {
		return err
	}
	if blank(data.Status) {
		return required("data.status")
	}
	if blank(data.PaymentMethod) {
		return required("data.payment_method")
	}
	return nil
}

func requiredParty(path string, party *webhook.Party) error {
	if party == nil {
		return required(path)
	}
	switch {
	case blank(party.ID):
		return required(path + ".id")
	case blank(party.Name):
		return required(path + ".name")
	case blank(party.Email):
		return required(path + ".email")
	case blank(party.Country):
		return required(path + ".country")
	}
	return nil
}

func validateLengths(event *webhook.IncomingEvent) error {
	data := event.Data
	fields := []struct {
		path  string
		value string
		max   int
	}{
		{"event_id", event.EventID, maxIdentifierLength},
		{"event_type", event.EventType, maxLabelLength},
		{"data.transaction_id", data.TransactionID, maxIdentifierLength},
		{"data.sender.id", data.Sender.ID, maxIdentifierLength},
		{"data.sender.name", data.Sender.Name, maxIdentifierLength},
		{"data.sender.email", data.Sender.Email, maxEmailLength},
		{"data.receiver.id", data.Receiver.ID, maxIdentifierLength},
		{"data.receiver.name", data.Receiver.Name, maxIdentifierLength},
		{"data.receiver.email", data.Receiver.Email, maxEmailLength},
		{"data.payment_method", data.PaymentMethod, maxLabelLength},
	}
	for _, f := range fields {
		if utf8.RuneCountInString(f.value) > f.max {
			return &service.ValidationError{
				Field:   f.path,
				Message: fmt.Sprintf("%s must be at most %d characters", f.path, f.max),
			}
		}
	}
	return nil
}

// validateAmount accepts only JSON number tokens that are positive with at most two decimals
func validateAmount(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] == '"' {
		return &service.ValidationError{Field: "data.amount", Message: "amount must be a number"}
	}

	amount, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		return &service.ValidationError{Field: "data.amount", Message: "amount must be a number", Err: err}
	}
	if !amount.IsPositive() {
		return &service.ValidationError{Field: "data.amount", Message: "amount must be greater than 0"}
	}

	// Bound magnitude and scale from the exponent before anything rescales.
	// Rounding a value like 1e-100000000 materializes a huge coefficient.
	digits := int64(amount.NumDigits())
	exp := int64(amount.Exponent())
	if digits+exp > maxAmountDigits {
		return &service.ValidationError{Field: "data.amount", Message: "amount must be at most 9999999999999999.99"}
	}
	if exp < -2 && -exp-2 >= digits {
		return &service.ValidationError{Field: "data.amount", Message: "amount must have at most 2 decimal places"}
	}
	if !amount.Equal(amount.Round(2)) {
		return &service.ValidationError{Field: "data.amount", Message: "amount must have at most 2 decimal places"}
	}
	return nil
}

func required(field string) error {
	return &service.ValidationError{Field: field, Message: field + " is required"}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isNullJSON(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
