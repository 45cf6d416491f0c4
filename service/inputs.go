package service

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-customer-ledger/model"
	"github.com/shopspring/decimal"
)

const (
	maxNameLength    = 32
	maxPhoneLength   = 20
	maxAmountDigits  = 10
	maxAmountDecimal = model.AmountScale
)

// CustomerInput is the writable part of a customer. Create and update both
// require every field.
type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Validate checks field lengths and the email format.
func (in CustomerInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, maxNameLength)),
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Phone, validation.Required, validation.RuneLength(1, maxPhoneLength)),
	)
}

func (in CustomerInput) normalized() CustomerInput {
	return CustomerInput{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Phone: strings.TrimSpace(in.Phone),
	}
}

// TransactionInput is the writable part of a transaction. Amount accepts a
// JSON number or a decimal string. The date is read-only and always set to
// the creation time.
type TransactionInput struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description"`
}

// Validate checks the amount precision.
func (in TransactionInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Amount, validation.Required, validation.By(amountPrecision)),
	)
}

// amountPrecision mirrors a decimal(10,2) column.
func amountPrecision(value interface{}) error {
	d, ok := value.(*decimal.Decimal)
	if !ok || d == nil {
		return nil
	}

	if !d.Equal(d.Round(maxAmountDecimal)) {
		return errors.New("ensure that there are no more than 2 decimal places")
	}

	whole := d.Abs().Truncate(0).String()
	if len(whole) > maxAmountDigits-maxAmountDecimal {
		return errors.New("ensure that there are no more than 10 digits in total")
	}
	return nil
}

func (in TransactionInput) model() *model.Transaction {
	txn := &model.Transaction{
		Description: strings.TrimSpace(in.Description),
	}
	if in.Amount != nil {
		txn.Amount = in.Amount.Round(maxAmountDecimal)
	}
	return txn
}
