package validate

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Alturino/checkout/internal/domain"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Get returns the shared validator with the order status tags registered.
func Get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		_ = instance.RegisterValidation("orderstatus", OrderStatus)
		_ = instance.RegisterValidation("paymentstatus", PaymentStatus)
	})
	return instance
}

func Struct(c context.Context, s interface{}) error {
	return Get().StructCtx(c, s)
}

func OrderStatus(fl validator.FieldLevel) bool {
	_, err := domain.ParseOrderStatus(fl.Field().String())
	return err == nil
}

func PaymentStatus(fl validator.FieldLevel) bool {
	_, err := domain.ParsePaymentStatus(fl.Field().String())
	return err == nil
}
