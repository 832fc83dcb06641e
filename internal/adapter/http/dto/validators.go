package dto

import (
	"html"
	"reflect"
	"strings"

	"arena-ledger/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validCategories = map[string]struct{}{
	string(domain.CategoryBookingPayment): {},
	string(domain.CategoryOrderPayment):   {},
	string(domain.CategoryAdPayment):      {},
	string(domain.CategoryWalletRecharge): {},
	string(domain.CategoryTransfer):       {},
	string(domain.CategoryRefund):         {},
	string(domain.CategoryAdjustment):     {},
	string(domain.CategoryCommission):     {},
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("tx_category", validateCategory)
	}
}

// validateCategory accepts only the known transaction categories.
func validateCategory(fl validator.FieldLevel) bool {
	_, ok := validCategories[fl.Field().String()]
	return ok
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
