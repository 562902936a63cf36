package orders

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"

	"github.com/omslab/ordercore/internal/domain"
)

const (
	msgNotBlank   = "must not be blank"
	msgNotNull    = "must not be null"
	msgMinOne     = "must be greater than or equal to 1"
	msgMinZero    = "must be greater than or equal to 0"
	defaultMaxQty = 100
)

// Validator проверяет запрос на создание заказа.
// Сначала форма полей по тегам validate (все замечания сразу), затем бизнес-лимит количества.
type Validator struct {
	shape       *validator.Validate
	maxQuantity int
}

// NewValidator создаёт валидатор с лимитом количества; maxQuantity<=0 означает значение по умолчанию.
func NewValidator(maxQuantity int) Validator {
	if maxQuantity <= 0 {
		maxQuantity = defaultMaxQty
	}
	return Validator{shape: newShapeValidator(), maxQuantity: maxQuantity}
}

func newShapeValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Имена полей в ошибках совпадают с JSON.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// decimal сравнивается по знаку, без перевода во float.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.Sign()
		}
		return nil
	}, decimal.Decimal{})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank: %v", err))
	}
	return v
}

// Validate возвращает *domain.ValidationError или *domain.BusinessRuleError.
func (v Validator) Validate(req CreateOrderRequest) error {
	if err := v.shape.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate order request: %w", err)
		}
		return toValidationError(fieldErrs)
	}
	if *req.Quantity > v.maxQuantity {
		return domain.NewQuantityLimitError()
	}
	return nil
}

func toValidationError(fieldErrs validator.ValidationErrors) *domain.ValidationError {
	verr := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fieldPath(fe.Namespace()), fieldMessage(fe))
	}
	return verr
}

// fieldPath отрезает имя корневой структуры: "CreateOrderRequest.items[0].price" -> "items[0].price".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return msgNotBlank
	case "required":
		return msgNotNull
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	default:
		return "is invalid"
	}
}
