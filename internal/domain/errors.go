package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Стабильные коды ошибок, которые видит клиент.
const (
	CodeValidation     = "ORD-4001"
	CodeQuantityLimit  = "ORD-4002"
	CodeMalformedInput = "ORD-4004"
	CodeOrderNotFound  = "ORD-4041"
	CodeUnexpected     = "ORD-5001"
)

var (
	// ErrValidation: запрос не прошёл проверку формы полей.
	ErrValidation = errors.New("validation failed")
	// ErrBusinessRule: запрос корректен, но нарушает бизнес-правило.
	ErrBusinessRule = errors.New("business rule violated")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderIDInvalid: попытка присвоить неположительный идентификатор.
	ErrOrderIDInvalid = errors.New("order id must be positive")
	// ErrOrderIDAlreadyAssigned: идентификатор заказа уже выставлен.
	ErrOrderIDAlreadyAssigned = errors.New("order id already assigned")
	// ErrCreatedAtAlreadySet: время создания уже зафиксировано.
	ErrCreatedAtAlreadySet = errors.New("order created_at already set")
	// ErrUnsupportedSortField: сортировка по неизвестному полю.
	ErrUnsupportedSortField = errors.New("unsupported sort field")
	// ErrOrderAlreadyExists: хранилище уже содержит заказ с таким идентификатором.
	ErrOrderAlreadyExists = errors.New("order already exists")
)

// QuantityLimitMessage: сообщение для клиента при превышении лимита количества.
const QuantityLimitMessage = "Quantity exceeds allowed limit"

// ValidationError содержит замечания по полям запроса: поле -> сообщение.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError создаёт ошибку валидации с одним полем.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add добавляет замечание по полю.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// Empty сообщает, что замечаний нет.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// BusinessRuleError описывает нарушение бизнес-правила с отдельным кодом.
type BusinessRuleError struct {
	Code    string
	Message string
}

// NewQuantityLimitError возвращает ошибку превышения максимального количества.
func NewQuantityLimitError() *BusinessRuleError {
	return &BusinessRuleError{Code: CodeQuantityLimit, Message: QuantityLimitMessage}
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

func (e *BusinessRuleError) Unwrap() error {
	return ErrBusinessRule
}

// NotFoundError хранит запрошенный идентификатор для диагностики.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order not found with id: %d", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrOrderNotFound
}

// IsNotFound проверяет, является ли ошибка отсутствием заказа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

// IsClientError сообщает, что ошибка вызвана запросом, а не сбоем системы.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrBusinessRule) || errors.Is(err, ErrOrderNotFound)
}
