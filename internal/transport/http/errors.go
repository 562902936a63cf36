package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/omslab/ordercore/internal/domain"
	"github.com/omslab/ordercore/internal/tracing"
)

// Коды ошибок маршрутизации: запрос не дошёл ни до одного обработчика.
const (
	CodeRouteNotFound    = "ORD-4040"
	CodeMethodNotAllowed = "ORD-4050"
)

const (
	msgValidationFailed = "Validation failed"
	msgMalformedJSON    = "Malformed JSON request"
	msgUnexpected       = "Unexpected error occurred"
)

// ErrorResponse: единый формат ошибки для клиентов.
// TraceID равен null, если у запроса нет активного трейса.
type ErrorResponse struct {
	Timestamp string            `json:"timestamp"`
	Status    int               `json:"status"`
	ErrorCode string            `json:"errorCode"`
	Message   string            `json:"message"`
	Path      string            `json:"path"`
	TraceID   *string           `json:"traceId"`
	Errors    map[string]string `json:"errors,omitempty"`
}

var (
	// errMalformedBody помечает тело запроса, которое не удалось разобрать.
	errMalformedBody    = errors.New("malformed request body")
	errRouteNotFound    = errors.New("no handler found")
	errMethodNotAllowed = errors.New("method not allowed")
)

// panicError: паника обработчика, пойманная recoverPanics.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// writeError: единственное место, где ошибки переводятся в HTTP-ответ.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Path:      r.URL.Path,
	}
	traceID := tracing.TraceID(r.Context())
	if traceID != "" {
		resp.TraceID = &traceID
	}

	var (
		verr *domain.ValidationError
		rule *domain.BusinessRuleError
	)
	switch {
	case errors.As(err, &verr):
		resp.Status = http.StatusBadRequest
		resp.ErrorCode = domain.CodeValidation
		resp.Message = msgValidationFailed
		resp.Errors = verr.Fields
	case errors.As(err, &rule):
		resp.Status = http.StatusBadRequest
		resp.ErrorCode = rule.Code
		resp.Message = rule.Message
	case domain.IsNotFound(err):
		resp.Status = http.StatusNotFound
		resp.ErrorCode = domain.CodeOrderNotFound
		resp.Message = notFoundMessage(err)
	case errors.Is(err, errMalformedBody):
		resp.Status = http.StatusBadRequest
		resp.ErrorCode = domain.CodeMalformedInput
		resp.Message = msgMalformedJSON
	case errors.Is(err, errRouteNotFound):
		resp.Status = http.StatusNotFound
		resp.ErrorCode = CodeRouteNotFound
		resp.Message = fmt.Sprintf("No handler found for %s %s", r.Method, r.URL.Path)
	case errors.Is(err, errMethodNotAllowed):
		resp.Status = http.StatusMethodNotAllowed
		resp.ErrorCode = CodeMethodNotAllowed
		resp.Message = fmt.Sprintf("Request method %s is not supported", r.Method)
	default:
		resp.Status = http.StatusInternalServerError
		resp.ErrorCode = domain.CodeUnexpected
		resp.Message = msgUnexpected
	}

	a.logError(r, traceID, resp, err)
	writeJSON(w, resp.Status, resp)
}

func (a *api) logError(r *http.Request, traceID string, resp ErrorResponse, err error) {
	entry := a.logger.WithFields(log.Fields{
		"method":   r.Method,
		"path":     r.URL.Path,
		"trace_id": traceID,
		"code":     resp.ErrorCode,
	})

	switch {
	case resp.Status >= http.StatusInternalServerError:
		var pe *panicError
		if errors.As(err, &pe) {
			entry = entry.WithField("stack", string(pe.stack))
		}
		entry.WithError(err).Error("unexpected error while handling request")
	case domain.IsClientError(err):
		if len(resp.Errors) > 0 {
			entry = entry.WithField("errors", resp.Errors)
		}
		entry.Info(resp.Message)
	default:
		entry.WithError(err).Debug("request rejected")
	}
}

func notFoundMessage(err error) string {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return domain.ErrOrderNotFound.Error()
}
