package serrors

import "fmt"

// BaseError is a coded error surfaced to callers of the service layer: the
// code is stable for programmatic matching, the message is a developer-facing
// default and the locale key points at the translated variant when a UI wants
// one.
type BaseError struct {
	Code      string
	Message   string
	LocaleKey string
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{Code: code, Message: message, LocaleKey: localeKey}
}

// NewFieldRequiredError reports a missing or blank required field.
func NewFieldRequiredError(field, localeKey string) *BaseError {
	return &BaseError{
		Code:      "VALIDATION_REQUIRED",
		Message:   fmt.Sprintf("%s is required", field),
		LocaleKey: localeKey,
	}
}

type ValidationErrors map[string]*BaseError

// Messages flattens validation errors into field -> message for API payloads.
func (v ValidationErrors) Messages() map[string]string {
	out := make(map[string]string, len(v))
	for field, err := range v {
		out[field] = err.Message
	}
	return out
}
