package requests

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return v
}

// SendMessageRequest is the body of POST /chat/message.
type SendMessageRequest struct {
	Message   string  `json:"message" validate:"required,max=4000"`
	SessionID *string `json:"sessionId" validate:"omitempty,uuid"`
}

// Normalize trims the message and drops a blank session id.
func (r *SendMessageRequest) Normalize() {
	r.Message = strings.TrimSpace(r.Message)
	if r.SessionID != nil {
		trimmed := strings.TrimSpace(*r.SessionID)
		if trimmed == "" {
			r.SessionID = nil
		} else {
			r.SessionID = &trimmed
		}
	}
}

// Validate returns per-field messages, or nil when the request is valid.
func (r *SendMessageRequest) Validate() map[string]string {
	return fieldErrors(validate.Struct(r), map[string]string{
		"message.required": "Message cannot be empty",
		"message.max":      "Message too long",
		"sessionId.uuid":   "Invalid uuid",
	})
}

// SuppliedSessionID returns the session id or "" when absent.
func (r *SendMessageRequest) SuppliedSessionID() string {
	if r.SessionID == nil {
		return ""
	}
	return *r.SessionID
}

// HistoryQuery is the query of GET /chat/history.
type HistoryQuery struct {
	SessionID string `form:"sessionId" validate:"required"`
}

func (q *HistoryQuery) Normalize() {
	q.SessionID = strings.TrimSpace(q.SessionID)
}

func (q *HistoryQuery) Validate() map[string]string {
	return fieldErrors(validate.Struct(q), map[string]string{
		"sessionId.required": "sessionId is required",
	})
}

func fieldErrors(err error, messages map[string]string) map[string]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			out[fe.Field()] = msg
			continue
		}
		out[fe.Field()] = "failed on " + fe.Tag()
	}
	return out
}
