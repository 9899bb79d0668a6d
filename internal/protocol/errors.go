package protocol

import "errors"

const (
	ErrNoResource    = "E_NO_RESOURCE"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrConflict      = "E_CONFLICT"
	ErrBlocked       = "E_BLOCKED"
	ErrWrongTool     = "E_WRONG_TOOL"
	ErrUnknownRecipe = "E_UNKNOWN_RECIPE"
	ErrInternal      = "E_INTERNAL"
)

// Refusal is a rule-level rejection of an action: the acting client is told Message
// and nothing else happens.
type Refusal struct {
	Code    string
	Message string
}

func (r *Refusal) Error() string { return r.Code + ": " + r.Message }

func Refuse(code, msg string) *Refusal { return &Refusal{Code: code, Message: msg} }

// AsRefusal unwraps err to a *Refusal.
func AsRefusal(err error) (*Refusal, bool) {
	var r *Refusal
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
