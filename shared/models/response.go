package models

// Error codes returned in ErrorResponse.Code.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeAdvanceInProgress  = "ADVANCE_IN_PROGRESS"
	ErrCodeInsufficientPoints = "INSUFFICIENT_POINTS"
	ErrCodeNameCollision      = "NAME_COLLISION"
	ErrCodeModelUnavailable   = "MODEL_UNAVAILABLE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
