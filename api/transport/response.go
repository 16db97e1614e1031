package transport

// Envelope wraps health reports and failures raised outside the task core:
// validation, authentication and internal errors.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

const CodeValidation = "VALIDATION_FAILED"

func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// NewValidationError lists every rejected field under meta.fields.
func NewValidationError(err *ValidationError) Envelope {
	return NewError(CodeValidation, "the given data was invalid", map[string]interface{}{
		"fields": err.Fields,
	})
}
