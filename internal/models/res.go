package models

type ApiResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Total     int         `json:"total,omitempty"`
}

func SuccessResponse(data interface{}, message string) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func ListResponse(data interface{}, total int) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Total:   total,
	}
}

func ErrorResponse(err string) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   err,
	}
}

// CodedErrorResponse is an error body with a stable machine-readable code.
func CodedErrorResponse(code, err string, retryable bool) ApiResponse {
	return ApiResponse{
		Success:   false,
		Error:     err,
		Code:      code,
		Retryable: retryable,
	}
}
