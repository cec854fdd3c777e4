package dto

// Envelope wraps every response body.
type Envelope struct {
	Success    bool       `json:"success"`
	StatusCode int        `json:"statusCode"`
	Data       any        `json:"data,omitempty"`
	Error      *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	Content []T `json:"content"`
	Page    int `json:"page"`
	Size    int `json:"size"`
	Total   int `json:"total"`
}

// IDResponse is returned by create endpoints that only report the new id.
type IDResponse struct {
	ID int64 `json:"id"`
}
