package types

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (r *HealthResponse) GetStatus() string {
	if r == nil {
		return ""
	}
	return r.Status
}

func (r *ErrorResponse) GetError() string {
	if r == nil {
		return ""
	}
	return r.Error
}
