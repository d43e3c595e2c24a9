package server

// APIResponse is the uniform JSON envelope for every endpoint.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(data any) APIResponse {
	return APIResponse{Success: true, Data: data}
}

func fail(message string) APIResponse {
	return APIResponse{Success: false, Error: message}
}
