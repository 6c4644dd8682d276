package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type AllowedActionsResponse struct {
	Status  string   `json:"status"`
	Allowed []string `json:"allowed"`
}
