package types

// Response is what services hand back to handlers. The response middleware
// renders it as a ResponseAPI envelope.
type Response struct {
	Code    int
	Message string
	Data    any
	Error   error
}

type ResponseAPI struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
