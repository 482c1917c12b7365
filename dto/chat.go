package dto

// ChatRequest is the body of POST /chat/predict
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse carries the chatbot answer
type ChatResponse struct {
	Answer string `json:"answer"`
	Cached bool   `json:"cached"`
}
