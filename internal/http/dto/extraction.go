package dto

type CreateExtractionRequest struct {
	Channels []string `json:"channels" binding:"required,min=1,dive,min=1"`
}

type CreateExtractionResponse struct {
	Enqueued int `json:"enqueued"`
}
