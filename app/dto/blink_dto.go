package dto

// CreateBlinkRequest defines input for registering a new blink.
type CreateBlinkRequest struct {
	Codename    string  `json:"codename" validate:"required,min=1,max=100"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	SolanaKey   string  `json:"solana_key" validate:"required,solana_address"`
	AskingFee   float64 `json:"asking_fee" validate:"gte=0"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url,max=2048"`
}

// BlinkDTO is the public representation of a blink record.
type BlinkDTO struct {
	ID            uint    `json:"id"`
	UniqueBlinkID string  `json:"unique_blink_id"`
	AnalyticsID   *string `json:"analytics_id,omitempty"`
	Codename      string  `json:"codename"`
	Email         string  `json:"email"`
	SolanaKey     string  `json:"solana_key"`
	AskingFee     float64 `json:"asking_fee"`
	Description   *string `json:"description,omitempty"`
	ImageURL      *string `json:"image_url,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// CreateBlinkResponse returns the created record plus its shareable action
// URL.
type CreateBlinkResponse struct {
	Blink    BlinkDTO `json:"blink"`
	ShareURL string   `json:"share_url"`
}
