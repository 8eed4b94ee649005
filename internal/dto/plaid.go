package dto

type CreateLinkTokenRequest struct {
	UserID string `json:"userId"`
}

type ExchangePublicTokenRequest struct {
	PublicToken string `json:"public_token"`
}

type GetTransactionsRequest struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"userId"`
	Async       bool   `json:"async"`
}
