package api

// swagger:model api.SetupPasswordRequest
type SetupPasswordRequest struct {
	Token    string `json:"token" form:"token" validate:"required" example:"6f1c0e9a-4c1d-4e0b-9a57-2f3e3b1c7d10"`
	Password string `json:"password" form:"password" validate:"required,min=6" example:"NewSecret456!"`
}

// SetupInfoResponse 設定密碼頁面顯示的帳號資訊
// swagger:model api.SetupInfoResponse
type SetupInfoResponse struct {
	FirstName      string   `json:"firstName" example:"Ada"`
	LastName       string   `json:"lastName" example:"Lovelace"`
	Email          string   `json:"email" example:"ada@fiu.edu"`
	Role           string   `json:"role" example:"faculty"`
	AuthorizedLabs []string `json:"authorizedLabs" example:"EC3625"`
}
