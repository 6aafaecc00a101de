package api

// swagger:model api.CreateUserRequest
type CreateUserRequest struct {
	FirstName      string   `json:"firstName" form:"firstName" validate:"required" example:"Ada"`
	LastName       string   `json:"lastName" form:"lastName" validate:"required" example:"Lovelace"`
	Email          string   `json:"email" form:"email" validate:"required,email" example:"ada@fiu.edu"`
	PantherID      string   `json:"pantherId" form:"pantherId" validate:"required" example:"6123456"`
	PhoneNumber    string   `json:"phoneNumber" form:"phoneNumber" example:"305-555-0100"`
	Role           string   `json:"role" form:"role" validate:"required,role" example:"faculty"`
	AuthorizedLabs []string `json:"authorizedLabs" form:"authorizedLabs" validate:"required,min=1,dive,lab" example:"EC3625"`
}

// swagger:model api.CreateUserResponse
type CreateUserResponse struct {
	Message     string `json:"message" example:"User created successfully"`
	SetupURL    string `json:"setupUrl" example:"http://localhost:3000/setup-password.html?token=..."`
	EmailQueued bool   `json:"emailQueued" example:"true"`
}
