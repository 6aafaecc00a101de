package api

// swagger:model api.UpdateUserRequest
type UpdateUserRequest struct {
	FirstName      string   `json:"firstName" form:"firstName" validate:"required" example:"Ada"`
	LastName       string   `json:"lastName" form:"lastName" validate:"required" example:"Lovelace"`
	Email          string   `json:"email" form:"email" validate:"required,email" example:"ada@fiu.edu"`
	PantherID      string   `json:"pantherId" form:"pantherId" validate:"required" example:"6123456"`
	PhoneNumber    string   `json:"phoneNumber" form:"phoneNumber" example:"305-555-0100"`
	Role           string   `json:"role" form:"role" validate:"required,role" example:"grant"`
	Status         string   `json:"status" form:"status" validate:"omitempty,userstatus" example:"active"`
	AuthorizedLabs []string `json:"authorizedLabs" form:"authorizedLabs" validate:"required,dive,lab" example:"EC3625"`
}
