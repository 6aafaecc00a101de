package api

// swagger:model api.LoginRequest
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required" example:"admin@fiu.edu"`
	Password string `json:"password" form:"password" validate:"required" example:"admin123"`
}
