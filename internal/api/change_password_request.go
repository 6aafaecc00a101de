package api

// swagger:model api.ChangePasswordRequest
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" form:"old_password" validate:"required" example:"OldSecret123!"`
	NewPassword string `json:"newPassword" form:"new_password" validate:"required,min=6" example:"NewSecret456!"`
}
