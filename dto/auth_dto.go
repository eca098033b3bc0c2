package dto

type SignupDTO struct {
	Username     string `json:"username"      binding:"required"`
	Password     string `json:"password"      binding:"required"`
	Role         string `json:"role"          binding:"required"`
	Organisation string `json:"organisation"`
	NationalID   string `json:"aadhaarNumber"`
}

type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
