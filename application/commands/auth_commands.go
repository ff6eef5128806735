package commands

// RegisterUserCommand creates an account
type RegisterUserCommand struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (c RegisterUserCommand) Validate() error { return ValidateStruct(c) }

// LoginCommand exchanges credentials for a token
type LoginCommand struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c LoginCommand) Validate() error { return ValidateStruct(c) }

// AuthResult is returned by register and login
type AuthResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}
