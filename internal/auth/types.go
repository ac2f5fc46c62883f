package auth

// Profile describes the signed-in operator. The console only displays it.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Credentials is what the login form submits. Both fields are compared
// and forwarded exactly as entered.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Grant is the outcome of a successful login.
type Grant struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}
