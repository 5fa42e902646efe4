package api

// Identity service endpoints
const (
	AuthRegister        = "/auth/register"
	AuthLogin           = "/auth/login"
	AuthGoogle          = "/auth/google"
	AuthForgotPassword  = "/auth/password/forgot"
	AuthVerifyResetCode = "/auth/password/verify"
	AuthResetPassword   = "/auth/password/reset"
	AuthMe              = "/auth/me"
)

// PublicEndpoints defines endpoints that don't require authentication
var PublicEndpoints = map[string]bool{
	AuthRegister:        true,
	AuthLogin:           true,
	AuthGoogle:          true,
	AuthForgotPassword:  true,
	AuthVerifyResetCode: true,
	AuthResetPassword:   true,
}
