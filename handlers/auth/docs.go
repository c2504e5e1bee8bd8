package auth

import (
	"net/http"

	"github.com/tech-arch1tect/hrcore/openapi"
	"github.com/tech-arch1tect/hrcore/server"
)

// Describe documents the auth routes. Paths are relative to the API prefix,
// which the document carries as its server URL.
func Describe(doc *openapi.Document) {
	doc.Tag("auth", "Registration, sign-in and session management")

	errResp := server.ErrorResponse{}
	access := []string{"accessCookie"}
	mutating := []string{"accessCookie", "csrfHeader"}

	doc.Operation(http.MethodPost, "/auth/register").ID("register").Tags("auth").
		Summary("Create an account and sign in").
		Body(RegisterRequest{}, "New account").
		Response(http.StatusCreated, UserResponse{}, "Registered; auth cookies set").
		Response(http.StatusBadRequest, errResp, "Validation failed").
		Response(http.StatusConflict, errResp, "Email already registered").
		Build()

	doc.Operation(http.MethodPost, "/auth/login").ID("login").Tags("auth").
		Summary("Sign in with email and password").
		Body(LoginRequest{}, "Credentials").
		Response(http.StatusOK, UserResponse{}, "Signed in; auth cookies set").
		Response(http.StatusUnauthorized, errResp, "Invalid credentials").
		Build()

	doc.Operation(http.MethodPost, "/auth/refresh").ID("refresh").Tags("auth").
		Summary("Rotate the refresh token").
		Security("csrfHeader").
		Response(http.StatusOK, UserResponse{}, "Rotated; auth cookies replaced").
		Response(http.StatusUnauthorized, errResp, "Missing, invalid or reused refresh token").
		Response(http.StatusForbidden, errResp, "CSRF check failed").
		Build()

	doc.Operation(http.MethodPost, "/auth/logout").ID("logout").Tags("auth").
		Summary("Revoke the current session").
		Security("csrfHeader").
		Response(http.StatusOK, OKResponse{}, "Signed out; cookies cleared").
		Build()

	doc.Operation(http.MethodPost, "/auth/logout-all").ID("logoutAll").Tags("auth").
		Summary("Revoke every session of the current user").
		Security(mutating...).
		Response(http.StatusOK, OKResponse{}, "All sessions revoked").
		Response(http.StatusUnauthorized, errResp, "Not signed in").
		Build()

	doc.Operation(http.MethodGet, "/auth/me").ID("me").Tags("auth").
		Summary("Current user").
		Security(access...).
		Response(http.StatusOK, UserResponse{}, "Current user").
		Response(http.StatusUnauthorized, errResp, "Not signed in").
		Build()

	doc.Operation(http.MethodGet, "/auth/sessions").ID("listSessions").Tags("auth").
		Summary("List sessions, newest first").
		Security(access...).
		Response(http.StatusOK, SessionsResponse{}, "Sessions").
		Build()

	doc.Operation(http.MethodPost, "/auth/change-password").ID("changePassword").Tags("auth").
		Summary("Change password").
		Security(mutating...).
		Body(ChangePasswordRequest{}, "Current and new password").
		Response(http.StatusOK, OKResponse{}, "Password changed").
		Response(http.StatusUnauthorized, errResp, "Wrong current password").
		Build()

	doc.Operation(http.MethodPost, "/auth/send-verify-email").ID("sendVerifyEmail").Tags("auth").
		Summary("Email a verification link").
		Security(mutating...).
		Response(http.StatusOK, OKResponse{}, "Sent, or already verified").
		Build()

	doc.Operation(http.MethodGet, "/auth/verify-email").ID("verifyEmail").Tags("auth").
		Summary("Consume a verification token").
		QueryParam("token", "Token from the verification email", true).
		Response(http.StatusOK, OKResponse{}, "Email verified").
		Response(http.StatusBadRequest, errResp, "Invalid, expired or used token").
		Build()

	doc.Operation(http.MethodPost, "/auth/forgot-password").ID("forgotPassword").Tags("auth").
		Summary("Request a password reset link").
		Body(ForgotPasswordRequest{}, "Account email").
		Response(http.StatusOK, OKResponse{}, "Accepted whether or not the email exists").
		Build()

	doc.Operation(http.MethodPost, "/auth/reset-password").ID("resetPassword").Tags("auth").
		Summary("Set a new password with a reset token").
		Body(ResetPasswordRequest{}, "Reset token and new password").
		Response(http.StatusOK, OKResponse{}, "Password reset; all sessions revoked").
		Response(http.StatusBadRequest, errResp, "Invalid, expired or used token").
		Build()
}
