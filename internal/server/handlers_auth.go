package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dhruvprajapati002/PassGuard/internal/auth"
	"github.com/dhruvprajapati002/PassGuard/internal/otp"
)

// resendCooldown is the minimum gap between OTP emails for one signup.
const resendCooldown = 60 * time.Second

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailReq struct {
	Email string `json:"email"`
}

type verifyOTPReq struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userResp  `json:"user"`
}

type userResp struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// handleRegister parks the signup in the pending store and emails a one-time
// code. No user document exists until the code is verified.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.rlRegisterIP.allow(getClientIP(r)) {
		tooMany(w, 60, "Too many registration attempts. Please try again later.")
		return
	}

	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Email == "" || !isValidEmail(req.Email) {
		writeMessage(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if err := validatePassword(req.Password); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.users.FindByEmail(req.Email); err == nil {
		writeMessage(w, http.StatusBadRequest, "User already exists")
		return
	}

	hash, err := auth.HashPassword(auth.DefaultArgon, req.Password)
	if err != nil {
		s.logger.Printf("hash password: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	code, err := otp.NewCode()
	if err != nil {
		s.logger.Printf("otp generation: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	if err := s.pending.Upsert(&auth.PendingUser{
		Name:     req.Name,
		Email:    req.Email,
		PassHash: hash,
		OTP:      code,
	}); err != nil {
		s.logger.Printf("pending upsert: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	s.deliverOTP(req.Email, req.Name, code)
	writeJSON(w, map[string]string{
		"message": "Verification code sent to your email",
		"email":   req.Email,
	})
}

func (s *Server) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.rlRegisterIP.allow(getClientIP(r)) {
		tooMany(w, 60, "Too many requests. Please try again later.")
		return
	}

	var req emailReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		writeMessage(w, http.StatusBadRequest, "Email is required")
		return
	}

	p, err := s.pending.FindByEmail(email)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "No pending registration found for this email")
		return
	}
	if wait := resendCooldown - time.Since(p.LastOTPSent); wait > 0 {
		tooMany(w, int(wait.Seconds())+1, "Please wait before requesting a new code")
		return
	}

	code, err := otp.NewCode()
	if err != nil {
		s.logger.Printf("otp generation: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Could not resend code")
		return
	}
	if err := s.pending.RefreshOTP(email, code); err != nil {
		if errors.Is(err, auth.ErrPendingNotFound) {
			writeMessage(w, http.StatusNotFound, "No pending registration found for this email")
			return
		}
		s.logger.Printf("otp refresh: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Could not resend code")
		return
	}

	s.deliverOTP(email, p.Name, code)
	writeMessage(w, http.StatusOK, "Verification code resent")
}

// handleVerifyOTP checks the submitted code and promotes the pending signup
// to a real user. Expiry is checked here as well as by the store's TTL index,
// since TTL deletion runs on a sweep and can lag.
func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.rlVerifyIP.allow(getClientIP(r)) {
		tooMany(w, 60, "Too many verification attempts. Please try again later.")
		return
	}

	var req verifyOTPReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	code := strings.TrimSpace(req.OTP)
	if email == "" || code == "" {
		writeMessage(w, http.StatusBadRequest, "Email and verification code are required")
		return
	}

	p, err := s.pending.FindByEmail(email)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "No pending registration found for this email")
		return
	}
	if time.Since(p.CreatedAt) > auth.PendingTTL {
		_ = s.pending.Delete(email)
		writeMessage(w, http.StatusBadRequest, "Verification code expired")
		return
	}

	if !otp.Match(code, p.OTP) {
		attempts, err := s.pending.RecordAttempt(email)
		if err == nil && attempts >= auth.MaxOTPAttempts {
			_ = s.pending.Delete(email)
			writeMessage(w, http.StatusBadRequest, "Too many incorrect attempts. Please register again.")
			return
		}
		writeMessage(w, http.StatusBadRequest, "Invalid verification code")
		return
	}

	user, err := s.users.Add(&auth.User{
		Name:     p.Name,
		Email:    p.Email,
		PassHash: p.PassHash,
	})
	if err != nil {
		_ = s.pending.Delete(email)
		if errors.Is(err, auth.ErrUserExists) {
			writeMessage(w, http.StatusBadRequest, "User already exists")
			return
		}
		s.logger.Printf("create user: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	_ = s.pending.Delete(email)

	tok, exp, err := s.signer.IssueToken(user.ID)
	if err != nil {
		s.logger.Printf("token issue: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	s.logger.Printf("user registered id=%s", user.ID)
	writeJSONStatus(w, http.StatusCreated, loginResp{
		Message:   "Email verified successfully",
		Token:     tok,
		ExpiresAt: exp,
		User:      userResp{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

// handleLogin answers invalid credentials with 400, matching the error shape
// the frontend already handles; it never distinguishes an unknown email from
// a wrong password.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.rlLoginIP.allow(getClientIP(r)) {
		tooMany(w, 60, "Too many login attempts. Please try again later.")
		return
	}

	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if !s.rlLoginEmail.allow(email) {
		tooMany(w, 60, "Too many login attempts. Please try again later.")
		return
	}

	user, err := s.users.FindByEmail(email)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	ok, err := auth.VerifyPassword(req.Password, user.PassHash)
	if err != nil || !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	tok, exp, err := s.signer.IssueToken(user.ID)
	if err != nil {
		s.logger.Printf("token issue: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Login failed")
		return
	}

	writeJSON(w, loginResp{
		Message:   "Login successful",
		Token:     tok,
		ExpiresAt: exp,
		User:      userResp{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

func (s *Server) deliverOTP(email, name, code string) {
	expires := time.Now().Add(auth.PendingTTL)
	if s.mail.Enabled() {
		if err := s.mail.SendOTP(email, name, code, expires); err != nil {
			s.logger.Printf("otp email error: %v", err)
		}
		return
	}
	s.logger.Printf("verification code for %s -> %s", email, code)
}
