package server

import "net/http"

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/health", s.handleHealth)

	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/resend-otp", s.handleResendOTP)
	s.mux.HandleFunc("/api/auth/verify-otp", s.handleVerifyOTP)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)

	s.mux.HandleFunc("/api/vault", s.handleVaultList)
	s.mux.HandleFunc("/api/vault/", s.handleVaultItem)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
