package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dhruvprajapati002/PassGuard/internal/auth"
	"github.com/dhruvprajapati002/PassGuard/internal/vault"
)

type vaultEntryReq struct {
	Service         string `json:"service"`
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

type vaultUpdateResp struct {
	Message      string        `json:"message"`
	UpdatedVault *vault.Record `json:"updatedVault"`
}

func (r vaultEntryReq) input() vault.Input {
	return vault.Input{
		Service:         strings.TrimSpace(r.Service),
		UsernameOrEmail: strings.TrimSpace(r.UsernameOrEmail),
		Password:        r.Password,
	}
}

// handleVaultList serves GET /api/vault: the caller's decrypted entries.
func (s *Server) handleVaultList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entries, err := s.vault.ListEntries(r.Context(), claims.Sub)
	if err != nil {
		s.logger.Printf("vault list: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Could not fetch passwords")
		return
	}
	writeJSON(w, entries)
}

// handleVaultItem dispatches /api/vault/add and /api/vault/{id}.
func (s *Server) handleVaultItem(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/vault/")
	if rest == "add" {
		s.handleVaultAdd(w, r, claims.Sub)
		return
	}
	if rest == "" || strings.Contains(rest, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.handleVaultUpdate(w, r, rest, claims.Sub)
	case http.MethodDelete:
		s.handleVaultDelete(w, r, rest, claims.Sub)
	default:
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleVaultAdd(w http.ResponseWriter, r *http.Request, owner string) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req vaultEntryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := s.vault.AddEntry(r.Context(), owner, req.input())
	if err != nil {
		if errors.Is(err, vault.ErrValidation) {
			writeMessage(w, http.StatusBadRequest, "All fields are required")
			return
		}
		s.logger.Printf("vault add: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Could not store password")
		return
	}

	// The stored record (ciphertext, iv, owner id) stays server-side; the
	// success body is an acknowledgement only.
	s.trail.Append(owner, "add", rec.ID)
	writeMessage(w, http.StatusCreated, "Password stored successfully")
}

func (s *Server) handleVaultUpdate(w http.ResponseWriter, r *http.Request, id, owner string) {
	var req vaultEntryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := s.vault.UpdateEntry(r.Context(), id, owner, req.input())
	if err != nil {
		switch {
		case errors.Is(err, vault.ErrValidation):
			writeMessage(w, http.StatusBadRequest, "All fields are required")
		case errors.Is(err, vault.ErrNotFound):
			writeMessage(w, http.StatusNotFound, "Vault item not found or unauthorized")
		default:
			s.logger.Printf("vault update: %v", err)
			writeMessage(w, http.StatusInternalServerError, "Could not update password")
		}
		return
	}

	s.trail.Append(owner, "update", rec.ID)
	writeJSON(w, vaultUpdateResp{
		Message:      "Password updated successfully",
		UpdatedVault: rec,
	})
}

func (s *Server) handleVaultDelete(w http.ResponseWriter, r *http.Request, id, owner string) {
	if err := s.vault.DeleteEntry(r.Context(), id, owner); err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Vault item not found")
			return
		}
		s.logger.Printf("vault delete: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Could not delete password")
		return
	}

	s.trail.Append(owner, "delete", id)
	writeMessage(w, http.StatusOK, "Password deleted successfully")
}
