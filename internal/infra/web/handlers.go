package web

import (
	"encoding/json"
	"net/http"

	"wallet-flows/internal/domain/model"
)

// A struct to define the expected JSON request body for minting a session.
type sessionMintRequest struct {
	WalletGUID string `json:"wallet_guid"`
}

// sessionMintHandler issues a session token for a wallet that completed the
// credentials flow. The flow must report the second factor (when demanded)
// as verified; otherwise minting is refused.
func (s *Server) sessionMintHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionMintRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		state := s.credentials.State()
		if state.WalletGUID == "" || state.WalletGUID != req.WalletGUID {
			http.Error(w, "Unknown wallet", http.StatusForbidden)
			return
		}
		if state.IsAccountLocked {
			http.Error(w, "Account locked", http.StatusForbidden)
			return
		}

		token, err := s.auth.Mint(w, req.WalletGUID)
		if err != nil {
			s.log.Error().Err(err).Msg("web: mint session token")
			http.Error(w, "Failed to mint session", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			Token string `json:"token"`
		}{Token: token})
	}
}

type flowStateResponse struct {
	Kind     string `json:"kind"`
	Currency string `json:"currency,omitempty"`
	OrderID  string `json:"order_id,omitempty"`
}

type flowHistoryResponse struct {
	Current  flowStateResponse   `json:"current"`
	Previous []flowStateResponse `json:"previous"`
}

func toFlowStateResponse(state model.FlowState) flowStateResponse {
	resp := flowStateResponse{Kind: string(state.Kind), Currency: state.Currency}
	switch {
	case state.Order != nil:
		resp.OrderID = state.Order.ID
	case state.Checkout != nil:
		resp.OrderID = state.Checkout.Order.ID
	}
	return resp
}

func (s *Server) flowHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history := s.flow.History()
		resp := flowHistoryResponse{
			Current:  toFlowStateResponse(history.Current),
			Previous: make([]flowStateResponse, 0, len(history.Previous)),
		}
		for _, state := range history.Previous {
			resp.Previous = append(resp.Previous, toFlowStateResponse(state))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func (s *Server) flowStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.flow.Start(r.Context())
		s.writeCurrentState(w)
	}
}

func (s *Server) flowNextHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.flow.Next(r.Context())
		s.writeCurrentState(w)
	}
}

func (s *Server) flowPreviousHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.flow.Previous(r.Context())
		s.writeCurrentState(w)
	}
}

func (s *Server) writeCurrentState(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toFlowStateResponse(s.flow.History().Current))
}

// credentialsStateHandler exposes the visibility flags the shell renders
// from. Secrets (password, codes) are never echoed back.
func (s *Server) credentialsStateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := s.credentials.State()
		resp := struct {
			WalletGUID            string `json:"wallet_guid"`
			EmailAddress          string `json:"email_address"`
			IsLoading             bool   `json:"is_loading"`
			IsAccountLocked       bool   `json:"is_account_locked"`
			IsTwoFAFieldVisible   bool   `json:"is_two_fa_field_visible"`
			IsHardwareKeyVisible  bool   `json:"is_hardware_key_field_visible"`
			IsResendSMSVisible    bool   `json:"is_resend_sms_button_visible"`
			TwoFAAttemptsLeft     int    `json:"two_fa_attempts_left"`
			IsSecondFactorDone    bool   `json:"is_second_factor_verified"`
			IsPasswordIncorrect   bool   `json:"is_password_incorrect"`
			IsIdentifierIncorrect bool   `json:"is_wallet_identifier_incorrect"`
		}{
			WalletGUID:            state.WalletGUID,
			EmailAddress:          state.EmailAddress,
			IsLoading:             state.IsLoading,
			IsAccountLocked:       state.IsAccountLocked,
			IsSecondFactorDone:    state.IsTwoFACodeOrHardwareKeyVerified,
			IsPasswordIncorrect:   state.Password.IsPasswordIncorrect,
			IsIdentifierIncorrect: state.IsWalletIdentifierIncorrect,
		}
		if state.TwoFA != nil {
			resp.IsTwoFAFieldVisible = state.TwoFA.IsCodeFieldVisible
			resp.IsResendSMSVisible = state.TwoFA.IsResendSMSButtonVisible
			resp.TwoFAAttemptsLeft = state.TwoFA.AttemptsLeft
		}
		if state.HardwareKey != nil {
			resp.IsHardwareKeyVisible = state.HardwareKey.IsCodeFieldVisible
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
