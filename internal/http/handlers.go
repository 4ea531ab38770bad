package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"wisepenny/internal/auth"
	"wisepenny/internal/core"
)

type loginRequest struct {
	IDToken string `json:"idToken"`
	Token   string `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	token := req.IDToken
	if token == "" {
		token = req.Token
	}

	userID, err := s.verifier.Verify(r.Context(), token)
	if err != nil {
		slog.WarnContext(r.Context(), "Token verification failed", "error", err)
		writeMessage(w, http.StatusBadRequest, "Invalid token!")
		return
	}

	sessionID, err := s.sessions.Create(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, sessionID, int(auth.SessionTTL.Seconds()))
	slog.InfoContext(r.Context(), "User logged in", "user_id", userID)
	writeMessage(w, http.StatusOK, "Login successful!")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.sessions.Delete(cookie.Value); err != nil {
			slog.WarnContext(r.Context(), "Session delete failed", "error", err)
		}
	}
	s.setSessionCookie(w, "", -1)
	writeMessage(w, http.StatusOK, "Logout successful!")
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	if _, err := s.sessionUser(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]bool{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

type addFundsRequest struct {
	Amount json.Number `json:"amount"`
	Method string      `json:"method"`
}

func (s *Server) handleAddFunds(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	userID, err := s.sessionUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req addFundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	amount, err := core.ParseAmount(req.Amount.String())
	if err != nil {
		writeError(w, r, err)
		return
	}
	method, err := core.ParseMethod(req.Method)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.tracker.AddFunds(r.Context(), userID, method, amount); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Funds added successfully!")
}

type addExpenseRequest struct {
	Date     string      `json:"date"`
	Descr    string      `json:"descr"`
	Amount   json.Number `json:"amount"`
	Method   string      `json:"method"`
	Category string      `json:"category"`
	Type     string      `json:"type"`
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	userID, err := s.sessionUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req addExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	amount, err := core.ParseAmount(req.Amount.String())
	if err != nil {
		writeError(w, r, err)
		return
	}
	method, err := core.ParseMethod(req.Method)
	if err != nil {
		writeError(w, r, err)
		return
	}

	expense := core.Expense{
		Date:     req.Date,
		Descr:    req.Descr,
		Amount:   amount,
		Method:   method,
		Category: req.Category,
		Type:     req.Type,
	}

	if _, err := s.tracker.AddExpense(r.Context(), userID, expense); err != nil {
		if errors.Is(err, core.ErrInsufficientFunds) {
			writeMessage(w, http.StatusBadRequest, insufficientFundsMessage(method))
			return
		}
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Expense added successfully")
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	userID, err := s.sessionUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	bal, err := s.tracker.GetBalances(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"cash_balance":     core.FormatAmount(bal.Cash),
		"checking_balance": core.FormatAmount(bal.Checking),
		"total_balance":    core.FormatAmount(bal.Total),
	})
}

func (s *Server) handleClearBalance(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	userID, err := s.sessionUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.tracker.ClearBalances(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Balance cleared successfully!")
}

func (s *Server) handleRemoveExpense(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	userID, err := s.sessionUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	expenseID := strings.TrimPrefix(r.URL.Path, "/remove_expense/")
	if expenseID == "" || strings.Contains(expenseID, "/") {
		writeMessage(w, http.StatusBadRequest, "Missing expense id")
		return
	}

	if err := s.tracker.RemoveExpense(r.Context(), userID, expenseID); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Expense with ID "+expenseID+" removed successfully")
}

type editExpenseRequest struct {
	Date     *string      `json:"date"`
	Descr    *string      `json:"descr"`
	Amount   *json.Number `json:"amount"`
	Method   *string      `json:"method"`
	Category *string      `json:"category"`
	Type     *string      `json:"type"`
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	userID, err := s.sessionUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	expenseID := strings.TrimPrefix(r.URL.Path, "/edit_expense/")
	if expenseID == "" || strings.Contains(expenseID, "/") {
		writeMessage(w, http.StatusBadRequest, "Missing expense id")
		return
	}

	var req editExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	patch := core.ExpensePatch{
		Date:     req.Date,
		Descr:    req.Descr,
		Category: req.Category,
		Type:     req.Type,
	}
	if req.Amount != nil && strings.TrimSpace(req.Amount.String()) != "" {
		amount, err := core.ParseAmount(req.Amount.String())
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Amount = &amount
	}
	if req.Method != nil && strings.TrimSpace(*req.Method) != "" {
		method, err := core.ParseMethod(*req.Method)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Method = &method
	}

	if err := s.tracker.EditExpense(r.Context(), userID, expenseID, patch); err != nil {
		if errors.Is(err, core.ErrInsufficientFunds) && patch.Method != nil {
			writeMessage(w, http.StatusBadRequest, insufficientFundsMessage(*patch.Method))
			return
		}
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Expense with ID "+expenseID+" edited successfully!")
}

type expenseResponse struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Descr    string `json:"descr"`
	Amount   string `json:"amount"`
	Method   string `json:"method"`
	Category string `json:"category"`
	Type     string `json:"type"`
}

func (s *Server) handleGetExpenses(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	userID, err := s.sessionUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	expenses, err := s.tracker.ListExpenses(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, expenseResponse{
			ID:       e.ID,
			Date:     e.Date,
			Descr:    e.Descr,
			Amount:   e.Amount.String(),
			Method:   e.Method.String(),
			Category: e.Category,
			Type:     e.Type,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// sessionUser resolves the session cookie into a user id.
func (s *Server) sessionUser(r *http.Request) (string, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", core.ErrUnauthenticated
	}
	return s.sessions.Get(cookie.Value)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if s.secureCookie {
		// Cross-site frontends need SameSite=None, which browsers only
		// accept on Secure cookies.
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: sameSite,
	})
}
