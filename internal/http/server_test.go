package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"wisepenny/internal/auth"
	"wisepenny/internal/services"
	"wisepenny/internal/store/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	sessions := auth.NewMemorySessions(time.Hour)
	t.Cleanup(func() { _ = sessions.Close() })

	tracker := services.New(memory.New(), nil, services.DefaultOptions())
	srv := NewServer(":0", tracker, sessions, auth.InsecureVerifier{}, Options{})
	t.Cleanup(func() { srv.limiter.Stop() })

	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return ts, &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && raw[0] == '{' {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func login(t *testing.T, client *http.Client, baseURL, token string) {
	t.Helper()
	resp, body := doJSON(t, client, http.MethodPost, baseURL+"/login", map[string]string{"idToken": token})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d, body %v", resp.StatusCode, body)
	}
	if body["message"] != "Login successful!" {
		t.Fatalf("login message %q", body["message"])
	}
}

func getBalance(t *testing.T, client *http.Client, baseURL string) map[string]any {
	t.Helper()
	resp, body := doJSON(t, client, http.MethodGet, baseURL+"/get_balance", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get_balance status %d", resp.StatusCode)
	}
	return body
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	ts, client := newTestServer(t)

	cases := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/add_funds", map[string]string{"amount": "10", "method": "cash"}},
		{http.MethodPost, "/add_expense", map[string]string{"date": "2024-01-01", "descr": "x", "amount": "5", "method": "cash"}},
		{http.MethodGet, "/get_balance", nil},
		{http.MethodPost, "/clear_balance", nil},
		{http.MethodPost, "/remove_expense/abc", nil},
		{http.MethodPost, "/edit_expense/abc", map[string]string{"descr": "y"}},
		{http.MethodGet, "/get_expenses", nil},
	}
	for _, tc := range cases {
		resp, body := doJSON(t, client, tc.method, ts.URL+tc.path, tc.body)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s: status %d, want 401", tc.method, tc.path, resp.StatusCode)
		}
		if body["message"] != "Not authenticated" {
			t.Errorf("%s %s: message %q", tc.method, tc.path, body["message"])
		}
	}
}

func TestLoginInvalidToken(t *testing.T) {
	ts, client := newTestServer(t)

	resp, body := doJSON(t, client, http.MethodPost, ts.URL+"/login", map[string]string{"idToken": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	if body["message"] != "Invalid token!" {
		t.Fatalf("message %q", body["message"])
	}
}

func TestCheckAuthLifecycle(t *testing.T) {
	ts, client := newTestServer(t)

	resp, body := doJSON(t, client, http.MethodGet, ts.URL+"/check_auth", nil)
	if resp.StatusCode != http.StatusUnauthorized || body["authenticated"] != false {
		t.Fatalf("before login: status %d, body %v", resp.StatusCode, body)
	}

	login(t, client, ts.URL, "user-1")

	resp, body = doJSON(t, client, http.MethodGet, ts.URL+"/check_auth", nil)
	if resp.StatusCode != http.StatusOK || body["authenticated"] != true {
		t.Fatalf("after login: status %d, body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, client, http.MethodPost, ts.URL+"/logout", nil)
	if resp.StatusCode != http.StatusOK || body["message"] != "Logout successful!" {
		t.Fatalf("logout: status %d, body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, client, http.MethodGet, ts.URL+"/check_auth", nil)
	if resp.StatusCode != http.StatusUnauthorized || body["authenticated"] != false {
		t.Fatalf("after logout: status %d, body %v", resp.StatusCode, body)
	}
}

func TestExpenseFlow(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, client, ts.URL, "user-1")

	resp, body := doJSON(t, client, http.MethodPost, ts.URL+"/add_funds", map[string]string{"amount": "100", "method": "cash"})
	if resp.StatusCode != http.StatusOK || body["message"] != "Funds added successfully!" {
		t.Fatalf("add_funds: status %d, body %v", resp.StatusCode, body)
	}

	bal := getBalance(t, client, ts.URL)
	if bal["cash_balance"] != "100.00" || bal["total_balance"] != "100.00" {
		t.Fatalf("balance after funds: %v", bal)
	}

	resp, body = doJSON(t, client, http.MethodPost, ts.URL+"/add_expense", map[string]string{
		"date": "2024-05-01", "descr": "groceries", "amount": "50.00",
		"method": "cash", "category": "food", "type": "Need",
	})
	if resp.StatusCode != http.StatusOK || body["message"] != "Expense added successfully" {
		t.Fatalf("add_expense: status %d, body %v", resp.StatusCode, body)
	}

	bal = getBalance(t, client, ts.URL)
	if bal["cash_balance"] != "50.00" {
		t.Fatalf("balance after expense: %v", bal)
	}

	resp, _ = doJSON(t, client, http.MethodGet, ts.URL+"/get_expenses", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get_expenses status %d", resp.StatusCode)
	}
	var expenses []map[string]any
	resp2, err := client.Get(ts.URL + "/view_expenses")
	if err != nil {
		t.Fatalf("view_expenses: %v", err)
	}
	if err := json.NewDecoder(resp2.Body).Decode(&expenses); err != nil {
		t.Fatalf("decode expenses: %v", err)
	}
	resp2.Body.Close()
	if len(expenses) != 1 || expenses[0]["descr"] != "groceries" {
		t.Fatalf("expenses: %v", expenses)
	}
	expenseID, _ := expenses[0]["id"].(string)
	if expenseID == "" {
		t.Fatalf("expense id missing: %v", expenses[0])
	}

	resp, body = doJSON(t, client, http.MethodPost, ts.URL+"/edit_expense/"+expenseID, map[string]string{"amount": "30.00"})
	if resp.StatusCode != http.StatusOK || body["message"] != "Expense with ID "+expenseID+" edited successfully!" {
		t.Fatalf("edit_expense: status %d, body %v", resp.StatusCode, body)
	}
	bal = getBalance(t, client, ts.URL)
	if bal["cash_balance"] != "70.00" {
		t.Fatalf("balance after edit: %v", bal)
	}

	resp, body = doJSON(t, client, http.MethodPost, ts.URL+"/remove_expense/"+expenseID, nil)
	if resp.StatusCode != http.StatusOK || body["message"] != "Expense with ID "+expenseID+" removed successfully" {
		t.Fatalf("remove_expense: status %d, body %v", resp.StatusCode, body)
	}
	bal = getBalance(t, client, ts.URL)
	if bal["cash_balance"] != "100.00" {
		t.Fatalf("balance after remove: %v", bal)
	}

	resp, body = doJSON(t, client, http.MethodPost, ts.URL+"/clear_balance", nil)
	if resp.StatusCode != http.StatusOK || body["message"] != "Balance cleared successfully!" {
		t.Fatalf("clear_balance: status %d, body %v", resp.StatusCode, body)
	}
	bal = getBalance(t, client, ts.URL)
	if bal["cash_balance"] != "0.00" || bal["total_balance"] != "0.00" {
		t.Fatalf("balance after clear: %v", bal)
	}
}

func TestAddExpenseInsufficientFunds(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, client, ts.URL, "user-1")

	resp, body := doJSON(t, client, http.MethodPost, ts.URL+"/add_expense", map[string]string{
		"date": "2024-05-01", "descr": "rent", "amount": "500", "method": "cash",
	})
	if resp.StatusCode != http.StatusBadRequest || body["message"] != "Insufficient cash funds!" {
		t.Fatalf("cash: status %d, body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, client, http.MethodPost, ts.URL+"/add_expense", map[string]string{
		"date": "2024-05-01", "descr": "rent", "amount": "500", "method": "checking",
	})
	if resp.StatusCode != http.StatusBadRequest || body["message"] != "Insufficient checking funds" {
		t.Fatalf("checking: status %d, body %v", resp.StatusCode, body)
	}

	if bal := getBalance(t, client, ts.URL); bal["total_balance"] != "0.00" {
		t.Fatalf("balances mutated: %v", bal)
	}
}

func TestRemoveUnknownExpense(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, client, ts.URL, "user-1")

	resp, body := doJSON(t, client, http.MethodPost, ts.URL+"/remove_expense/nope", nil)
	if resp.StatusCode != http.StatusNotFound || body["message"] != "Expense not found" {
		t.Fatalf("status %d, body %v", resp.StatusCode, body)
	}
}

func TestEditExpenseEmptyPatch(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, client, ts.URL, "user-1")

	resp, body := doJSON(t, client, http.MethodPost, ts.URL+"/add_funds", map[string]string{"amount": "100", "method": "cash"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add_funds: status %d, body %v", resp.StatusCode, body)
	}
	resp, _ = doJSON(t, client, http.MethodPost, ts.URL+"/add_expense", map[string]string{
		"date": "2024-05-01", "descr": "coffee", "amount": "4", "method": "cash",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add_expense status %d", resp.StatusCode)
	}

	var expenses []map[string]any
	resp2, err := client.Get(ts.URL + "/get_expenses")
	if err != nil {
		t.Fatalf("get_expenses: %v", err)
	}
	if err := json.NewDecoder(resp2.Body).Decode(&expenses); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp2.Body.Close()
	id := expenses[0]["id"].(string)

	resp, body = doJSON(t, client, http.MethodPost, ts.URL+"/edit_expense/"+id, map[string]string{})
	if resp.StatusCode != http.StatusBadRequest || body["message"] != "No data provided to update." {
		t.Fatalf("empty patch: status %d, body %v", resp.StatusCode, body)
	}

	// Empty strings count as "not supplied" for wire compatibility.
	resp, body = doJSON(t, client, http.MethodPost, ts.URL+"/edit_expense/"+id, map[string]string{"descr": "", "category": ""})
	if resp.StatusCode != http.StatusBadRequest || body["message"] != "No data provided to update." {
		t.Fatalf("all-empty patch: status %d, body %v", resp.StatusCode, body)
	}
}

func TestBalanceAliasRoute(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, client, ts.URL, "user-1")

	resp, body := doJSON(t, client, http.MethodGet, ts.URL+"/view_balance", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view_balance: status %d", resp.StatusCode)
	}
	if body["cash_balance"] != "0.00" || body["checking_balance"] != "0.00" {
		t.Fatalf("body %v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, client := newTestServer(t)

	resp, _ := doJSON(t, client, http.MethodGet, ts.URL+"/login", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET /login: status %d, want 405", resp.StatusCode)
	}
	if allow := resp.Header.Get("Allow"); allow != http.MethodPost {
		t.Fatalf("Allow header %q", allow)
	}
}

func TestUserIsolation(t *testing.T) {
	server, clientA := newTestServer(t)
	login(t, clientA, server.URL, "user-a")
	if resp, _ := doJSON(t, clientA, http.MethodPost, server.URL+"/add_funds", map[string]string{"amount": "100", "method": "cash"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("add_funds status %d", resp.StatusCode)
	}

	jar, _ := cookiejar.New(nil)
	clientB := &http.Client{Jar: jar}
	login(t, clientB, server.URL, "user-b")

	if bal := getBalance(t, clientB, server.URL); bal["cash_balance"] != "0.00" {
		t.Fatalf("user-b sees user-a funds: %v", bal)
	}
}
