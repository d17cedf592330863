package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlitestore "content-gate/internal/adapters/storage/sqlite"
	"content-gate/internal/router"
)

const paymentToken = "tok_test_1234567890"

const (
	publisherUser = "publisher-1"
	publisherID   = "pub-1"
)

func TestHTTP_EndToEnd_PayPerView(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	readerID := "reader-1"
	otherID := "reader-2"

	// 1) Publisher registra el contenido (publicado hace 30 días => sin boost de frescura)
	{
		st, body := doReqAs(t, ts.URL, "PUT", "/contents/article-1", publisherUser, publisherID, map[string]any{
			"base_price":   "10.00",
			"published_at": time.Now().Add(-30 * 24 * time.Hour).UTC().Format(time.RFC3339),
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 register content, got %d body=%s", st, string(body))
		}
	}

	// 2) Demanda máxima => +50%
	{
		st, body := doReqAs(t, ts.URL, "POST", "/contents/article-1/demand", publisherUser, publisherID, map[string]any{
			"demand_score": 1.0,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 update demand, got %d body=%s", st, string(body))
		}
	}
	if got := priceOf(t, ts.URL, "article-1"); got != 1500 {
		t.Fatalf("expected quote 1500, got %d", got)
	}

	// 3) Sin grant => denegado (200, allowed=false)
	if checkAccess(t, ts.URL, readerID, "article-1") {
		t.Fatalf("expected access denied before grant")
	}

	// 4) Sin usuario no se emite
	{
		st, _ := doReq(t, ts.URL, "POST", "/grants", "", map[string]any{
			"content_id": "article-1", "tier": "premium", "duration_seconds": 3600, "payment_token": paymentToken,
		})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without user, got %d", st)
		}
	}

	// 5) Token inválido => 402 y nada emitido
	{
		st, _ := doReq(t, ts.URL, "POST", "/grants", readerID, map[string]any{
			"content_id": "article-1", "tier": "premium", "duration_seconds": 3600, "payment_token": "bad",
		})
		if st != http.StatusPaymentRequired {
			t.Fatalf("expected 402 for rejected payment, got %d", st)
		}
	}

	// 6) Emisión
	grantID := issueGrant(t, ts.URL, readerID, "article-1", "premium", 3600, 1500)

	// 7) Acceso concedido
	if !checkAccess(t, ts.URL, readerID, "article-1") {
		t.Fatalf("expected access allowed after grant")
	}
	if checkAccess(t, ts.URL, otherID, "article-1") {
		t.Fatalf("expected access denied for another user")
	}

	// 8) Mis grants
	{
		st, body := doReq(t, ts.URL, "GET", "/me/grants?active=true", readerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 listing my grants, got %d body=%s", st, string(body))
		}
		var items []struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].ID != grantID {
			t.Fatalf("expected one grant %s, got body=%s", grantID, string(body))
		}
	}

	// 9) Otro usuario no puede ver el grant
	{
		st, _ := doReq(t, ts.URL, "GET", "/grants/"+grantID, otherID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 get grant by other user, got %d", st)
		}
	}

	// 10) El ledger registró el precio cobrado
	{
		st, body := doReqAs(t, ts.URL, "GET", "/ledger/grants/"+grantID, publisherUser, publisherID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 ledger entry, got %d body=%s", st, string(body))
		}
	}
	if got := revenueOf(t, ts.URL, "/ledger/revenue?content_id=article-1"); got != 1500 {
		t.Fatalf("expected revenue 1500, got %d", got)
	}

	// 11) El precio del grant queda fijo aunque cambie la demanda
	{
		st, _ := doReqAs(t, ts.URL, "POST", "/contents/article-1/demand", publisherUser, publisherID, map[string]any{"demand_score": 0})
		if st != http.StatusOK {
			t.Fatalf("expected 200 update demand, got %d", st)
		}
		if got := priceOf(t, ts.URL, "article-1"); got != 1000 {
			t.Fatalf("expected quote 1000 after demand drop, got %d", got)
		}
		if got := revenueOf(t, ts.URL, "/ledger/revenue?content_id=article-1"); got != 1500 {
			t.Fatalf("expected revenue to stay 1500, got %d", got)
		}
	}

	// 12) Stats
	{
		st, body := doReqAs(t, ts.URL, "GET", "/stats", publisherUser, publisherID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 stats, got %d body=%s", st, string(body))
		}
		var resp struct {
			TotalGrants  int `json:"total_grants"`
			ActiveGrants int `json:"active_grants"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.TotalGrants != 1 || resp.ActiveGrants != 1 {
			t.Fatalf("unexpected stats body=%s", string(body))
		}
	}
}

func TestHTTP_AdminRoutesRequirePublisher(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	st, body := doReqAs(t, ts.URL, "PUT", "/contents/a1", publisherUser, publisherID, map[string]any{
		"base_price":   "10.00",
		"published_at": time.Now().Add(-30 * 24 * time.Hour).UTC().Format(time.RFC3339),
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 register content, got %d body=%s", st, string(body))
	}
	issueGrant(t, ts.URL, "reader-1", "a1", "premium", 3600, 1000)

	writes := []struct {
		method, path string
		body         map[string]any
	}{
		{"PUT", "/contents/a1", map[string]any{"base_price": "0.00"}},
		{"POST", "/contents/a1/demand", map[string]any{"demand_score": 1.0}},
		{"POST", "/contents/a1/refresh", nil},
	}
	for _, w := range writes {
		if st, _ := doReq(t, ts.URL, w.method, w.path, "", w.body); st != http.StatusUnauthorized {
			t.Fatalf("expected 401 anonymous %s %s, got %d", w.method, w.path, st)
		}
		if st, _ := doReq(t, ts.URL, w.method, w.path, "reader-1", w.body); st != http.StatusForbidden {
			t.Fatalf("expected 403 reader %s %s, got %d", w.method, w.path, st)
		}
	}
	if got := priceOf(t, ts.URL, "a1"); got != 1000 {
		t.Fatalf("expected price to stay 1000, got %d", got)
	}
	issueGrant(t, ts.URL, "reader-1", "a1", "enterprise", 3600, 1000)

	reads := []string{"/ledger/entries?user_id=reader-1", "/ledger/revenue", "/stats"}
	for _, path := range reads {
		if st, _ := doReq(t, ts.URL, "GET", path, "", nil); st != http.StatusUnauthorized {
			t.Fatalf("expected 401 anonymous %s, got %d", path, st)
		}
		if st, _ := doReq(t, ts.URL, "GET", path, "reader-2", nil); st != http.StatusForbidden {
			t.Fatalf("expected 403 reader %s, got %d", path, st)
		}
	}

	st, body = doReqAs(t, ts.URL, "GET", "/ledger/entries?user_id=reader-1", publisherUser, publisherID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 ledger entries for publisher, got %d body=%s", st, string(body))
	}
	var entries []struct {
		UserID string `json:"user_id"`
	}
	_ = json.Unmarshal(body, &entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got body=%s", string(body))
	}
}

func TestHTTP_IssueGrant_RejectsInvalidDurationAndTier(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	st, _ := doReq(t, ts.URL, "POST", "/grants", "reader-1", map[string]any{
		"content_id": "article-1", "tier": "premium", "duration_seconds": 0, "payment_token": paymentToken,
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero duration, got %d", st)
	}

	st, _ = doReq(t, ts.URL, "POST", "/grants", "reader-1", map[string]any{
		"content_id": "article-1", "tier": "gold", "duration_seconds": 60, "payment_token": paymentToken,
	})
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown tier, got %d", st)
	}

	st, _ = doReq(t, ts.URL, "GET", "/access/article-1?tier=gold", "reader-1", nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown required tier, got %d", st)
	}
}

func TestHTTP_ToolsAndDocs(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier:  nil,
		DefaultTier:   "enterprise",
		DisabledTools: []string{"list_tiers"},
	}))
	defer ts.Close()

	for _, path := range []string{"/health", "/tiers", "/swagger/doc.json"} {
		st, body := doReq(t, ts.URL, "GET", path, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d body=%s", path, st, string(body))
		}
	}

	{
		_, body := doReq(t, ts.URL, "GET", "/swagger/doc.json", "", nil)
		var doc struct {
			Paths map[string]json.RawMessage `json:"paths"`
		}
		if err := json.Unmarshal(body, &doc); err != nil {
			t.Fatalf("swagger doc is not json: %v", err)
		}
		for _, path := range []string{
			"/access/{contentID}", "/contents", "/contents/{contentID}", "/contents/{contentID}/price",
			"/contents/{contentID}/demand", "/contents/{contentID}/refresh", "/grants", "/grants/{grantID}",
			"/me/grants", "/ledger/entries", "/ledger/revenue", "/ledger/grants/{grantID}", "/stats",
			"/tiers", "/tiers/{name}", "/tools", "/tools/check_content_access",
			"/tools/grant_temporary_access", "/tools/list_tiers",
		} {
			if _, ok := doc.Paths[path]; !ok {
				t.Fatalf("swagger doc missing %s", path)
			}
		}
	}

	st, body := doReq(t, ts.URL, "POST", "/tools/grant_temporary_access", "reader-1", map[string]any{
		"content_id": "article-9", "duration_hours": 1, "payment_token": paymentToken,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 tool grant, got %d body=%s", st, string(body))
	}
	var g struct {
		Success bool   `json:"success"`
		Tier    string `json:"tier"`
	}
	_ = json.Unmarshal(body, &g)
	if !g.Success || g.Tier != "enterprise" {
		t.Fatalf("unexpected tool grant body=%s", string(body))
	}

	st, body = doReq(t, ts.URL, "POST", "/tools/check_content_access", "reader-1", map[string]any{
		"content_id": "article-9",
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 tool check, got %d body=%s", st, string(body))
	}
	var c struct {
		Allowed bool `json:"allowed"`
	}
	_ = json.Unmarshal(body, &c)
	if !c.Allowed {
		t.Fatalf("expected allowed after tool grant, body=%s", string(body))
	}

	st, _ = doReq(t, ts.URL, "POST", "/tools/list_tiers", "", map[string]any{})
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 for disabled tool, got %d", st)
	}
}

func TestHTTP_SQLiteStore(t *testing.T) {
	db, err := sqlitestore.Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	ts := httptest.NewServer(router.NewRouter(router.Options{SQLite: db}))
	defer ts.Close()

	// contenido no registrado: base del tier (9.99) +30% por frescura
	grantID := issueGrant(t, ts.URL, "reader-1", "article-2", "premium", 600, 1299)
	if !checkAccess(t, ts.URL, "reader-1", "article-2") {
		t.Fatalf("expected access allowed for grant %s", grantID)
	}
	if got := revenueOf(t, ts.URL, "/ledger/revenue?user_id=reader-1"); got != 1299 {
		t.Fatalf("expected revenue 1299, got %d", got)
	}
}

func issueGrant(t *testing.T, baseURL, userID, contentID, tier string, seconds int64, wantPrice int64) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/grants", userID, map[string]any{
		"content_id":       contentID,
		"tier":             tier,
		"duration_seconds": seconds,
		"payment_token":    paymentToken,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 issue grant, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID    string `json:"id"`
		Price struct {
			Amount int64 `json:"amount"`
		} `json:"price"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("issue grant: missing id body=%s", string(body))
	}
	if resp.Price.Amount != wantPrice {
		t.Fatalf("issue grant: expected price %d, got %d", wantPrice, resp.Price.Amount)
	}
	return resp.ID
}

func checkAccess(t *testing.T, baseURL, userID, contentID string) bool {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/access/"+contentID, userID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 check access, got %d body=%s", st, string(body))
	}
	var resp struct {
		Allowed bool `json:"allowed"`
	}
	_ = json.Unmarshal(body, &resp)
	return resp.Allowed
}

func priceOf(t *testing.T, baseURL, contentID string) int64 {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/contents/"+contentID+"/price", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 quote, got %d body=%s", st, string(body))
	}
	var resp struct {
		Price struct {
			Amount int64 `json:"amount"`
		} `json:"price"`
	}
	_ = json.Unmarshal(body, &resp)
	return resp.Price.Amount
}

func revenueOf(t *testing.T, baseURL, path string) int64 {
	t.Helper()

	st, body := doReqAs(t, baseURL, "GET", path, publisherUser, publisherID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 revenue, got %d body=%s", st, string(body))
	}
	var resp struct {
		Total struct {
			Amount int64 `json:"amount"`
		} `json:"total"`
	}
	_ = json.Unmarshal(body, &resp)
	return resp.Total.Amount
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()
	return doReqAs(t, baseURL, method, path, debugUserID, "", body)
}

func doReqAs(t *testing.T, baseURL, method, path, debugUserID, debugPublisherID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}
	if debugPublisherID != "" {
		req.Header.Set("X-Debug-Publisher-ID", debugPublisherID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
