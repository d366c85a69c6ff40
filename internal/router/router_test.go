package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goflow/backend/internal/auth"
	"github.com/goflow/backend/internal/forum"
	"github.com/goflow/backend/internal/handlers"
	"github.com/goflow/backend/internal/ledger"
	"github.com/goflow/backend/internal/middleware"
	"github.com/goflow/backend/internal/models"
	"github.com/goflow/backend/internal/repository"
	"github.com/goflow/backend/internal/services"
)

// ---------------------------------------------------------------------------
// Test server: full route table over the in-memory store.
// ---------------------------------------------------------------------------

type testServer struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := auth.NewService(auth.NewMemoryRepository(), []byte("router-test"))
	validator, err := services.NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	platform := services.NewPlatform(repository.NewMemoryStore(), ledger.NewService(), forum.NewService(), nil, logger)

	mux := New(Deps{
		Auth:      auth.NewHandler(authSvc, logger),
		Tokens:    authSvc,
		Validator: validator,
		Limiter:   limiter,
		Forum:     &handlers.ForumHandler{Forum: platform, Logger: logger},
		Token:     &handlers.TokenHandler{Token: platform, Logger: logger},
		Account:   &handlers.AccountHandler{Users: authSvc, Ledger: platform, Logger: logger},
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv}
}

type result struct {
	code int
	body map[string]any
	raw  []byte
}

func (s *testServer) do(method, path, token, body string) result {
	s.t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rdr)
	if err != nil {
		s.t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	res := result{code: resp.StatusCode, raw: raw}
	_ = json.Unmarshal(raw, &res.body)
	return res
}

func (s *testServer) expect(method, path, token, body string, want int) result {
	s.t.Helper()
	res := s.do(method, path, token, body)
	if res.code != want {
		s.t.Fatalf("%s %s: got %d, want %d: %s", method, path, res.code, want, res.raw)
	}
	return res
}

// signup registers and logs in, returning the user id and token.
func (s *testServer) signup(email string) (string, string) {
	s.t.Helper()
	reg := s.expect("POST", "/api/v1/auth/register", "",
		fmt.Sprintf(`{"email":%q,"password":"password123","display_name":"U"}`, email), http.StatusCreated)
	login := s.expect("POST", "/api/v1/auth/login", "",
		fmt.Sprintf(`{"email":%q,"password":"password123"}`, email), http.StatusOK)
	return reg.body["id"].(string), login.body["token"].(string)
}

func num(v any) int64 {
	f, _ := v.(float64)
	return int64(f)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestForumTippingFlow(t *testing.T) {
	s := newTestServer(t, nil)
	forumID := models.ForumAccountID.String()

	voterID, voterTok := s.signup("voter@example.com")
	richID, richTok := s.signup("rich@example.com")
	poorID, poorTok := s.signup("poor@example.com")

	s.expect("POST", "/v1/token/mint", voterTok, `{"amount":10}`, http.StatusOK)
	s.expect("POST", "/v1/token/mint", voterTok, fmt.Sprintf(`{"to":%q,"amount":10}`, richID), http.StatusOK)
	s.expect("POST", "/v1/token/approve", voterTok, fmt.Sprintf(`{"spender":%q,"amount":10}`, forumID), http.StatusOK)

	q := s.expect("POST", "/v1/questions", richTok, `{"message":"are you my fren?"}`, http.StatusCreated)
	if num(q.body["id"]) != 0 {
		t.Fatalf("question id: got %v", q.body["id"])
	}
	s.expect("POST", "/v1/questions/0/answers", richTok, `{"message":"yes, I am"}`, http.StatusCreated)
	s.expect("POST", "/v1/questions/0/answers", poorTok, `{"message":"dude!"}`, http.StatusCreated)

	// Rich creator gets the tip, poor creator's tip goes to the forum.
	r := s.expect("POST", "/v1/answers/0/upvote", voterTok, "", http.StatusOK)
	if r.body["recipient"] != richID || r.body["routed_to_sink"] != false {
		t.Errorf("receipt 0: got %v", r.body)
	}
	r = s.expect("POST", "/v1/answers/1/upvote", voterTok, "", http.StatusOK)
	if r.body["recipient"] != forumID || r.body["routed_to_sink"] != true {
		t.Errorf("receipt 1: got %v", r.body)
	}

	dup := s.expect("POST", "/v1/answers/0/upvote", voterTok, "", http.StatusConflict)
	if dup.body["code"] != services.KindAlreadyUpvoted {
		t.Errorf("duplicate code: got %v", dup.body["code"])
	}

	balances := map[string]int64{voterID: 8, richID: 11, poorID: 0, forumID: 1}
	for id, want := range balances {
		b := s.expect("GET", "/v1/accounts/"+id+"/balance", "", "", http.StatusOK)
		if got := num(b.body["balance"]); got != want {
			t.Errorf("balance %s: got %d, want %d", id, got, want)
		}
	}

	up := s.expect("GET", "/v1/answers/0/upvotes", "", "", http.StatusOK)
	if num(up.body["upvotes"]) != 1 {
		t.Errorf("upvotes: got %v", up.body)
	}
	tally := s.expect("GET", "/v1/users/"+voterID+"/upvotes", "", "", http.StatusOK)
	if num(tally.body["upvotes"]) != 2 {
		t.Errorf("tally: got %v", tally.body)
	}

	me := s.expect("GET", "/v1/me", voterTok, "", http.StatusOK)
	if num(me.body["balance"]) != 8 || num(me.body["forum_allowance"]) != 8 || num(me.body["upvotes"]) != 2 {
		t.Errorf("me: got %v", me.body)
	}

	answers := s.expect("GET", "/v1/questions/0/answers", "", "", http.StatusOK)
	var list []models.Answer
	if err := json.Unmarshal(answers.raw, &list); err != nil || len(list) != 2 {
		t.Fatalf("answers: got %s", answers.raw)
	}

	info := s.expect("GET", "/v1/token", "", "", http.StatusOK)
	if num(info.body["total_supply"]) != 20 || info.body["symbol"] != ledger.Symbol {
		t.Errorf("token info: got %v", info.body)
	}

	ev := s.expect("GET", "/v1/events?after=-1&limit=2", "", "", http.StatusOK)
	events, _ := ev.body["events"].([]any)
	if len(events) != 2 || num(ev.body["next"]) != 1 {
		t.Errorf("events page: got %s", ev.raw)
	}
}

func TestFailureStatuses(t *testing.T) {
	s := newTestServer(t, nil)
	ownerID, ownerTok := s.signup("owner@example.com")
	_, otherTok := s.signup("other@example.com")
	s.expect("POST", "/v1/token/mint", ownerTok, `{"amount":5}`, http.StatusOK)
	s.expect("POST", "/v1/questions", ownerTok, `{"message":"q"}`, http.StatusCreated)
	s.expect("POST", "/v1/questions/0/answers", ownerTok, `{"message":"a"}`, http.StatusCreated)

	cases := []struct {
		name     string
		method   string
		path     string
		token    string
		body     string
		wantCode int
		wantKind string
	}{
		{"no token", "POST", "/v1/questions", "", `{"message":"q"}`, http.StatusUnauthorized, "Unauthorized"},
		{"bad token", "POST", "/v1/questions", "garbage", `{"message":"q"}`, http.StatusUnauthorized, "Unauthorized"},
		{"schema violation", "POST", "/v1/questions", ownerTok, `{"msg":"q"}`, http.StatusBadRequest, "InvalidRequest"},
		{"negative amount", "POST", "/v1/token/transfer", ownerTok, fmt.Sprintf(`{"to":%q,"amount":-1}`, ownerID), http.StatusBadRequest, "InvalidRequest"},
		{"question not found", "POST", "/v1/questions/9/answers", ownerTok, `{"message":"a"}`, http.StatusNotFound, services.KindQuestionNotFound},
		{"answer not found", "GET", "/v1/answers/9/upvotes", "", "", http.StatusNotFound, services.KindAnswerNotFound},
		{"bad id", "GET", "/v1/answers/x", "", "", http.StatusBadRequest, "InvalidRequest"},
		{"no allowance", "POST", "/v1/answers/0/upvote", ownerTok, "", http.StatusPaymentRequired, services.KindInsufficientAllowance},
		{"over balance", "POST", "/v1/token/transfer", otherTok, fmt.Sprintf(`{"to":%q,"amount":1}`, ownerID), http.StatusPaymentRequired, services.KindInsufficientBalance},
		{"approve over balance", "POST", "/v1/token/approve", ownerTok, fmt.Sprintf(`{"spender":%q,"amount":6}`, ownerID), http.StatusPaymentRequired, services.KindInsufficientBalance},
		{"duplicate email", "POST", "/api/v1/auth/register", "", `{"email":"owner@example.com","password":"password123","display_name":"X"}`, http.StatusConflict, "DuplicateEmail"},
		{"short password", "POST", "/api/v1/auth/register", "", `{"email":"x@example.com","password":"short","display_name":"X"}`, http.StatusBadRequest, "InvalidRequest"},
		{"me without token", "GET", "/v1/me", "", "", http.StatusUnauthorized, "Unauthorized"},
		{"bad cursor", "GET", "/v1/events?after=x", "", "", http.StatusBadRequest, "InvalidRequest"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := s.do(tc.method, tc.path, tc.token, tc.body)
			if res.code != tc.wantCode {
				t.Fatalf("got %d, want %d: %s", res.code, tc.wantCode, res.raw)
			}
			if res.body["code"] != tc.wantKind {
				t.Errorf("code: got %v, want %s", res.body["code"], tc.wantKind)
			}
		})
	}

	// None of the rejected calls moved tokens.
	b := s.expect("GET", "/v1/accounts/"+ownerID+"/balance", "", "", http.StatusOK)
	if num(b.body["balance"]) != 5 {
		t.Errorf("owner balance: got %v, want 5", b.body["balance"])
	}
}

func TestTransferFromEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	ownerID, ownerTok := s.signup("o@example.com")
	spenderID, spenderTok := s.signup("s@example.com")

	s.expect("POST", "/v1/token/mint", ownerTok, `{"amount":10}`, http.StatusOK)
	s.expect("POST", "/v1/token/approve", ownerTok, fmt.Sprintf(`{"spender":%q,"amount":5}`, spenderID), http.StatusOK)

	r := s.expect("POST", "/v1/token/transfer-from", spenderTok,
		fmt.Sprintf(`{"owner":%q,"to":%q,"amount":5}`, ownerID, spenderID), http.StatusOK)
	if num(r.body["amount"]) != 0 {
		t.Errorf("remaining allowance: got %v, want 0", r.body["amount"])
	}
	a := s.expect("GET", "/v1/accounts/"+ownerID+"/allowances/"+spenderID, "", "", http.StatusOK)
	if num(a.body["amount"]) != 0 {
		t.Errorf("allowance: got %v", a.body)
	}
	s.expect("POST", "/v1/token/transfer-from", spenderTok,
		fmt.Sprintf(`{"owner":%q,"to":%q,"amount":1}`, ownerID, spenderID), http.StatusPaymentRequired)
}

func TestRateLimitedWrites(t *testing.T) {
	s := newTestServer(t, middleware.NewRateLimiter(0.001, 3, nil))
	// Signup is keyed by host; writes below are keyed by identity.
	_, tok := s.signup("limited@example.com")

	s.expect("POST", "/v1/questions", tok, `{"message":"one"}`, http.StatusCreated)
	s.expect("POST", "/v1/questions", tok, `{"message":"two"}`, http.StatusCreated)
	s.expect("POST", "/v1/questions", tok, `{"message":"three"}`, http.StatusCreated)
	s.expect("POST", "/v1/questions", tok, `{"message":"four"}`, http.StatusTooManyRequests)

	// Reads are not limited.
	s.expect("GET", "/v1/questions", "", "", http.StatusOK)
}
