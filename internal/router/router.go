package router

import (
	"net/http"

	"github.com/goflow/backend/internal/auth"
	"github.com/goflow/backend/internal/handlers"
	"github.com/goflow/backend/internal/middleware"
	"github.com/goflow/backend/internal/services"
)

// Deps are the handlers and middleware the routes are built from.
type Deps struct {
	Auth      *auth.Handler
	Tokens    middleware.TokenValidator
	Validator middleware.BodyValidator
	Limiter   *middleware.RateLimiter
	Forum     *handlers.ForumHandler
	Token     *handlers.TokenHandler
	Account   *handlers.AccountHandler
}

// New returns a mux serving the auth API under /api/v1 and the ledger API under /v1.
//
// Chains: reads are public; writes run Authenticate -> RateLimit -> ValidateBody -> handler.
func New(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	limit := func(h http.Handler) http.Handler { return h }
	if d.Limiter != nil {
		limit = d.Limiter.Handler
	}
	authn := middleware.Authenticate(d.Tokens)
	body := func(schema string, h http.HandlerFunc) http.Handler {
		return middleware.ValidateBody(d.Validator, schema)(h)
	}
	write := func(h http.Handler) http.Handler { return authn(limit(h)) }

	base := "/api/v1"
	mux.Handle("POST "+base+"/auth/register", limit(body(services.SchemaRegister, d.Auth.Register)))
	mux.Handle("POST "+base+"/auth/login", limit(body(services.SchemaLogin, d.Auth.Login)))

	// Token ledger
	mux.HandleFunc("GET /v1/token", d.Token.Info)
	mux.Handle("POST /v1/token/mint", write(body(services.SchemaMint, d.Token.Mint)))
	mux.Handle("POST /v1/token/transfer", write(body(services.SchemaTransfer, d.Token.Transfer)))
	mux.Handle("POST /v1/token/approve", write(body(services.SchemaApprove, d.Token.Approve)))
	mux.Handle("POST /v1/token/transfer-from", write(body(services.SchemaTransferFrom, d.Token.TransferFrom)))
	mux.HandleFunc("GET /v1/accounts/{id}/balance", d.Token.Balance)
	mux.HandleFunc("GET /v1/accounts/{owner}/allowances/{spender}", d.Token.Allowance)

	// Forum ledger
	mux.HandleFunc("GET /v1/questions", d.Forum.ListQuestions)
	mux.Handle("POST /v1/questions", write(body(services.SchemaQuestion, d.Forum.PostQuestion)))
	mux.HandleFunc("GET /v1/questions/{id}", d.Forum.GetQuestion)
	mux.HandleFunc("GET /v1/questions/{id}/answers", d.Forum.ListAnswers)
	mux.Handle("POST /v1/questions/{id}/answers", write(body(services.SchemaAnswer, d.Forum.PostAnswer)))
	mux.HandleFunc("GET /v1/answers/{id}", d.Forum.GetAnswer)
	mux.HandleFunc("GET /v1/answers/{id}/upvotes", d.Forum.GetUpvotes)
	mux.Handle("POST /v1/answers/{id}/upvote", write(http.HandlerFunc(d.Forum.Upvote)))
	mux.HandleFunc("GET /v1/users/{id}/upvotes", d.Forum.UserUpvotes)

	// Caller and event log
	mux.Handle("GET /v1/me", authn(http.HandlerFunc(d.Account.GetMe)))
	mux.HandleFunc("GET /v1/events", d.Account.ListEvents)

	return mux
}
