package server

import (
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"selfservice/internal/controllers"
)

// Server is the portal's HTTP front end. Every page route is wired
// here; the handlers themselves live in internal/controllers.
type Server struct {
	router     *mux.Router
	port       string
	cookieName string
	handler    *controllers.Handler
}

// NewServer creates the server and registers all routes.
func NewServer(port, cookieName string, handler *controllers.Handler) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		port:       port,
		cookieName: cookieName,
		handler:    handler,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestContext)

	account := s.router.PathPrefix("/account/{accountId}").Subrouter()

	account.HandleFunc("/dashboard", s.handler.GetDashboard).Methods("GET")
	account.HandleFunc("/dashboard/activity", s.handler.GetActivity).Methods("GET")
	account.HandleFunc("/create-payment-link", s.handler.GetDemoServiceLinks).Methods("GET")

	// Stripe onboarding wizard
	account.HandleFunc("/stripe/bank-details", s.handler.GetBankDetails).Methods("GET")
	account.HandleFunc("/stripe/bank-details", s.handler.PostBankDetails).Methods("POST")
	account.HandleFunc("/stripe/responsible-person", s.handler.GetResponsiblePerson).Methods("GET")
	account.HandleFunc("/stripe/responsible-person", s.handler.PostResponsiblePerson).Methods("POST")
	account.HandleFunc("/stripe/check-org-details", s.handler.GetCheckOrgDetails).Methods("GET")
	account.HandleFunc("/stripe/check-org-details", s.handler.PostCheckOrgDetails).Methods("POST")
	account.HandleFunc("/stripe/add-psp-account-details", s.handler.GetAddPspAccountDetails).Methods("GET")

	// Worldpay 3DS Flex
	account.HandleFunc("/your-psp", s.handler.GetYourPsp).Methods("GET")
	account.HandleFunc("/your-psp/flex", s.handler.GetFlex).Methods("GET")
	account.HandleFunc("/your-psp/flex", s.handler.PostFlex).Methods("POST")

	// Registration
	s.router.HandleFunc("/register", s.handler.GetRegister).Methods("GET")
	s.router.HandleFunc("/register", s.handler.PostRegister).Methods("POST")
	s.router.HandleFunc("/register/confirm", s.handler.GetRegisterConfirm).Methods("GET")

	// Profile
	s.router.HandleFunc("/my-profile/two-factor-auth", s.handler.GetTwoFactor).Methods("GET")
	s.router.HandleFunc("/my-profile/two-factor-auth", s.handler.PostTwoFactor).Methods("POST")
	s.router.HandleFunc("/my-profile/two-factor-auth/phone", s.handler.GetTwoFactorPhone).Methods("GET")
	s.router.HandleFunc("/my-profile/two-factor-auth/phone", s.handler.PostTwoFactorPhone).Methods("POST")
	s.router.HandleFunc("/my-profile/two-factor-auth/configure", s.handler.GetTwoFactorVerify).Methods("GET")
	s.router.HandleFunc("/my-profile/two-factor-auth/configure", s.handler.PostTwoFactorVerify).Methods("POST")

	s.router.HandleFunc("/healthcheck", s.healthcheck).Methods("GET")
}

// requestContext attaches the correlation id, session id and user id
// to the request context before any handler runs.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		correlationID := r.Header.Get("X-Request-Id")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		ctx := controllers.WithCorrelationID(r.Context(), correlationID)

		sessionID := s.ensureSessionCookie(w, r)
		ctx = controllers.WithSessionID(ctx, sessionID)

		if cookie, err := r.Cookie("selfservice_user"); err == nil {
			ctx = controllers.WithUserID(ctx, cookie.Value)
		}

		next.ServeHTTP(w, r.WithContext(ctx))

		glog.Infof("[requestId=%s] %s %s (%s)", correlationID, r.Method, r.URL.Path, time.Since(start))
	})
}

// ensureSessionCookie returns the session id from the cookie, minting
// a fresh one when the request has none.
func (s *Server) ensureSessionCookie(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(s.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	sessionID := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessionID
}

func (s *Server) healthcheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ping":{"healthy":true}}`))
}

// Start blocks serving HTTP on the configured port.
func (s *Server) Start() error {
	glog.Infof("starting selfservice on port %s", s.port)
	return http.ListenAndServe(":"+s.port, s.router)
}
