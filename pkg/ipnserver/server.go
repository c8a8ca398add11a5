package ipnserver

import (
	"errors"
	"net/http"

	"librapay/internal/gateway"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
)

// Server receives the provider's server-to-server notifications. It runs
// beside the API server on its own listener so the webhook can be exposed to
// the provider without exposing the rest of the API.
type Server struct {
	router     *mux.Router
	addr       string
	reconciler *gateway.Reconciler
}

func NewServer(addr string, reconciler *gateway.Reconciler) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		addr:       addr,
		reconciler: reconciler,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/ipn", s.handleIPN).Methods("POST")
	s.router.HandleFunc("/healthz", s.healthz).Methods("GET")
}

func (s *Server) Start() error {
	glog.Infof("ipn server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.router)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// The provider keeps retrying a notification until it reads back the literal
// body "1". Anything else, or a non-200 status, schedules a retry on their
// side, which is exactly what we want for transient failures and for
// notifications that raced ahead of the transaction record.
func (s *Server) handleIPN(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	resp := gateway.ParseResponse(r.PostForm)

	err := s.reconciler.ProcessIPN(resp)
	if err == nil {
		s.ack(w)
		return
	}

	var doneErr *gateway.AlreadyProcessedError
	if errors.As(err, &doneErr) {
		s.ack(w)
		return
	}

	glog.Warningf("ipn for order %s not acknowledged: %s", resp.Order, err.Error())

	var confErr *gateway.ConfigurationError
	if errors.As(err, &confErr) {
		http.Error(w, "configuration error", http.StatusInternalServerError)
		return
	}

	// validation, signature, correlation and lock contention all fall through
	// here; the provider retries and the next attempt gets a clean run
	http.Error(w, "not processed", http.StatusBadRequest)
}

func (s *Server) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("1"))
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
