package deeplink

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/framezapp/framez/internal/logging"
)

// landingPage moves the token fragment into the query string and forwards to
// /auth/callback/done. Confirmation redirects place tokens in the URL
// fragment, which never reaches the server, so a hop through the browser is
// required.
const landingPage = `<!doctype html>
<html><body>
<p>Completing email confirmation...</p>
<script>
  var h = window.location.hash;
  var q = h && h.length > 1 ? h.substring(1) : window.location.search.substring(1);
  window.location.replace("/auth/callback/done?" + q);
</script>
</body></html>`

const donePage = `<!doctype html>
<html><body><p>Email confirmed. You can close this tab and return to framez.</p></body></html>`

// Server is the loopback HTTP endpoint registered as the email-confirmation
// redirect target. Each completed callback URL is handed to the callback
// function as a raw string.
type Server struct {
	addr     string
	log      logging.Logger
	callback func(raw string)
	srv      *http.Server
	ln       net.Listener
}

// Addr is the bound listen address, valid after Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

func NewServer(addr string, log logging.Logger, callback func(raw string)) *Server {
	return &Server{addr: addr, log: log, callback: callback}
}

// Start begins serving in the background. It returns once the listener is
// bound, so the redirect target is live before any auth call registers it.
func (s *Server) Start(ctx context.Context) error {
	r := chi.NewRouter()
	r.Get("/auth/callback", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(landingPage))
	})
	r.Get("/auth/callback/done", func(w http.ResponseWriter, req *http.Request) {
		s.callback(req.URL.String())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(donePage))
	})

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.srv = &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(ctx, "deep link server stopped", "error", err)
		}
	}()
	s.log.Debug(ctx, "deep link server listening", "addr", ln.Addr().String())
	return nil
}

// Shutdown stops the server, waiting for in-flight callbacks.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
