package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/w-h-a/helpdesk"
	"github.com/w-h-a/helpdesk/server"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	maxBodyBytes = 1 << 20
)

type httpServer struct {
	options server.Options
	handler *helpdesk.Handler
	router  *mux.Router
	srv     *http.Server
}

func (s *httpServer) Start() error {
	ln, err := net.Listen("tcp", s.options.Address)
	if err != nil {
		return err
	}

	slog.InfoContext(s.options.Context, "http server listening", "address", ln.Addr().String())

	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *httpServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Router exposes the routes without a listener, for tests.
func (s *httpServer) Router() http.Handler {
	return s.srv.Handler
}

func (s *httpServer) chat(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		slog.WarnContext(r.Context(), "failed to read request body", "error", err)
		s.write(w, helpdesk.Response{
			StatusCode: http.StatusBadRequest,
			Headers:    helpdesk.Headers(),
			Body:       `{"error":"failed to read request body"}`,
		})
		return
	}

	s.write(w, s.handler.Handle(r.Context(), helpdesk.Request{Body: string(raw)}))
}

func (s *httpServer) write(w http.ResponseWriter, rsp helpdesk.Response) {
	for k, v := range rsp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(rsp.StatusCode)
	_, _ = io.WriteString(w, rsp.Body)
}

func (s *httpServer) preflight(w http.ResponseWriter, r *http.Request) {
	for k, v := range helpdesk.Headers() {
		w.Header().Set(k, v)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *httpServer) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.write(w, helpdesk.Response{
		StatusCode: http.StatusMethodNotAllowed,
		Headers:    helpdesk.Headers(),
		Body:       `{"error":"method not allowed"}`,
	})
}

func (s *httpServer) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"status":"ok"}`)
}

func NewServer(handler *helpdesk.Handler, opts ...server.Option) *httpServer {
	options := server.NewOptions(opts...)

	if handler == nil {
		panic("handler is required")
	}

	s := &httpServer{
		options: options,
		handler: handler,
		router:  mux.NewRouter(),
	}

	for _, path := range []string{"/", "/chat"} {
		s.router.HandleFunc(path, s.chat).Methods(http.MethodPost)
		s.router.HandleFunc(path, s.preflight).Methods(http.MethodOptions)
	}

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowed)

	if h, ok := MetricsHandlerFrom(options.Context); ok {
		s.router.Handle("/metrics", h).Methods(http.MethodGet)
	}

	if ms, ok := MiddlewareFrom(options.Context); ok {
		for _, m := range ms {
			s.router.Use(mux.MiddlewareFunc(m))
		}
	}

	s.srv = &http.Server{
		Handler:      otelhttp.NewHandler(s.router, "helpdesk"),
		ReadTimeout:  options.ReadTimeout,
		WriteTimeout: options.WriteTimeout,
	}

	return s
}
