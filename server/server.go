// Package server implements a minimal Dubbo provider speaking the same frame format as the client.
//
// Request processing pipeline:
//
//	Accept conn → handleConn (single goroutine reads frames)
//	  → for each request: go handleRequest
//	    → DecodeRequest → service lookup → reflect.Call → encode response → write frame
//
// Responses:
//
//	value              status 20, body 0x91 + value
//	nil                status 20, body 0x95 + empty attachments map (void)
//	unknown service    status 60, body = error message
//	handler error      status 70, body = error message
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/534591395/zoodubbo/codec"
	"github.com/534591395/zoodubbo/observability"
	"github.com/534591395/zoodubbo/protocol"
	"github.com/534591395/zoodubbo/registry"
	"go.uber.org/zap"
)

// DefaultTTL is the registry lease in seconds, renewed by KeepAlive.
const DefaultTTL = 10

// Server is the provider that registers services and handles incoming requests.
type Server struct {
	serviceMap    map[string]*service // Registered services keyed by path
	mu            sync.Mutex          // Guards listener and published
	listener      net.Listener
	wg            sync.WaitGroup // Tracks in-flight requests for graceful shutdown
	shutdown      atomic.Bool    // Set during shutdown to suppress Accept errors
	codec         codec.Codec
	maxBody       uint32
	logger        *zap.Logger
	registry      registry.Registry // nil if not publishing
	advertiseAddr string            // Address published in the registry; defaults to the listener address
	ttl           int64
	published     []registry.Endpoint
}

type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func WithCodec(c codec.Codec) Option {
	return func(s *Server) { s.codec = c }
}

func WithMaxBodyLength(n uint32) Option {
	return func(s *Server) { s.maxBody = n }
}

// WithRegistry publishes every service to reg when serving starts.
// An empty advertiseAddr publishes the listener address.
func WithRegistry(reg registry.Registry, advertiseAddr string, ttl int64) Option {
	return func(s *Server) {
		s.registry = reg
		s.advertiseAddr = advertiseAddr
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		serviceMap: make(map[string]*service),
		codec:      &codec.HessianCodec{},
		maxBody:    protocol.DefaultMaxBodyLength,
		logger:     zap.NewNop(),
		ttl:        DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register exposes rcvr's methods of the form func(args []any) (any, error) under path.
// Method names are served with a lower-cased first letter.
func (svr *Server) Register(path, version string, rcvr any) error {
	svc, err := NewService(path, version, rcvr)
	if err != nil {
		return err
	}
	svr.serviceMap[svc.path] = svc
	return nil
}

// Serve listens on the given address and enters the accept loop.
func (svr *Server) Serve(network, address string) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	return svr.ServeListener(listener)
}

// ServeListener publishes the registered services (if a registry is configured)
// and accepts connections on l until Shutdown.
func (svr *Server) ServeListener(l net.Listener) error {
	svr.mu.Lock()
	svr.listener = l
	svr.mu.Unlock()

	if svr.registry != nil {
		if err := svr.publish(l.Addr()); err != nil {
			l.Close()
			return err
		}
	}
	svr.logger.Info("provider serving", zap.String("addr", l.Addr().String()), zap.Int("services", len(svr.serviceMap)))

	for {
		conn, err := l.Accept()
		if err != nil {
			if svr.shutdown.Load() {
				return nil
			}
			return err
		}
		go svr.handleConn(conn)
	}
}

// Endpoints returns the endpoints the services are reachable at through addr.
func (svr *Server) Endpoints(addr string) ([]registry.Endpoint, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("server: advertise address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("server: advertise port %q: %w", portStr, err)
	}
	endpoints := make([]registry.Endpoint, 0, len(svr.serviceMap))
	for _, svc := range svr.serviceMap {
		endpoints = append(endpoints, registry.Endpoint{
			Host:    host,
			Port:    port,
			Path:    svc.path,
			Version: svc.version,
			Methods: svc.Methods(),
			Weight:  registry.DefaultWeight,
		})
	}
	return endpoints, nil
}

func (svr *Server) publish(listenAddr net.Addr) error {
	addr := svr.advertiseAddr
	if addr == "" {
		addr = listenAddr.String()
	}
	endpoints, err := svr.Endpoints(addr)
	if err != nil {
		return err
	}
	for _, ep := range endpoints {
		if err := svr.registry.Register(context.Background(), ep, svr.ttl); err != nil {
			return fmt.Errorf("server: publish %s: %w", ep.Path, err)
		}
		svr.mu.Lock()
		svr.published = append(svr.published, ep)
		svr.mu.Unlock()
		svr.logger.Info("provider published", zap.String("url", ep.URL()))
	}
	return nil
}

// Addr returns the listener address, or nil before serving.
func (svr *Server) Addr() net.Addr {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	if svr.listener == nil {
		return nil
	}
	return svr.listener.Addr()
}

// handleConn reads frames sequentially and dispatches each request to its own goroutine.
// writeMu keeps concurrent responses from interleaving on the connection.
func (svr *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	writeMu := &sync.Mutex{}
	for {
		header, body, err := protocol.ReadFrame(conn, svr.maxBody)
		if err != nil {
			if errors.Is(err, protocol.ErrInvalidMagic) || errors.Is(err, protocol.ErrFrameTooLarge) {
				svr.logger.Warn("dropping connection", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			}
			return
		}

		// Heartbeats and other events carry no invocation.
		if header.Flag&protocol.FlagEvent != 0 || !header.IsRequest() {
			continue
		}

		svr.wg.Add(1)
		go svr.handleRequest(header, body, conn, writeMu)
	}
}

func (svr *Server) handleRequest(header *protocol.Header, body []byte, conn net.Conn, writeMu *sync.Mutex) {
	defer svr.wg.Done()

	req, err := protocol.DecodeRequest(body, svr.codec)
	if err != nil {
		svr.reply(conn, writeMu, "", "", protocol.StatusBadRequest, svr.errorBody(err.Error()))
		return
	}

	status, respBody := svr.dispatch(req)
	if header.Flag&protocol.FlagTwoWay == 0 {
		return
	}
	svr.reply(conn, writeMu, req.Path, req.Method, status, respBody)
}

func (svr *Server) dispatch(req *protocol.RequestBody) (byte, []byte) {
	svc := svr.serviceMap[req.Path]
	if svc == nil || (svc.version != "" && req.Version != svc.version) {
		return protocol.StatusServiceNotFound, svr.errorBody(fmt.Sprintf("service not found: %s:%s", req.Path, req.Version))
	}
	mtype := svc.method[req.Method]
	if mtype == nil {
		return protocol.StatusServiceNotFound, svr.errorBody(fmt.Sprintf("method not found: %s.%s", req.Path, req.Method))
	}

	result, callErr := svc.Call(mtype, req.Args)
	if callErr != nil {
		svr.logger.Debug("handler failed", zap.String("path", req.Path), zap.String("method", req.Method), zap.Error(callErr))
		return protocol.StatusServiceError, svr.errorBody(callErr.Error())
	}

	var (
		body []byte
		err  error
	)
	if result == nil {
		body, err = svr.codec.Encode(codec.ResponseNullValueWithAttachments, map[string]string{})
	} else {
		body, err = svr.codec.Encode(codec.ResponseValue, result)
	}
	if err != nil {
		svr.logger.Error("failed to encode method result", zap.String("method", req.Method), zap.Error(err))
		return protocol.StatusBadResponse, svr.errorBody(err.Error())
	}
	return protocol.StatusOK, body
}

func (svr *Server) errorBody(msg string) []byte {
	body, err := svr.codec.Encode(msg)
	if err != nil {
		return []byte(msg)
	}
	return body
}

func (svr *Server) reply(conn net.Conn, writeMu *sync.Mutex, path, method string, status byte, body []byte) {
	observability.RecordProviderRequest(path, method, status)

	writeMu.Lock()
	defer writeMu.Unlock()
	if _, err := conn.Write(protocol.EncodeResponse(status, svr.codec.Type(), body)); err != nil {
		svr.logger.Warn("failed to write response", zap.Error(err))
	}
}

// Shutdown performs graceful shutdown:
//  1. Deregister all published endpoints (clients stop routing to this provider)
//  2. Set shutdown flag so the Accept error is recognized as intentional
//  3. Close the listener
//  4. Wait for in-flight requests to finish (with timeout)
func (svr *Server) Shutdown(timeout time.Duration) error {
	svr.mu.Lock()
	published := svr.published
	svr.published = nil
	svr.mu.Unlock()

	for _, ep := range published {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := svr.registry.Deregister(ctx, ep); err != nil {
			svr.logger.Warn("deregister failed", zap.String("path", ep.Path), zap.Error(err))
		}
		cancel()
	}

	svr.shutdown.Store(true)
	svr.mu.Lock()
	if svr.listener != nil {
		svr.listener.Close()
	}
	svr.mu.Unlock()

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for ongoing requests to finish")
	}
}
