// Package client implements the Dubbo invocation client.
//
// Every invocation runs on its own goroutine through the state machine
//
//	resolving → connecting → sending → accumulating → classifying → resolved | rejected
//	                  ↑                                    │
//	                  └──────── reconnecting ←─────────────┘ (transport errors only)
//
// and owns one short-lived connection that carries exactly one request and one response.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/534591395/zoodubbo/codec"
	"github.com/534591395/zoodubbo/config"
	"github.com/534591395/zoodubbo/message"
	"github.com/534591395/zoodubbo/middleware"
	"github.com/534591395/zoodubbo/observability"
	"github.com/534591395/zoodubbo/protocol"
	"github.com/534591395/zoodubbo/registry"
	"github.com/534591395/zoodubbo/transport"
	"go.uber.org/zap"
)

type Options struct {
	Codec          codec.Codec
	Dialer         transport.Dialer
	Logger         *zap.Logger
	DubboVersion   string
	MaxBodyLength  uint32
	ReadBufferSize int
	Reconnect      ReconnectPolicy
	Middlewares    []middleware.Middleware
}

type Option func(*Options)

func WithCodec(c codec.Codec) Option {
	return func(o *Options) { o.Codec = c }
}

func WithDialer(d transport.Dialer) Option {
	return func(o *Options) { o.Dialer = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func WithDubboVersion(v string) Option {
	return func(o *Options) { o.DubboVersion = v }
}

func WithMaxBodyLength(n uint32) Option {
	return func(o *Options) { o.MaxBodyLength = n }
}

func WithReadBufferSize(n int) Option {
	return func(o *Options) { o.ReadBufferSize = n }
}

func WithReconnectPolicy(p ReconnectPolicy) Option {
	return func(o *Options) { o.Reconnect = p }
}

// WithMiddleware appends to the invocation chain; the first added runs outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(o *Options) { o.Middlewares = append(o.Middlewares, mws...) }
}

type Client struct {
	resolver EndpointResolver
	opts     Options
	handler  middleware.HandlerFunc
}

func NewClient(resolver EndpointResolver, opts ...Option) *Client {
	o := Options{
		Codec:          &codec.HessianCodec{},
		Dialer:         &net.Dialer{},
		Logger:         zap.NewNop(),
		DubboVersion:   protocol.DefaultDubboVersion,
		MaxBodyLength:  protocol.DefaultMaxBodyLength,
		ReadBufferSize: transport.DefaultReadBufferSize,
		Reconnect:      DefaultReconnectPolicy(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Client{resolver: resolver, opts: o}
	c.handler = middleware.Chain(o.Middlewares...)(c.invoke)
	return c
}

// Service is a handle bound to one remote service.
type Service struct {
	client *Client
	info   message.ServiceInfo
}

func (c *Client) Service(info message.ServiceInfo) *Service {
	return &Service{client: c, info: info}
}

// Invoke starts the call and returns immediately.
func (s *Service) Invoke(ctx context.Context, method string, args ...message.Arg) *Call {
	call := newCall(s.info.Path, method)
	inv, err := message.NewInvocation(s.info, method, args)
	if err != nil {
		call.settle(message.Outcome{Err: err})
		return call
	}
	go func() {
		call.settle(s.client.handler(ctx, inv))
	}()
	return call
}

// InvokeFunc starts the call and hands its outcome to cb on a separate goroutine.
func (s *Service) InvokeFunc(ctx context.Context, method string, args []message.Arg, cb func(err error, result message.Result)) {
	call := s.Invoke(ctx, method, args...)
	go func() {
		out := call.Outcome()
		cb(out.Err, out.Result)
	}()
}

// Call runs the call synchronously.
func (s *Service) Call(ctx context.Context, method string, args ...message.Arg) (message.Result, error) {
	return s.Invoke(ctx, method, args...).Wait(ctx)
}

// invoke is the innermost handler of the middleware chain.
func (c *Client) invoke(ctx context.Context, inv *message.Invocation) message.Outcome {
	frame, err := protocol.EncodeRequest(inv, c.opts.Codec, protocol.RequestOptions{
		DubboVersion:  c.opts.DubboVersion,
		MaxBodyLength: c.opts.MaxBodyLength,
	})
	if err != nil {
		return message.Outcome{Err: err}
	}
	pc := &pendingCall{inv: inv, frame: frame, state: stateResolving}
	return c.run(ctx, pc)
}

func (c *Client) run(ctx context.Context, pc *pendingCall) message.Outcome {
	log := c.opts.Logger.With(zap.String("path", pc.inv.Path), zap.String("method", pc.inv.Method))

	endpoint, ok := c.resolver.FromCache(pc.inv.Path)
	pc.fromCache = ok
	if !ok {
		var err error
		endpoint, err = c.resolver.Resolve(ctx, pc.inv.Path, pc.inv.Version)
		if err != nil {
			return pc.reject(err)
		}
	}

	for {
		pc.endpoint = endpoint
		result, err := c.attempt(ctx, pc)
		if err == nil {
			return pc.resolve(result)
		}

		var transErr *transport.Error
		if !errors.As(err, &transErr) || ctx.Err() != nil {
			return pc.reject(err)
		}

		pc.state = stateReconnecting
		pc.attempts++
		if !c.opts.Reconnect.Allow(pc.attempts) {
			log.Warn("giving up after transport errors", zap.Int("attempts", pc.attempts-1), zap.Error(err))
			return pc.reject(err)
		}
		delay := c.opts.Reconnect.NextDelay(pc.attempts)
		log.Warn("transport error, reconnecting",
			zap.String("addr", endpoint.Addr()),
			zap.Bool("from_cache", pc.fromCache),
			zap.Int("attempt", pc.attempts),
			zap.Duration("delay", delay),
			zap.Error(err))
		observability.RecordReconnect(pc.inv.Path)

		if werr := sleepContext(ctx, delay); werr != nil {
			return pc.reject(werr)
		}
		pc.fromCache = false
		endpoint, err = c.resolver.Resolve(ctx, pc.inv.Path, pc.inv.Version)
		if err != nil {
			return pc.reject(fmt.Errorf("reconnect after %v: %w", transErr, err))
		}
	}
}

// attempt runs connecting → sending → accumulating → classifying once against pc.endpoint.
func (c *Client) attempt(ctx context.Context, pc *pendingCall) (message.Result, error) {
	pc.state = stateConnecting
	if !pc.fromCache && !pc.endpoint.HasMethod(pc.inv.Method) {
		return message.Result{}, &registry.UnknownMethodError{Path: pc.inv.Path, Method: pc.inv.Method}
	}

	conn, err := transport.Dial(ctx, c.opts.Dialer, pc.endpoint.Addr(), c.opts.ReadBufferSize)
	if err != nil {
		return message.Result{}, err
	}
	defer conn.Close()

	pc.state = stateSending
	if err := conn.Send(pc.frame); err != nil {
		return message.Result{}, err
	}

	pc.state = stateAccumulating
	frame, err := conn.Receive()
	if err != nil {
		return message.Result{}, err
	}

	pc.state = stateClassifying
	return protocol.DecodeResponse(frame, c.opts.Codec)
}

// ConfigOptions translates client configuration into options. The chain is
// logging → metrics → rate limit → timeout, with the last two only when configured.
func ConfigOptions(cfg config.ClientConfig, logger *zap.Logger) ([]Option, error) {
	codecType, err := codec.ParseCodecType(cfg.Serialization)
	if err != nil {
		return nil, err
	}
	c, err := codec.GetCodec(codecType)
	if err != nil {
		return nil, err
	}

	mws := []middleware.Middleware{
		middleware.LoggingMiddleware(logger),
		middleware.MetricsMiddleware(),
	}
	if cfg.RateLimit > 0 {
		mws = append(mws, middleware.RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst))
	}
	if cfg.EnforceTimeout {
		mws = append(mws, middleware.TimeOutMiddleware(cfg.Timeout))
	}

	return []Option{
		WithCodec(c),
		WithDialer(&net.Dialer{Timeout: cfg.DialTimeout}),
		WithLogger(logger),
		WithDubboVersion(cfg.DubboVersion),
		WithMaxBodyLength(cfg.MaxBodyLength),
		WithReadBufferSize(cfg.ReadBufferSize),
		WithReconnectPolicy(ReconnectPolicy{
			Delay:       cfg.Reconnect.Delay,
			Multiplier:  cfg.Reconnect.Multiplier,
			MaxDelay:    cfg.Reconnect.MaxDelay,
			MaxAttempts: cfg.Reconnect.MaxAttempts,
		}),
		WithMiddleware(mws...),
	}, nil
}
