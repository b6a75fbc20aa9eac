package registry

import (
	"context"
	"net/url"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// DefaultRoot is the key prefix Dubbo uses.
const DefaultRoot = "/dubbo"

// EtcdConfig configures the etcd connection.
type EtcdConfig struct {
	Endpoints   []string
	Root        string
	DialTimeout time.Duration
	Logger      *zap.Logger
}

// EtcdRegistry implements the Registry interface using etcd v3.
//
// Providers are stored the way Dubbo lays them out in its etcd registry:
//
//	Key:   {root}/{ServicePath}/providers/{url-escaped provider URL}
//	Value: provider URL
//
// Registration uses TTL-based leases: if the provider crashes, the lease expires
// and the entry is automatically removed, so no "ghost" providers remain.
type EtcdRegistry struct {
	client *clientv3.Client // etcd client connection (thread-safe, shared across goroutines)
	root   string
	logger *zap.Logger
}

// NewEtcdRegistry creates a new registry connected to the configured etcd endpoints.
func NewEtcdRegistry(cfg EtcdConfig) (*EtcdRegistry, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	root := strings.TrimSuffix(cfg.Root, "/")
	if root == "" {
		root = DefaultRoot
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	c, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
		Logger:      logger.Named("etcd"),
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c, root: root, logger: logger}, nil
}

func (r *EtcdRegistry) providersPrefix(path string) string {
	return r.root + "/" + path + "/providers/"
}

func (r *EtcdRegistry) key(endpoint Endpoint) string {
	return r.providersPrefix(endpoint.Path) + url.QueryEscape(endpoint.URL())
}

// Register publishes a provider endpoint with a TTL lease.
//
// Flow:
//  1. Create a lease with the given TTL (e.g., 10 seconds)
//  2. Put the provider URL with the lease attached
//  3. Start KeepAlive to automatically renew the lease
//
// The lease keeps renewing until ctx is cancelled.
func (r *EtcdRegistry) Register(ctx context.Context, endpoint Endpoint, ttl int64) error {
	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	providerURL := endpoint.URL()
	_, err = r.client.Put(ctx, r.key(endpoint), providerURL, clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	// Consume KeepAlive responses to prevent the channel from filling up
	go func() {
		for range ch {
		}
	}()
	r.logger.Info("provider registered", zap.String("path", endpoint.Path), zap.String("url", providerURL))
	return nil
}

// Deregister removes a provider endpoint.
// Called during graceful shutdown before closing the listener.
func (r *EtcdRegistry) Deregister(ctx context.Context, endpoint Endpoint) error {
	_, err := r.client.Delete(ctx, r.key(endpoint))
	return err
}

// Watch monitors a service's providers and emits the updated list whenever
// they change. The channel is closed when ctx is done.
func (r *EtcdRegistry) Watch(ctx context.Context, path string) <-chan []Endpoint {
	ch := make(chan []Endpoint, 1)
	prefix := r.providersPrefix(path)

	go func() {
		defer close(ch)
		watchChan := r.client.Watch(ctx, prefix, clientv3.WithPrefix())
		for range watchChan {
			// On any change, re-fetch the full provider list
			endpoints, err := r.Discover(ctx, path)
			if err != nil {
				r.logger.Warn("refresh providers failed", zap.String("path", path), zap.Error(err))
				continue
			}
			select {
			case ch <- endpoints:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// Discover returns all currently registered providers for a service path.
func (r *EtcdRegistry) Discover(ctx context.Context, path string) ([]Endpoint, error) {
	resp, err := r.client.Get(ctx, r.providersPrefix(path), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	endpoints := make([]Endpoint, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		raw := string(kv.Value)
		if raw == "" {
			// Java providers may only write the key.
			raw, _ = url.QueryUnescape(string(kv.Key[strings.LastIndexByte(string(kv.Key), '/')+1:]))
		}
		endpoint, err := ParseURL(raw)
		if err != nil {
			r.logger.Debug("skip malformed provider", zap.ByteString("key", kv.Key), zap.Error(err))
			continue
		}
		endpoints = append(endpoints, endpoint)
	}

	return endpoints, nil
}

// Close releases the etcd connection.
func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}
