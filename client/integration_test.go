package client

import (
	"context"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/534591395/zoodubbo/loadbalance"
	"github.com/534591395/zoodubbo/message"
	"github.com/534591395/zoodubbo/registry"
	"github.com/534591395/zoodubbo/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// ---- In-memory registry (no etcd) ----

type memRegistry struct {
	mu        sync.Mutex
	endpoints map[string]registry.Endpoint
	watchers  map[string][]chan []registry.Endpoint
}

func newMemRegistry() *memRegistry {
	return &memRegistry{
		endpoints: make(map[string]registry.Endpoint),
		watchers:  make(map[string][]chan []registry.Endpoint),
	}
}

func (m *memRegistry) Register(_ context.Context, ep registry.Endpoint, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints[ep.URL()] = ep
	m.notify(ep.Path)
	return nil
}

func (m *memRegistry) Deregister(_ context.Context, ep registry.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.endpoints, ep.URL())
	m.notify(ep.Path)
	return nil
}

func (m *memRegistry) Discover(_ context.Context, path string) ([]registry.Endpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(path), nil
}

func (m *memRegistry) Watch(ctx context.Context, path string) <-chan []registry.Endpoint {
	ch := make(chan []registry.Endpoint, 8)
	m.mu.Lock()
	m.watchers[path] = append(m.watchers[path], ch)
	m.mu.Unlock()
	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		watchers := m.watchers[path]
		for i, w := range watchers {
			if w == ch {
				m.watchers[path] = append(watchers[:i], watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch
}

func (m *memRegistry) list(path string) []registry.Endpoint {
	var out []registry.Endpoint
	for _, ep := range m.endpoints {
		if ep.Path == path {
			out = append(out, ep)
		}
	}
	return out
}

func (m *memRegistry) notify(path string) {
	for _, ch := range m.watchers[path] {
		select {
		case ch <- m.list(path):
		default:
		}
	}
}

// ---- Setup ----

func startPublishedGreeter(t testing.TB, reg registry.Registry) *server.Server {
	svr := server.NewServer(server.WithRegistry(reg, "", 10))
	require.NoError(t, svr.Register(greeterPath, "1.0.0", &Greeter{}))
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go svr.ServeListener(l)
	t.Cleanup(func() { _ = svr.Shutdown(3 * time.Second) })
	return svr
}

func newStackResolver(t testing.TB, reg registry.Registry) *Resolver {
	cache, err := registry.NewCache(context.Background(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return NewResolver(reg, &loadbalance.RoundRobinBalancer{}, cache, nil)
}

// TestFullStackMultiProvider 链路: Client → Resolver(registry + LB + cache) → Transport → Provider
func TestFullStackMultiProvider(t *testing.T) {
	reg := newMemRegistry()
	startPublishedGreeter(t, reg)
	startPublishedGreeter(t, reg)
	require.Eventually(t, func() bool {
		eps, _ := reg.Discover(context.Background(), greeterPath)
		return len(eps) == 2
	}, time.Second, 5*time.Millisecond)

	resolver := newStackResolver(t, reg)
	c := NewClient(resolver, WithLogger(zaptest.NewLogger(t)))
	svc := c.Service(greeter)

	_, ok := resolver.FromCache(greeterPath)
	assert.False(t, ok)

	for _, name := range []string{"a", "b", "c"} {
		result, err := svc.Call(context.Background(), "sayHello", message.String(name))
		require.NoError(t, err)
		assert.Equal(t, `"hello `+name+`"`, result.Value)
	}

	cached, ok := resolver.FromCache(greeterPath)
	require.True(t, ok)
	assert.Equal(t, greeterPath, cached.Path)
	assert.Contains(t, cached.Methods, "sayHello")
}

func TestResolverFiltersVersion(t *testing.T) {
	reg := newMemRegistry()
	startPublishedGreeter(t, reg)
	require.Eventually(t, func() bool {
		eps, _ := reg.Discover(context.Background(), greeterPath)
		return len(eps) == 1
	}, time.Second, 5*time.Millisecond)

	resolver := newStackResolver(t, reg)
	_, err := resolver.Resolve(context.Background(), greeterPath, "9.9.9")
	require.ErrorIs(t, err, ErrNoProvider)

	ep, err := resolver.Resolve(context.Background(), greeterPath, "")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", ep.Version)
}

func TestResolverWatchRefreshesCache(t *testing.T) {
	reg := newMemRegistry()
	resolver := newStackResolver(t, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watching := make(chan struct{})
	go func() {
		resolver.Watch(ctx, greeterPath, "1.0.0")
		close(watching)
	}()

	ep := registry.Endpoint{Host: "127.0.0.1", Port: 20880, Path: greeterPath, Version: "1.0.0", Methods: []string{"sayHello"}}
	require.Eventually(t, func() bool {
		_ = reg.Register(context.Background(), ep, 10)
		_, ok := resolver.FromCache(greeterPath)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, reg.Deregister(context.Background(), ep))
	require.Eventually(t, func() bool {
		_, ok := resolver.FromCache(greeterPath)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-watching:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

// The etcd test needs a live server; point ZOODUBBO_ETCD at it, e.g. "127.0.0.1:2379".
func TestFullIntegrationWithEtcd(t *testing.T) {
	addr := os.Getenv("ZOODUBBO_ETCD")
	if addr == "" {
		t.Skip("ZOODUBBO_ETCD not set")
	}
	reg, err := registry.NewEtcdRegistry(registry.EtcdConfig{
		Endpoints: strings.Split(addr, ","),
		Root:      "/zoodubbo-client-test",
		Logger:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	startPublishedGreeter(t, reg)
	require.Eventually(t, func() bool {
		eps, err := reg.Discover(context.Background(), greeterPath)
		return err == nil && len(eps) > 0
	}, 5*time.Second, 50*time.Millisecond)

	c := NewClient(newStackResolver(t, reg), WithLogger(zaptest.NewLogger(t)))
	result, err := c.Service(greeter).Call(context.Background(), "sayHello", message.String("etcd"))
	require.NoError(t, err)
	assert.Equal(t, `"hello etcd"`, result.Value)
}
