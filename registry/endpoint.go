package registry

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Scheme of provider URLs.
const Scheme = "dubbo"

// DefaultWeight is assumed for providers that do not publish one.
const DefaultWeight = 100

// Endpoint is a resolved provider: its network location plus the methods it exposes.
type Endpoint struct {
	Host    string   `json:"host"`
	Port    int      `json:"port"`
	Path    string   `json:"path"`
	Version string   `json:"version"`
	Methods []string `json:"methods"`
	Weight  int      `json:"weight"`
}

// Addr returns host:port.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// HasMethod reports whether the provider advertised method.
func (e Endpoint) HasMethod(method string) bool {
	return slices.Contains(e.Methods, method)
}

// URL renders the endpoint as a provider URL, e.g.
// dubbo://10.0.0.1:20880/com.example.HelloService?interface=...&methods=a,b&version=1.0.0
func (e Endpoint) URL() string {
	q := url.Values{}
	q.Set("interface", e.Path)
	q.Set("methods", strings.Join(e.Methods, ","))
	if e.Version != "" {
		q.Set("version", e.Version)
	}
	if e.Weight > 0 {
		q.Set("weight", strconv.Itoa(e.Weight))
	}
	u := url.URL{
		Scheme:   Scheme,
		Host:     e.Addr(),
		Path:     "/" + e.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// ParseURL parses a provider URL as published by URL or by a Java provider.
func ParseURL(raw string) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("registry: parse provider url: %w", err)
	}
	if u.Scheme != Scheme {
		return Endpoint{}, fmt.Errorf("registry: unsupported provider scheme %q", u.Scheme)
	}

	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return Endpoint{}, fmt.Errorf("registry: provider url %q has no valid port", raw)
	}

	q := u.Query()
	path := strings.TrimPrefix(u.Path, "/")
	if iface := q.Get("interface"); iface != "" {
		path = iface
	}

	var methods []string
	for _, m := range strings.Split(q.Get("methods"), ",") {
		if m = strings.TrimSpace(m); m != "" {
			methods = append(methods, m)
		}
	}

	weight := DefaultWeight
	if w := q.Get("weight"); w != "" {
		if weight, err = strconv.Atoi(w); err != nil || weight < 0 {
			return Endpoint{}, fmt.Errorf("registry: provider url %q has invalid weight %q", raw, w)
		}
	}

	return Endpoint{
		Host:    u.Hostname(),
		Port:    port,
		Path:    path,
		Version: q.Get("version"),
		Methods: methods,
		Weight:  weight,
	}, nil
}

// UnknownMethodError is returned when a freshly resolved provider does not expose the method.
// No connection is attempted.
type UnknownMethodError struct {
	Path   string
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("can't find the method: %s on %s, pls check it", e.Method, e.Path)
}
