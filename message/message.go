// Package message defines the invocation exchanged between the client and a Dubbo provider.
//
// An Invocation is the "envelope" for every RPC call. It is built once per call,
// serialized by the codec layer and wrapped in a protocol frame for transmission over TCP.
package message

import (
	"fmt"
	"strconv"
	"time"
)

// DefaultTimeout is transmitted as the timeout attachment when the service sets none.
const DefaultTimeout = 60 * time.Second

// Attachment keys sent with every invocation.
const (
	AttachmentPath      = "path"
	AttachmentInterface = "interface"
	AttachmentTimeout   = "timeout"
	AttachmentVersion   = "version"
)

// ServiceInfo identifies the remote service an invocation targets.
type ServiceInfo struct {
	Path    string        // Interface name, e.g., "com.example.HelloService"
	Version string        // Provider version, e.g., "1.0.0"
	Timeout time.Duration // Sent to the provider as an attachment; zero means DefaultTimeout
}

// Invocation carries the data for a single RPC request.
// It is immutable once NewInvocation returns.
type Invocation struct {
	Path           string
	Version        string
	Method         string
	ParameterTypes string            // Descriptor such as "ILcom/example/Foo;"
	Args           []any             // Argument values, coerced to their declared wire types
	Attachments    map[string]string // path, interface, timeout (ms), version
	Timeout        time.Duration
}

// NewInvocation builds the descriptor, the value sequence and the attachments for method.
func NewInvocation(svc ServiceInfo, method string, args []Arg) (*Invocation, error) {
	if svc.Path == "" {
		return nil, fmt.Errorf("message: service path is required")
	}
	if method == "" {
		return nil, fmt.Errorf("message: method name is required")
	}

	types, values, err := BuildArguments(args)
	if err != nil {
		return nil, err
	}

	timeout := svc.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Invocation{
		Path:           svc.Path,
		Version:        svc.Version,
		Method:         method,
		ParameterTypes: types,
		Args:           values,
		Attachments: map[string]string{
			AttachmentPath:      svc.Path,
			AttachmentInterface: svc.Path,
			AttachmentTimeout:   strconv.FormatInt(timeout.Milliseconds(), 10),
			AttachmentVersion:   svc.Version,
		},
		Timeout: timeout,
	}, nil
}

// Result is the successful settlement of a call.
//
//   - Void is true when the provider signalled "no return value".
//   - Otherwise Value holds the decoded return value rendered as JSON.
type Result struct {
	Value string
	Void  bool
}

// VoidValue is what String reports for a void result.
const VoidValue = "void return"

func (r Result) String() string {
	if r.Void {
		return VoidValue
	}
	return r.Value
}

// Outcome is the single settlement of an invocation: either Err is set or Result is valid.
type Outcome struct {
	Result Result
	Err    error
}
