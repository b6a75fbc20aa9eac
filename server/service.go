package server

import (
	"fmt"
	"reflect"
	"sort"
	"unicode"
	"unicode/utf8"
)

type methodType struct {
	method reflect.Method
}

type service struct {
	path    string
	version string
	rcvr    reflect.Value
	typ     reflect.Type
	method  map[string]*methodType // keyed by the exposed (lower camel case) name
}

// NewService 创建 service 并扫描所有合法方法
func NewService(path, version string, rcvr any) (*service, error) {
	if path == "" {
		return nil, fmt.Errorf("rpc: empty service path")
	}
	typ := reflect.TypeOf(rcvr)
	if typ == nil || typ.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("rpc: rcvr must be a pointer, got %T", rcvr)
	}
	if typ.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("rpc: rcvr must point to a struct, got %s", typ.Elem().Kind())
	}
	srv := &service{
		path:    path,
		version: version,
		rcvr:    reflect.ValueOf(rcvr),
		typ:     typ,
		method:  make(map[string]*methodType),
	}
	srv.RegisterMethods()
	if len(srv.method) == 0 {
		return nil, fmt.Errorf("rpc: %s has no method of the form func(args []any) (any, error)", typ)
	}
	return srv, nil
}

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	argsType  = reflect.TypeOf([]any(nil))
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
)

// RegisterMethods 扫描 struct 的导出方法，过滤出符合签名 (receiver, []any) (any, error) 的
func (s *service) RegisterMethods() {
	for i := 0; i < s.typ.NumMethod(); i++ {
		method := s.typ.Method(i)
		mt := method.Type
		if mt.NumIn() != 2 || mt.In(1) != argsType ||
			mt.NumOut() != 2 || mt.Out(0) != anyType || mt.Out(1) != errorType {
			continue
		}
		s.method[exposedName(method.Name)] = &methodType{method: method}
	}
}

// Methods returns the exposed method names, sorted.
func (s *service) Methods() []string {
	names := make([]string, 0, len(s.method))
	for name := range s.method {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call 通过反射调用方法
func (s *service) Call(mType *methodType, args []any) (any, error) {
	results := mType.method.Func.Call([]reflect.Value{s.rcvr, reflect.ValueOf(args)})
	if !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// exposedName lower-cases the first letter: SayHello is served as sayHello.
func exposedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}
