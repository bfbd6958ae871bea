package bridge

import (
	"reflect"

	"github.com/lk2023060901/typebridge/pkg/util/merr"
	"github.com/lk2023060901/typebridge/pkg/wire"
)

// fakeSerializer 返回预设的匹配结果与取值。
type fakeSerializer struct {
	name   string
	types  []reflect.Type
	shapes []wire.Shape
	match  Match
	err    error
	value  any

	tries int
}

func (f *fakeSerializer) Name() string                { return f.name }
func (f *fakeSerializer) NativeTypes() []reflect.Type { return f.types }
func (f *fakeSerializer) WireShapes() []wire.Shape    { return f.shapes }

func (f *fakeSerializer) Marshall(s *State, parent any, v any) (*wire.Value, error) {
	return wire.String(f.name), nil
}

func (f *fakeSerializer) TryUnmarshall(s *State, typ reflect.Type, w *wire.Value) (Match, error) {
	f.tries++
	return f.match, f.err
}

func (f *fakeSerializer) Unmarshall(s *State, typ reflect.Type, w *wire.Value) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.value, nil
}

// node 是一个单链表节点，用于验证递归深度与循环引用。
type node struct {
	label string
	next  *node
}

var nodeType = reflect.TypeOf(&node{})

// nodeSerializer 将链表编码为 {"label": ..., "next": ...}。
type nodeSerializer struct{}

func (nodeSerializer) NativeTypes() []reflect.Type { return []reflect.Type{nodeType} }

func (nodeSerializer) WireShapes() []wire.Shape { return []wire.Shape{wire.ObjectWith("label")} }

func (nodeSerializer) Marshall(s *State, parent any, v any) (*wire.Value, error) {
	n, ok := v.(*node)
	if !ok {
		return nil, merr.WrapErrMarshall(v)
	}
	s.Enter(v)
	next, err := s.Marshall(v, n.next)
	if err != nil {
		return nil, err
	}
	w := wire.Object().Set("label", wire.String(n.label)).Set("next", next)
	s.Resolve(v, w)
	return w, nil
}

func (nodeSerializer) TryUnmarshall(s *State, typ reflect.Type, w *wire.Value) (Match, error) {
	if _, ok := w.GetString("label"); !ok {
		return MatchNone, nil
	}
	next, _ := w.Get("next")
	m, err := s.TryUnmarshall(nodeType, next)
	if err != nil {
		return MatchNone, err
	}
	return MatchExact.Min(m), nil
}

func (nodeSerializer) Unmarshall(s *State, typ reflect.Type, w *wire.Value) (any, error) {
	label, ok := w.GetString("label")
	if !ok {
		return nil, merr.WrapErrUnmarshall("label", nil)
	}
	s.EnterNode(w)
	next, _ := w.Get("next")
	v, err := s.Unmarshall(nodeType, next)
	if err != nil {
		return nil, err
	}
	n := &node{label: label}
	n.next, _ = v.(*node)
	s.ResolveNode(w, n)
	return n, nil
}

func chain(n int) *node {
	var head *node
	for i := n; i > 0; i-- {
		head = &node{label: string(rune('a' + i - 1)), next: head}
	}
	return head
}
