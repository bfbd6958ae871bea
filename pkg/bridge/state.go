package bridge

import (
	"context"
	"reflect"

	"github.com/lk2023060901/typebridge/pkg/util/merr"
	"github.com/lk2023060901/typebridge/pkg/wire"
)

// identity 是原生引用值的身份：地址、类型以及切片长度。
type identity struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

type marshallEntry struct {
	inProgress bool
	wire       *wire.Value
}

type unmarshallEntry struct {
	inProgress bool
	native     any
}

// State 是单次顶层 Marshall/Unmarshall 调用的身份表。
//
// 每个调用树独占一个 State，通过指针在所有递归步骤之间传递，调用结束即丢弃；
// 它从不跨调用共享，因此不加锁。
type State struct {
	ctx      context.Context
	driver   *Bridge
	maxDepth int
	depth    int

	marshalled   map[identity]*marshallEntry
	unmarshalled map[*wire.Value]*unmarshallEntry
	visited      map[*wire.Value]Match
}

// NewState 为一次顶层调用创建 State。Bridge 的公开方法会自行创建，
// 直接调用插件时使用它。
func NewState(ctx context.Context, driver *Bridge) *State {
	return &State{
		ctx:          ctx,
		driver:       driver,
		maxDepth:     driver.opt.maxDepth,
		marshalled:   make(map[identity]*marshallEntry),
		unmarshalled: make(map[*wire.Value]*unmarshallEntry),
		visited:      make(map[*wire.Value]Match),
	}
}

// Context 返回发起本次调用的 context。
func (s *State) Context() context.Context {
	return s.ctx
}

// Depth 返回当前递归深度，顶层取值的深度为 1。
func (s *State) Depth() int {
	return s.depth
}

// Marshall 通过驱动序列化嵌套取值。
func (s *State) Marshall(parent any, v any) (*wire.Value, error) {
	return s.driver.marshall(s, parent, v)
}

// Unmarshall 通过驱动反序列化嵌套取值。
func (s *State) Unmarshall(typ reflect.Type, w *wire.Value) (any, error) {
	return s.driver.unmarshall(s, typ, w)
}

// TryUnmarshall 通过驱动对嵌套取值做匹配预检。
func (s *State) TryUnmarshall(typ reflect.Type, w *wire.Value) (Match, error) {
	return s.driver.tryUnmarshall(s, typ, w)
}

// Enter 将原生引用值标记为正在序列化。容器插件在递归子元素之前调用，
// 之后对同一引用的访问会被判定为循环引用。
func (s *State) Enter(v any) {
	if id, ok := identityOf(v); ok {
		s.marshalled[id] = &marshallEntry{inProgress: true}
	}
}

// Resolve 记录原生值对应的线上取值，同一调用树中的后续引用直接复用 w。
func (s *State) Resolve(v any, w *wire.Value) {
	if id, ok := identityOf(v); ok {
		s.marshalled[id] = &marshallEntry{wire: w}
	}
}

// EnterNode 将线上节点标记为正在反序列化。
func (s *State) EnterNode(w *wire.Value) {
	if w != nil {
		s.unmarshalled[w] = &unmarshallEntry{inProgress: true}
	}
}

// ResolveNode 记录线上节点对应的原生值，同一节点的后续引用解析为同一实例。
func (s *State) ResolveNode(w *wire.Value, native any) {
	if w != nil {
		s.unmarshalled[w] = &unmarshallEntry{native: native}
	}
}

// lookupMarshalled 返回已解析的线上取值；引用仍在序列化中时返回循环引用错误。
func (s *State) lookupMarshalled(v any) (*wire.Value, bool, error) {
	id, ok := identityOf(v)
	if !ok {
		return nil, false, nil
	}
	entry, ok := s.marshalled[id]
	if !ok {
		return nil, false, nil
	}
	if entry.inProgress {
		return nil, false, merr.WrapErrCircularReference(v)
	}
	return entry.wire, true, nil
}

func (s *State) lookupUnmarshalled(w *wire.Value) (any, bool, error) {
	entry, ok := s.unmarshalled[w]
	if !ok {
		return nil, false, nil
	}
	if entry.inProgress {
		return nil, false, merr.WrapErrCircularReference(w.Kind().String(), "wire node references itself")
	}
	return entry.native, true, nil
}

// visit 记录容器节点的临时匹配结果。节点已在访问中时返回先前的结果，
// 递归预检借此在环上终止。
func (s *State) visit(w *wire.Value) (Match, bool) {
	if m, ok := s.visited[w]; ok {
		return m, true
	}
	s.visited[w] = MatchOkay
	return MatchOkay, false
}

func (s *State) leave(w *wire.Value) {
	delete(s.visited, w)
}

func (s *State) enter() error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	s.depth++
	if s.maxDepth > 0 && s.depth > s.maxDepth {
		depth := s.depth
		s.depth--
		return merr.WrapErrMaxDepthExceeded(depth, s.maxDepth)
	}
	return nil
}

func (s *State) exit() {
	s.depth--
}

// identityOf 只为非 nil 的指针、map 与切片生成身份，其余取值按值语义处理。
func identityOf(v any) (identity, bool) {
	if v == nil {
		return identity{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		if rv.IsNil() {
			return identity{}, false
		}
		return identity{ptr: rv.Pointer(), typ: rv.Type()}, true
	case reflect.Slice:
		if rv.IsNil() {
			return identity{}, false
		}
		return identity{ptr: rv.Pointer(), typ: rv.Type(), n: rv.Len()}, true
	default:
		return identity{}, false
	}
}
