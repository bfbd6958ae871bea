package bridge

import (
	"reflect"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/lk2023060901/typebridge/pkg/log"
	"github.com/lk2023060901/typebridge/pkg/util/merr"
	"github.com/lk2023060901/typebridge/pkg/wire"
)

// Registry 维护显式注册的序列化插件：
// 序列化方向按原生类型路由，反序列化方向按请求类型与线上形态给出候选。
type Registry struct {
	mu          sync.RWMutex
	serializers []Serializer
	byType      map[reflect.Type]Serializer

	log.Binder
}

func NewRegistry() *Registry {
	r := &Registry{
		byType: make(map[reflect.Type]Serializer),
	}
	r.BindComponent("registry")
	return r
}

// Register 注册一个插件。插件为 nil 或未声明原生类型时返回 merr.ErrSerializerInvalid。
// 与已注册插件声明了相同原生类型时只记录告警，先注册者优先。
func (r *Registry) Register(ser Serializer) error {
	if ser == nil {
		return merr.WrapErrSerializerInvalid("<nil>", "serializer is nil")
	}
	name := NameOf(ser)
	types := ser.NativeTypes()
	if len(types) == 0 {
		return merr.WrapErrSerializerInvalid(name, "no native types declared")
	}
	if lo.Contains(types, nil) {
		return merr.WrapErrSerializerInvalid(name, "nil native type declared")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		if prev, ok := r.byType[t]; ok {
			r.Logger().Warn("native type claimed by more than one serializer, keeping the earlier one",
				zap.Stringer("type", t),
				log.FieldSerializer(NameOf(prev)),
				zap.String("ignored", name))
			continue
		}
		r.byType[t] = ser
	}
	r.serializers = append(r.serializers, ser)
	r.Logger().Debug("serializer registered", log.FieldSerializer(name), zap.Int("nativeTypes", len(types)))
	return nil
}

// MustRegister 注册多个插件，任何一个失败都会 panic。
func (r *Registry) MustRegister(sers ...Serializer) {
	for _, ser := range sers {
		if err := r.Register(ser); err != nil {
			panic(err)
		}
	}
}

// Serializers 按注册顺序返回全部插件。
func (r *Registry) Serializers() []Serializer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Serializer(nil), r.serializers...)
}

// ForType 返回负责序列化 t 的插件。
// 依次尝试：精确类型、指针的元素类型、实现了 Claimer 的插件。
func (r *Registry) ForType(t reflect.Type) (Serializer, bool) {
	if t == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ser, ok := r.byType[t]; ok {
		return ser, true
	}
	if t.Kind() == reflect.Pointer {
		if ser, ok := r.byType[t.Elem()]; ok {
			return ser, true
		}
	}
	return lo.Find(r.serializers, func(ser Serializer) bool {
		c, ok := ser.(Claimer)
		return ok && c.Claims(t)
	})
}

// Candidates 返回可能把 w 反序列化为 typ 的插件，按注册顺序且不重复：
// 显式声明了 typ（或只差一层指针）的插件；typ 为 nil 或接口时，
// 还包括原生类型可赋值给 typ 且线上形态与 w 相符的插件。
func (r *Registry) Candidates(typ reflect.Type, w *wire.Value) []Serializer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	abstract := typ == nil || typ.Kind() == reflect.Interface
	return lo.Filter(r.serializers, func(ser Serializer, _ int) bool {
		if !abstract {
			return r.claims(ser, typ)
		}
		if !lo.ContainsBy(ser.WireShapes(), func(shape wire.Shape) bool { return shape.Matches(w) }) {
			return false
		}
		return typ == nil || lo.ContainsBy(ser.NativeTypes(), func(t reflect.Type) bool {
			return t.AssignableTo(typ)
		})
	})
}

func (r *Registry) claims(ser Serializer, typ reflect.Type) bool {
	types := ser.NativeTypes()
	if lo.Contains(types, typ) {
		return true
	}
	if typ.Kind() == reflect.Pointer && lo.Contains(types, typ.Elem()) {
		return true
	}
	if lo.Contains(types, reflect.PointerTo(typ)) {
		return true
	}
	c, ok := ser.(Claimer)
	if !ok {
		return false
	}
	return c.Claims(typ) || (typ.Kind() == reflect.Pointer && c.Claims(typ.Elem()))
}

// Select 对全部候选执行 TryUnmarshall 并选出最优者。
//
// 多个候选以相同的最高等级命中时选中先注册者，返回 GradeAmbiguous 并列出同分候选，
// 同时记录一条限流告警。没有任何候选命中时返回 merr.ErrNoMatch，并附上各候选的错误。
func (r *Registry) Select(s *State, typ reflect.Type, w *wire.Value) (Serializer, Match, error) {
	candidates := r.Candidates(typ, w)
	if len(candidates) == 0 {
		return nil, MatchNone, merr.WrapErrNoMatch(typeString(typ), shapeString(w), "no candidate serializer")
	}

	var (
		best  Serializer
		match = MatchNone
		ties  []Serializer
		errs  []error
	)
	for _, ser := range candidates {
		m, err := ser.TryUnmarshall(s, typ, w)
		if err != nil {
			errs = append(errs, err)
		}
		if !m.Positive() {
			continue
		}
		switch {
		case best == nil || m.Better(match):
			best, match, ties = ser, m, []Serializer{ser}
		case m.Ties(match):
			ties = append(ties, ser)
		}
	}

	if best == nil {
		return nil, MatchNone, merr.Combine(append([]error{
			merr.WrapErrNoMatch(typeString(typ), shapeString(w)),
		}, errs...)...)
	}
	if len(ties) > 1 {
		names := lo.Map(ties, func(ser Serializer, _ int) string { return NameOf(ser) })
		log.Ctx(s.Context()).WithRateGroup("bridge.registry.ambiguous", 1, 60).
			RatedWarn(60, "more than one serializer matches equally, using the first registered",
				zap.String("target", typeString(typ)),
				zap.String("shape", shapeString(w)),
				zap.Strings("candidates", names),
				log.FieldSerializer(NameOf(best)))
		match = Match{Grade: GradeAmbiguous, Mismatch: match.Mismatch, Candidates: names}
	}
	return best, match, nil
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<any>"
	}
	return t.String()
}

func shapeString(w *wire.Value) string {
	if !w.IsObject() {
		return w.Kind().String()
	}
	return "object{" + strings.Join(w.Keys(), ",") + "}"
}
