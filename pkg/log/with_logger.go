package log

import "go.uber.org/atomic"

var (
	_ WithLogger   = &Binder{}
	_ LoggerBinder = &Binder{}
)

// WithLogger 是一个用于访问本地 Logger 的接口。
type WithLogger interface {
	Logger() *MLogger
}

// LoggerBinder 是一个用于设置 Logger 的接口。
type LoggerBinder interface {
	SetLogger(logger *MLogger)
}

// Binder 嵌入到组件中，统一管理组件自己的 Logger。
// 未设置时回退到携带 component 字段的全局 Logger。
type Binder struct {
	component string
	logger    atomic.Pointer[MLogger]
}

// BindComponent 设置回退 Logger 使用的组件名。
func (w *Binder) BindComponent(component string) {
	w.component = component
}

func (w *Binder) SetLogger(logger *MLogger) {
	w.logger.Store(logger)
}

func (w *Binder) Logger() *MLogger {
	l := w.logger.Load()
	if l == nil {
		if w.component == "" {
			return With()
		}
		return With(FieldComponent(w.component))
	}
	return l
}
