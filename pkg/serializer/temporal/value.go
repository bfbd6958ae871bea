package temporal

import "time"

// Value 是四种时间变体的公共抽象，作为请求类型时由类型提示决定具体变体。
type Value interface {
	Kind() Kind
	Time() time.Time
}

var (
	_ Value = Instant{}
	_ Value = Timestamp{}
	_ Value = DateOnly{}
	_ Value = TimeOnly{}
)

// Instant 是一个精确到毫秒的时间点。
type Instant struct {
	t time.Time
}

// Timestamp 是一个精确到毫秒的时间戳。
type Timestamp struct {
	t time.Time
}

// DateOnly 是按日期语义使用的时间点。
// 与 Instant 一样保存完整的毫秒时间点，日期由 Date 在所在时区取出。
type DateOnly struct {
	t time.Time
}

// TimeOnly 是按一天内时刻语义使用的时间点。
// 保存完整的毫秒时间点，时刻由 Clock 在所在时区取出，日期部分不参与语义。
type TimeOnly struct {
	t time.Time
}

func NewInstant(t time.Time) Instant {
	return Instant{t.Truncate(time.Millisecond)}
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.Truncate(time.Millisecond)}
}

func NewDateOnly(t time.Time) DateOnly {
	return DateOnly{t.Truncate(time.Millisecond)}
}

func NewTimeOnly(t time.Time) TimeOnly {
	return TimeOnly{t.Truncate(time.Millisecond)}
}

// New 按变体构造取值，所有变体都只截断到毫秒。
func New(k Kind, t time.Time) (Value, bool) {
	switch k {
	case KindInstant:
		return NewInstant(t), true
	case KindTimestamp:
		return NewTimestamp(t), true
	case KindDateOnly:
		return NewDateOnly(t), true
	case KindTimeOnly:
		return NewTimeOnly(t), true
	default:
		return nil, false
	}
}

// Equal 判断两个取值的变体与时间点是否相同，忽略时区表示。
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.Time().Equal(b.Time())
}

func (v Instant) Kind() Kind   { return KindInstant }
func (v Timestamp) Kind() Kind { return KindTimestamp }
func (v DateOnly) Kind() Kind  { return KindDateOnly }
func (v TimeOnly) Kind() Kind  { return KindTimeOnly }

func (v Instant) Time() time.Time   { return v.t }
func (v Timestamp) Time() time.Time { return v.t }
func (v DateOnly) Time() time.Time  { return v.t }
func (v TimeOnly) Time() time.Time  { return v.t }

func (v Instant) String() string   { return v.t.Format(time.RFC3339Nano) }
func (v Timestamp) String() string { return v.t.Format(time.RFC3339Nano) }
func (v DateOnly) String() string  { return v.t.Format(time.DateOnly) }
func (v TimeOnly) String() string  { return v.t.Format("15:04:05.000") }

// Date 返回所在时区下的日期。
func (v DateOnly) Date() (year int, month time.Month, day int) {
	return v.t.Date()
}

// Clock 返回所在时区下的时、分、秒与毫秒。
func (v TimeOnly) Clock() (hour, minute, second, milli int) {
	hour, minute, second = v.t.Clock()
	return hour, minute, second, v.t.Nanosecond() / int(time.Millisecond)
}

// In 返回同一时间点在 loc 下的表示。
func (v DateOnly) In(loc *time.Location) DateOnly { return DateOnly{v.t.In(loc)} }

// In 返回同一时间点在 loc 下的表示。
func (v TimeOnly) In(loc *time.Location) TimeOnly { return TimeOnly{v.t.In(loc)} }
