package temporal

import (
	"reflect"
	"strconv"

	"github.com/lk2023060901/typebridge/pkg/util/typeutil"
)

// Kind 是时间取值的封闭变体集合。
type Kind uint8

const (
	KindInstant Kind = iota + 1
	KindTimestamp
	KindDateOnly
	KindTimeOnly
)

// kindTable 是变体与线上类型提示之间唯一的编解码表。
var kindTable = [...]struct {
	name string
	hint string
	typ  reflect.Type
}{
	KindInstant:   {"Instant", "java.util.Date", typeutil.TypeOf[Instant]()},
	KindTimestamp: {"Timestamp", "java.sql.Timestamp", typeutil.TypeOf[Timestamp]()},
	KindDateOnly:  {"DateOnly", "java.sql.Date", typeutil.TypeOf[DateOnly]()},
	KindTimeOnly:  {"TimeOnly", "java.sql.Time", typeutil.TypeOf[TimeOnly]()},
}

var (
	kindByHint = make(map[string]Kind, len(kindTable))
	kindByType = make(map[reflect.Type]Kind, len(kindTable))
)

func init() {
	for _, k := range Kinds() {
		kindByHint[kindTable[k].hint] = k
		kindByType[kindTable[k].typ] = k
	}
}

// Kinds 按固定顺序返回全部变体。
func Kinds() []Kind {
	return []Kind{KindInstant, KindTimestamp, KindDateOnly, KindTimeOnly}
}

func (k Kind) Valid() bool {
	return k >= KindInstant && k <= KindTimeOnly
}

func (k Kind) String() string {
	if !k.Valid() {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindTable[k].name
}

// Hint 返回变体在线上使用的类型提示。
func (k Kind) Hint() string {
	if !k.Valid() {
		return ""
	}
	return kindTable[k].hint
}

// Type 返回变体对应的原生值类型。
func (k Kind) Type() reflect.Type {
	if !k.Valid() {
		return nil
	}
	return kindTable[k].typ
}

// ParseKind 按类型提示精确匹配变体，不做大小写或前缀匹配。
func ParseKind(hint string) (Kind, bool) {
	k, ok := kindByHint[hint]
	return k, ok
}

// KindOf 返回 t（或其指针元素类型）对应的变体。
func KindOf(t reflect.Type) (Kind, bool) {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	k, ok := kindByType[t]
	return k, ok
}
