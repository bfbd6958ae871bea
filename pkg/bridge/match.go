package bridge

import (
	"strconv"
	"strings"
)

// Grade 是 TryUnmarshall 的匹配等级，数值越大越具体。
type Grade int8

const (
	// GradeNone 表示无法反序列化。
	GradeNone Grade = iota
	// GradeAmbiguous 表示多个序列化器以相同等级命中，最终按注册顺序选中了第一个。
	GradeAmbiguous
	// GradeOkay 表示可以反序列化，但只是请求类型的超类型或经过转换。
	GradeOkay
	// GradeExact 表示线上形态与请求类型完全对应。
	GradeExact
)

var gradeNames = [...]string{
	GradeNone:      "none",
	GradeAmbiguous: "ambiguous",
	GradeOkay:      "okay",
	GradeExact:     "exact",
}

func (g Grade) String() string {
	if g >= 0 && int(g) < len(gradeNames) {
		return gradeNames[g]
	}
	return "grade(" + strconv.Itoa(int(g)) + ")"
}

// Match 是一次匹配预检的结果。
//
// 等级相同时 Mismatch 越少越好；Candidates 只在 GradeAmbiguous 时填写，
// 记录同分的序列化器名称。
type Match struct {
	Grade      Grade
	Mismatch   int
	Candidates []string
}

var (
	MatchExact = Match{Grade: GradeExact}
	MatchOkay  = Match{Grade: GradeOkay}
	MatchNone  = Match{Grade: GradeNone}
)

// Positive 表示该结果允许继续调用 Unmarshall。
func (m Match) Positive() bool {
	return m.Grade > GradeNone
}

// Better 判断 m 是否严格优于 other。
func (m Match) Better(other Match) bool {
	if m.Grade != other.Grade {
		return m.Grade > other.Grade
	}
	return m.Mismatch < other.Mismatch
}

// Ties 判断两个结果是否同分。
func (m Match) Ties(other Match) bool {
	return m.Grade == other.Grade && m.Mismatch == other.Mismatch
}

// Max 返回两者中更好的一个，同分时返回 m。
func (m Match) Max(other Match) Match {
	if other.Better(m) {
		return other
	}
	return m
}

// Min 返回两者中更差的一个，用于容器聚合子元素的匹配结果。
// 等级取较低者，Mismatch 累加。
func (m Match) Min(other Match) Match {
	worst := m
	if m.Better(other) {
		worst = other
	}
	worst.Mismatch = m.Mismatch + other.Mismatch
	return worst
}

// WithMismatch 返回增加了 n 个不匹配项的副本。
func (m Match) WithMismatch(n int) Match {
	m.Mismatch += n
	return m
}

func (m Match) String() string {
	var sb strings.Builder
	sb.WriteString(m.Grade.String())
	if m.Mismatch > 0 {
		sb.WriteString("(mismatch=")
		sb.WriteString(strconv.Itoa(m.Mismatch))
		sb.WriteString(")")
	}
	if len(m.Candidates) > 0 {
		sb.WriteString("[")
		sb.WriteString(strings.Join(m.Candidates, ","))
		sb.WriteString("]")
	}
	return sb.String()
}
