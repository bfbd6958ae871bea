package temporal

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindTable(t *testing.T) {
	expected := map[Kind]string{
		KindInstant:   "java.util.Date",
		KindTimestamp: "java.sql.Timestamp",
		KindDateOnly:  "java.sql.Date",
		KindTimeOnly:  "java.sql.Time",
	}
	for k, hint := range expected {
		assert.Equal(t, hint, k.Hint())
		parsed, ok := ParseKind(hint)
		assert.True(t, ok)
		assert.Equal(t, k, parsed)

		byType, ok := KindOf(k.Type())
		assert.True(t, ok)
		assert.Equal(t, k, byType)

		byPtr, ok := KindOf(reflect.PointerTo(k.Type()))
		assert.True(t, ok)
		assert.Equal(t, k, byPtr)
	}
	assert.Len(t, Kinds(), len(expected))
}

func TestParseKindIsExact(t *testing.T) {
	for _, hint := range []string{"", "java.sql.timestamp", "JAVA.UTIL.DATE", "java.sql.Time ", "java.sql", "Timestamp", "java.lang.String"} {
		_, ok := ParseKind(hint)
		assert.False(t, ok, hint)
	}
}

func TestInvalidKind(t *testing.T) {
	var k Kind
	assert.False(t, k.Valid())
	assert.Equal(t, "", k.Hint())
	assert.Nil(t, k.Type())
	assert.Equal(t, "Kind(0)", k.String())
	assert.Equal(t, "Timestamp", KindTimestamp.String())

	_, ok := KindOf(nil)
	assert.False(t, ok)
	_, ok = KindOf(reflect.TypeOf(""))
	assert.False(t, ok)

	_, ok = New(Kind(9), testTime)
	assert.False(t, ok)
}
