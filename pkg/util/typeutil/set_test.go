package typeutil

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := NewSet(1, 2, 3)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contain(1, 2))
	assert.False(t, s.Contain(1, 4))

	s.Insert(3, 4)
	assert.Equal(t, 4, s.Len())

	s.Remove(1, 9)
	assert.False(t, s.Contain(1))
	assert.ElementsMatch(t, []int{2, 3, 4}, s.Collect())

	other := NewSet(4, 5)
	assert.ElementsMatch(t, []int{4}, s.Intersection(other).Collect())
	assert.ElementsMatch(t, []int{2, 3, 4, 5}, s.Union(other).Collect())

	clone := s.Clone()
	clone.Insert(100)
	assert.False(t, s.Contain(100))
}

func TestReflectHelpers(t *testing.T) {
	assert.Equal(t, reflect.Interface, TypeOf[fmt.Stringer]().Kind())
	assert.Equal(t, reflect.TypeOf(0), TypeOf[int]())

	assert.Equal(t, reflect.TypeOf(0), Indirect(reflect.TypeOf(new(*int))))
	assert.Nil(t, Indirect(nil))

	assert.True(t, IsAbstract(nil))
	assert.True(t, IsAbstract(TypeOf[any]()))
	assert.False(t, IsAbstract(TypeOf[string]()))

	assert.True(t, Assignable(TypeOf[string](), nil))
	assert.True(t, Assignable(TypeOf[string](), TypeOf[any]()))
	assert.False(t, Assignable(TypeOf[string](), TypeOf[int]()))
	assert.False(t, Assignable(nil, TypeOf[int]()))
}
