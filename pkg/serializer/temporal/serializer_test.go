package temporal

import (
	"context"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/typebridge/pkg/bridge"
	"github.com/lk2023060901/typebridge/pkg/util/merr"
	"github.com/lk2023060901/typebridge/pkg/util/typeutil"
	"github.com/lk2023060901/typebridge/pkg/wire"
)

var valueType = typeutil.TypeOf[Value]()

type SerializerSuite struct {
	suite.Suite

	ser    *Serializer
	bridge *bridge.Bridge
}

func (s *SerializerSuite) SetupTest() {
	s.ser = NewSerializer()
	b, err := bridge.New(bridge.WithSerializers(s.ser))
	s.Require().NoError(err)
	s.bridge = b
}

func (s *SerializerSuite) TearDownTest() {
	s.bridge.Close()
}

func (s *SerializerSuite) state() *bridge.State {
	return bridge.NewState(context.Background(), s.bridge)
}

func (s *SerializerSuite) object(hint, text string) *wire.Value {
	return wire.Object().
		Set(bridge.TypeHintField, wire.String(hint)).
		Set(TimeField, wire.String(text))
}

func (s *SerializerSuite) TestTimestampScenario() {
	ctx := context.Background()
	ts := NewTimestamp(testTime)

	data, err := s.bridge.MarshallJSON(ctx, ts)
	s.Require().NoError(err)
	s.Equal(`{"javaClass":"java.sql.Timestamp","time_str":"2024-03-15 13:45:02 007"}`, string(data))

	w, err := wire.Parse(data)
	s.Require().NoError(err)
	got, err := s.bridge.Unmarshall(ctx, nil, w)
	s.Require().NoError(err)
	s.IsType(Timestamp{}, got)
	s.True(got.(Timestamp).Time().Equal(testTime))
}

func (s *SerializerSuite) TestHintOverridesRequestedType() {
	w := s.object("java.sql.Time", "2024-03-15 13:45:02 007")

	for _, typ := range []reflect.Type{nil, valueType, KindTimestamp.Type(), KindInstant.Type()} {
		got, err := s.ser.Unmarshall(s.state(), typ, w)
		s.Require().NoError(err)
		s.IsType(TimeOnly{}, got)
		tm := got.(TimeOnly)
		s.True(tm.Time().Equal(testTime), got)
		hour, minute, second, milli := tm.Clock()
		s.Equal([]int{13, 45, 2, 7}, []int{hour, minute, second, milli})
	}

	var v Value
	s.Require().NoError(s.bridge.UnmarshallInto(context.Background(), w, &v))
	s.Equal(KindTimeOnly, v.Kind())

	// 具体的请求类型无法容纳提示所指的变体
	var ts Timestamp
	err := s.bridge.UnmarshallInto(context.Background(), w, &ts)
	s.ErrorIs(err, merr.ErrUnmarshall)
}

func (s *SerializerSuite) TestRoundTrip() {
	r := rand.New(rand.NewSource(20240315))
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		tt := randomTime(r)
		for _, k := range Kinds() {
			v, _ := New(k, tt)

			w, err := s.bridge.Marshall(ctx, v)
			s.Require().NoError(err)
			hint, ok := w.GetString(bridge.TypeHintField)
			s.True(ok)
			s.Equal(k.Hint(), hint)

			got, err := s.bridge.Unmarshall(ctx, nil, w)
			s.Require().NoError(err)
			s.True(Equal(v, got.(Value)), "%s: %v != %v", k, v, got)
		}
	}
}

func (s *SerializerSuite) TestRoundTripPointers() {
	ctx := context.Background()
	ts := NewTimestamp(testTime)

	w, err := s.bridge.Marshall(ctx, &ts)
	s.Require().NoError(err)
	s.Equal(`{"javaClass":"java.sql.Timestamp","time_str":"2024-03-15 13:45:02 007"}`, w.String())

	var out *Timestamp
	s.Require().NoError(s.bridge.UnmarshallInto(ctx, w, &out))
	s.Require().NotNil(out)
	s.True(out.Time().Equal(testTime))

	var nilTS *Timestamp
	w, err = s.bridge.Marshall(ctx, nilTS)
	s.Require().NoError(err)
	s.True(w.IsNull())
}

func (s *SerializerSuite) TestMillisecondTruncation() {
	fine := testTime.Add(123 * time.Microsecond)
	for _, k := range Kinds() {
		v, ok := New(k, fine)
		s.Require().True(ok)
		s.Equal(testTime, v.Time(), k)
	}

	d := NewDateOnly(testTime)
	year, month, day := d.Date()
	s.Equal(2024, year)
	s.Equal(time.March, month)
	s.Equal(15, day)

	got, err := s.ser.Unmarshall(s.state(), nil, s.object("java.sql.Date", "2024-03-15 13:45:02 007"))
	s.Require().NoError(err)
	s.True(got.(DateOnly).Time().Equal(testTime))
}

func (s *SerializerSuite) TestRoundTripAcrossLocations() {
	ctx := context.Background()
	jst := time.FixedZone("JST", 9*3600)
	west := time.FixedZone("UTC-7", -7*3600)
	sources := []time.Time{
		time.Date(2024, time.March, 15, 5, 30, 0, 0, jst),
		time.Date(2024, time.March, 15, 23, 59, 59, 999*int(time.Millisecond), west),
		time.Date(1999, time.December, 31, 0, 0, 0, 1*int(time.Millisecond), jst),
	}

	for _, loc := range []*time.Location{time.UTC, jst, west} {
		b, err := bridge.New(bridge.WithSerializers(NewSerializer(WithLocation(loc))))
		s.Require().NoError(err)
		for _, src := range sources {
			for _, k := range Kinds() {
				v, _ := New(k, src)
				w, err := b.Marshall(ctx, v)
				s.Require().NoError(err)
				got, err := b.Unmarshall(ctx, nil, w)
				s.Require().NoError(err)
				s.True(Equal(v, got.(Value)), "%s in %s: %v != %v (wire %s)", k, loc, v, got, w)
			}
		}
		b.Close()
	}

	// 同一时间点在另一时区下的日期可能不同
	d := NewDateOnly(sources[0]).In(time.UTC)
	_, _, day := d.Date()
	s.Equal(14, day)
}

func (s *SerializerSuite) TestMalformedHint() {
	for _, hint := range []string{"java.lang.String", "java.sql.timestamp", "", "Timestamp"} {
		w := s.object(hint, "2024-03-15 13:45:02 007")
		for _, typ := range []reflect.Type{nil, valueType, KindTimestamp.Type()} {
			got, err := s.ser.Unmarshall(s.state(), typ, w)
			s.ErrorIs(err, merr.ErrUnmarshall, hint)
			s.Nil(got)

			m, err := s.ser.TryUnmarshall(s.state(), typ, w)
			s.ErrorIs(err, merr.ErrUnmarshall)
			s.False(m.Positive())
		}
		s.Contains(errorText(s.ser.Unmarshall(s.state(), nil, w)), hint)
	}

	w := wire.Object().Set(bridge.TypeHintField, wire.Int(1)).Set(TimeField, wire.String("2024-03-15 13:45:02 007"))
	_, err := s.ser.Unmarshall(s.state(), nil, w)
	s.ErrorIs(err, merr.ErrUnmarshall)
}

func (s *SerializerSuite) TestMalformedData() {
	w := s.object("java.sql.Timestamp", "not-a-date")
	got, err := s.ser.Unmarshall(s.state(), nil, w)
	s.ErrorIs(err, merr.ErrUnmarshall)
	s.Nil(got)
	s.Contains(err.Error(), "not-a-date")

	got, err = s.bridge.Unmarshall(context.Background(), nil, w)
	s.ErrorIs(err, merr.ErrUnmarshall)
	s.ErrorIs(err, merr.ErrNoMatch)
	s.Nil(got)

	missing := wire.Object().Set(bridge.TypeHintField, wire.String("java.sql.Timestamp"))
	_, err = s.ser.Unmarshall(s.state(), nil, missing)
	s.ErrorIs(err, merr.ErrUnmarshall)

	number := wire.Object().Set(bridge.TypeHintField, wire.String("java.sql.Timestamp")).Set(TimeField, wire.Int(1710510302007))
	_, err = s.ser.Unmarshall(s.state(), nil, number)
	s.ErrorIs(err, merr.ErrUnmarshall)
}

func (s *SerializerSuite) TestMissingHint() {
	w := wire.Object().Set(TimeField, wire.String("2024-03-15 13:45:02 007"))

	m, err := s.ser.TryUnmarshall(s.state(), nil, w)
	s.False(m.Positive())
	s.ErrorIs(err, merr.ErrUnmarshall)

	_, err = s.ser.Unmarshall(s.state(), nil, w)
	s.ErrorIs(err, merr.ErrUnmarshall)
	_, err = s.ser.Unmarshall(s.state(), valueType, w)
	s.ErrorIs(err, merr.ErrUnmarshall)

	// 没有提示时使用具体的请求类型
	got, err := s.ser.Unmarshall(s.state(), KindInstant.Type(), w)
	s.Require().NoError(err)
	s.IsType(Instant{}, got)
	got, err = s.ser.Unmarshall(s.state(), reflect.PointerTo(KindDateOnly.Type()), w)
	s.Require().NoError(err)
	s.IsType(DateOnly{}, got)
}

func (s *SerializerSuite) TestWrongShape() {
	for _, w := range []*wire.Value{wire.String("2024-03-15 13:45:02 007"), wire.Int(1), wire.Array(), wire.Bool(true)} {
		m, err := s.ser.TryUnmarshall(s.state(), nil, w)
		s.NoError(err)
		s.False(m.Positive())

		_, err = s.ser.Unmarshall(s.state(), nil, w)
		s.ErrorIs(err, merr.ErrUnmarshall)
	}
}

func (s *SerializerSuite) TestMarshallRejects() {
	_, err := s.ser.Marshall(s.state(), nil, "2024-03-15")
	s.ErrorIs(err, merr.ErrMarshall)

	_, err = s.ser.Marshall(s.state(), nil, testTime)
	s.ErrorIs(err, merr.ErrMarshall)

	_, err = s.ser.Marshall(s.state(), nil, NewInstant(time.Date(10000, time.January, 1, 0, 0, 0, 0, time.UTC)))
	s.ErrorIs(err, merr.ErrMarshall)

	_, err = s.bridge.Marshall(context.Background(), testTime)
	s.ErrorIs(err, merr.ErrSerializerNotFound)
}

func (s *SerializerSuite) TestLocation() {
	east := time.FixedZone("UTC+8", 8*3600)
	ser := NewSerializer(WithLocation(east))
	s.Equal(east, ser.Location())
	s.Equal(time.UTC, NewSerializer(WithLocation(nil)).Location())

	st := bridge.NewState(context.Background(), s.bridge)
	w, err := ser.Marshall(st, nil, NewInstant(testTime))
	s.Require().NoError(err)
	text, _ := w.GetString(TimeField)
	s.Equal("2024-03-15 21:45:02 007", text)

	got, err := ser.Unmarshall(st, nil, w)
	s.Require().NoError(err)
	s.True(got.(Instant).Time().Equal(testTime))
}

func (s *SerializerSuite) TestIdentity() {
	ts := NewTimestamp(testTime)
	st := s.state()

	w1, err := st.Marshall(nil, &ts)
	s.Require().NoError(err)
	w2, err := st.Marshall(nil, &ts)
	s.Require().NoError(err)
	s.Same(w1, w2)

	// 不同调用树之间不共享
	w3, err := s.state().Marshall(nil, &ts)
	s.Require().NoError(err)
	s.NotSame(w1, w3)

	w := s.object("java.util.Date", "2024-03-15 13:45:02 007")
	v1, err := st.Unmarshall(nil, w)
	s.Require().NoError(err)
	v2, err := st.Unmarshall(nil, w)
	s.Require().NoError(err)
	s.Equal(v1, v2)
}

// TestMatchAgreement 验证在随机语料上 TryUnmarshall 命中当且仅当 Unmarshall 成功。
func (s *SerializerSuite) TestMatchAgreement() {
	r := rand.New(rand.NewSource(7))
	positives, negatives := 0, 0
	for i := 0; i < 2000; i++ {
		w := randomWire(r)
		for _, typ := range []reflect.Type{nil, valueType} {
			m, tryErr := s.ser.TryUnmarshall(s.state(), typ, w)
			got, err := s.ser.Unmarshall(s.state(), typ, w)

			s.Equal(m.Positive(), err == nil, "wire %s, type %v, err %v", w, typ, err)
			if m.Positive() {
				positives++
				s.NoError(tryErr)
				s.Equal(bridge.MatchOkay, m)
				s.NotNil(got)
			} else {
				negatives++
				s.Nil(got)
			}
		}
	}
	s.Greater(positives, 0)
	s.Greater(negatives, 0)
}

func (s *SerializerSuite) TestConcurrentCallTrees() {
	r := rand.New(rand.NewSource(42))
	values := make([]any, 0, 256)
	for i := 0; i < 256; i++ {
		v, _ := New(Kinds()[i%len(Kinds())], randomTime(r))
		values = append(values, v)
	}
	ctx := context.Background()
	ws, err := s.bridge.MarshallAll(ctx, values)
	s.Require().NoError(err)
	s.Len(ws, len(values))

	out, err := s.bridge.UnmarshallAll(ctx, valueType, ws)
	s.Require().NoError(err)
	for i := range values {
		s.True(Equal(values[i].(Value), out[i].(Value)))
	}
}

func TestSerializer(t *testing.T) {
	suite.Run(t, new(SerializerSuite))
}

func randomTime(r *rand.Rand) time.Time {
	lo := time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	hi := time.Date(9999, time.December, 31, 23, 59, 59, 999*int(time.Millisecond), time.UTC).UnixMilli()
	return time.UnixMilli(lo + r.Int63n(hi-lo)).UTC()
}

func randomWire(r *rand.Rand) *wire.Value {
	switch r.Intn(10) {
	case 0:
		return wire.String("2024-03-15 13:45:02 007")
	case 1:
		return wire.Array(wire.Int(r.Int63()))
	}

	w := wire.Object()
	switch r.Intn(6) {
	case 0, 1, 2:
		w.Set(bridge.TypeHintField, wire.String(Kinds()[r.Intn(len(Kinds()))].Hint()))
	case 3:
		w.Set(bridge.TypeHintField, wire.String([]string{"java.lang.String", "java.sql.time", "java.util.Date ", ""}[r.Intn(4)]))
	case 4:
		w.Set(bridge.TypeHintField, wire.Bool(true))
	case 5:
		// 缺少类型提示
	}

	text, _ := formatText(randomTime(r), time.UTC)
	switch r.Intn(6) {
	case 0, 1, 2:
		w.Set(TimeField, wire.String(text))
	case 3:
		b := []byte(text)
		b[r.Intn(len(b))] = "x:- 9"[r.Intn(5)]
		w.Set(TimeField, wire.String(string(b)))
	case 4:
		w.Set(TimeField, wire.Int(r.Int63()))
	case 5:
		// 缺少时间字段
	}
	if r.Intn(4) == 0 {
		w.Set("extra", wire.Null())
	}
	return w
}

func errorText(_ any, err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
