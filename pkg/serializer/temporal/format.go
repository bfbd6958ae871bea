package temporal

import (
	"time"

	"github.com/cockroachdb/errors"
)

// 线上文本格式为 "yyyy-MM-dd HH:mm:ss SSS"，共 23 个字符，毫秒与秒之间以空格分隔。
const (
	textLen      = 23
	secondLayout = "2006-01-02 15:04:05"
)

// textDigits 标记每个位置是否应为数字；其余位置必须等于 textSeparators 中的字符。
var (
	textDigits     = [textLen]bool{0: true, 1: true, 2: true, 3: true, 5: true, 6: true, 8: true, 9: true, 11: true, 12: true, 14: true, 15: true, 17: true, 18: true, 20: true, 21: true, 22: true}
	textSeparators = [textLen]byte{4: '-', 7: '-', 10: ' ', 13: ':', 16: ':', 19: ' '}
)

// formatText 将 t 按 loc 的墙上时钟格式化，只保留毫秒精度。
func formatText(t time.Time, loc *time.Location) (string, error) {
	t = t.In(loc)
	if y := t.Year(); y < 0 || y > 9999 {
		return "", errors.Newf("year %d out of range [0, 9999]", y)
	}
	buf := make([]byte, 0, textLen)
	buf = t.AppendFormat(buf, secondLayout)
	ms := t.Nanosecond() / int(time.Millisecond)
	buf = append(buf, ' ', byte('0'+ms/100), byte('0'+ms/10%10), byte('0'+ms%10))
	return string(buf), nil
}

// parseText 按固定位置解析文本，并将其解释为 loc 中的墙上时钟。
func parseText(s string, loc *time.Location) (time.Time, error) {
	if len(s) != textLen {
		return time.Time{}, errors.Newf("expected %d characters, got %d", textLen, len(s))
	}
	for i := 0; i < textLen; i++ {
		c := s[i]
		if textDigits[i] {
			if c < '0' || c > '9' {
				return time.Time{}, errors.Newf("expected digit at offset %d, got %q", i, c)
			}
		} else if c != textSeparators[i] {
			return time.Time{}, errors.Newf("expected %q at offset %d, got %q", textSeparators[i], i, c)
		}
	}
	t, err := time.ParseInLocation(secondLayout, s[:19], loc)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "invalid date or time")
	}
	ms := int(s[20]-'0')*100 + int(s[21]-'0')*10 + int(s[22]-'0')
	return t.Add(time.Duration(ms) * time.Millisecond), nil
}
