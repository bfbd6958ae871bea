package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/typebridge/internal/json"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestEncode(t *testing.T) {
	out, err := runCLI(t, "", "encode", "--kind", "timestamp", "--time", "2024-03-15T13:45:02.007Z")
	require.NoError(t, err)
	assert.Equal(t, `{"javaClass":"java.sql.Timestamp","time_str":"2024-03-15 13:45:02 007"}`, strings.TrimSpace(out))

	out, err = runCLI(t, "", "encode", "-k", "java.sql.Date", "-t", "2024-03-15T13:45:02Z")
	require.NoError(t, err)
	assert.Equal(t, `{"javaClass":"java.sql.Date","time_str":"2024-03-15 13:45:02 000"}`, strings.TrimSpace(out))
}

func TestEncodeDecodeOffsetTime(t *testing.T) {
	out, err := runCLI(t, "", "encode", "--kind", "dateonly", "--time", "2024-03-15T05:30:00+09:00")
	require.NoError(t, err)
	assert.Equal(t, `{"javaClass":"java.sql.Date","time_str":"2024-03-14 20:30:00 000"}`, strings.TrimSpace(out))

	out, err = runCLI(t, out, "decode")
	require.NoError(t, err)
	var report decodeReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "DateOnly", report.Kind)
	assert.Equal(t, "2024-03-14", report.Value)
}

func TestEncodeWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("temporal:\n  location: Asia/Shanghai\n"), 0o600))

	out, err := runCLI(t, "", "--config", path, "encode", "--kind", "instant", "--time", "2024-03-15T05:45:02.007Z")
	require.NoError(t, err)
	assert.Equal(t, `{"javaClass":"java.util.Date","time_str":"2024-03-15 13:45:02 007"}`, strings.TrimSpace(out))
}

func TestDecode(t *testing.T) {
	input := `{"javaClass":"java.sql.Timestamp","time_str":"2024-03-15 13:45:02 007"}`

	out, err := runCLI(t, input, "decode")
	require.NoError(t, err)
	var report decodeReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "temporal.Timestamp", report.Type)
	assert.Equal(t, "Timestamp", report.Kind)
	assert.Equal(t, "2024-03-15T13:45:02.007Z", report.Value)
	assert.Equal(t, "okay", report.Match)

	out, err = runCLI(t, `{"javaClass":"java.sql.Time","time_str":"2024-03-15 13:45:02 007"}`, "decode", "--kind", "timeonly")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "TimeOnly", report.Kind)
	assert.Equal(t, "13:45:02.007", report.Value)
}

func TestDecodeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"javaClass":"java.util.Date","time_str":"1999-12-31 23:59:59 999"}`), 0o600))

	out, err := runCLI(t, "", "decode", "--file", path)
	require.NoError(t, err)
	var report decodeReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "Instant", report.Kind)
	assert.Equal(t, "1999-12-31T23:59:59.999Z", report.Value)
}

func TestErrors(t *testing.T) {
	_, err := runCLI(t, "")
	assert.Error(t, err)

	_, err = runCLI(t, "", "frobnicate")
	assert.Error(t, err)

	_, err = runCLI(t, "", "encode", "--kind", "century")
	assert.Error(t, err)

	_, err = runCLI(t, "", "encode", "--time", "yesterday")
	assert.Error(t, err)

	_, err = runCLI(t, `{"javaClass":"java.sql.Timestamp","time_str":"2024/03/15"}`, "decode")
	assert.Error(t, err)

	_, err = runCLI(t, `{"time_str":"2024-03-15 13:45:02 007"}`, "decode")
	assert.Error(t, err)

	// 类型提示所指的变体无法赋给请求的变体
	_, err = runCLI(t, `{"javaClass":"java.sql.Time","time_str":"2024-03-15 13:45:02 007"}`, "decode", "--kind", "instant")
	assert.Error(t, err)

	_, err = runCLI(t, `not json`, "decode")
	assert.Error(t, err)
}
