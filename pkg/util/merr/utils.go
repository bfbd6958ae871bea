// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case bridgeError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

// IsRetryableErr 判断错误是否允许重试。
// 序列化相关错误均由输入决定，重试不会改变结果。
func IsRetryableErr(err error) bool {
	if err, ok := errors.Cause(err).(bridgeError); ok {
		return err.retriable
	}

	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

func WrapErrAsInputError(err error) error {
	if merr, ok := err.(bridgeError); ok {
		WithErrorType(InputError)(&merr)
		return merr
	}
	return err
}

func GetErrorType(err error) ErrorType {
	if merr, ok := errors.Cause(err).(bridgeError); ok {
		return merr.errType
	}

	return SystemError
}

// Bridge 相关错误封装。
func WrapErrMarshall(v any, msg ...string) error {
	err := wrapFields(ErrMarshall, value("type", typeName(v)))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrMarshallWithCause(cause error, v any, msg ...string) error {
	err := wrapFieldsWithDesc(ErrMarshall, cause.Error(), value("type", typeName(v)))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// WrapErrUnmarshall 记录导致失败的字段及其原始取值，便于定位问题输入。
func WrapErrUnmarshall(field string, offending any, msg ...string) error {
	err := wrapFields(ErrUnmarshall, value(field, offending))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrUnmarshallReason(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrUnmarshall, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrNoMatch(target any, shape string, msg ...string) error {
	err := wrapFields(ErrNoMatch,
		value("target", target),
		value("shape", shape),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrCircularReference(v any, msg ...string) error {
	err := wrapFields(ErrCircularReference, value("type", typeName(v)))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrMaxDepthExceeded(depth, limit int, msg ...string) error {
	err := wrapFields(ErrMaxDepthExceeded,
		value("depth", depth),
		value("limit", limit),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrSerializerInvalid(name string, reason string) error {
	return wrapFieldsWithDesc(ErrSerializerInvalid, reason, value("serializer", name))
}

func WrapErrSerializerNotFound(target any, msg ...string) error {
	err := wrapFields(ErrSerializerNotFound, value("type", target))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// 参数相关错误封装。
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

func WrapErrParameterMissing[T any](param T, msg ...string) error {
	err := wrapFields(ErrParameterMissing,
		value("missing_param", param),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrConfigInvalid(key string, val any, msg ...string) error {
	err := wrapFields(ErrConfigInvalid, value(key, val))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrOperationNotSupported(op string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrOperationNotSupported, op)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func typeName(v any) string {
	if t, ok := v.(reflect.Type); ok {
		if t == nil {
			return "<nil>"
		}
		return t.String()
	}
	return fmt.Sprintf("%T", v)
}

func wrapFields(err bridgeError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err bridgeError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}
