// Copyright 2022 Vectra Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package verr

import (
	"context"
	"fmt"
	"io"
)

const (
	// 0 - 99 is OK. They do not carry info and are special handled
	// using static instances, no alloc.
	Ok uint16 = 0

	OkMax uint16 = 99

	// Group 1: internal errors
	ErrStart            uint16 = 20100
	ErrInternal         uint16 = 20101
	ErrNYI              uint16 = 20102
	ErrUnsupportedShape uint16 = 20103

	// Group 2: invalid input
	ErrBadConfig    uint16 = 20300
	ErrInvalidInput uint16 = 20301

	// Group 3: unresolved references
	ErrColumnNotFound uint16 = 20400
	ErrNoSuchTable    uint16 = 20401
	ErrUdfNotFound    uint16 = 20402
	ErrCteNotFound    uint16 = 20403

	// Group End: max value of the error code space
	ErrEnd uint16 = 65535
)

type errorMsgItem struct {
	errorMsgOrFormat string
}

var errorMsgRefer = map[uint16]errorMsgItem{
	ErrInternal:         {"internal error: %s"},
	ErrNYI:              {"%s is not yet implemented"},
	ErrUnsupportedShape: {"unsupported plan shape: %s"},
	ErrBadConfig:        {"invalid configuration: %s"},
	ErrInvalidInput:     {"invalid input: %s"},
	ErrColumnNotFound:   {"column %d not found in metadata"},
	ErrNoSuchTable:      {"table %d does not exist"},
	ErrUdfNotFound:      {"function %s does not exist"},
	ErrCteNotFound:      {"cte %d is not materialized"},
	ErrEnd:              {"internal error: end of error code space"},
}

func newError(ctx context.Context, code uint16, args ...any) *Error {
	var err *Error
	item, has := errorMsgRefer[code]
	if !has {
		panic(NewInternalError(ctx, "missing error code: %d", code))
	}
	if len(args) == 0 {
		err = &Error{
			code:    code,
			message: item.errorMsgOrFormat,
		}
	} else {
		err = &Error{
			code:    code,
			message: fmt.Sprintf(item.errorMsgOrFormat, args...),
		}
	}
	return err
}

type Error struct {
	code    uint16
	message string
	detail  string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Detail() string {
	return e.detail
}

func (e *Error) Display() string {
	if len(e.detail) == 0 {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, e.detail)
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

func (e *Error) Succeeded() bool {
	return e.code < OkMax
}

func IsErrCode(e error, rc uint16) bool {
	if e == nil {
		return rc == Ok
	}

	me, ok := e.(*Error)
	if !ok {
		// This is not a verr.
		return false
	}
	return me.code == rc
}

func DowncastError(e error) *Error {
	if err, ok := e.(*Error); ok {
		return err
	}
	return newError(context.Background(), ErrInternal, fmt.Sprintf("downcast error failed: %v", e))
}

// ConvertGoError converts a go error into a vectra error.
// Note here we must return error, because nil error
// is not the same as nil *Error -- Go strangeness.
func ConvertGoError(ctx context.Context, err error) error {
	// nil is nil
	if err == nil {
		return err
	}

	// already a verr, return it as is
	if _, ok := err.(*Error); ok {
		return err
	}

	if err == io.EOF || err == io.ErrUnexpectedEOF {
		// if io.EOF reaches here, we believe it is not expected.
		return NewInternalError(ctx, "unexpected EOF: %v", err)
	}

	return NewInternalError(ctx, "convert go error to vectra error: %v", err)
}

// WrapPlanningContext attaches planning detail to a collaborator
// failure without losing the original code.
func WrapPlanningContext(ctx context.Context, err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	// Copy before attaching detail: the incoming error may already be
	// a *Error shared by other callers.
	e := *DowncastError(ConvertGoError(ctx, err))
	e.detail = fmt.Sprintf(msg, args...)
	return &e
}

func NewInternalError(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInternal, xmsg)
}

func NewNYI(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrNYI, xmsg)
}

func NewUnsupportedShape(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrUnsupportedShape, xmsg)
}

func NewBadConfig(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrBadConfig, xmsg)
}

func NewInvalidInput(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInvalidInput, xmsg)
}

func NewColumnNotFound(ctx context.Context, col int32) *Error {
	return newError(ctx, ErrColumnNotFound, col)
}

func NewNoSuchTable(ctx context.Context, tbl int32) *Error {
	return newError(ctx, ErrNoSuchTable, tbl)
}

func NewUdfNotFound(ctx context.Context, name string) *Error {
	return newError(ctx, ErrUdfNotFound, name)
}

func NewCteNotFound(ctx context.Context, cte int32) *Error {
	return newError(ctx, ErrCteNotFound, cte)
}
