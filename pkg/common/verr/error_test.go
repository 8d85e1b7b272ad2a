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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	ctx := context.Background()

	err := NewColumnNotFound(ctx, 7)
	require.Error(t, err)
	assert.True(t, IsErrCode(err, ErrColumnNotFound))
	assert.False(t, IsErrCode(err, ErrInternal))
	assert.Equal(t, "column 7 not found in metadata", err.Error())

	err = NewNoSuchTable(ctx, 3)
	assert.True(t, IsErrCode(err, ErrNoSuchTable))

	err = NewUnsupportedShape(ctx, "join with %d children", 3)
	assert.True(t, IsErrCode(err, ErrUnsupportedShape))
	assert.Equal(t, "unsupported plan shape: join with 3 children", err.Error())
}

func TestIsErrCodeNil(t *testing.T) {
	assert.True(t, IsErrCode(nil, Ok))
	assert.False(t, IsErrCode(nil, ErrInternal))
	assert.False(t, IsErrCode(errors.New("plain"), ErrInternal))
}

func TestConvertGoError(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ConvertGoError(ctx, nil))

	orig := NewInvalidInput(ctx, "bad predicate")
	assert.Equal(t, error(orig), ConvertGoError(ctx, orig))

	converted := ConvertGoError(ctx, errors.New("catalog down"))
	assert.True(t, IsErrCode(converted, ErrInternal))
}

func TestWrapPlanningContext(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, WrapPlanningContext(ctx, nil, "unused"))

	err := WrapPlanningContext(ctx, errors.New("rpc timeout"), "resolving table %d", 11)
	de := DowncastError(err)
	assert.True(t, IsErrCode(de, ErrInternal))
	assert.Contains(t, de.Display(), "resolving table 11")
}

func TestWrapPlanningContextCopiesSharedError(t *testing.T) {
	ctx := context.Background()

	shared := NewColumnNotFound(ctx, 7)
	wrapped := DowncastError(WrapPlanningContext(ctx, shared, "pruning scan %d", 2))

	assert.True(t, IsErrCode(wrapped, ErrColumnNotFound))
	assert.Contains(t, wrapped.Display(), "pruning scan 2")
	// the shared error is left untouched
	assert.Empty(t, shared.Detail())
	assert.NotSame(t, shared, wrapped)
}
