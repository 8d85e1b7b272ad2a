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

package logutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAdjust(t *testing.T) {
	cfg := &LogConfig{}
	cfg.Adjust()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, 512, cfg.MaxSize)
	assert.Equal(t, 7, cfg.MaxDays)

	cfg = &LogConfig{Level: "debug", Format: "json", MaxSize: 10}
	cfg.Adjust()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 10, cfg.MaxSize)
}

func TestSetupLogger(t *testing.T) {
	SetupLogger(&LogConfig{Level: "debug"})
	require.NotNil(t, GetGlobalLogger())

	// bad level falls back to info instead of failing
	SetupLogger(&LogConfig{Level: "nope"})
	require.NotNil(t, GetGlobalLogger())

	Debug("debug message", zap.Int("n", 1))
	Info("info message")
	Infof("info %s", "formatted")
}
