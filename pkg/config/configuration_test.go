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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectradb/vectra/pkg/common/verr"
)

func TestSetDefaultValues(t *testing.T) {
	cfg := &PlannerConfig{}
	cfg.SetDefaultValues()
	assert.Equal(t, defaultOptimizerMaxIterations, cfg.OptimizerMaxIterations)
	assert.Equal(t, defaultCompileWorkers, cfg.CompileWorkers)
	assert.False(t, cfg.EnableCostPruning)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParsePlannerConfig(t *testing.T) {
	cfg, err := ParsePlannerConfig(`
optimizerMaxIterations = 16
enableCostPruning = true
compileWorkers = 2

[log]
level = "debug"
format = "json"
`)
	require.NoError(t, err)
	assert.Equal(t, int64(16), cfg.OptimizerMaxIterations)
	assert.True(t, cfg.EnableCostPruning)
	assert.Equal(t, int64(2), cfg.CompileWorkers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	_, err = ParsePlannerConfig(`optimizerMaxIterations = "not a number"`)
	require.Error(t, err)
	assert.True(t, verr.IsErrCode(err, verr.ErrBadConfig))
}

func TestLoadPlannerConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planner.toml")
	require.NoError(t, os.WriteFile(path, []byte("optimizerMaxIterations = 8\n"), 0o644))

	cfg, err := LoadPlannerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(8), cfg.OptimizerMaxIterations)
	// unset fields defaulted
	assert.Equal(t, defaultCompileWorkers, cfg.CompileWorkers)

	_, err = LoadPlannerConfig(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
	assert.True(t, verr.IsErrCode(err, verr.ErrBadConfig))
}
