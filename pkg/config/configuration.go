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
	"context"

	"github.com/BurntSushi/toml"

	"github.com/vectradb/vectra/pkg/common/verr"
	"github.com/vectradb/vectra/pkg/logutil"
)

var (
	// defaultOptimizerMaxIterations bounds the rewrite fixpoint loop.
	defaultOptimizerMaxIterations int64 = 128

	// defaultCompileWorkers sizes the pool running nested sub-pipeline
	// compilations.
	defaultCompileWorkers int64 = 4
)

// PlannerConfig carries the planning knobs loaded from the server's
// TOML configuration file.
type PlannerConfig struct {
	// OptimizerMaxIterations caps full rewrite passes over one tree.
	OptimizerMaxIterations int64 `toml:"optimizerMaxIterations"`

	// EnableCostPruning rejects rewrites whose estimated cardinality
	// is worse than the tree they replace.
	EnableCostPruning bool `toml:"enableCostPruning"`

	// CompileWorkers is the size of the shared compile pool.
	CompileWorkers int64 `toml:"compileWorkers"`

	Log logutil.LogConfig `toml:"log"`
}

// SetDefaultValues fills unset fields.
func (cfg *PlannerConfig) SetDefaultValues() {
	if cfg.OptimizerMaxIterations <= 0 {
		cfg.OptimizerMaxIterations = defaultOptimizerMaxIterations
	}
	if cfg.CompileWorkers <= 0 {
		cfg.CompileWorkers = defaultCompileWorkers
	}
	cfg.Log.Adjust()
}

// LoadPlannerConfig reads the configuration file at path.
func LoadPlannerConfig(path string) (*PlannerConfig, error) {
	cfg := &PlannerConfig{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, verr.NewBadConfig(context.Background(), "decode %s: %v", path, err)
	}
	cfg.SetDefaultValues()
	return cfg, nil
}

// ParsePlannerConfig decodes configuration from TOML text.
func ParsePlannerConfig(data string) (*PlannerConfig, error) {
	cfg := &PlannerConfig{}
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, verr.NewBadConfig(context.Background(), "decode planner config: %v", err)
	}
	cfg.SetDefaultValues()
	return cfg, nil
}
