// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"sync"

	"github.com/spf13/viper"
)

const (
	Local      = "local"
	Production = "production"
	Testing    = "testing"
)

var (
	Env string

	once sync.Once
)

func IsLocal() bool {
	return Env == Local
}

func IsProduction() bool {
	return Env == Production
}

func IsTesting() bool {
	return Env == Testing
}

// Load reads ENV through viper. Called again after a config file has been
// loaded so that the file can set it.
func Load() {
	_ = viper.BindEnv("ENV")
	Env = viper.GetString("ENV")
	if Env == "" {
		Env = Local
	}
}

func init() {
	once.Do(Load)
}
