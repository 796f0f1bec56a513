/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"fmt"

	logcfg "github.com/nabbar/actorkit/logger/config"
	"github.com/nabbar/actorkit/runtime"
	spfvpr "github.com/spf13/viper"
)

// fileConfig mirrors the recognised configuration keys of spec.md §6
// (thread, harbor, profile, daemon, module_path, bootstrap, logservice),
// decoded with mapstructure the same way the retrieved logger options
// are. daemon is carried through unused: pidfile daemonization is a
// Non-goal of the core and this daemon does not fork itself either.
type fileConfig struct {
	Thread     int    `mapstructure:"thread"`
	Harbor     uint8  `mapstructure:"harbor"`
	Profile    bool   `mapstructure:"profile"`
	Daemon     string `mapstructure:"daemon"`
	ModulePath string `mapstructure:"module_path"`
	Bootstrap  string `mapstructure:"bootstrap"`
	LogService string `mapstructure:"logservice"`
	HarborAddr string `mapstructure:"harbor_listen"`
}

// loadSettings reads path with Viper and decodes it into a
// runtime.Settings plus, if a "logger" key is present, logger options
// for the process-wide sink.
func loadSettings(path string) (runtime.Settings, *logcfg.Options, error) {
	v := spfvpr.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return runtime.Settings{}, nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return runtime.Settings{}, nil, fmt.Errorf("decode config %q: %w", path, err)
	}

	settings := runtime.Settings{
		Thread:       fc.Thread,
		Harbor:       fc.Harbor,
		Profile:      fc.Profile,
		Daemon:       fc.Daemon,
		ModulePath:   fc.ModulePath,
		Bootstrap:    fc.Bootstrap,
		LogService:   fc.LogService,
		HarborListen: fc.HarborAddr,
	}

	if !v.IsSet("logger") {
		return settings, nil, nil
	}

	var opts logcfg.Options
	if err := v.UnmarshalKey("logger", &opts); err != nil {
		return runtime.Settings{}, nil, fmt.Errorf("decode logger options: %w", err)
	}
	return settings, &opts, nil
}
