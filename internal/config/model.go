/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

// Package config loads and validates the server's config.yaml, binding it to
// a typed struct the same way the teacher's httpserver.ServerConfig does:
// spf13/viper for file reading, mapstructure tags for decoding, and
// go-playground/validator for struct validation.
package config

import (
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/nabbar/origin-server/errors"
	"github.com/nabbar/origin-server/file/perm"
)

// LocationConfig is reserved for future reverse-proxy location blocks. It is
// parsed but never dereferenced by the core (spec.md §6: "locations is
// reserved for future use").
type LocationConfig struct {
	Path   string `mapstructure:"path" json:"path" yaml:"path" validate:"omitempty"`
	Target string `mapstructure:"target" json:"target" yaml:"target" validate:"omitempty"`
}

// SiteConfig describes one entry of the `servers` list.
type SiteConfig struct {
	Name      string           `mapstructure:"name" json:"name" yaml:"name" validate:"required"`
	Port      uint16           `mapstructure:"port" json:"port" yaml:"port" validate:"required"`
	Root      string           `mapstructure:"root" json:"root" yaml:"root" validate:"required"`
	Locations []LocationConfig `mapstructure:"locations" json:"locations" yaml:"locations" validate:"omitempty,dive"`
}

// Config is the top-level configuration bound from config.yaml.
type Config struct {
	IP                        string       `mapstructure:"ip" json:"ip" yaml:"ip" validate:"omitempty"`
	CPUCores                  int          `mapstructure:"cpu_cores" json:"cpu_cores" yaml:"cpu_cores" validate:"gte=0"`
	PerProcessMaxThreadCount  int          `mapstructure:"per_process_max_thread_count" json:"per_process_max_thread_count" yaml:"per_process_max_thread_count" validate:"required,gt=0"`
	PerProcessMaxEvents       int          `mapstructure:"per_process_max_events" json:"per_process_max_events" yaml:"per_process_max_events" validate:"required,gt=0"`
	Servers                   []SiteConfig `mapstructure:"servers" json:"servers" yaml:"servers" validate:"required,min=1,dive"`
	CacheBudgetBytes          int64        `mapstructure:"cache_budget_bytes" json:"cache_budget_bytes" yaml:"cache_budget_bytes" validate:"omitempty,gt=0"`
	CertificateFile           string       `mapstructure:"certificate_file" json:"certificate_file" yaml:"certificate_file" validate:"omitempty"`
	PrivateKeyFile            string       `mapstructure:"private_key_file" json:"private_key_file" yaml:"private_key_file" validate:"omitempty"`
	LogFile                   string       `mapstructure:"log_file" json:"log_file" yaml:"log_file" validate:"omitempty"`
	LogFileMode               string       `mapstructure:"log_file_mode" json:"log_file_mode" yaml:"log_file_mode" validate:"omitempty"`
}

const (
	DefaultCacheBudgetBytes = 50 * 1024 * 1024
	DefaultCertificateFile  = "server.crt"
	DefaultPrivateKeyFile   = "server.key"
	DefaultLogFile          = "server.log"
	DefaultLogFileMode      = "0644"
)

// LogFileModeParsed resolves LogFileMode to a concrete permission,
// accepting the same octal/symbolic forms file/perm.Parse understands,
// falling back to DefaultLogFileMode on an empty or invalid value.
func (c *Config) LogFileModeParsed() perm.Perm {
	p, err := perm.Parse(c.LogFileMode)
	if err != nil {
		p, _ = perm.Parse(DefaultLogFileMode)
	}
	return p
}

// WorkerCount returns cpu_cores from config when positive, else host
// concurrency, per spec.md §4.1.
func (c *Config) WorkerCount() int {
	if c.CPUCores > 0 {
		return c.CPUCores
	}
	return runtime.NumCPU()
}

func (c *Config) applyDefaults() {
	if c.CacheBudgetBytes <= 0 {
		c.CacheBudgetBytes = DefaultCacheBudgetBytes
	}
	if c.CertificateFile == "" {
		c.CertificateFile = DefaultCertificateFile
	}
	if c.PrivateKeyFile == "" {
		c.PrivateKeyFile = DefaultPrivateKeyFile
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	if c.LogFileMode == "" {
		c.LogFileMode = DefaultLogFileMode
	}
}

// Validate checks struct tags and the no-two-sites-share-a-port invariant
// from spec.md §3.
func (c *Config) Validate() errors.Error {
	if err := validator.New().Struct(c); err != nil {
		return ErrorValidation.Error(errors.New(0, err.Error()))
	}

	seen := make(map[uint16]string, len(c.Servers))
	for _, s := range c.Servers {
		if other, ok := seen[s.Port]; ok {
			return ErrorDuplicatePort.Error(errors.New(0, "port "+portString(s.Port)+" used by both "+other+" and "+s.Name))
		}
		seen[s.Port] = s.Name
	}

	return nil
}

func portString(p uint16) string {
	const digits = "0123456789"
	if p == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for p > 0 {
		i--
		buf[i] = digits[p%10]
		p /= 10
	}
	return string(buf[i:])
}

// Load reads and binds config.yaml at the given path using viper, applies
// defaults for optional keys, and validates the result.
func Load(path string) (*Config, errors.Error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, ErrorFileOpen.Error(errors.New(0, err.Error()))
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, ErrorFileDecode.Error(errors.New(0, err.Error()))
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
