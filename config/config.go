// Copyright (c) 2014 The SurgeMQ Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the simulator settings from a .env file, the
// environment and command line flags, in increasing order of precedence.
//
// The keys match the environment variables, e.g. BROKER, MQTT_USERNAME and
// MQTT_PASSWORD.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jjv7/Server-Horizontal-Scaling-Sim/cluster"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/monitor"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/topics"
	"github.com/jjv7/Server-Horizontal-Scaling-Sim/transport"
)

const (
	DefaultFile        = ".env"
	DefaultPort        = 1883
	DefaultPublicTopic = "public/#"
)

var (
	ErrMissingBroker = errors.New("config: missing MQTT BROKER setting")
	ErrInvalidPort   = errors.New("config: port must be between 1 and 65535")
)

type Config struct {
	Broker   string `mapstructure:"broker"`
	Port     int    `mapstructure:"mqtt_port"`
	Username string `mapstructure:"mqtt_username"`
	Password string `mapstructure:"mqtt_password"`
	ClientID string `mapstructure:"client_id"`

	BaseTopic   string `mapstructure:"base_topic"`
	PublicTopic string `mapstructure:"public_topic"`

	UtilizationInterval time.Duration `mapstructure:"utilization_interval"`
	ServersInterval     time.Duration `mapstructure:"servers_interval"`
	HoldPeriod          time.Duration `mapstructure:"hold_period"`
	ConnectTimeout      time.Duration `mapstructure:"connect_timeout"`

	MetricsAddr string `mapstructure:"metrics_addr"`
	Quiet       bool   `mapstructure:"quiet"`
	Debug       bool   `mapstructure:"debug"`
}

// SetDefaults registers every key, which also makes them visible to
// AutomaticEnv.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("broker", "")
	v.SetDefault("mqtt_port", DefaultPort)
	v.SetDefault("mqtt_username", "")
	v.SetDefault("mqtt_password", "")
	v.SetDefault("client_id", "")
	v.SetDefault("base_topic", cluster.DefaultBaseTopic)
	v.SetDefault("public_topic", DefaultPublicTopic)
	v.SetDefault("utilization_interval", cluster.DefaultUtilizationInterval)
	v.SetDefault("servers_interval", cluster.DefaultServersInterval)
	v.SetDefault("hold_period", monitor.DefaultHoldPeriod)
	v.SetDefault("connect_timeout", transport.DefaultConnectTimeout)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("quiet", false)
	v.SetDefault("debug", false)
}

// Load reads file (DefaultFile when empty) if it exists, applies the
// environment and unmarshals the result. A missing default file is not an
// error; a missing explicit file is.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	explicit := file != ""
	if !explicit {
		file = DefaultFile
	}

	if _, err := os.Stat(file); err == nil {
		v.SetConfigFile(file)
		v.SetConfigType("env")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", file, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config: %w", err)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &c, nil
}

// Validate checks the settings every command needs. Use RequireBroker in
// addition for commands that connect to a broker.
func (this *Config) Validate() error {
	if this.Port < 1 || this.Port > 65535 {
		return ErrInvalidPort
	}

	if err := topics.ValidTopic(this.BaseTopic); err != nil {
		return fmt.Errorf("config: base_topic: %w", err)
	}

	if this.PublicTopic != "" {
		if err := topics.ValidFilter(this.PublicTopic); err != nil {
			return fmt.Errorf("config: public_topic: %w", err)
		}
	}

	for name, d := range map[string]time.Duration{
		"utilization_interval": this.UtilizationInterval,
		"servers_interval":     this.ServersInterval,
		"connect_timeout":      this.ConnectTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %v", name, d)
		}
	}

	if this.HoldPeriod < 0 {
		return fmt.Errorf("config: hold_period must not be negative, got %v", this.HoldPeriod)
	}

	return nil
}

func (this *Config) RequireBroker() error {
	if this.Broker == "" {
		return ErrMissingBroker
	}

	return this.Validate()
}

// BrokerURI returns Broker as is when it already carries a scheme, and
// tcp://Broker:Port otherwise.
func (this *Config) BrokerURI() string {
	if strings.Contains(this.Broker, "://") {
		return this.Broker
	}

	return fmt.Sprintf("tcp://%s:%d", this.Broker, this.Port)
}

// Credentials returns the username and password, only if both are set.
func (this *Config) Credentials() (string, string, bool) {
	if this.Username == "" || this.Password == "" {
		return "", "", false
	}

	return this.Username, this.Password, true
}

func (this *Config) Topics() cluster.Topics {
	return cluster.NewTopics(this.BaseTopic)
}
