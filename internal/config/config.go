package config

import (
	"encoding/json"
)

// Config represents the alarmq configuration
type Config struct {
	Queue    QueueConfig    `json:"queue" yaml:"queue" mapstructure:"queue"`
	Workload WorkloadConfig `json:"workload" yaml:"workload" mapstructure:"workload"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" mapstructure:"logging"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	Tracing  TracingConfig  `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
}

// QueueConfig configures the queue instance used by the driver
type QueueConfig struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	NormalLimit int    `json:"normal_limit" yaml:"normal_limit" mapstructure:"normal_limit"` // 0 = unbounded
}

// WorkloadConfig describes a producer/consumer run
type WorkloadConfig struct {
	Producers     int     `json:"producers" yaml:"producers" mapstructure:"producers"`
	Consumers     int     `json:"consumers" yaml:"consumers" mapstructure:"consumers"`
	Messages      int     `json:"messages" yaml:"messages" mapstructure:"messages"` // per producer
	AlarmRatio    float64 `json:"alarm_ratio" yaml:"alarm_ratio" mapstructure:"alarm_ratio"`
	AlarmSchedule string  `json:"alarm_schedule" yaml:"alarm_schedule" mapstructure:"alarm_schedule"` // cron spec, e.g. "@every 200ms"
	Seed          int64   `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" yaml:"level" mapstructure:"level"`
	File      string `json:"file" yaml:"file" mapstructure:"file"`
	Pretty    bool   `json:"pretty" yaml:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" yaml:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" yaml:"max_age" mapstructure:"max_age"`    // days
	Compress  bool   `json:"compress" yaml:"compress" mapstructure:"compress"`
	AuditFile string `json:"audit_file" yaml:"audit_file" mapstructure:"audit_file"`
}

// MetricsConfig controls the Prometheus endpoint served during runs
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// TracingConfig controls OpenTelemetry spans around driver operations
type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	ServiceName string  `json:"service_name" yaml:"service_name" mapstructure:"service_name"`
	SampleRatio float64 `json:"sample_ratio" yaml:"sample_ratio" mapstructure:"sample_ratio"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Queue: QueueConfig{
			Name: "default",
		},
		Workload: WorkloadConfig{
			Producers:  2,
			Consumers:  2,
			Messages:   100,
			AlarmRatio: 0.1,
			Seed:       1,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Pretty:   true,
			MaxSize:  100,
			MaxAge:   7,
			Compress: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "alarmq",
			SampleRatio: 1,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks the configuration against the schema and semantic rules
func (c *Config) Validate() error {
	return NewValidator().Validate(c)
}
