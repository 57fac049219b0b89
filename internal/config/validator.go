package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/xeipuuv/gojsonschema"
)

// Validator validates configuration values
type Validator struct {
	schemaLoader gojsonschema.JSONLoader
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		schemaLoader: gojsonschema.NewStringLoader(Schema),
	}
}

// Validate runs the schema check and then the rules the schema cannot express.
func (v *Validator) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := v.ValidateSchema(cfg); err != nil {
		return err
	}

	if err := v.ValidateAlarmSchedule(cfg.Workload.AlarmSchedule); err != nil {
		return err
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}

	if cfg.Tracing.Enabled && cfg.Tracing.ServiceName == "" {
		return fmt.Errorf("tracing.service_name is required when tracing is enabled")
	}

	return nil
}

// ValidateSchema checks cfg against Schema.
func (v *Validator) ValidateSchema(cfg *Config) error {
	result, err := gojsonschema.Validate(v.schemaLoader, gojsonschema.NewGoLoader(cfg))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}

	return nil
}

// ValidateAlarmSchedule checks a cron spec. Empty disables scheduled alarms.
func (v *Validator) ValidateAlarmSchedule(spec string) error {
	if spec == "" {
		return nil
	}

	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid workload.alarm_schedule %q: %w", spec, err)
	}

	return nil
}
