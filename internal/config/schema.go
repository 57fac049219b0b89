package config

// Schema is the JSON schema every effective configuration must satisfy.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["queue", "workload", "logging", "metrics", "tracing"],
  "properties": {
    "queue": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1, "pattern": "^[A-Za-z0-9_.-]+$"},
        "normal_limit": {"type": "integer", "minimum": 0}
      }
    },
    "workload": {
      "type": "object",
      "properties": {
        "producers": {"type": "integer", "minimum": 1},
        "consumers": {"type": "integer", "minimum": 1},
        "messages": {"type": "integer", "minimum": 0},
        "alarm_ratio": {"type": "number", "minimum": 0, "maximum": 1},
        "alarm_schedule": {"type": "string"},
        "seed": {"type": "integer"}
      }
    },
    "logging": {
      "type": "object",
      "properties": {
        "level": {"enum": ["", "trace", "debug", "info", "warn", "error"]},
        "file": {"type": "string"},
        "pretty": {"type": "boolean"},
        "max_size": {"type": "integer", "minimum": 0},
        "max_age": {"type": "integer", "minimum": 0},
        "compress": {"type": "boolean"},
        "audit_file": {"type": "string"}
      }
    },
    "metrics": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "addr": {"type": "string"}
      }
    },
    "tracing": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "service_name": {"type": "string"},
        "sample_ratio": {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  }
}`
