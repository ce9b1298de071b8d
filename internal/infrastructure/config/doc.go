// Package config handles loading and validating Greenhouse Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with GREENHOUSE_* environment variables
//   - Validation of required fields
//
// Sensitive values (MQTT password, InfluxDB token, JWT secret) should be set
// through the environment rather than the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Control.ForecastWindow)
package config
