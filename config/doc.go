// Package config loads command configuration with Viper.
//
// LoadConfig reads a YAML file found in the standard locations, overlays a
// .env file loaded with godotenv and then the process environment, and
// unmarshals the result into the caller's struct.
//
// # Usage
//
//	var cfg Config
//	opts := append(config.PipelineDefaults("pipeline"), config.WithConfigFile(path))
//	if err := config.LoadConfig("eradiate-pp", &cfg, opts...); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//
// Environment variables map onto nested keys by splitting on underscores,
// so PIPELINE_LOG_NODES sets pipeline.log_nodes.
package config
