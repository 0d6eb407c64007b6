// Package logger provides structured logging backed by zerolog.
//
// It supports JSON and console output, level configuration, component-scoped
// loggers and context enrichment with pipeline run identifiers.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("pipeline")
//	log.Debug("node computed", logger.Fields("node", "brdf"))
package logger
