// Package config provides centralized configuration management for the bank
// analytics tools. It handles loading configuration from multiple sources,
// validation, and provides a type-safe API for accessing configuration values.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern BANK_<SECTION>_<FIELD>:
//
//	BANK_SEGMENTATION_K=4
//	BANK_SEGMENTATION_N_INIT=10
//	BANK_SEGMENTATION_MAX_ITER=300
//	BANK_SEGMENTATION_RANDOM_SEED=42
//	BANK_SEGMENTATION_ORPHAN_POLICY=reject
//	BANK_LOGGING_LEVEL=debug
//	BANK_PATHS_DATA_DIR=/var/lib/bank
//
// The config file is taken from BANK_CONFIG_FILE, or config.yaml /
// configs/config.yaml in the working directory.
//
// # Validation
//
// Every section is validated with go-playground/validator struct tags after
// all sources are merged, so an invalid value fails Load regardless of where
// it came from.
//
// # Testing
//
// Use Default() to get a configuration that needs no environment or files.
package config
