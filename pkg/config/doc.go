// Package config loads application configuration from the environment.
//
// Values come from the process environment, optionally seeded from .env
// files with github.com/joho/godotenv, and are parsed into tagged structs
// with github.com/caarlos0/env/v11:
//
//	type Config struct {
//		API apiclient.Config
//		Log LogConfig
//	}
//
//	cfg, err := config.Parse[Config]()
//
// Variables already present in the environment win over .env files.
package config
