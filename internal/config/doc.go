// Package config provides environment-based configuration.
//
// Loads from .env file (godotenv), maps environment variables to the Config
// struct with defaults, and validates required fields.
package config
