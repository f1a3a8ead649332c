// Package config loads the service configuration from the environment,
// optionally seeded from a .env file. Process environment always wins over
// the file.
package config
