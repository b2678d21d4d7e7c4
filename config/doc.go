// Package config loads iockit configuration.
//
// It uses Viper to read a config.yml and godotenv to load .env files, then
// overlays environment variables carrying the IOC_ prefix.
//
// # Usage
//
//	cfg, err := config.Load("iocctl", config.WithConfigFile("iocctl.yml"))
//
// Environment variables override file values using underscore-separated
// paths (e.g. IOC_CONTAINER_INITIALIZE=true sets container.initialize).
package config
