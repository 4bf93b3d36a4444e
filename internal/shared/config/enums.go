package config

import "github.com/samber/oops"

// AppEnv represents the application environment
type AppEnv string

const (
	AppEnvLocal       AppEnv = "local"
	AppEnvDevelopment AppEnv = "development"
	AppEnvTesting     AppEnv = "testing"
	AppEnvProduction  AppEnv = "production"
)

// ParseAppEnv converts a string into an AppEnv
func ParseAppEnv(s string) (AppEnv, error) {
	switch AppEnv(s) {
	case AppEnvLocal, AppEnvDevelopment, AppEnvTesting, AppEnvProduction:
		return AppEnv(s), nil
	}
	return "", oops.With("app_env", s).Errorf("unknown app environment")
}
