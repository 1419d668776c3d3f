// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/comiknet/comiknet/constant"
	"github.com/comiknet/comiknet/filesystem"
	"github.com/comiknet/comiknet/where"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvKeyReplacer normalizes configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// ErrInvalidValue is returned by Validate for a setting outside its accepted values.
var ErrInvalidValue = errors.New("invalid configuration value")

// Setup registers defaults and environment bindings, reads comiknet.toml when present and
// validates the result. A missing config file is not an error.
func Setup() error {
	viper.SetConfigName(constant.Comiknet)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Comiknet)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	return Validate()
}

// Validate checks the effective value of every field: string fields with choices must hold one
// of them and integer fields must not be negative.
func Validate() error {
	var errs []error

	for _, field := range Sorted() {
		switch field.Value.(type) {
		case string:
			value := viper.GetString(field.Key)
			if len(field.Choices) > 0 && !lo.Contains(field.Choices, value) {
				errs = append(errs, fmt.Errorf(
					"%w: %s is %q, expected one of %s",
					ErrInvalidValue, field.Key, value, strings.Join(field.Choices, ", "),
				))
			}
		case int:
			if value := viper.GetInt(field.Key); value < 0 {
				errs = append(errs, fmt.Errorf("%w: %s is %d, expected zero or more", ErrInvalidValue, field.Key, value))
			}
		}
	}

	return errors.Join(errs...)
}
