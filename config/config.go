// Package config wires viper to yato's defaults, env vars and config file,
// and captures immutable snapshots for watch sessions.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
	"github.com/yato-cli/yato/constant"
	"github.com/yato-cli/yato/filesystem"
	"github.com/yato-cli/yato/where"
)

// EnvKeyReplacer maps dotted keys to env var names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup loads defaults, binds env vars and reads yato.toml if present.
func Setup() error {
	viper.SetConfigName(constant.Yato)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Yato)
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
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}
