package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFileName = "klass"
	configFileType = "yaml"
	envPrefix      = "KLASS"

	cfgManifest        = "manifest"
	cfgSnapshot        = "snapshot"
	cfgDB              = "db"
	cfgPrimaryLimit    = "primary-limit"
	cfgVerbose         = "verbose"
	cfgArrayRoot       = "array-root"
	cfgArrayInterfaces = "array-interfaces"
)

// loadConfig merges, highest first: flags, KLASS_* environment variables,
// the config file, flag defaults. A missing default config file is not an
// error; a missing --config file is.
func (a *app) loadConfig(cmd *cobra.Command) error {
	v := a.v
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range []string{cfgManifest, cfgSnapshot, cfgDB, cfgPrimaryLimit, cfgVerbose} {
		if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(key)); err != nil {
			return fmt.Errorf("bind flag %s: %w", key, err)
		}
	}

	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
