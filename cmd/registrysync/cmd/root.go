// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "registrysync",
	Short: "registrysync mirrors NiFi Registry flow versions to git",
	Long: `registrysync watches a NiFi Registry for new or updated versioned flows and
commits every discovered version as a JSON file to a git repository.

Files are laid out as flows/<bucket>/<flow>/v<version>.json.

It can also deploy a flow version from the registry into a running NiFi instance.
`,
	SilenceUsage: true,
}

var config *CLIConfig

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addConfigFileFlag(rootCmd)
	addLogLevelFlag(rootCmd)
	addLogEncodingFlag(rootCmd)
	addRegistryURLFlag(rootCmd)
	addStateFileFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setDefaults(viper.GetViper())

	switch {
	case flags.root.configFile != "":
		viper.SetConfigFile(flags.root.configFile)
	case os.Getenv(configEnvVar) != "":
		viper.SetConfigFile(os.Getenv(configEnvVar))
	default:
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.registrysync")
		viper.AddConfigPath("/etc/registrysync")
		viper.SetConfigName("registrysync")
	}

	viper.SetEnvPrefix("registrysync")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // read in environment variables that match
	bindLegacyEnv(viper.GetViper())

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}

	var err error
	config, err = newConfig(viper.GetViper())
	if err != nil {
		wrapFatalln("invalid configuration", err)
		return
	}
}
