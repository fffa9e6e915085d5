package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hadronproject/hadron/internal/common"
	"github.com/hadronproject/hadron/internal/eventingester"
	"github.com/hadronproject/hadron/internal/eventingester/configuration"
)

const (
	CustomConfigLocation = "config"
	InputFiles           = "input"
)

func init() {
	pflag.StringSlice(
		CustomConfigLocation,
		[]string{},
		"Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)",
	)
	pflag.StringSlice(InputFiles, []string{}, "Event file to ingest (repeat for multiple files)")
	pflag.Parse()
}

func main() {
	common.ConfigureLogging()
	common.BindCommandlineArguments()

	var config configuration.EventIngesterConfiguration
	userSpecifiedConfigs := viper.GetStringSlice(CustomConfigLocation)

	common.LoadConfig(&config, "./config/eventingester", userSpecifiedConfigs)

	if inputs := viper.GetStringSlice(InputFiles); len(inputs) > 0 {
		config.InputFiles = inputs
	}

	eventingester.Run(&config)
}
