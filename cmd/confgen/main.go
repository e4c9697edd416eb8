// confgen собирает configs/values_local.yaml из базового слоя и
// необязательного оверлея: свежий чекаут получает рабочий конфиг
// одной командой вместо ручного копирования.
//
//	go run ./cmd/confgen [overlay.yaml]
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	baseConfigName  = "base"
	configsDir      = "configs"
	resultFileName  = "configs/values_local.yaml"
	resultFilePerms = 0o644
)

func buildConfig(overlay string) (map[string]interface{}, error) {
	engine := viper.New()
	engine.SetConfigName(baseConfigName)
	engine.SetConfigType("yaml")
	engine.AddConfigPath(configsDir)
	if err := engine.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read base config")
	}

	if overlay != "" {
		engine.SetConfigFile(overlay)
		if err := engine.MergeInConfig(); err != nil {
			return nil, errors.Wrap(err, "merge overlay config")
		}
	}

	return engine.AllSettings(), nil
}

func writeConfig(settings map[string]interface{}) error {
	bs, err := yaml.Marshal(settings)
	if err != nil {
		return errors.Wrap(err, "marshal config to yaml")
	}
	if err = os.WriteFile(resultFileName, bs, resultFilePerms); err != nil {
		return errors.Wrap(err, "write result config")
	}
	return nil
}

func main() {
	overlay := ""
	if len(os.Args) > 1 {
		overlay = os.Args[1]
	}

	settings, err := buildConfig(overlay)
	if err != nil {
		panic(fmt.Errorf("build config: %w", err))
	}
	if err := writeConfig(settings); err != nil {
		panic(fmt.Errorf("write config: %w", err))
	}
	fmt.Printf("%s written\n", resultFileName)
}
