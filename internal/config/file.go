package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// LoadFile parses the config file at the given path into a FileConfig.
// An empty path yields a nil FileConfig; a path that does not exist or
// cannot be parsed into recognized keys yields an *Error. Any format
// viper understands is accepted (YAML, JSON, TOML, ...).
func LoadFile(configFilePath string) (*FileConfig, error) {
	if configFilePath == "" {
		return nil, nil
	}
	fileInformation, statError := os.Stat(configFilePath)
	if statError != nil {
		return nil, &Error{Reason: fmt.Sprintf("config file %s: %v", configFilePath, statError)}
	}
	if fileInformation.IsDir() {
		return nil, &Error{Reason: fmt.Sprintf("config path %s is a directory", configFilePath)}
	}

	reader := viper.New()
	reader.SetConfigFile(configFilePath)
	if readError := reader.ReadInConfig(); readError != nil {
		return nil, &Error{Reason: fmt.Sprintf("parsing config file %s: %v", configFilePath, readError)}
	}

	fileConfig := &FileConfig{}
	if unmarshalError := reader.Unmarshal(fileConfig); unmarshalError != nil {
		return nil, &Error{Reason: fmt.Sprintf("decoding config file %s: %v", configFilePath, unmarshalError)}
	}
	return fileConfig, nil
}
