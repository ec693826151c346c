package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/domain/repository"
	"github.com/tlc-analytics/taxi-trip-kpi-go/internal/shared/types"
)

// ConfigRepositoryImpl implementa o ConfigRepository.
type ConfigRepositoryImpl struct {
	fs afero.Fs
}

// NewConfigRepository cria uma nova implementação do ConfigRepository sobre fs.
func NewConfigRepository(fs afero.Fs) repository.ConfigRepository {
	return &ConfigRepositoryImpl{fs: fs}
}

// LoadConfigFile carrega um arquivo de configuração TOML, YAML ou JSON.
func (r *ConfigRepositoryImpl) LoadConfigFile(filePath string) (*types.Config, error) {
	fileExtension := strings.ToLower(filepath.Ext(filePath))

	fileInfo, err := r.fs.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}

	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	fileData, err := afero.ReadFile(r.fs, filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config types.Config

	switch fileExtension {
	case ".toml":
		if err := toml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("%w: error parsing TOML file: %v", types.ErrConfig, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("%w: error parsing YAML file: %v", types.ErrConfig, err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("%w: error parsing JSON file: %v", types.ErrConfig, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config file format: %s", types.ErrConfig, fileExtension)
	}

	return &config, nil
}
