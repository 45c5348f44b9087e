package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads layered configuration from configDir:
// base.yaml, then <env>.yaml on top of it, then ${VAR} placeholders resolved
// from secrets.env and the process environment (process environment wins).
func LoadConfig(env string, configDir string) (map[string]interface{}, error) {
	if configDir == "" {
		configDir = "config"
	}

	baseConfig, err := loadYAMLFile(filepath.Join(configDir, "base.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load base.yaml: %w", err)
	}

	envConfig := make(map[string]interface{})
	if env != "" && env != "base" {
		envFile := filepath.Join(configDir, fmt.Sprintf("%s.yaml", env))
		if _, err := os.Stat(envFile); err == nil {
			envConfig, err = loadYAMLFile(envFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s.yaml: %w", env, err)
			}
		}
	}

	merged := mergeMaps(baseConfig, envConfig)

	secrets := map[string]string{}
	secretsFile := filepath.Join(configDir, "secrets.env")
	if _, err := os.Stat(secretsFile); err == nil {
		secrets, err = loadEnvFile(secretsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load secrets.env: %w", err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := secrets[key]
		return v, ok
	}

	return substituteEnvVars(merged, lookup), nil
}

// Decode converts a merged config map into the typed struct out.
func Decode(cfgMap map[string]interface{}, out interface{}) error {
	data, err := yaml.Marshal(cfgMap)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

func loadYAMLFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	if config == nil {
		config = make(map[string]interface{})
	}

	return config, nil
}

// loadEnvFile reads KEY=VALUE lines, skipping blanks and # comments.
func loadEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"`)
		value = strings.Trim(value, `'`)
		env[strings.TrimSpace(key)] = value
	}

	return env, nil
}

// mergeMaps returns dst overlaid with src; nested maps are merged recursively.
func mergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(dst))
	for k, v := range dst {
		result[k] = v
	}

	for k, v := range src {
		dstMap, dstIsMap := result[k].(map[string]interface{})
		srcMap, srcIsMap := v.(map[string]interface{})
		if dstIsMap && srcIsMap {
			result[k] = mergeMaps(dstMap, srcMap)
			continue
		}
		result[k] = v
	}

	return result
}

func substituteEnvVars(config map[string]interface{}, lookup func(string) (string, bool)) map[string]interface{} {
	result := make(map[string]interface{}, len(config))
	for k, v := range config {
		switch val := v.(type) {
		case string:
			result[k] = substituteString(val, lookup)
		case map[string]interface{}:
			result[k] = substituteEnvVars(val, lookup)
		default:
			result[k] = v
		}
	}
	return result
}

// substituteString replaces ${NAME} placeholders. Unknown names are left as-is.
func substituteString(s string, lookup func(string) (string, bool)) string {
	if !strings.Contains(s, "${") {
		return s
	}

	var b strings.Builder
	rest := s
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}")
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start

		b.WriteString(rest[:start])
		name := rest[start+2 : end]
		if value, ok := lookup(name); ok {
			b.WriteString(value)
		} else {
			b.WriteString(rest[start : end+1])
		}
		rest = rest[end+1:]
	}
	return b.String()
}

// GetEnv returns the environment variable or defaultValue when unset.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetConfigEnv returns CONFIG_ENV, defaulting to local.
func GetConfigEnv() string {
	return GetEnv("CONFIG_ENV", "local")
}
