package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HIVEFORM_"

// ReadEnv collects HIVEFORM_* variables from the dotenv file at path (if it
// exists) and the process environment. Process variables win.
func ReadEnv(path string) (map[string]string, error) {
	env := make(map[string]string)

	if path != "" {
		fileEnv, err := godotenv.Read(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		for k, v := range fileEnv {
			if strings.HasPrefix(k, EnvPrefix) {
				env[k] = v
			}
		}
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}

	return env, nil
}

// ApplyEnv overrides settings from HIVEFORM_* variables.
// List values are comma separated.
func (c *Config) ApplyEnv(env map[string]string) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := env[EnvPrefix+key]; ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	list := func(key string, dst *[]string) {
		if v, ok := env[EnvPrefix+key]; ok && strings.TrimSpace(v) != "" {
			*dst = splitList(v)
		}
	}

	str("OUTPUT_DIR", &c.OutputDir)
	str("CONTAINER_TAG", &c.ContainerTag)
	str("FIELD_TAG", &c.FieldTag)
	str("FALLBACK_CONTEXT", &c.FallbackContext)
	str("SYNTHESIZED_PREFIX", &c.SynthesizedPrefix)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	list("SOURCE_DIRS", &c.SourceDirs)
	list("EXTENSIONS", &c.Extensions)
	list("INCLUDE", &c.Include)
	list("EXCLUDE", &c.Exclude)
	list("CONTAINER_ALIASES", &c.ContainerAliases)

	if v, ok := env[EnvPrefix+"COLOCATE"]; ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCOLOCATE: %w", EnvPrefix, err))
		} else {
			c.Colocate = b
		}
	}

	if v, ok := env[EnvPrefix+"CONCURRENCY"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCONCURRENCY: %w", EnvPrefix, err))
		} else {
			c.Concurrency = n
		}
	}

	if v, ok := env[EnvPrefix+"DEBUG"]; ok {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}

	applyDefaults(c)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string

	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
