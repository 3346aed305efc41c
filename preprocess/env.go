package preprocess

import "os"

// EnvSink receives "#define env.NAME value" assignments.
type EnvSink interface {
	Setenv(key, value string) error
}

// OSEnv writes to the process environment. Its effect is global: it is
// visible to every later mapper and to child processes.
type OSEnv struct{}

func (OSEnv) Setenv(key, value string) error { return os.Setenv(key, value) }

// MapEnv collects assignments in a map, isolating them from the process.
type MapEnv map[string]string

func (e MapEnv) Setenv(key, value string) error {
	e[key] = value
	return nil
}
