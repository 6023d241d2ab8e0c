package config

import (
	"errors"
	"io/fs"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read by Load when it exists.
const DefaultEnvFile = ".env"

var defaultEnv sync.Once

// LoadEnv reads the given .env files into the process environment. Files
// listed first win. With no files it reads DefaultEnvFile if present.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		err := godotenv.Load(DefaultEnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Join(ErrLoadingEnv, err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrLoadingEnv, err)
	}
	return nil
}

// Load parses the environment into v. The default .env file is read once
// per process before the first parse.
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	var envErr error
	defaultEnv.Do(func() { envErr = LoadEnv() })
	if envErr != nil {
		return envErr
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// Parse is Load returning the value.
func Parse[T any]() (T, error) {
	var v T
	err := Load(&v)
	return v, err
}

// MustParse is Parse that panics on error.
func MustParse[T any]() T {
	v, err := Parse[T]()
	if err != nil {
		panic(err)
	}
	return v
}
