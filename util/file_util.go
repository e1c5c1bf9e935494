package util

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

/*
WriteFile writes data into the file, creating the missing directories of
the path. The file is readable by the owner only.
*/
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, data, 0600) // -rw-------
}

/*
ReadTomlFile decodes TOML document in the file into "res". Keys in the document
which do not map to any field of T are an error.
*/
func ReadTomlFile[T any](path string, res *T) (*T, error) {
	// #nosec G304
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = DecodeToml(b, res); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return res, nil
}

func DecodeToml(data []byte, v any) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return err
	}
	return nil
}
