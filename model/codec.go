package model

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is an encoding for model files.
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ErrUnknownFormat is returned when a model file's format cannot be
// determined from its name or from the requested format.
var ErrUnknownFormat = errors.New("unknown model format")

// ParseFormat returns the format with the given name. File extensions (with
// or without the leading dot) are accepted too.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "msgpack", "mp", "mpk":
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatForPath determines the format of a model file from its extension.
func FormatForPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Decode reads a unit in the given format.
func Decode(r io.Reader, f Format) (*Unit, error) {
	var u Unit
	var err error
	switch f {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&u)
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&u)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&u)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if errors.Is(err, io.EOF) {
		// empty input is an empty unit
		return &u, nil
	} else if err != nil {
		return nil, fmt.Errorf("could not decode %s model: %w", f, err)
	}
	return &u, nil
}

// Encode writes a unit in the given format.
func Encode(w io.Writer, u *Unit, f Format) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(u); err != nil {
			return fmt.Errorf("could not encode yaml model: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(u); err != nil {
			return fmt.Errorf("could not encode json model: %w", err)
		}
		return nil
	case FormatMsgpack:
		if err := msgpack.NewEncoder(w).Encode(u); err != nil {
			return fmt.Errorf("could not encode msgpack model: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Load reads the model file at the given path, choosing the format from the
// file's extension.
func Load(path string) (*Unit, error) {
	f, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	u, err := Decode(in, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// Save writes the unit to the given path, choosing the format from the file's
// extension.
func Save(path string, u *Unit) (err error) {
	f, err := FormatForPath(path)
	if err != nil {
		return err
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
	}()
	return Encode(out, u, f)
}
