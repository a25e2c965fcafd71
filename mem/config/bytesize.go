package config

import (
	"fmt"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"
)

// ByteSize is a byte count written with human units ("64MB", "512KB") in
// flags and YAML. Units are powers of 1024.
type ByteSize uint64

// Set implements flag.Value.
func (b *ByteSize) Set(s string) error {
	v, err := datasize.ParseString(s)
	if err != nil {
		return fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	*b = ByteSize(v.Bytes())
	return nil
}

// String implements flag.Value.
func (b ByteSize) String() string {
	return datasize.ByteSize(b).String()
}

// Bytes returns the size in bytes.
func (b ByteSize) Bytes() uint64 { return uint64(b) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(n *yaml.Node) error {
	return b.Set(n.Value)
}

// MarshalYAML implements yaml.Marshaler.
func (b ByteSize) MarshalYAML() (any, error) {
	return b.String(), nil
}
