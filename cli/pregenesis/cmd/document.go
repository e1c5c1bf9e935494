package cmd

import (
	"fmt"

	"github.com/alphabill-org/pregenesis/util"
)

type encoder interface {
	Encode() ([]byte, error)
}

// writeDocument writes TOML encoding of the transactions into the file.
func writeDocument(path string, doc encoder) error {
	b, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encoding transactions: %w", err)
	}
	if err := util.WriteFile(path, b); err != nil {
		return fmt.Errorf("writing transactions: %w", err)
	}
	return nil
}
