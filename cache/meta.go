// meta.go - reading the committed CacheMeta record
//
// Licensing Terms: GPLv2

package cache

import (
	"fmt"
	"os"

	"github.com/opencoff/ptree"
)

// readMeta reads and decodes the CacheMeta record at path.
func readMeta(path string) (*ptree.CacheMeta, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m ptree.CacheMeta
	if _, err := m.Unmarshal(b); err != nil {
		return nil, fmt.Errorf("meta: %w", err)
	}
	return &m, nil
}
