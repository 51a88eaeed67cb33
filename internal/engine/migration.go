package engine

import (
	"context"
	"fmt"
)

// Source is a store that can be enumerated and read.
type Source interface {
	Enumerator
	Reader
}

// Migrate copies every record of src into dst and returns how many were copied.
// When keep is non-nil only the collections it accepts are copied.
// Records are inserted oldest first so dst keeps their relative order.
// This works for:
// - Local fallback -> Gateway (pushing offline writes)
// - File store -> SQL store (changing the gateway's driver)
func Migrate(ctx context.Context, src Source, dst Writer, keep func(collection string) bool) (int, error) {
	collections, err := src.Collections(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list collections: %w", err)
	}

	copied := 0
	for _, name := range collections {
		if keep != nil && !keep(name) {
			continue
		}
		records, err := src.List(ctx, name, ListOptions{})
		if err != nil {
			return copied, fmt.Errorf("failed to list collection %s: %w", name, err)
		}

		for i := len(records) - 1; i >= 0; i-- {
			if _, err := dst.Insert(ctx, name, records[i]); err != nil {
				return copied, fmt.Errorf("failed to insert %s/%s in destination: %w", name, records[i].ID(), err)
			}
			copied++
		}
	}

	return copied, nil
}
