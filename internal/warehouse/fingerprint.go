package warehouse

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"

	"paysight/pkg/errors"
)

// Fingerprint derives a cache version token from the row count of every
// relation plus base. Any insert or delete in a relation changes the
// token; in-place updates do not, so an explicit base token is still
// the way to force a refresh.
func Fingerprint(ctx context.Context, db *sql.DB, relations []string, base string) (string, error) {
	names := make([]string, len(relations))
	copy(names, relations)
	sort.Strings(names)

	h := sha256.New()
	fmt.Fprintf(h, "base=%s\n", base)

	for _, rel := range names {
		// relation names come from the fixed registry, never from input
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", rel)

		var count int64
		if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return "", errors.Classify(err, query).WithContext("relation", rel)
		}
		fmt.Fprintf(h, "%s=%d\n", rel, count)
	}

	return "fp-" + hex.EncodeToString(h.Sum(nil))[:16], nil
}
