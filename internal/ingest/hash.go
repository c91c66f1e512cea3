package ingest

import (
	"strconv"

	"github.com/zeebo/xxh3"
)

// contentHash returns a stable hex digest of data, used both for the
// ByContent/Both dedup prefilter and as the persisted content_hash column.
func contentHash(data []byte) string {
	sum := xxh3.Hash(data)
	return strconv.FormatUint(sum, 16)
}
