package tracking

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// newRandomUUID is a seam for tests that need the secure generator to fail.
var newRandomUUID = uuid.NewRandom

// NewClientID returns an opaque per-browser correlation token: a random UUID,
// or "<unix-ms>_<hex>" when secure randomness is unavailable.
func NewClientID(now time.Time) string {
	if id, err := newRandomUUID(); err == nil {
		return id.String()
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" + strconv.FormatUint(rand.Uint64(), 16)
}
