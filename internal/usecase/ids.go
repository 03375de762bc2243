package usecase

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// newEntityID builds prefix + UUIDv4. On entropy failure it degrades
// to a timestamp suffix rather than aborting the operation.
func newEntityID(prefix string) string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
	}
	bytes[6] = (bytes[6] & 0x0f) | 0x40
	bytes[8] = (bytes[8] & 0x3f) | 0x80
	hexStr := hex.EncodeToString(bytes)
	return prefix + hexStr[0:8] + "-" + hexStr[8:12] + "-" + hexStr[12:16] + "-" + hexStr[16:20] + "-" + hexStr[20:32]
}
