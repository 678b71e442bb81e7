package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

const hwidAppKey = "timerlink"

var hwidOnce = sync.OnceValue(func() string {
	if id, err := machineid.ProtectedID(hwidAppKey); err == nil && id != "" {
		return id[:32]
	}
	// no machine id (containers, sandboxes): fall back to a hostname hash
	host, _ := os.Hostname()
	sum := sha256.Sum256([]byte(hwidAppKey + ":" + host))
	return hex.EncodeToString(sum[:16])
})

// HWID is a stable, app-scoped hash of the machine id. The raw id never
// leaves the process.
func HWID() string {
	return hwidOnce()
}
