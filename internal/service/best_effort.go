// internal/service/best_effort.go
package service

import "log"

// bestEffort runs a non-critical side effect (audit writes, address-book
// updates). A failure must never sink the primary operation, but it is
// logged so tests and operators can see it.
func bestEffort(label string, fn func() error) {
	if err := fn(); err != nil {
		log.Println("⚠️ best-effort", label, "failed:", err)
	}
}
