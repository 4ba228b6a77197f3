// Package guard switches the process into test mode when imported, so test binaries
// that build the full router never start background side effects.
package guard

import "github.com/inventory-ds/inventory-ds/internal/app"

func init() {
	app.EnableTestMode()
}
