// Package config holds the configuration sections shared by the service binaries.
// Every section implements Validate and a String that is safe to log.
package config

import (
	"fmt"
	"strings"
)

// section renders one titled block of a config dump. kv alternates keys and values.
func section(title string, kv ...any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n--- %s ---\n", title)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, "  %v: %v\n", kv[i], kv[i+1])
	}
	return b.String()
}
