// Package scan discovers source files under one or more roots using
// extension filters and include/exclude glob patterns.
package scan
