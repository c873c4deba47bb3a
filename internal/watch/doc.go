// Package watch reports batches of source changes under a set of roots.
// Events are debounced so a burst of saves triggers one regeneration.
package watch
