// Package core contains the canonical receipt-validation domain contracts,
// entities, and configuration. Lower-level adapters (trust anchors, auth,
// transport, platform reconcilers) must depend on this package; core must not
// depend on any of them.
package core
