// Package audit defines the audit event model and the sink implementations
// shared between the dispatcher and the public shopauth aliases.
package audit
