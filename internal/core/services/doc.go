// Package services implements the driving port interfaces.
// Services contain the core business logic - element classification,
// chunking, query variation, retrieval, quality assessment and the
// pipeline orchestrators - and call out through driven ports.
package services
