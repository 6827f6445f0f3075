// Package service contains the application-specific use cases. It
// orchestrates interactions between domain objects, the stores defined in
// internal/store, the connection registry, and the scheduler loop,
// abstracting infrastructure details away from the API layer.
package service
