// Package component runs the long-lived parts of an iockit process.
//
// A Component has a name and a Start/Stop pair. The Registry starts
// components in registration order and stops the started ones in reverse.
// Components that also implement observability.HealthChecker are reported
// by Checkers, so they can be added to a health endpoint.
package component
