/*
Package observability turns controller lifecycle events into Prometheus metrics and
structured log lines.

Both are delivered as domain.LifecycleHooks, so they can be combined with Merge and
passed to the controller with a single option.
*/
package observability
