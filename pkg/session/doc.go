/*
Package session implements session management and persistence orchestration.

A Manager serializes read-modify-write cycles per session id with ref-counted
in-process locks, optionally combined with a distributed lock so several replicas can
share one store. Session ids are ULIDs.
*/
package session
