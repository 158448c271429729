// Package server serves a built site for local preview.
//
// The handler serves files from the output root, pushes reload events to
// browsers over server-sent events and exposes /metrics and /healthz.
package server
