// Package server exposes the chat service over HTTP.
//
// The router serves POST /api/chat, which accepts the full conversation
// transcript and answers with the next assistant message, and GET /healthz
// for liveness checks. Input errors are reported as 400 with a short message.
// Every other failure becomes a generic 500 and is logged in full.
package server
