// Package command exposes go-command compatible handlers that mutate academic
// records through the request authorizer. Every handler gates, stamps and
// scopes through authorizer.RequestAuthorizer before it touches storage, so
// transports only translate payloads.
package command
