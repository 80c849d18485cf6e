// Package cli is the credstack command-line client: register, log in and
// manage the saved session against the server's gRPC auth gateway.
//
//	credstack register --email a@b.com --name Ann
//	credstack login --email a@b.com
//	credstack whoami
//	credstack api-token
//	credstack logout
//
// Passwords are always prompted for, never taken from flags.
package cli
