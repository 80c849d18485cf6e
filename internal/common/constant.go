// Package common contains shared constants and sentinel errors used across
// CredStack components.
package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key that
// carries the bearer token.
const AuthorizationHeaderName = "authorization"

// BearerScheme prefixes the token in the authorization value.
const BearerScheme = "Bearer"

// ReminderCategoryAutomation tags reminders produced by the automation engine.
const ReminderCategoryAutomation = "automation"

// DefaultNotificationPreference is assigned to users registered through the core.
const DefaultNotificationPreference = "email"

// AuthServiceName is the fully qualified gRPC service name of the auth
// gateway, shared by server and CLI.
const AuthServiceName = "credstack.auth.v1.AuthService"
