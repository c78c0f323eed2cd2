// Package google provides OAuth2 authentication and token management for the
// Google Calendar API.
//
// Tokens are stored per account in the user cache directory. The
// TokenProvider interface allows alternative token sources to be plugged in,
// which keeps the calendar client testable without touching the filesystem.
package google
