// Package http implements the HTTP request handlers for the campaign
// analytics web service. It is a thin layer between transport and the
// service facade: handlers parse and validate requests, delegate to
// services, and translate service errors into RFC 7807 responses.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → DatasetService → Session Store
//	                                              ↓
//	HTTP Response ← render.JSON / ErrorHandler ←─┘
//
// Handlers never reach into the session store directly and never carry
// business logic of their own.
package http
