// Package mcp provides an MCP (Model Context Protocol) server adapter for sitesage.
// It lets AI assistants search the site knowledge base, ask grounded
// questions and hand over contact requests.
package mcp

import "errors"

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("mcp: retriever is required")

// ErrEmptyQuery is returned when a tool is called without a query.
var ErrEmptyQuery = errors.New("mcp: query is required")
