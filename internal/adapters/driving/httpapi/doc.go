// Package httpapi exposes search, answers and lead capture as a JSON API.
//
// Routes:
//
//	GET    /healthz              liveness and the manifest of the loaded knowledge base
//	POST   /api/search           {query, k} -> passages
//	POST   /api/answer           {question, session_id} -> answer in the one reply shape
//	DELETE /api/sessions/:id     forget a conversation
//	POST   /api/leads            {name, contact, notes, source} -> stored lead
//	GET    /api/admin/leads      recent leads (basic auth)
//	POST   /api/admin/refresh    crawl and rebuild now (basic auth)
//	ANY    /mcp                  MCP streamable HTTP endpoint, when mounted
//
// Admin routes are only registered when an admin password is configured.
package httpapi
