// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The harvest side (Crawler, Curator) turns a website into a versioned
// knowledge base. Refresher runs both and reloads the retriever. The
// query side (Retriever, Router, Composer, AnswerService) answers one
// conversation turn at a time.
//
// Services are pure Go with no CGO dependencies.
package services
