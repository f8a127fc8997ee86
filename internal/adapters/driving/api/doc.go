// Package api exposes the question-answering engine over HTTP.
//
// Routes:
//
//	GET  /                     service banner
//	GET  /health               engine readiness
//	POST /ask                  answer a question
//	GET  /sources/{doc_type}   metadata of every chunk of a type
//
// Errors are returned as {"detail": "..."} with 503 while the engine is not
// ready, 400 for invalid input and 500 otherwise.
package api
