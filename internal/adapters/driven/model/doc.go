// Package model groups the embedding model runtimes the embedding service
// can host. Each subpackage implements driven.EmbeddingModel.
//
//   - hashing: deterministic local feature hashing, no external dependency
//   - ollama: the Ollama /api/embed endpoint
//   - openai: OpenAI-compatible embedding APIs via go-openai
package model
