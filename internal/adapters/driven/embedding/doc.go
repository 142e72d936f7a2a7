// Package embedding groups the implementations of driven.EmbeddingClient.
//
//   - httpclient: talks to a remote embedding service over HTTP
//   - local: calls an embedding service hosted in the same process
package embedding
