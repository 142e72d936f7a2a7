package services

import (
	"strconv"

	"github.com/google/uuid"
)

// chunkNamespace scopes generated chunk IDs to this application.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("chunks.hybridrag"))

// ChunkID derives the stable ID for the chunk at sequence within a document.
// The same document ID and sequence always give the same chunk ID.
func ChunkID(documentID string, sequence int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+"\x00"+strconv.Itoa(sequence))).String()
}
