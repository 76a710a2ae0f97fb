package identity

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-publication/internal/domain"
	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// HandleUUID derives the handle id of a document from its folder and name.
func HandleUUID(path, name string) uuid.UUID {
	location := domain.Handle{Path: path, Name: name}.Location()
	return UUID("go-publication:handle:" + strings.ToLower(location))
}

// VersionUUID derives the id of the n-th version snapshot of a handle.
func VersionUUID(handleID uuid.UUID, number int) uuid.UUID {
	return UUID("go-publication:version:" + handleID.String() + ":" + strconv.Itoa(number))
}
