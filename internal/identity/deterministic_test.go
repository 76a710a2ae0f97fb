package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestHandleUUIDIsStableAndCaseInsensitive(t *testing.T) {
	first := HandleUUID("/docs", "Guide")
	second := HandleUUID("/docs/", "guide")
	if first == uuid.Nil {
		t.Fatalf("expected non-nil handle id")
	}
	if first != second {
		t.Fatalf("expected same id for equivalent locations, got %s and %s", first, second)
	}
	if other := HandleUUID("/blog", "guide"); other == first {
		t.Fatalf("expected distinct ids for distinct folders")
	}
}

func TestVersionUUID(t *testing.T) {
	handle := HandleUUID("/docs", "guide")
	if VersionUUID(handle, 1) == VersionUUID(handle, 2) {
		t.Fatalf("expected distinct ids per version number")
	}
	if VersionUUID(handle, 3) != VersionUUID(handle, 3) {
		t.Fatalf("expected deterministic version ids")
	}
}

func TestUUIDBlankKey(t *testing.T) {
	if got := UUID("   "); got != uuid.Nil {
		t.Fatalf("expected nil uuid for blank key, got %s", got)
	}
}
