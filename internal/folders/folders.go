package folders

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/internal/identity"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

var (
	ErrNameRequired   = errors.New("folders: name required")
	ErrInvalidName    = errors.New("folders: invalid name")
	ErrInvalidPath    = errors.New("folders: invalid destination")
	ErrStoreRequired  = errors.New("folders: handle store required")
	ErrVariantMissing = errors.New("folders: variant required")
)

// Service implements interfaces.FolderOperations on top of a handle store and
// a variant store. Names are normalised with go-slug.
type Service struct {
	handles interfaces.HandleStore
	store   interfaces.VariantStore
	clock   func() time.Time
}

// Option customises the service.
type Option func(*Service)

// WithClock overrides the clock used to stamp copies.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

var _ interfaces.FolderOperations = (*Service)(nil)

func NewService(handles interfaces.HandleStore, store interfaces.VariantStore, opts ...Option) *Service {
	svc := &Service{
		handles: handles,
		store:   store,
		clock:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// NormalizeName validates a document name and returns its slug form.
func NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrNameRequired
	}
	normalized, err := slug.Normalize(trimmed)
	if err != nil || normalized == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return normalized, nil
}

// NormalizePath cleans a folder path into an absolute slash separated form.
func NormalizePath(folder string) (string, error) {
	trimmed := strings.TrimSpace(folder)
	if trimmed == "" {
		return "/", nil
	}
	if strings.Contains(trimmed, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, folder)
	}
	return path.Clean("/" + strings.TrimLeft(trimmed, "/")), nil
}

// Copy creates a new handle under destination holding a copy of variant. The
// copy keeps the variant kind; callers decide whether it must be depublished.
func (s *Service) Copy(ctx context.Context, variant domain.Variant, destination, newName string) (domain.Handle, error) {
	if err := s.ready(); err != nil {
		return domain.Handle{}, err
	}
	if !variant.Kind.Valid() {
		return domain.Handle{}, ErrVariantMissing
	}
	name, err := NormalizeName(newName)
	if err != nil {
		return domain.Handle{}, err
	}
	folder, err := NormalizePath(destination)
	if err != nil {
		return domain.Handle{}, err
	}

	handle, err := s.handles.CreateHandle(ctx, domain.Handle{
		ID:   identity.HandleUUID(folder, name),
		Path: folder,
		Name: name,
	})
	if err != nil {
		return domain.Handle{}, err
	}

	session, err := s.store.Begin(ctx, handle.ID)
	if err != nil {
		return domain.Handle{}, err
	}
	now := s.clock()
	copied := variant.Clone()
	copied.ID = uuid.Nil
	copied.HandleID = handle.ID
	copied.Owner = ""
	copied.CreatedAt = now
	if err := session.Write(copied); err != nil {
		return domain.Handle{}, err
	}
	if err := session.Save(ctx); err != nil {
		_ = session.Refresh(ctx)
		return domain.Handle{}, err
	}
	return handle, nil
}

// Move relocates the handle of variant to destination, optionally renaming it.
func (s *Service) Move(ctx context.Context, variant domain.Variant, destination, newName string) error {
	if err := s.ready(); err != nil {
		return err
	}
	folder, err := NormalizePath(destination)
	if err != nil {
		return err
	}
	handle, err := s.handles.GetHandle(ctx, variant.HandleID)
	if err != nil {
		return err
	}
	handle.Path = folder
	if strings.TrimSpace(newName) != "" {
		name, err := NormalizeName(newName)
		if err != nil {
			return err
		}
		handle.Name = name
	}
	_, err = s.handles.UpdateHandle(ctx, handle)
	return err
}

// Rename changes the name of the handle of variant in place.
func (s *Service) Rename(ctx context.Context, variant domain.Variant, newName string) error {
	if err := s.ready(); err != nil {
		return err
	}
	name, err := NormalizeName(newName)
	if err != nil {
		return err
	}
	handle, err := s.handles.GetHandle(ctx, variant.HandleID)
	if err != nil {
		return err
	}
	handle.Name = name
	_, err = s.handles.UpdateHandle(ctx, handle)
	return err
}

func (s *Service) ready() error {
	if s == nil || s.handles == nil || s.store == nil {
		return ErrStoreRequired
	}
	return nil
}
