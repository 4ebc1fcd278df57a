package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/chethana369/Auto-resume-checker/internal/shared/storage/object"
	"github.com/chethana369/Auto-resume-checker/internal/shared/util"
)

// Archive keeps a copy of every served export in an object store.
type Archive struct {
	Store object.ObjectStore
}

// Key returns the storage key of an export. The session ID is hashed so keys never expose it.
func Key(sessionID, runID string, f Format) string {
	return path.Join("exports", util.HashKey(sessionID), runID+"."+string(f))
}

// Save stores data under Key and returns the key.
func (a *Archive) Save(ctx context.Context, sessionID, runID string, f Format, data []byte) (string, error) {
	if a == nil || a.Store == nil {
		return "", nil
	}
	key := Key(sessionID, runID, f)
	if _, err := a.Store.Put(ctx, key, f.ContentType(), bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("archive export: %w", err)
	}
	return key, nil
}

// Load returns a previously archived export and its key.
// A miss, including a disabled archive, returns object.ErrNotFound.
func (a *Archive) Load(ctx context.Context, sessionID, runID string, f Format) ([]byte, string, error) {
	if a == nil || a.Store == nil {
		return nil, "", object.ErrNotFound
	}
	key := Key(sessionID, runID, f)
	rc, err := a.Store.Open(ctx, key)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("read archived export: %w", err)
	}
	return data, key, nil
}

// IsMiss reports whether err from Load means the export has not been archived.
func IsMiss(err error) bool {
	return errors.Is(err, object.ErrNotFound)
}
