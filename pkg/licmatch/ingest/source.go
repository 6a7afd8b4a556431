package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
	"github.com/cognicore/licmatch/pkg/licmatch/spdx"
)

// Source lists reference licenses and returns their authoritative text.
// spdx.Client satisfies it.
type Source interface {
	List(ctx context.Context) ([]spdx.LicenseRef, error)
	Text(ctx context.Context, id string) (string, error)
}

var _ Source = (*spdx.Client)(nil)

// DirSource reads a local checkout of spdx/license-list-data. Root may be
// the checkout itself or its json/details directory.
type DirSource struct {
	Root string
}

var _ Source = DirSource{}

func (d DirSource) dir() string {
	nested := filepath.Join(d.Root, "json", "details")
	if info, err := os.Stat(nested); err == nil && info.IsDir() {
		return nested
	}
	return d.Root
}

// List returns one ref per *.json file, sorted by ID.
func (d DirSource) List(ctx context.Context) ([]spdx.LicenseRef, error) {
	matches, err := filepath.Glob(filepath.Join(d.dir(), "*.json"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no license files under %s: %w", d.Root, internalerr.ErrNotFound)
	}
	sort.Strings(matches)

	refs := make([]spdx.LicenseRef, 0, len(matches))
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		refs = append(refs, spdx.LicenseRef{
			LicenseID:  strings.TrimSuffix(filepath.Base(path), ".json"),
			DetailsURL: path,
		})
	}
	return refs, nil
}

// Text reads <id>.json and returns its plain license text.
func (d DirSource) Text(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(d.dir(), id+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("license %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	var lic spdx.License
	if err := json.Unmarshal(data, &lic); err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	text, err := lic.PlainText()
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	if text == "" {
		return "", fmt.Errorf("license %s has no text: %w", id, internalerr.ErrNotFound)
	}
	return text, nil
}
