package fetch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mesh-intelligence/gameshelf/internal/atomicfile"
	"github.com/mesh-intelligence/gameshelf/internal/paths"
	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

// Raw is one complete retrieval: the collection document and every play
// page in page order.
type Raw struct {
	Collection []byte
	PlayPages  [][]byte
}

// SaveRaw writes raw into the data directory. The collection file is
// replaced atomically and the plays directory is swapped as a whole, so a
// reader never sees pages from two different retrievals.
func SaveRaw(layout paths.Layout, raw Raw) error {
	if err := atomicfile.WriteBytes(layout.Collection(), raw.Collection); err != nil {
		return types.NewStageError(types.StageWrite, layout.Collection(), err)
	}
	if err := replacePlays(layout, raw.PlayPages); err != nil {
		return types.NewStageError(types.StageWrite, layout.PlaysDir(), err)
	}
	return nil
}

func replacePlays(layout paths.Layout, pages [][]byte) error {
	if err := os.MkdirAll(layout.Root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	staging, err := os.MkdirTemp(layout.Root, ".plays-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	staged := paths.NewLayout(staging)
	for i, page := range pages {
		name := filepath.Base(staged.PlayPage(i + 1))
		if err := atomicfile.WriteBytes(filepath.Join(staging, name), page); err != nil {
			return err
		}
	}

	old := layout.PlaysDir() + ".old"
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("clear previous plays: %w", err)
	}
	if err := os.Rename(layout.PlaysDir(), old); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("move previous plays aside: %w", err)
	}
	if err := os.Rename(staging, layout.PlaysDir()); err != nil {
		return fmt.Errorf("install plays: %w", err)
	}
	return os.RemoveAll(old)
}

// LoadRaw reads what SaveRaw wrote. A missing collection or plays
// directory is reported as types.ErrNotFound.
func LoadRaw(layout paths.Layout) (Raw, error) {
	collection, err := os.ReadFile(layout.Collection())
	if err != nil {
		return Raw{}, types.NewStageError(types.StageParse, layout.Collection(), notFound(err))
	}

	if _, err := os.Stat(layout.PlaysDir()); err != nil {
		return Raw{}, types.NewStageError(types.StageParse, layout.PlaysDir(), notFound(err))
	}
	names, err := filepath.Glob(layout.PlayPagePattern())
	if err != nil {
		return Raw{}, types.NewStageError(types.StageParse, layout.PlaysDir(), err)
	}
	sort.Strings(names)

	raw := Raw{Collection: collection}
	for _, name := range names {
		data, err := os.ReadFile(name)
		if err != nil {
			return Raw{}, types.NewStageError(types.StageParse, name, err)
		}
		raw.PlayPages = append(raw.PlayPages, data)
	}
	return raw, nil
}

func notFound(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: run fetch first", types.ErrNotFound)
	}
	return err
}
