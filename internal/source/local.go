package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/denismitr/migraph/internal/deps"
	"github.com/denismitr/migraph/internal/logger"
	"github.com/denismitr/migraph/migration"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type LocalFileSource struct {
	root      string
	lg        logger.Logger
	rules     Rules
	extractor *deps.Extractor
}

var _ Selector = (*LocalFileSource)(nil)

func NewLocalFSSource(root string, lg logger.Logger, rules Rules) *LocalFileSource {
	rules = rules.withDefaults()

	return &LocalFileSource{
		root:      root,
		lg:        lg,
		rules:     rules,
		extractor: deps.NewExtractor(rules.Assignment),
	}
}

func (lfs *LocalFileSource) IsValid() bool {
	info, err := os.Stat(lfs.root)
	if err != nil {
		return false
	}

	return info.IsDir()
}

// Select discovers every migration file under the root and extracts its
// dependencies. Files are read concurrently, each into its own slot, and
// the result is ordered by app and name afterwards.
func (lfs *LocalFileSource) Select(ctx context.Context) (migration.Migrations, error) {
	if !lfs.IsValid() {
		return nil, errors.Wrapf(ErrRootInvalid, "%s", lfs.root)
	}

	paths, err := lfs.Discover(ctx)
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, errors.Wrapf(ErrNoMigrations, "under %s", lfs.root)
	}

	result := make(migration.Migrations, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lfs.rules.Concurrency)

	for i := range paths {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result[i] = lfs.readOne(paths[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result.Ordered(), nil
}

// Discover walks the root and returns the sorted paths of all files that
// look like migrations. Entries that cannot be read are skipped.
func (lfs *LocalFileSource) Discover(ctx context.Context) ([]string, error) {
	var paths []string

	rootName := filepath.Base(lfs.root)
	if abs, err := filepath.Abs(lfs.root); err == nil {
		rootName = filepath.Base(abs)
	}

	err := filepath.WalkDir(lfs.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			lfs.lg.Debugf("skipping %s: %s", path, err.Error())
			return nil
		}

		if d.IsDir() || !lfs.isMigrationFile(rootName, path) {
			return nil
		}

		paths = append(paths, path)

		return nil
	})

	if err != nil {
		return nil, errors.Wrapf(err, "could not walk %s", lfs.root)
	}

	sort.Strings(paths)

	lfs.lg.Debugf("discovered %d migration files under %s", len(paths), lfs.root)

	return paths, nil
}

// isMigrationFile only looks at folders from the root down, so a root that
// itself lives somewhere under a migrations folder does not match every file.
func (lfs *LocalFileSource) isMigrationFile(rootName, path string) bool {
	filename := filepath.Base(path)

	if !strings.HasSuffix(filename, "."+lfs.rules.Extension) {
		return false
	}

	if strings.HasPrefix(filename, lfs.rules.Initializer) {
		return false
	}

	rel, err := filepath.Rel(lfs.root, filepath.Dir(path))
	if err != nil {
		return false
	}

	for _, segment := range strings.Split(filepath.ToSlash(filepath.Join(rootName, rel)), "/") {
		if segment == lfs.rules.MigrationsDir {
			return true
		}
	}

	return false
}

// readOne never fails: a file that cannot be read or scanned is still a
// migration, it just has no known dependencies.
func (lfs *LocalFileSource) readOne(path string) *migration.Migration {
	result, err := lfs.extractor.ExtractFile(path)
	if err != nil {
		lfs.lg.Error(err)
	}

	for _, skipped := range result.Skipped {
		lfs.lg.Debugf("%s: ignoring dependency entry %s", path, skipped)
	}

	m, _ := migration.NewMigrationFromFile(path, lfs.rules.Extension, result.Dependencies)()

	return m
}
