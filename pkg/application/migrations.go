package application

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationManager collects module schema files and applies them in order.
// Schemas are written to be idempotent (CREATE TABLE IF NOT EXISTS), so
// applying on every boot is safe.
type MigrationManager struct {
	pool    *pgxpool.Pool
	schemas []*embed.FS
}

func NewMigrationManager(pool *pgxpool.Pool) *MigrationManager {
	return &MigrationManager{pool: pool}
}

func (m *MigrationManager) RegisterSchema(fsys *embed.FS) {
	m.schemas = append(m.schemas, fsys)
}

func (m *MigrationManager) Apply(ctx context.Context) error {
	for _, fsys := range m.schemas {
		files, err := listSQLFiles(fsys)
		if err != nil {
			return err
		}
		for _, file := range files {
			sql, err := fsys.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read schema %s: %w", file, err)
			}
			if _, err := m.pool.Exec(ctx, string(sql)); err != nil {
				return fmt.Errorf("apply schema %s: %w", file, err)
			}
		}
	}
	return nil
}

func listSQLFiles(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".sql") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
