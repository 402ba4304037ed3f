package store

import (
	"context"
	"fmt"
)

// Open picks Postgres when dsn is set and the file store otherwise. The
// returned close func is never nil.
func Open(ctx context.Context, dataDir, dsn string) (Backend, func(), error) {
	if dsn == "" {
		fs, err := NewFileStore(dataDir)
		if err != nil {
			return nil, func() {}, err
		}
		return fs, func() {}, nil
	}
	db, err := Connect(ctx, dsn)
	if err != nil {
		return nil, func() {}, fmt.Errorf("postgres connect: %w", err)
	}
	pg, err := NewPostgresStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, func() {}, fmt.Errorf("postgres schema: %w", err)
	}
	return pg, db.Close, nil
}
