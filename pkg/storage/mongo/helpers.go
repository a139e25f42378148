package mongo

import (
	"context"

	"community/pkg/storage"
)

var MongoTestConf = Config{
	Host:   "localhost",
	Port:   "27018",
	DBName: "community_test",
}

// StorageConnect is a helper function that establishes a connection to the predefined test Mongo instance.
// It returns a connected Storage object or an error if connection fails.
func StorageConnect(ctx context.Context) (*Storage, error) {
	db, err := New(ctx, MongoTestConf)
	if err != nil {
		return nil, storage.ErrConnectDB
	}

	err = db.Ping(ctx)
	if err != nil {
		db.Close(ctx)
		return nil, storage.ErrDBNotResponding
	}

	return db, nil
}

// RestoreDB drops the collections to reset the database state.
// WARNING: Use only in tests to avoid data loss.
func RestoreDB(ctx context.Context, db *Storage) error {
	for _, name := range []string{postsCollection, commentsCollection} {
		if err := db.collection(name).Drop(ctx); err != nil {
			return err
		}
	}
	return nil
}
