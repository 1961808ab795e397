package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// Options select and configure a backend.
type Options struct {
	Backend         string
	Dir             string // file
	RedisURL        string // redis
	Prefix          string // redis key prefix
	MongoURI        string // mongo
	MongoDatabase   string
	MongoCollection string
}

// Open creates the backend named by opts.Backend. An empty backend means
// file when a directory is given and memory otherwise.
func Open(ctx context.Context, opts Options) (Cache, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendMemory
		if opts.Dir != "" {
			backend = BackendFile
		}
	}

	switch backend {
	case BackendFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("file cache: no directory configured")
		}
		return NewFileCache(opts.Dir)
	case BackendMemory:
		return NewMemoryCache(), nil
	case BackendRedis:
		return NewRedisCache(ctx, opts.RedisURL, opts.Prefix)
	case BackendMongo:
		db := opts.MongoDatabase
		if db == "" {
			db = "unformer"
		}
		return NewMongoCache(ctx, opts.MongoURI, db, opts.MongoCollection)
	case BackendNone:
		return NewNullCache(), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", backend)
}
