package storage

import (
	"errors"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

type BadgerHelper struct {
	db *badgerdb.DB
}

// NewBadger opens a badger database at path, or an in-memory one when path is
// empty. Badger's own logging goes to logger.
func NewBadger(path string, logger *zap.SugaredLogger) (KvStore, error) {
	opts := badgerdb.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts = opts.WithSyncWrites(true)
	}
	opts = opts.WithLogger(&badgerLogger{logger: logger}).WithNumVersionsToKeep(1)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerHelper{db: db}, nil
}

func (h *BadgerHelper) Close() error {
	return h.db.Close()
}

func (h *BadgerHelper) Get(key []byte) ([]byte, error) {
	var value []byte
	err := h.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, ErrNotFound
	}

	return value, err
}

func (h *BadgerHelper) Put(key, value []byte) error {
	return h.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, value)
	})
}

func (h *BadgerHelper) Delete(key []byte) error {
	return h.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(key)
	})
}

func (h *BadgerHelper) NewBatch() Batch {
	return &badgerBatch{wb: h.db.NewWriteBatch()}
}

type badgerBatch struct {
	wb  *badgerdb.WriteBatch
	err error
}

func (b *badgerBatch) Put(key, value []byte) {
	if b.err == nil {
		b.err = b.wb.Set(key, value)
	}
}

func (b *badgerBatch) Delete(key []byte) {
	if b.err == nil {
		b.err = b.wb.Delete(key)
	}
}

func (b *badgerBatch) Write() error {
	if b.err != nil {
		b.wb.Cancel()
		return b.err
	}

	return b.wb.Flush()
}

// badgerLogger routes badger's logging to zap.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

var _ badgerdb.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}
