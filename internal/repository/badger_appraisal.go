package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/alexanderramin/appraise/internal/domain"
)

// BadgerAppraisalRepo stores each appraisal field under its own key,
// "appraisal/<id>/<field>", so a stream commit rewrites only its key.
type BadgerAppraisalRepo struct {
	db *badger.DB
}

var _ AppraisalRepo = (*BadgerAppraisalRepo)(nil)

func NewBadgerAppraisalRepo(db *badger.DB) *BadgerAppraisalRepo {
	return &BadgerAppraisalRepo{db: db}
}

const badgerPrefix = "appraisal/"

func badgerKey(id, field string) []byte {
	return []byte(badgerPrefix + id + "/" + field)
}

func (r *BadgerAppraisalRepo) Create(ctx context.Context, a *domain.Appraisal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fields, err := encodeAppraisal(a)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerKey(a.ID, fieldMeta)); err == nil {
			return fmt.Errorf("create appraisal: %s already exists", a.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("create appraisal: %w", err)
		}
		for name, value := range fields {
			if err := txn.Set(badgerKey(a.ID, name), []byte(value)); err != nil {
				return fmt.Errorf("create appraisal: %w", err)
			}
		}
		return nil
	})
}

func (r *BadgerAppraisalRepo) Read(ctx context.Context, id string) (*domain.Appraisal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var a *domain.Appraisal
	err := r.db.View(func(txn *badger.Txn) error {
		fields, err := readFields(txn, id)
		if err != nil {
			return err
		}
		a, err = decodeAppraisal(fields)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("appraisal %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (r *BadgerAppraisalRepo) List(ctx context.Context) ([]*domain.Appraisal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*domain.Appraisal
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		var ids []string
		suffix := []byte("/" + fieldMeta)
		for it.Seek([]byte(badgerPrefix)); it.ValidForPrefix([]byte(badgerPrefix)); it.Next() {
			key := it.Item().Key()
			if bytes.HasSuffix(key, suffix) {
				ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(string(key), badgerPrefix), string(suffix)))
			}
		}
		it.Close()

		for _, id := range ids {
			fields, err := readFields(txn, id)
			if err != nil {
				return err
			}
			a, err := decodeAppraisal(fields)
			if err != nil {
				return err
			}
			out = append(out, a)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list appraisals: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *BadgerAppraisalRepo) Update(ctx context.Context, id string, patch AppraisalPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fields, err := encodePatch(patch, time.Now())
	if err != nil {
		return err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerKey(id, fieldMeta)); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("appraisal %s: %w", id, ErrNotFound)
		} else if err != nil {
			return err
		}
		for name, value := range fields {
			if err := txn.Set(badgerKey(id, name), []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("update appraisal: %w", err)
	}
	return err
}

func (r *BadgerAppraisalRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerKey(id, fieldMeta)); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("appraisal %s: %w", id, ErrNotFound)
		} else if err != nil {
			return err
		}
		for _, name := range allFields {
			if err := txn.Delete(badgerKey(id, name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete appraisal: %w", err)
	}
	return err
}

var allFields = []string{
	fieldMeta, fieldStatus, fieldCompletion, fieldUpdatedAt,
	fieldSections, fieldAdjustments, fieldEffectiveAge,
}

func readFields(txn *badger.Txn, id string) (map[string]string, error) {
	fields := make(map[string]string, len(allFields))
	for _, name := range allFields {
		item, err := txn.Get(badgerKey(id, name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		fields[name] = string(value)
	}
	if _, ok := fields[fieldMeta]; !ok {
		return nil, ErrNotFound
	}
	return fields, nil
}
