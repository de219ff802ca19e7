// Package securestore is a persistent, encrypted string key-value store.
//
// Keys are blinded with a namespace-specific HMAC before they reach disk and
// values are sealed with AES-GCM, so the database file reveals neither. All
// writes go through a Batch, which is applied atomically.
package securestore

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/waterwatch/internal/common"
)

// DefaultNamespace is the namespace holding credentials and session state.
const DefaultNamespace = "secure_user_data"

// ErrCorrupted is returned when a stored value fails authentication, which
// happens when the file was modified or opened with a different master key.
var ErrCorrupted = common.ErrorCorrupted

// ErrEmptyKey is returned by Apply for a batch containing an empty key.
var ErrEmptyKey = errors.New("empty key")

// Store is the contract consumed by the auth core.
//
// Get returns ok == false when the key is absent. Apply writes every
// operation of the batch, in order, or none of them.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Apply(ctx context.Context, b *Batch) error
}

type opKind int

const (
	opPut opKind = iota
	opRemove
)

type op struct {
	kind  opKind
	key   string
	value string
}

// Batch collects puts and removes to be applied together.
//
//	b := securestore.NewBatch().
//	    Put("current_user_name", name).
//	    Put("current_user_mobile", mobile)
//	err := store.Apply(ctx, b)
type Batch struct {
	ops []op
}

func NewBatch() *Batch {
	return &Batch{}
}

// Put schedules key to be set to value.
func (b *Batch) Put(key, value string) *Batch {
	b.ops = append(b.ops, op{kind: opPut, key: key, value: value})
	return b
}

// Remove schedules key to be deleted. Removing an absent key is not an error.
func (b *Batch) Remove(key string) *Batch {
	b.ops = append(b.ops, op{kind: opRemove, key: key})
	return b
}

// Len returns the number of scheduled operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

func (b *Batch) validate() error {
	for _, o := range b.ops {
		if o.key == "" {
			return ErrEmptyKey
		}
	}
	return nil
}

// Each calls fn for every scheduled operation in order, stopping at the
// first error. remove is true for Remove operations.
func (b *Batch) Each(fn func(key, value string, remove bool) error) error {
	for _, o := range b.ops {
		if err := fn(o.key, o.value, o.kind == opRemove); err != nil {
			return err
		}
	}
	return nil
}
