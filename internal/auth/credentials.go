package auth

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/waterwatch/internal/securestore"
)

// Logical key layout inside the secure store.
const (
	sessionNameKey   = "current_user_name"
	sessionMobileKey = "current_user_mobile"

	fieldName     = "name"
	fieldMobile   = "mobile"
	fieldPassword = "password"
	fieldEmail    = "email"
)

var recordFields = []string{fieldName, fieldMobile, fieldPassword, fieldEmail}

func userKey(mobile, field string) string {
	return "user_" + mobile + "_" + field
}

// record is a stored UserRecord. PasswordHash normally holds an argon2id
// PHC string; values written by older versions may still be plaintext.
type record struct {
	FullName     string
	Mobile       string
	PasswordHash string
	Email        string
}

// credentials reads user records and the session slot from the store.
// Writes are expressed as batch operations so callers can combine them.
type credentials struct {
	store securestore.Store
}

// get returns the record stored under mobile, or nil when name, mobile or
// password is missing. A missing email resolves to "".
func (c credentials) get(ctx context.Context, mobile string) (*record, error) {
	values := make(map[string]string, len(recordFields))
	for _, f := range recordFields {
		v, ok, err := c.store.Get(ctx, userKey(mobile, f))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		if !ok {
			if f == fieldEmail {
				continue
			}
			return nil, nil
		}
		values[f] = v
	}

	return &record{
		FullName:     values[fieldName],
		Mobile:       values[fieldMobile],
		PasswordHash: values[fieldPassword],
		Email:        values[fieldEmail],
	}, nil
}

func (c credentials) exists(ctx context.Context, mobile string) (bool, error) {
	r, err := c.get(ctx, mobile)
	return r != nil, err
}

// session returns the persisted session, or nil when either field is absent.
func (c credentials) session(ctx context.Context) (*Session, error) {
	name, ok, err := c.store.Get(ctx, sessionNameKey)
	if err != nil || !ok {
		return nil, err
	}
	mobile, ok, err := c.store.Get(ctx, sessionMobileKey)
	if err != nil || !ok {
		return nil, err
	}
	return &Session{FullName: name, MobileNumber: mobile}, nil
}

func putRecord(b *securestore.Batch, r record) *securestore.Batch {
	return b.
		Put(userKey(r.Mobile, fieldName), r.FullName).
		Put(userKey(r.Mobile, fieldMobile), r.Mobile).
		Put(userKey(r.Mobile, fieldPassword), r.PasswordHash).
		Put(userKey(r.Mobile, fieldEmail), r.Email)
}

func removeRecord(b *securestore.Batch, mobile string) *securestore.Batch {
	for _, f := range recordFields {
		b.Remove(userKey(mobile, f))
	}
	return b
}

func putSession(b *securestore.Batch, s Session) *securestore.Batch {
	return b.Put(sessionNameKey, s.FullName).Put(sessionMobileKey, s.MobileNumber)
}

func removeSession(b *securestore.Batch) *securestore.Batch {
	return b.Remove(sessionNameKey).Remove(sessionMobileKey)
}
