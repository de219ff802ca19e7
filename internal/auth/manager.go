// Package auth implements local account management for the waterwatch
// client: registration, login, logout, password change and profile update
// over an encrypted key-value store.
//
// Every mutating operation returns a Result instead of an error. Validation,
// conflict and authentication failures carry the message to show the user;
// storage faults are reported as "<operation> failed: <cause>". Nothing
// escapes a Manager method as a panic.
//
// Passwords are stored as argon2id hashes. Records written by older versions
// may still hold a plaintext password; such a value is accepted once and
// replaced by a hash on the next successful login.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/waterwatch/internal/common"
	"github.com/dmitrijs2005/waterwatch/internal/cryptox"
	"github.com/dmitrijs2005/waterwatch/internal/logging"
	"github.com/dmitrijs2005/waterwatch/internal/securestore"
)

// User is the view of an account returned by CurrentUser.
// Password is never populated by CurrentUser.
type User struct {
	FullName     string
	MobileNumber string
	Email        string
	Password     string
}

// Session identifies the logged-in user.
type Session struct {
	FullName     string
	MobileNumber string
}

// Option configures a Manager.
type Option func(*Manager)

// WithHashParams overrides the argon2id cost used for new password hashes.
func WithHashParams(p cryptox.Params) Option {
	return func(m *Manager) { m.params = p }
}

// Manager owns the credential records and the session slot.
//
// Operations are serialized, so a check-then-write sequence such as the
// duplicate check in Register cannot interleave with another operation on
// the same Manager. Multi-key writes are applied as one atomic batch.
type Manager struct {
	store  securestore.Store
	creds  credentials
	log    logging.Logger
	params cryptox.Params

	mu      sync.Mutex
	session *Session
	// stale is set when Logout could not remove the persisted session.
	stale bool
}

// NewManager restores the persisted session from store. A session whose
// user record no longer exists is removed.
func NewManager(ctx context.Context, store securestore.Store, log logging.Logger, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:  store,
		creds:  credentials{store: store},
		log:    log.With("component", "auth"),
		params: cryptox.DefaultParams,
	}
	for _, o := range opts {
		o(m)
	}

	if err := m.restore(ctx); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return m, nil
}

func (m *Manager) restore(ctx context.Context) error {
	s, err := m.creds.session(ctx)
	if err != nil || s == nil {
		return err
	}

	ok, err := m.creds.exists(ctx, s.MobileNumber)
	if err != nil {
		return err
	}
	if !ok {
		m.log.Warn(ctx, "dropping session without user record", "mobile", mask(s.MobileNumber))
		return m.store.Apply(ctx, removeSession(securestore.NewBatch()))
	}

	m.session = s
	return nil
}

// dropStale retries the session removal a failed Logout left behind.
// m.mu must be held.
func (m *Manager) dropStale(ctx context.Context) {
	if !m.stale || m.session != nil {
		return
	}
	if err := m.store.Apply(ctx, removeSession(securestore.NewBatch())); err != nil {
		m.log.Warn(ctx, "failed to remove stale session", "error", err)
		return
	}
	m.stale = false
}

func mask(mobile string) string {
	return common.MaskTail(mobile, 4)
}

// fail logs a storage fault and turns it into a Result.
func (m *Manager) fail(ctx context.Context, op string, err error) Result {
	m.log.Error(ctx, "auth operation failed", "op", op, "error", err)
	return failure(KindStorage, fmt.Sprintf("%s failed: %v", op, err))
}

// guard converts a panic inside an operation into a storage Result.
func (m *Manager) guard(ctx context.Context, op string, res *Result) {
	if p := recover(); p != nil {
		*res = m.fail(ctx, op, fmt.Errorf("%v", p))
	}
}

// checkPassword compares candidate with the stored value. legacy is true
// when the stored value is a plaintext password.
func checkPassword(stored, candidate string) (ok, legacy bool, err error) {
	if cryptox.IsPasswordHash(stored) {
		ok, err = cryptox.VerifyPassword(stored, candidate)
		return ok, false, err
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1, true, nil
}

// Register creates a new account. It does not log the user in.
func (m *Manager) Register(ctx context.Context, fullName, mobileNumber, password, email string) (res Result) {
	const op = "Registration"
	defer m.guard(ctx, op, &res)

	if isBlank(fullName) || isBlank(mobileNumber) || isBlank(password) {
		return failure(KindValidation, msgAllFieldsRequired)
	}
	if !ValidMobile(mobileNumber) {
		return failure(KindValidation, msgInvalidMobile)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return failure(KindValidation, msgPasswordTooShort)
	}
	if !isBlank(email) && !ValidEmail(email) {
		return failure(KindValidation, msgInvalidEmail)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropStale(ctx)

	exists, err := m.creds.exists(ctx, mobileNumber)
	if err != nil {
		return m.fail(ctx, op, err)
	}
	if exists {
		return failure(KindConflict, msgUserExists)
	}

	rec := record{
		FullName:     fullName,
		Mobile:       mobileNumber,
		PasswordHash: cryptox.HashPassword(password, m.params),
		Email:        email,
	}
	if err := m.store.Apply(ctx, putRecord(securestore.NewBatch(), rec)); err != nil {
		return m.fail(ctx, op, err)
	}

	m.log.Info(ctx, "user registered", "mobile", mask(mobileNumber))
	return success(msgRegistered)
}

// Login verifies the credentials and starts a session.
func (m *Manager) Login(ctx context.Context, mobileNumber, password string) (res Result) {
	const op = "Login"
	defer m.guard(ctx, op, &res)

	if isBlank(mobileNumber) || isBlank(password) {
		return failure(KindValidation, msgLoginFieldsMissing)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.creds.get(ctx, mobileNumber)
	if err != nil {
		return m.fail(ctx, op, err)
	}
	if rec == nil {
		return failure(KindAuthentication, msgUserNotFound)
	}

	ok, legacy, err := checkPassword(rec.PasswordHash, password)
	if err != nil {
		return m.fail(ctx, op, err)
	}
	if !ok {
		m.log.Info(ctx, "login rejected", "mobile", mask(mobileNumber))
		return failure(KindAuthentication, msgIncorrectPassword)
	}

	s := Session{FullName: rec.FullName, MobileNumber: rec.Mobile}
	b := putSession(securestore.NewBatch(), s)
	if legacy {
		b.Put(userKey(mobileNumber, fieldPassword), cryptox.HashPassword(password, m.params))
	}
	if err := m.store.Apply(ctx, b); err != nil {
		return m.fail(ctx, op, err)
	}
	m.session = &s
	m.stale = false

	m.log.Info(ctx, "user logged in", "mobile", mask(mobileNumber), "rehashed", legacy)
	return success(msgLoggedIn)
}

// Logout ends the session. It is idempotent and cannot fail from the
// caller's point of view: the in-memory session is always cleared, and a
// store error is only logged. The removal of the persisted session is then
// retried by the next Register, CurrentUser or IsLoggedIn call; until it
// succeeds a new Manager over the same store restores the old session.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
	if err := m.store.Apply(ctx, removeSession(securestore.NewBatch())); err != nil {
		m.log.Error(ctx, "failed to remove session", "error", err)
		m.stale = true
		return
	}
	m.stale = false
}

// CurrentUser returns the logged-in user, with the email re-read from the
// user record. When the record cannot be read the identity is still
// returned, with an empty email.
func (m *Manager) CurrentUser(ctx context.Context) (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		m.dropStale(ctx)
		return User{}, false
	}

	u := User{FullName: m.session.FullName, MobileNumber: m.session.MobileNumber}
	rec, err := m.creds.get(ctx, m.session.MobileNumber)
	switch {
	case err != nil:
		m.log.Warn(ctx, "failed to read user record", "mobile", mask(u.MobileNumber), "error", err)
	case rec == nil:
		m.log.Warn(ctx, "session without user record", "mobile", mask(u.MobileNumber))
	default:
		u.Email = rec.Email
	}
	return u, true
}

// IsLoggedIn reports whether CurrentUser would return a user.
func (m *Manager) IsLoggedIn(ctx context.Context) bool {
	_, ok := m.CurrentUser(ctx)
	return ok
}

// ChangePassword replaces the password of the logged-in user. The session
// is left untouched.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) (res Result) {
	const op = "Password change"
	defer m.guard(ctx, op, &res)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return failure(KindConsistency, msgNotLoggedIn)
	}
	mobile := m.session.MobileNumber

	rec, err := m.creds.get(ctx, mobile)
	if err != nil {
		return m.fail(ctx, op, err)
	}
	if rec == nil {
		return failure(KindConsistency, msgUserDataNotFound)
	}

	ok, _, err := checkPassword(rec.PasswordHash, oldPassword)
	if err != nil {
		return m.fail(ctx, op, err)
	}
	if !ok {
		return failure(KindAuthentication, msgWrongOldPassword)
	}
	if msg := CheckPasswordPolicy(newPassword); msg != "" {
		return failure(KindValidation, msg)
	}

	b := securestore.NewBatch().Put(userKey(mobile, fieldPassword), cryptox.HashPassword(newPassword, m.params))
	if err := m.store.Apply(ctx, b); err != nil {
		return m.fail(ctx, op, err)
	}

	m.log.Info(ctx, "password changed", "mobile", mask(mobile))
	return success(msgPasswordChanged)
}

// UpdateProfile changes name, mobile number and email of the logged-in
// user. A new mobile number moves the record to the new key; the password
// is carried over unchanged. Record and session are written in one batch.
func (m *Manager) UpdateProfile(ctx context.Context, newName, newMobileNumber, newEmail string) (res Result) {
	const op = "Profile update"
	defer m.guard(ctx, op, &res)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return failure(KindConsistency, msgNotLoggedIn)
	}
	current := m.session.MobileNumber

	rec, err := m.creds.get(ctx, current)
	if err != nil {
		return m.fail(ctx, op, err)
	}
	if rec == nil {
		return failure(KindConsistency, msgUserDataNotFound)
	}

	if isBlank(newName) {
		return failure(KindValidation, msgNameEmpty)
	}
	if isBlank(newMobileNumber) {
		return failure(KindValidation, msgMobileEmpty)
	}

	moved := newMobileNumber != current
	if moved {
		taken, err := m.creds.exists(ctx, newMobileNumber)
		if err != nil {
			return m.fail(ctx, op, err)
		}
		if taken {
			return failure(KindConflict, msgMobileTaken)
		}
	}
	if !isBlank(newEmail) && !ValidEmail(newEmail) {
		return failure(KindValidation, msgInvalidEmail)
	}

	b := securestore.NewBatch()
	if moved {
		removeRecord(b, current)
	}
	putRecord(b, record{
		FullName:     newName,
		Mobile:       newMobileNumber,
		PasswordHash: rec.PasswordHash,
		Email:        newEmail,
	})
	s := Session{FullName: newName, MobileNumber: newMobileNumber}
	putSession(b, s)

	if err := m.store.Apply(ctx, b); err != nil {
		return m.fail(ctx, op, err)
	}
	m.session = &s

	m.log.Info(ctx, "profile updated", "mobile", mask(newMobileNumber), "moved", moved)
	return success(msgProfileUpdated)
}
