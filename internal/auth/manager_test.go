package auth

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/waterwatch/internal/cryptox"
	"github.com/dmitrijs2005/waterwatch/internal/dbx"
	"github.com/dmitrijs2005/waterwatch/internal/logging"
	"github.com/dmitrijs2005/waterwatch/internal/securestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

var testParams = cryptox.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func newSQLiteStore(t *testing.T, dir string) securestore.Store {
	t.Helper()
	db, err := dbx.Open(context.Background(), filepath.Join(dir, "waterwatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := cryptox.NewSealer(bytes.Repeat([]byte{9}, cryptox.MasterKeySize), securestore.DefaultNamespace)
	require.NoError(t, err)
	return securestore.NewSQLiteStore(db, s)
}

func newManager(t *testing.T, store securestore.Store) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), store, logging.Nop(), WithHashParams(testParams))
	require.NoError(t, err)
	return m
}

func setup(t *testing.T) (*Manager, securestore.Store) {
	t.Helper()
	store := newSQLiteStore(t, t.TempDir())
	return newManager(t, store), store
}

func registerAndLogin(t *testing.T, m *Manager, name, mobile, password, email string) {
	t.Helper()
	ctx := context.Background()
	require.True(t, m.Register(ctx, name, mobile, password, email).OK())
	require.True(t, m.Login(ctx, mobile, password).OK())
}

func requireError(t *testing.T, r Result, kind Kind, msg string) {
	t.Helper()
	require.Equal(t, StatusError, r.Status, r.String())
	require.Equal(t, kind, r.Kind, r.String())
	require.Equal(t, msg, r.Message)
}

func storedValue(t *testing.T, s securestore.Store, key string) (string, bool) {
	t.Helper()
	v, ok, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	return v, ok
}

// ---- fake store ----

// memStore is an in-memory Store whose calls can be made to fail.
type memStore struct {
	mu       sync.Mutex
	data     map[string]string
	getErr   error
	applyErr error
	applies  int
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Apply(_ context.Context, b *securestore.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applies++
	if s.applyErr != nil {
		return s.applyErr
	}
	return b.Each(func(key, value string, remove bool) error {
		if remove {
			delete(s.data, key)
		} else {
			s.data[key] = value
		}
		return nil
	})
}

// panicStore panics on every call.
type panicStore struct{}

func (panicStore) Get(context.Context, string) (string, bool, error) { panic("boom") }
func (panicStore) Apply(context.Context, *securestore.Batch) error { panic("boom") }

// ---- TESTS ----

func TestRegisterLogin_EndToEnd(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	r := m.Register(ctx, "Jane Doe", "9876543210", "Passw0rd!", "")
	require.Equal(t, success("Registration successful!"), r)
	require.False(t, m.IsLoggedIn(ctx), "register must not log the user in")

	r = m.Login(ctx, "9876543210", "Passw0rd!")
	require.Equal(t, success("Login successful!"), r)
	require.True(t, m.IsLoggedIn(ctx))

	u, ok := m.CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, User{FullName: "Jane Doe", MobileNumber: "9876543210"}, u)
}

func TestLogin_UnknownUser(t *testing.T) {
	m, _ := setup(t)

	r := m.Login(context.Background(), "1234567890", "whatever1")
	requireError(t, r, KindAuthentication, "User not found. Please check your mobile number")
}

func TestRegister_ShortPasswordCreatesNothing(t *testing.T) {
	m, store := setup(t)
	ctx := context.Background()

	r := m.Register(ctx, "Jane Doe", "9876543210", "short1!", "")
	requireError(t, r, KindValidation, "Password must be at least 8 characters long")

	_, ok := storedValue(t, store, "user_9876543210_name")
	require.False(t, ok)

	require.True(t, m.Register(ctx, "Jane Doe", "9876543210", "Passw0rd!", "").OK())
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		mobile   string
		password string
		email    string
		want     string
	}{
		{"blank name", "  ", "9876543210", "Passw0rd!", "", msgAllFieldsRequired},
		{"blank mobile", "Jane", "", "Passw0rd!", "", msgAllFieldsRequired},
		{"blank password", "Jane", "9876543210", " ", "", msgAllFieldsRequired},
		{"short mobile", "Jane", "987654321", "Passw0rd!", "", msgInvalidMobile},
		{"letters in mobile", "Jane", "98765abcde", "Passw0rd!", "", msgInvalidMobile},
		{"eleven digits", "Jane", "98765432101", "Passw0rd!", "", msgInvalidMobile},
		{"short password", "Jane", "9876543210", "1234567", "", msgPasswordTooShort},
		{"bad email", "Jane", "9876543210", "Passw0rd!", "jane@", msgInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := setup(t)
			r := m.Register(context.Background(), tt.fullName, tt.mobile, tt.password, tt.email)
			requireError(t, r, KindValidation, tt.want)
		})
	}
}

func TestRegister_DuplicateMobile(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	require.True(t, m.Register(ctx, "Jane Doe", "9876543210", "Passw0rd!", "").OK())

	r := m.Register(ctx, "John Roe", "9876543210", "Other123?", "john@example.com")
	requireError(t, r, KindConflict, "User with this mobile number already exists")

	// the first record is untouched
	require.True(t, m.Login(ctx, "9876543210", "Passw0rd!").OK())
	u, _ := m.CurrentUser(ctx)
	assert.Equal(t, "Jane Doe", u.FullName)
}

func TestRegister_ConcurrentSameMobile(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	const n = 8
	results := make([]Result, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.Register(ctx, "Jane Doe", "9876543210", "Passw0rd!", "")
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, r := range results {
		switch {
		case r.OK():
			ok++
		case r.Kind == KindConflict:
			conflict++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflict)
}

func TestRegister_StoresHashNotPassword(t *testing.T) {
	m, store := setup(t)
	require.True(t, m.Register(context.Background(), "Jane Doe", "9876543210", "Passw0rd!", "").OK())

	v, ok := storedValue(t, store, "user_9876543210_password")
	require.True(t, ok)
	assert.True(t, cryptox.IsPasswordHash(v))
	assert.NotContains(t, v, "Passw0rd!")

	email, ok := storedValue(t, store, "user_9876543210_email")
	require.True(t, ok)
	assert.Equal(t, "", email)
}

func TestLogin_Validation(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	requireError(t, m.Login(ctx, "", "Passw0rd!"), KindValidation, msgLoginFieldsMissing)
	requireError(t, m.Login(ctx, "9876543210", "   "), KindValidation, msgLoginFieldsMissing)
}

func TestLogin_ExactPasswordMatch(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()
	require.True(t, m.Register(ctx, "Jane Doe", "9876543210", "Passw0rd!", "").OK())

	for _, wrong := range []string{"passw0rd!", "Passw0rd", "Passw0rd! ", "x"} {
		requireError(t, m.Login(ctx, "9876543210", wrong), KindAuthentication, "Incorrect password")
		require.False(t, m.IsLoggedIn(ctx))
	}
	require.True(t, m.Login(ctx, "9876543210", "Passw0rd!").OK())
}

func TestLogin_UpgradesLegacyPlaintext(t *testing.T) {
	m, store := setup(t)
	ctx := context.Background()

	legacy := securestore.NewBatch().
		Put("user_5551234567_name", "Old Timer").
		Put("user_5551234567_mobile", "5551234567").
		Put("user_5551234567_password", "Abc12345!")
	require.NoError(t, store.Apply(ctx, legacy))

	requireError(t, m.Login(ctx, "5551234567", "Abc12345"), KindAuthentication, msgIncorrectPassword)
	require.True(t, m.Login(ctx, "5551234567", "Abc12345!").OK())

	v, _ := storedValue(t, store, "user_5551234567_password")
	assert.True(t, cryptox.IsPasswordHash(v))

	// missing email resolves to ""
	u, ok := m.CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "", u.Email)

	m.Logout(ctx)
	require.True(t, m.Login(ctx, "5551234567", "Abc12345!").OK())
}

func TestLogout_Idempotent(t *testing.T) {
	m, store := setup(t)
	ctx := context.Background()
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Passw0rd!", "")

	m.Logout(ctx)
	assert.False(t, m.IsLoggedIn(ctx))
	m.Logout(ctx)
	assert.False(t, m.IsLoggedIn(ctx))

	_, ok := storedValue(t, store, "current_user_name")
	assert.False(t, ok)
	_, ok = storedValue(t, store, "current_user_mobile")
	assert.False(t, ok)
}

func TestLogout_StoreErrorStillClearsSession(t *testing.T) {
	store := newMemStore()
	m := newManager(t, store)
	ctx := context.Background()
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Passw0rd!", "")

	store.applyErr = errors.New("disk full")
	m.Logout(ctx)
	assert.False(t, m.IsLoggedIn(ctx))
}

func TestLogout_FailedRemovalIsRetried(t *testing.T) {
	store := newMemStore()
	m := newManager(t, store)
	ctx := context.Background()
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Passw0rd!", "")

	store.applyErr = errors.New("disk full")
	m.Logout(ctx)
	assert.False(t, m.IsLoggedIn(ctx))

	// until the removal is retried, a restart still sees the old session
	store.applyErr = nil
	restarted := newManager(t, store)
	assert.True(t, restarted.IsLoggedIn(ctx))

	// the next call on the logged-out manager removes it
	assert.False(t, m.IsLoggedIn(ctx))
	assert.NotContains(t, store.data, "current_user_name")
	assert.NotContains(t, store.data, "current_user_mobile")

	assert.False(t, newManager(t, store).IsLoggedIn(ctx))
}

func TestLogout_StaleSessionRemovedByRegister(t *testing.T) {
	store := newMemStore()
	m := newManager(t, store)
	ctx := context.Background()
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Passw0rd!", "")

	store.applyErr = errors.New("disk full")
	m.Logout(ctx)
	store.applyErr = nil

	require.True(t, m.Register(ctx, "John Roe", "5551234567", "Abc12345!", "").OK())
	assert.NotContains(t, store.data, "current_user_mobile")
	assert.False(t, newManager(t, store).IsLoggedIn(ctx))
}

func TestCurrentUser_NeverExposesPassword(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Passw0rd!", "jane@example.com")

	u, ok := m.CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "", u.Password)
	assert.Equal(t, "jane@example.com", u.Email)
}

func TestCurrentUser_LoggedOut(t *testing.T) {
	m, _ := setup(t)
	u, ok := m.CurrentUser(context.Background())
	assert.False(t, ok)
	assert.Equal(t, User{}, u)
}

func TestCurrentUser_ReadErrorDegradesToEmptyEmail(t *testing.T) {
	store := newMemStore()
	m := newManager(t, store)
	ctx := context.Background()
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Passw0rd!", "jane@example.com")

	store.getErr = errors.New("io error")
	u, ok := m.CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, User{FullName: "Jane Doe", MobileNumber: "9876543210"}, u)
}

func TestSession_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store := newSQLiteStore(t, dir)
	m := newManager(t, store)
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Passw0rd!", "")

	m2 := newManager(t, store)
	u, ok := m2.CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", u.FullName)
}

func TestNewManager_DropsOrphanSession(t *testing.T) {
	store := newMemStore()
	store.data["current_user_name"] = "Ghost"
	store.data["current_user_mobile"] = "1112223333"

	m := newManager(t, store)
	assert.False(t, m.IsLoggedIn(context.Background()))
	assert.NotContains(t, store.data, "current_user_name")
	assert.NotContains(t, store.data, "current_user_mobile")
}

func TestNewManager_StoreError(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("locked")

	_, err := NewManager(context.Background(), store, logging.Nop())
	require.ErrorContains(t, err, "restore session")
}

func TestChangePassword(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Abc12345!", "")

	requireError(t, m.ChangePassword(ctx, "Abc12345?", "Abcd1234!"), KindAuthentication, msgWrongOldPassword)
	requireError(t, m.ChangePassword(ctx, "Abc12345!", "password"), KindValidation, msgPasswordNoDigit)

	r := m.ChangePassword(ctx, "Abc12345!", "Abcd1234!")
	require.Equal(t, success("Password changed successfully!"), r)
	require.True(t, m.IsLoggedIn(ctx), "session is kept")

	m.Logout(ctx)
	requireError(t, m.Login(ctx, "9876543210", "Abc12345!"), KindAuthentication, msgIncorrectPassword)
	require.True(t, m.Login(ctx, "9876543210", "Abcd1234!").OK())
}

func TestChangePassword_Policy(t *testing.T) {
	tests := []struct {
		candidate string
		want      string
	}{
		{"Ab1!", msgPasswordTooShort},
		{"12345678!", msgPasswordNoLetter},
		{"Abcdefgh!", msgPasswordNoDigit},
		{"Abcd12345", msgPasswordNoSpecial},
		{"password", msgPasswordNoDigit},
	}
	m, _ := setup(t)
	ctx := context.Background()
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Abc12345!", "")

	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			requireError(t, m.ChangePassword(ctx, "Abc12345!", tt.candidate), KindValidation, tt.want)
		})
	}
}

func TestChangePassword_NotLoggedIn(t *testing.T) {
	m, _ := setup(t)
	requireError(t, m.ChangePassword(context.Background(), "a", "b"), KindConsistency, "No user logged in")
}

func TestChangePassword_RecordMissing(t *testing.T) {
	store := newMemStore()
	m := newManager(t, store)
	ctx := context.Background()
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Abc12345!", "")

	delete(store.data, "user_9876543210_password")
	requireError(t, m.ChangePassword(ctx, "Abc12345!", "Abcd1234!"), KindConsistency, "User data not found")
	requireError(t, m.UpdateProfile(ctx, "Jane", "9876543210", ""), KindConsistency, "User data not found")
}

func TestUpdateProfile_SameMobile(t *testing.T) {
	m, store := setup(t)
	ctx := context.Background()
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Passw0rd!", "")

	r := m.UpdateProfile(ctx, "Jane Smith", "9876543210", "jane@example.com")
	require.Equal(t, success("Profile updated successfully!"), r)

	u, _ := m.CurrentUser(ctx)
	assert.Equal(t, User{FullName: "Jane Smith", MobileNumber: "9876543210", Email: "jane@example.com"}, u)

	name, _ := storedValue(t, store, "current_user_name")
	assert.Equal(t, "Jane Smith", name)
}

func TestUpdateProfile_MovesRecordAndKeepsPassword(t *testing.T) {
	m, store := setup(t)
	ctx := context.Background()
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Passw0rd!", "jane@example.com")

	before, _ := storedValue(t, store, "user_9876543210_password")
	require.True(t, m.UpdateProfile(ctx, "Jane Doe", "9998887777", "jane@example.com").OK())

	after, ok := storedValue(t, store, "user_9998887777_password")
	require.True(t, ok)
	assert.Equal(t, before, after)

	for _, f := range recordFields {
		_, ok := storedValue(t, store, userKey("9876543210", f))
		assert.False(t, ok, f)
	}

	m.Logout(ctx)
	requireError(t, m.Login(ctx, "9876543210", "Passw0rd!"), KindAuthentication, msgUserNotFound)
	require.True(t, m.Login(ctx, "9998887777", "Passw0rd!").OK())
}

func TestUpdateProfile_Errors(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	requireError(t, m.UpdateProfile(ctx, "Jane", "9876543210", ""), KindConsistency, msgNotLoggedIn)

	require.True(t, m.Register(ctx, "John Roe", "1112223333", "Passw0rd!", "").OK())
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Passw0rd!", "")

	requireError(t, m.UpdateProfile(ctx, " ", "9876543210", ""), KindValidation, msgNameEmpty)
	requireError(t, m.UpdateProfile(ctx, "Jane", "", ""), KindValidation, msgMobileEmpty)
	requireError(t, m.UpdateProfile(ctx, "Jane", "1112223333", ""), KindConflict, msgMobileTaken)
	requireError(t, m.UpdateProfile(ctx, "Jane", "9876543210", "nope"), KindValidation, msgInvalidEmail)

	u, _ := m.CurrentUser(ctx)
	assert.Equal(t, "Jane Doe", u.FullName)
}

func TestUpdateProfile_AppliedAsOneBatch(t *testing.T) {
	store := newMemStore()
	m := newManager(t, store)
	ctx := context.Background()
	registerAndLogin(t, m, "Jane Doe", "9876543210", "Passw0rd!", "")

	before := store.applies
	require.True(t, m.UpdateProfile(ctx, "Jane Doe", "9998887777", "").OK())
	assert.Equal(t, before+1, store.applies)
}

func TestStorageFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("register", func(t *testing.T) {
		store := newMemStore()
		m := newManager(t, store)
		store.applyErr = errors.New("disk full")

		requireError(t, m.Register(ctx, "Jane", "9876543210", "Passw0rd!", ""), KindStorage,
			"Registration failed: disk full")
	})

	t.Run("login", func(t *testing.T) {
		store := newMemStore()
		m := newManager(t, store)
		store.getErr = errors.New("io error")

		r := m.Login(ctx, "9876543210", "Passw0rd!")
		require.Equal(t, KindStorage, r.Kind)
		assert.True(t, strings.HasPrefix(r.Message, "Login failed: "), r.Message)
		assert.Contains(t, r.Message, "io error")
	})

	t.Run("change password", func(t *testing.T) {
		store := newMemStore()
		m := newManager(t, store)
		registerAndLogin(t, m, "Jane", "9876543210", "Abc12345!", "")
		store.applyErr = errors.New("disk full")

		requireError(t, m.ChangePassword(ctx, "Abc12345!", "Abcd1234!"), KindStorage,
			"Password change failed: disk full")
	})

	t.Run("update profile", func(t *testing.T) {
		store := newMemStore()
		m := newManager(t, store)
		registerAndLogin(t, m, "Jane", "9876543210", "Abc12345!", "")
		store.applyErr = errors.New("disk full")

		requireError(t, m.UpdateProfile(ctx, "Janet", "9876543210", ""), KindStorage,
			"Profile update failed: disk full")
		store.applyErr = nil

		u, _ := m.CurrentUser(ctx)
		assert.Equal(t, "Jane", u.FullName, "cached session is only replaced after a successful write")
	})
}

func TestPanicsBecomeResults(t *testing.T) {
	m := &Manager{
		store:  panicStore{},
		creds:  credentials{store: panicStore{}},
		log:    logging.Nop(),
		params: testParams,
	}

	r := m.Register(context.Background(), "Jane", "9876543210", "Passw0rd!", "")
	requireError(t, r, KindStorage, "Registration failed: boom")

	r = m.Login(context.Background(), "9876543210", "Passw0rd!")
	requireError(t, r, KindStorage, "Login failed: boom")
}
