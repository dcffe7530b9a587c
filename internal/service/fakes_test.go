package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/equiptrack/auth-service/internal/domain"
	"github.com/equiptrack/auth-service/internal/repository"
)

// In-memory repository fakes backing the service tests.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Profile.UserID = user.ID

	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool { return u.ID == id })
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool { return u.Username == username })
}

func (f *fakeUserRepo) GetByGoogleID(_ context.Context, googleID string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool {
		return u.Profile.GoogleID != nil && *u.Profile.GoogleID == googleID
	})
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (f *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := f.GetByUsername(ctx, username)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) RecordLogin(_ context.Context, userID, ipAddress string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	u.Profile.LoginCount++
	u.Profile.LastLoginIP = &ipAddress
	return nil
}

func (f *fakeUserRepo) LinkGoogleAccount(_ context.Context, userID, googleID string, picture *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Profile.GoogleID = &googleID
	u.Profile.IsEmailVerified = true
	if picture != nil {
		u.Profile.ProfilePicture = picture
	}
	return nil
}

type fakeOTPRepo struct {
	mu      sync.Mutex
	records []*domain.OTPRecord
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{}
}

func (f *fakeOTPRepo) CreateSuperseding(_ context.Context, record *domain.OTPRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.records {
		if r.Email == record.Email && r.Purpose == record.Purpose && !r.IsVerified {
			r.IsVerified = true
			r.Status = domain.OTPStatusSuperseded
		}
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	clone := *record
	f.records = append(f.records, &clone)
	return nil
}

func (f *fakeOTPRepo) latest(match func(*domain.OTPRecord) bool, newer func(a, b *domain.OTPRecord) bool) (*domain.OTPRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := []*domain.OTPRecord{}
	for _, r := range f.records {
		if match(r) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return nil, repository.ErrNotFound
	}

	sort.Slice(matched, func(i, j int) bool { return newer(matched[i], matched[j]) })
	clone := *matched[0]
	return &clone, nil
}

func byCreatedAt(a, b *domain.OTPRecord) bool { return a.CreatedAt.After(b.CreatedAt) }

func (f *fakeOTPRepo) GetLatestLive(_ context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	return f.latest(func(r *domain.OTPRecord) bool {
		return r.Email == email && r.Purpose == purpose && !r.IsVerified
	}, byCreatedAt)
}

func (f *fakeOTPRepo) GetLatest(_ context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	return f.latest(func(r *domain.OTPRecord) bool {
		return r.Email == email && r.Purpose == purpose
	}, byCreatedAt)
}

func (f *fakeOTPRepo) GetLatestVerified(_ context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	return f.latest(func(r *domain.OTPRecord) bool {
		return r.Email == email && r.Purpose == purpose && r.Status == domain.OTPStatusVerified
	}, func(a, b *domain.OTPRecord) bool {
		if a.VerifiedAt == nil || b.VerifiedAt == nil {
			return byCreatedAt(a, b)
		}
		return a.VerifiedAt.After(*b.VerifiedAt)
	})
}

func (f *fakeOTPRepo) get(id string) *domain.OTPRecord {
	for _, r := range f.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (f *fakeOTPRepo) UpdateAttempts(_ context.Context, record *domain.OTPRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := f.get(record.ID)
	if stored == nil {
		return repository.ErrNotFound
	}
	stored.Attempts = record.Attempts
	return nil
}

func (f *fakeOTPRepo) MarkVerified(_ context.Context, record *domain.OTPRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := f.get(record.ID)
	if stored == nil {
		return repository.ErrNotFound
	}
	stored.IsVerified = true
	stored.Status = domain.OTPStatusVerified
	stored.Attempts = record.Attempts
	stored.VerifiedAt = record.VerifiedAt
	return nil
}

func (f *fakeOTPRepo) InvalidateAll(_ context.Context, email string, purpose domain.OTPPurpose) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.records {
		if r.Email != email || r.Purpose != purpose {
			continue
		}
		r.IsVerified = true
		if r.Status == domain.OTPStatusVerified {
			r.Status = domain.OTPStatusConsumed
		} else if r.Status != domain.OTPStatusConsumed {
			r.Status = domain.OTPStatusSuperseded
		}
	}
	return nil
}

// seed inserts a record directly, bypassing supersede semantics
func (f *fakeOTPRepo) seed(record *domain.OTPRecord) *domain.OTPRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	clone := *record
	f.records = append(f.records, &clone)
	return &clone
}

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts []*domain.LoginAttempt
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{}
}

func (f *fakeAttemptRepo) Create(_ context.Context, attempt *domain.LoginAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now()
	}
	clone := *attempt
	f.attempts = append(f.attempts, &clone)
	return nil
}

func (f *fakeAttemptRepo) count(match func(*domain.LoginAttempt) bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, a := range f.attempts {
		if match(a) {
			n++
		}
	}
	return n
}

func (f *fakeAttemptRepo) CountRecentFailuresByIP(_ context.Context, ip string, since time.Time) (int, error) {
	return f.count(func(a *domain.LoginAttempt) bool {
		return a.IPAddress == ip && !a.Success && !a.AttemptedAt.Before(since)
	}), nil
}

func (f *fakeAttemptRepo) CountRecentFailuresByIdentifier(_ context.Context, identifier string, since time.Time) (int, error) {
	return f.count(func(a *domain.LoginAttempt) bool {
		return a.UsernameOrEmail == identifier && !a.Success && !a.AttemptedAt.Before(since)
	}), nil
}

func (f *fakeAttemptRepo) all() []*domain.LoginAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*domain.LoginAttempt, len(f.attempts))
	copy(out, f.attempts)
	return out
}

type fakeGoogleTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.GoogleAuthToken
}

func newFakeGoogleTokenRepo() *fakeGoogleTokenRepo {
	return &fakeGoogleTokenRepo{tokens: map[string]*domain.GoogleAuthToken{}}
}

func (f *fakeGoogleTokenRepo) Upsert(_ context.Context, token *domain.GoogleAuthToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	clone := *token
	f.tokens[token.UserID] = &clone
	return nil
}

func (f *fakeGoogleTokenRepo) GetByUserID(_ context.Context, userID string) (*domain.GoogleAuthToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tokens[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

// fakeSender captures delivered passcodes instead of sending them
type fakeSender struct {
	mu    sync.Mutex
	sends []sentOTP
	err   error
}

type sentOTP struct {
	email   string
	code    string
	purpose domain.OTPPurpose
}

func (f *fakeSender) SendOTP(_ context.Context, email, code, _, _ string, purpose domain.OTPPurpose) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentOTP{email: email, code: code, purpose: purpose})
	return nil
}

func (f *fakeSender) lastSent() (sentOTP, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sends) == 0 {
		return sentOTP{}, false
	}
	return f.sends[len(f.sends)-1], true
}

// fakeVerifier returns canned claims for Google token verification
type fakeVerifier struct {
	claims *domain.GoogleClaims
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (*domain.GoogleClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}
