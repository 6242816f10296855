package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ketabplus/frontend/domain"
)

type fakeIdentity struct {
	mu sync.Mutex

	currentUser *domain.User
	currentErr  error
	authUser    *domain.User
	authErr     error

	currentCalls    int
	authCalls       int
	invalidateCalls int
}

func (f *fakeIdentity) Current(ctx context.Context) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentCalls++
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.currentUser.Clone(), nil
}

func (f *fakeIdentity) Authenticate(ctx context.Context, identifier, secret string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.authUser.Clone(), nil
}

func (f *fakeIdentity) Invalidate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidateCalls++
	return nil
}

func (f *fakeIdentity) Ping(ctx context.Context) error { return nil }

func (f *fakeIdentity) setCurrent(user *domain.User, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentUser = user
	f.currentErr = err
}

func (f *fakeIdentity) invalidations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalidateCalls
}

func (f *fakeIdentity) currents() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentCalls
}

type fakeCarts struct {
	mu     sync.Mutex
	items  map[string]*domain.CartItem
	clears int
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{items: make(map[string]*domain.CartItem)}
}

func (f *fakeCarts) Put(ctx context.Context, item *domain.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.ID] = item
	return nil
}

func (f *fakeCarts) Get(ctx context.Context, id string) (*domain.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id], nil
}

func (f *fakeCarts) List(ctx context.Context) ([]*domain.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.CartItem, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeCarts) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func (f *fakeCarts) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = make(map[string]*domain.CartItem)
	f.clears++
	return nil
}

func (f *fakeCarts) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

func testUser() *domain.User {
	return &domain.User{
		ID:    "u-1",
		Email: "a@b.com",
		Name:  "Arman",
		Roles: []string{domain.RoleCustomer},
	}
}

// slowConfig keeps every timer far away so tests exercise one behavior
// at a time.
func slowConfig() Config {
	return Config{
		WarningLead:     time.Hour,
		HardTimeout:     2 * time.Hour,
		RefreshInterval: time.Hour,
		ActivityGrace:   time.Hour,
	}
}

func TestInitializeAuthenticated(t *testing.T) {
	svc := &fakeIdentity{currentUser: testUser()}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	require.NoError(t, m.Initialize(context.Background()))

	snap := m.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.False(t, snap.IsLoading)
	assert.NoError(t, snap.Err)
	assert.Equal(t, "u-1", snap.User.ID)
	assert.False(t, snap.LastActivity.IsZero())
}

func TestInitializeUnauthenticatedIsSilent(t *testing.T) {
	svc := &fakeIdentity{currentErr: domain.ErrUnauthenticated}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	require.NoError(t, m.Initialize(context.Background()))

	snap := m.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.NoError(t, snap.Err)
}

func TestInitializeServiceErrorIsRecorded(t *testing.T) {
	svc := &fakeIdentity{currentErr: domain.NewError(domain.ErrCodeService, "backend down")}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	require.Error(t, m.Initialize(context.Background()))

	snap := m.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Error(t, snap.Err)
}

func TestLoginSuccess(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))

	snap := m.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.NoError(t, snap.Err)
	assert.Empty(t, snap.ErrMessage)
}

func TestLoginFailureSurfacesServerMessage(t *testing.T) {
	svc := &fakeIdentity{
		authErr: domain.NewError(domain.ErrCodeInvalidCredentials, "invalid email or password"),
	}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	err := m.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidCredentials))

	snap := m.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Equal(t, "invalid email or password", snap.ErrMessage)
}

func TestLoginTriggersBackgroundHydration(t *testing.T) {
	bare := &domain.User{ID: "u-1", Email: "a@b.com"}
	full := testUser()
	svc := &fakeIdentity{authUser: bare, currentUser: full}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))

	require.Eventually(t, func() bool {
		return len(m.Snapshot().User.Roles) > 0
	}, time.Second, 10*time.Millisecond)
}

func TestHydrationFailureDoesNotAffectLogin(t *testing.T) {
	svc := &fakeIdentity{
		authUser:   testUser(),
		currentErr: domain.NewError(domain.ErrCodeService, "flaky"),
	}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))

	time.Sleep(50 * time.Millisecond)
	assert.True(t, m.Snapshot().IsAuthenticated)
}

func TestLoginThenLogoutRestoresEmptyState(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	carts := newFakeCarts()
	m := New(svc, carts, nil, slowConfig())
	defer m.Close()

	_ = carts.Put(context.Background(), &domain.CartItem{ID: "c-1", BookID: "b-1", Quantity: 1})
	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))
	require.NoError(t, m.Logout(context.Background()))

	snap := m.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
	assert.False(t, snap.SessionWarning)
	assert.True(t, snap.LastActivity.IsZero())
	assert.Equal(t, 1, carts.clearCount())

	items, _ := carts.List(context.Background())
	assert.Empty(t, items)

	m.mu.Lock()
	assert.Empty(t, m.timers)
	m.mu.Unlock()
}

func TestLogoutIsIdempotent(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	carts := newFakeCarts()
	m := New(svc, carts, nil, slowConfig())
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))
	require.NoError(t, m.Logout(context.Background()))
	require.NoError(t, m.Logout(context.Background()))

	snap := m.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
}

func TestHardTimeoutLogsOut(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, Config{
		WarningLead:     50 * time.Millisecond,
		HardTimeout:     120 * time.Millisecond,
		RefreshInterval: time.Hour,
		ActivityGrace:   time.Hour,
	})
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))

	require.Eventually(t, func() bool {
		snap := m.Snapshot()
		return !snap.IsAuthenticated && !snap.SessionWarning
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, svc.invalidations())
	m.mu.Lock()
	assert.Empty(t, m.timers)
	m.mu.Unlock()
}

func TestActivityKeepsSessionAlive(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, Config{
		WarningLead:     50 * time.Millisecond,
		HardTimeout:     120 * time.Millisecond,
		RefreshInterval: time.Hour,
		ActivityGrace:   time.Hour,
	})
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))

	// keep poking well inside the hard timeout for several full windows
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		m.RecordActivity()
		time.Sleep(30 * time.Millisecond)
	}

	snap := m.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.False(t, snap.SessionWarning)
	assert.Equal(t, 0, svc.invalidations())
}

func TestWarningWindowScenario(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	// scaled version of the 20min/30min scenario: warning at 200ms,
	// hard logout at 300ms
	m := New(svc, newFakeCarts(), nil, Config{
		WarningLead:     100 * time.Millisecond,
		HardTimeout:     300 * time.Millisecond,
		RefreshInterval: time.Hour,
		ActivityGrace:   time.Hour,
	})
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))

	snap := m.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.False(t, snap.SessionWarning)

	require.Eventually(t, func() bool {
		snap := m.Snapshot()
		return snap.SessionWarning && snap.IsAuthenticated
	}, time.Second, 5*time.Millisecond, "warning should raise before the hard limit while still logged in")

	require.Eventually(t, func() bool {
		snap := m.Snapshot()
		return !snap.IsAuthenticated && !snap.SessionWarning
	}, time.Second, 5*time.Millisecond, "hard limit should clear both the user and the warning")
}

func TestActivityClearsWarning(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, Config{
		WarningLead:     100 * time.Millisecond,
		HardTimeout:     300 * time.Millisecond,
		RefreshInterval: time.Hour,
		ActivityGrace:   time.Hour,
	})
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))

	require.Eventually(t, func() bool {
		return m.Snapshot().SessionWarning
	}, time.Second, 5*time.Millisecond)

	m.RecordActivity()
	assert.False(t, m.Snapshot().SessionWarning)
	assert.True(t, m.Snapshot().IsAuthenticated)
}

func TestDismissWarningCountsAsActivity(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, Config{
		WarningLead:     100 * time.Millisecond,
		HardTimeout:     250 * time.Millisecond,
		RefreshInterval: time.Hour,
		ActivityGrace:   time.Hour,
	})
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))

	require.Eventually(t, func() bool {
		return m.Snapshot().SessionWarning
	}, time.Second, 5*time.Millisecond)

	m.DismissWarning()
	snap := m.Snapshot()
	assert.False(t, snap.SessionWarning)

	// the original hard deadline passes without logging out
	time.Sleep(150 * time.Millisecond)
	assert.True(t, m.Snapshot().IsAuthenticated)
}

func TestRefreshNoopWhenLoggedOut(t *testing.T) {
	svc := &fakeIdentity{currentUser: testUser()}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	require.NoError(t, m.Refresh(context.Background()))
	assert.Equal(t, 0, svc.currents())
}

func TestRefreshTransientFailureKeepsUser(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))
	svc.setCurrent(nil, domain.NewError(domain.ErrCodeService, "gateway timeout"))

	require.NoError(t, m.Refresh(context.Background()))
	assert.True(t, m.Snapshot().IsAuthenticated)
	assert.Equal(t, 0, svc.invalidations())
}

func TestRefreshRejectedWithinGraceKeepsUser(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, Config{
		WarningLead:     time.Hour,
		HardTimeout:     2 * time.Hour,
		RefreshInterval: time.Hour,
		ActivityGrace:   time.Hour,
	})
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))
	svc.setCurrent(nil, domain.ErrUnauthenticated)

	require.NoError(t, m.Refresh(context.Background()))
	assert.True(t, m.Snapshot().IsAuthenticated)
}

func TestRefreshRejectedAfterGraceLogsOut(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, Config{
		WarningLead:     time.Hour,
		HardTimeout:     2 * time.Hour,
		RefreshInterval: time.Hour,
		ActivityGrace:   30 * time.Millisecond,
	})
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))
	svc.setCurrent(nil, domain.ErrUnauthenticated)

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, m.Refresh(context.Background()))

	assert.False(t, m.Snapshot().IsAuthenticated)
	assert.Equal(t, 1, svc.invalidations())
}

func TestRefreshUpdatesUserAndResetsActivity(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))

	// let the post-login hydration settle before swapping the identity
	require.Eventually(t, func() bool {
		return svc.currents() >= 1
	}, time.Second, 5*time.Millisecond)
	before := m.Snapshot().LastActivity

	renamed := user.Clone()
	renamed.Name = "Arman Rahimi"
	svc.setCurrent(renamed, nil)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, m.Refresh(context.Background()))

	snap := m.Snapshot()
	assert.Equal(t, "Arman Rahimi", snap.User.Name)
	assert.True(t, snap.LastActivity.After(before))
}

func TestPeriodicRefreshRearms(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, Config{
		WarningLead:     time.Hour,
		HardTimeout:     2 * time.Hour,
		RefreshInterval: 40 * time.Millisecond,
		ActivityGrace:   time.Hour,
	})
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))
	base := svc.currents()

	require.Eventually(t, func() bool {
		return svc.currents() >= base+2
	}, time.Second, 10*time.Millisecond, "refresh ticker should keep firing")
}

func TestPeriodicRefreshStopsAfterLogout(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, Config{
		WarningLead:     time.Hour,
		HardTimeout:     2 * time.Hour,
		RefreshInterval: 30 * time.Millisecond,
		ActivityGrace:   time.Hour,
	})
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))
	require.NoError(t, m.Logout(context.Background()))

	// let the post-login hydration land before sampling the call count
	time.Sleep(50 * time.Millisecond)
	settled := svc.currents()
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, settled, svc.currents())
}

func TestUpdateUserMergesLocally(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))

	// let the post-login hydration settle so it cannot overwrite the patch
	require.Eventually(t, func() bool {
		return svc.currents() >= 1
	}, time.Second, 5*time.Millisecond)

	name := "Updated Name"
	m.UpdateUser(domain.UserPatch{Name: &name})

	snap := m.Snapshot()
	assert.Equal(t, "Updated Name", snap.User.Name)
	assert.Equal(t, "a@b.com", snap.User.Email)
}

func TestUpdateUserNoopWhenLoggedOut(t *testing.T) {
	svc := &fakeIdentity{}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	name := "nobody"
	m.UpdateUser(domain.UserPatch{Name: &name})
	assert.Nil(t, m.Snapshot().User)
}

func TestRecordActivityNoopWhenLoggedOut(t *testing.T) {
	svc := &fakeIdentity{}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	m.RecordActivity()
	snap := m.Snapshot()
	assert.True(t, snap.LastActivity.IsZero())
	m.mu.Lock()
	assert.Empty(t, m.timers)
	m.mu.Unlock()
}

func TestSubscribeObservesTransitions(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	id, updates := m.Subscribe()
	defer m.Unsubscribe(id)

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))

	require.Eventually(t, func() bool {
		for {
			select {
			case snap := <-updates:
				if snap.IsAuthenticated {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 10*time.Millisecond)
}

func TestLogoutDuringInflightRefreshWins(t *testing.T) {
	user := testUser()
	svc := &fakeIdentity{authUser: user, currentUser: user}
	m := New(svc, newFakeCarts(), nil, slowConfig())
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), "a@b.com", "secret"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = m.Refresh(context.Background())
	}()
	go func() {
		defer wg.Done()
		_ = m.Logout(context.Background())
	}()
	wg.Wait()

	snap := m.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
	m.mu.Lock()
	assert.Empty(t, m.timers)
	m.mu.Unlock()
}
