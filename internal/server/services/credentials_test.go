package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/logging"
	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/memory"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnknownUser = fmt.Errorf("%w: unknown user", common.ErrPlatformVerificationFailed)

func claim(platform models.Platform, accountID, wallet string) models.Claim {
	return models.Claim{
		Profile: models.Profile{
			Name:              "Name " + accountID,
			Username:          "user" + accountID,
			PlatformAccountID: accountID,
			ProfileImageURL:   "https://img/" + accountID,
		},
		Platform:        platform,
		WalletPublicKey: wallet,
	}
}

func newCredService(m repomanager.RepositoryManager) (*CredentialService, *fakeSyncer) {
	syncer := &fakeSyncer{}
	return NewCredentialService(m, syncer, logging.Nop{}), syncer
}

func allCredentials(t *testing.T, m repomanager.RepositoryManager) []*models.Credential {
	t.Helper()
	creds, err := m.Credentials(m.DB()).List(context.Background(), models.CredentialFilter{})
	require.NoError(t, err)
	return creds
}

func allPeople(t *testing.T, m repomanager.RepositoryManager) []*models.Person {
	t.Helper()
	ps, err := m.People(m.DB()).List(context.Background(), 0, 0)
	require.NoError(t, err)
	return ps
}

func TestReconcile_NewTwitterAccount(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager()
	svc, syncer := newCredService(m)

	cred, err := svc.Reconcile(ctx, claim(models.PlatformTwitter, "A", "0x01"))
	require.NoError(t, err)
	svc.Wait()

	assert.True(t, cred.IsVerified)
	assert.Equal(t, "0x01", cred.UserID)
	assert.Equal(t, models.PlatformTwitter, cred.Platform)

	ps := allPeople(t, m)
	require.Len(t, ps, 1)
	assert.Equal(t, cred.PeopleID, ps[0].ID)
	assert.Equal(t, "userA", ps[0].Username)
	assert.Len(t, allCredentials(t, m), 1)

	assert.Equal(t, []string{"A"}, syncer.Calls())
}

func TestReconcile_FollowingFailureIsIgnored(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager()
	syncer := &fakeSyncer{err: errors.New("twitter down"), block: make(chan struct{})}
	svc := NewCredentialService(m, syncer, logging.Nop{})

	cred, err := svc.Reconcile(ctx, claim(models.PlatformTwitter, "A", "0x01"))
	require.NoError(t, err, "reconcile must not wait for the following fetch")
	require.NotNil(t, cred)

	close(syncer.block)
	svc.Wait()
	assert.Equal(t, []string{"A"}, syncer.Calls())
}

func TestReconcile_FollowingSurvivesCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := memory.NewManager()
	syncer := &fakeSyncer{block: make(chan struct{})}
	svc := NewCredentialService(m, syncer, logging.Nop{})

	_, err := svc.Reconcile(ctx, claim(models.PlatformTwitter, "A", "0x01"))
	require.NoError(t, err)
	cancel()

	close(syncer.block)
	svc.Wait()
	assert.Equal(t, []string{"A"}, syncer.Calls())
}

func TestReconcile_NoFollowingOutsideTwitter(t *testing.T) {
	ctx := context.Background()
	svc, syncer := newCredService(memory.NewManager())

	_, err := svc.Reconcile(ctx, claim(models.PlatformReddit, "A", "0x01"))
	require.NoError(t, err)
	svc.Wait()
	assert.Empty(t, syncer.Calls())
}

func TestReconcile_NilFollowing(t *testing.T) {
	svc := NewCredentialService(memory.NewManager(), nil, logging.Nop{})
	_, err := svc.Reconcile(context.Background(), claim(models.PlatformTwitter, "A", "0x01"))
	require.NoError(t, err)
	svc.Wait()
}

func TestReconcile_SecondIdenticalClaimIsAlreadyVerified(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager()
	svc, syncer := newCredService(m)

	_, err := svc.Reconcile(ctx, claim(models.PlatformTwitter, "A", "0x01"))
	require.NoError(t, err)

	_, err = svc.Reconcile(ctx, claim(models.PlatformTwitter, "A", "0x01"))
	assert.ErrorIs(t, err, common.ErrAlreadyVerified)

	svc.Wait()
	assert.Len(t, syncer.Calls(), 1, "following is fetched only for new accounts")
	assert.Len(t, allPeople(t, m), 1)
	assert.Len(t, allCredentials(t, m), 1)
}

func TestReconcile_AccountClaimedByOtherWallet(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager()
	svc, _ := newCredService(m)

	_, err := svc.Reconcile(ctx, claim(models.PlatformTwitter, "A", "0xU1"))
	require.NoError(t, err)

	_, err = svc.Reconcile(ctx, claim(models.PlatformTwitter, "A", "0xU2"))
	assert.ErrorIs(t, err, common.ErrCredentialConflict)

	assert.Len(t, allPeople(t, m), 1)
	creds := allCredentials(t, m)
	require.Len(t, creds, 1)
	assert.Equal(t, "0xU1", creds[0].UserID)
}

func TestReconcile_WalletPointsAtOtherAccount(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager()
	svc, _ := newCredService(m)

	_, err := svc.Reconcile(ctx, claim(models.PlatformTwitter, "A", "0xU1"))
	require.NoError(t, err)

	_, err = svc.Reconcile(ctx, claim(models.PlatformTwitter, "B", "0xU1"))
	assert.ErrorIs(t, err, common.ErrIdentityMismatch)

	_, err = m.People(m.DB()).FindByPlatformAccount(ctx, models.PlatformTwitter, "B")
	assert.ErrorIs(t, err, common.ErrorNotFound, "no person is created on mismatch")
}

func TestReconcile_MismatchTakesPrecedenceOverConflict(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager()
	svc, _ := newCredService(m)

	_, err := svc.Reconcile(ctx, claim(models.PlatformTwitter, "A", "0xU1"))
	require.NoError(t, err)
	_, err = svc.Reconcile(ctx, claim(models.PlatformTwitter, "B", "0xU2"))
	require.NoError(t, err)

	// U1 owns A and B is owned by U2: step 1 fires first.
	_, err = svc.Reconcile(ctx, claim(models.PlatformTwitter, "B", "0xU1"))
	assert.ErrorIs(t, err, common.ErrIdentityMismatch)
}

func TestReconcile_SameWalletOnOtherPlatform(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager()
	svc, _ := newCredService(m)

	_, err := svc.Reconcile(ctx, claim(models.PlatformTwitter, "A", "0xU1"))
	require.NoError(t, err)
	_, err = svc.Reconcile(ctx, claim(models.PlatformReddit, "B", "0xU1"))
	require.NoError(t, err)

	assert.Len(t, allCredentials(t, m), 2)
}

func TestReconcile_AttachesToExistingPerson(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager()
	svc, syncer := newCredService(m)

	p, err := m.People(m.DB()).Create(ctx, claim(models.PlatformTwitter, "A", "").Person())
	require.NoError(t, err)

	cred, err := svc.Reconcile(ctx, claim(models.PlatformTwitter, "A", "0xU1"))
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, p.ID, cred.PeopleID)
	assert.True(t, cred.IsVerified)
	assert.Empty(t, syncer.Calls(), "existing person is not a new account")
}

func TestReconcile_VerifiesPendingCredential(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager()
	svc, _ := newCredService(m)

	p, err := m.People(m.DB()).Create(ctx, claim(models.PlatformReddit, "A", "").Person())
	require.NoError(t, err)
	pending, err := m.Credentials(m.DB()).Create(ctx, p.ID, &models.Credential{UserID: "0xU1", Platform: models.PlatformReddit})
	require.NoError(t, err)

	cred, err := svc.Reconcile(ctx, claim(models.PlatformReddit, "A", "0xU1"))
	require.NoError(t, err)
	assert.Equal(t, pending.ID, cred.ID)
	assert.True(t, cred.IsVerified)

	stored, err := m.Credentials(m.DB()).FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Equal(t, "0xU1", stored.UserID)
	assert.Equal(t, stored.UpdatedAt, cred.UpdatedAt)
	assert.False(t, cred.UpdatedAt.Before(pending.UpdatedAt))
}

func TestReconcile_PersonWithoutProfileChanges(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager()
	svc, _ := newCredService(m)

	first := claim(models.PlatformReddit, "A", "0xU1")
	_, err := svc.Reconcile(ctx, first)
	require.NoError(t, err)

	p, err := m.People(m.DB()).FindByPlatformAccount(ctx, models.PlatformReddit, "A")
	require.NoError(t, err)

	renamed := claim(models.PlatformReddit, "A", "0xU1")
	renamed.Name = "Renamed"
	_, _ = svc.Reconcile(ctx, renamed)

	again, err := m.People(m.DB()).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Name, again.Name)
}

func TestReconcile_LostRaceIsRetried(t *testing.T) {
	ctx := context.Background()
	base := memory.NewManager()
	m := &racingManager{Manager: base}
	m.compete = func() {
		other := NewCredentialService(base, nil, logging.Nop{})
		_, err := other.Reconcile(ctx, claim(models.PlatformTwitter, "A", "0xU2"))
		require.NoError(t, err)
	}
	svc, syncer := newCredService(m)

	_, err := svc.Reconcile(ctx, claim(models.PlatformTwitter, "A", "0xU1"))
	assert.ErrorIs(t, err, common.ErrCredentialConflict)

	svc.Wait()
	assert.Empty(t, syncer.Calls())
	assert.Len(t, allPeople(t, base), 1)
	creds := allCredentials(t, base)
	require.Len(t, creds, 1)
	assert.Equal(t, "0xU2", creds[0].UserID)
}

func TestReconcile_StoreErrorIsWrapped(t *testing.T) {
	boom := errors.New("db down")
	m := &faultyManager{Manager: memory.NewManager(), credErr: boom}
	svc, _ := newCredService(m)

	_, err := svc.Reconcile(context.Background(), claim(models.PlatformTwitter, "A", "0xU1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	for _, kind := range []error{common.ErrIdentityMismatch, common.ErrAlreadyVerified, common.ErrCredentialConflict} {
		assert.NotErrorIs(t, err, kind)
	}
}

func TestReconcile_ConcurrentClaimsOnOneAccount(t *testing.T) {
	ctx := context.Background()
	m := memory.NewManager()
	svc, _ := newCredService(m)

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Reconcile(ctx, claim(models.PlatformTwitter, "A", fmt.Sprintf("0xW%d", i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, common.ErrCredentialConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	svc.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)
	assertBijection(t, m)
}

func TestReconcile_RandomSequencesKeepBijection(t *testing.T) {
	ctx := context.Background()
	rnd := rand.New(rand.NewSource(7))
	platforms := []models.Platform{models.PlatformTwitter, models.PlatformReddit}

	for round := 0; round < 20; round++ {
		m := memory.NewManager()
		svc := NewCredentialService(m, nil, logging.Nop{})

		for i := 0; i < 40; i++ {
			c := claim(
				platforms[rnd.Intn(len(platforms))],
				fmt.Sprintf("acct%d", rnd.Intn(4)),
				fmt.Sprintf("0xW%d", rnd.Intn(4)),
			)
			_, err := svc.Reconcile(ctx, c)
			if err != nil {
				require.True(t,
					errors.Is(err, common.ErrIdentityMismatch) ||
						errors.Is(err, common.ErrAlreadyVerified) ||
						errors.Is(err, common.ErrCredentialConflict),
					"unexpected error kind: %v", err)
			}
			assertBijection(t, m)
		}
	}
}

// assertBijection checks the uniqueness rules over the whole store.
func assertBijection(t *testing.T, m repomanager.RepositoryManager) {
	t.Helper()

	type acct struct {
		platform models.Platform
		id       string
	}
	seenAcct := map[acct]bool{}
	for _, p := range allPeople(t, m) {
		k := acct{p.Platform, p.PlatformAccountID}
		require.False(t, seenAcct[k], "duplicate person %v", k)
		seenAcct[k] = true
	}

	type pair struct {
		a        string
		platform models.Platform
	}
	byPerson := map[pair]string{}
	byUser := map[pair]string{}
	for _, c := range allCredentials(t, m) {
		pk := pair{c.PeopleID, c.Platform}
		uk := pair{c.UserID, c.Platform}
		_, dupP := byPerson[pk]
		_, dupU := byUser[uk]
		require.False(t, dupP, "two credentials for person %v", pk)
		require.False(t, dupU, "two credentials for wallet %v", uk)
		byPerson[pk] = c.UserID
		byUser[uk] = c.PeopleID
	}
}
