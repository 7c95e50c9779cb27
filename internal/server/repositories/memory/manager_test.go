package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/dbx"
	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	m := NewManager()
	var n int
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { n++; return base.Add(time.Duration(n) * time.Second) }
	m.newID = func() string { return fmt.Sprintf("id-%03d", n+1) }
	return m
}

func person(platform models.Platform, acct string) *models.Person {
	return &models.Person{Platform: platform, PlatformAccountID: acct, Username: "u" + acct}
}

func TestPeople_UniquePlatformAccount(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	repo := m.People(m.DB())

	p, err := repo.Create(ctx, person(models.PlatformTwitter, "42"))
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	_, err = repo.Create(ctx, person(models.PlatformTwitter, "42"))
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = repo.Create(ctx, person(models.PlatformReddit, "42"))
	assert.NoError(t, err, "same account id on another platform is a different person")

	got, err := repo.FindByPlatformAccount(ctx, models.PlatformTwitter, "42")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = repo.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPeople_ListAndUpdate(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	repo := m.People(m.DB())

	var ids []string
	for i := 0; i < 3; i++ {
		p, err := repo.Create(ctx, person(models.PlatformTwitter, fmt.Sprint(i)))
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	page, err := repo.List(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[1], page[0].ID)

	page, err = repo.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, page)

	err = repo.UpdateProfile(ctx, &models.Person{ID: ids[0], Name: "New", Username: "new", ProfileImageURL: "img"})
	require.NoError(t, err)
	got, _ := repo.FindByID(ctx, ids[0])
	assert.Equal(t, "new", got.Username)
	assert.Equal(t, "0", got.PlatformAccountID)

	assert.ErrorIs(t, repo.UpdateProfile(ctx, &models.Person{ID: "ghost"}), common.ErrorNotFound)
}

func TestCredentials_Constraints(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	pr := m.People(m.DB())
	cr := m.Credentials(m.DB())

	p1, _ := pr.Create(ctx, person(models.PlatformTwitter, "1"))
	p2, _ := pr.Create(ctx, person(models.PlatformTwitter, "2"))

	c, err := cr.Create(ctx, p1.ID, &models.Credential{UserID: "0xa", Platform: models.PlatformTwitter, IsVerified: true})
	require.NoError(t, err)
	assert.Equal(t, p1.ID, c.PeopleID)

	_, err = cr.Create(ctx, p1.ID, &models.Credential{UserID: "0xb", Platform: models.PlatformTwitter})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists, "person already has a credential on this platform")

	_, err = cr.Create(ctx, p2.ID, &models.Credential{UserID: "0xa", Platform: models.PlatformTwitter})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists, "wallet already linked on this platform")

	_, err = cr.Create(ctx, "ghost", &models.Credential{UserID: "0xc", Platform: models.PlatformTwitter})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	got, err := cr.FindByUserAndPlatform(ctx, "0xa", models.PlatformTwitter)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	got, err = cr.FindByPersonAndPlatform(ctx, p1.ID, models.PlatformTwitter)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = cr.FindByPersonAndPlatform(ctx, p2.ID, models.PlatformTwitter)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCredentials_MarkVerifiedAndList(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	pr := m.People(m.DB())
	cr := m.Credentials(m.DB())

	p1, _ := pr.Create(ctx, person(models.PlatformTwitter, "1"))
	p2, _ := pr.Create(ctx, person(models.PlatformReddit, "2"))
	c1, _ := cr.Create(ctx, p1.ID, &models.Credential{UserID: "0xa", Platform: models.PlatformTwitter})
	_, _ = cr.Create(ctx, p2.ID, &models.Credential{UserID: "0xa", Platform: models.PlatformReddit})

	marked, err := cr.MarkVerified(ctx, c1.ID)
	require.NoError(t, err)
	got, _ := cr.FindByID(ctx, c1.ID)
	assert.True(t, got.IsVerified)
	assert.Equal(t, "0xa", got.UserID)
	assert.Equal(t, got, marked)
	assert.True(t, marked.UpdatedAt.After(c1.UpdatedAt))
	_, err = cr.MarkVerified(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	all, err := cr.List(ctx, models.CredentialFilter{UserID: "0xa", Limit: 5})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyReddit, err := cr.List(ctx, models.CredentialFilter{Platform: models.PlatformReddit, Limit: 5})
	require.NoError(t, err)
	require.Len(t, onlyReddit, 1)
	assert.Equal(t, models.PlatformReddit, onlyReddit[0].Platform)
}

func TestCredentials_DeleteFreesIndexes(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	p, _ := m.People(m.DB()).Create(ctx, person(models.PlatformTwitter, "1"))
	cr := m.Credentials(m.DB())

	c, err := cr.Create(ctx, p.ID, &models.Credential{UserID: "0xa", Platform: models.PlatformTwitter})
	require.NoError(t, err)

	require.NoError(t, cr.Delete(ctx, c.ID))
	_, err = cr.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = cr.FindByUserAndPlatform(ctx, "0xa", models.PlatformTwitter)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, cr.Delete(ctx, c.ID), common.ErrorNotFound)

	_, err = m.People(m.DB()).FindByID(ctx, p.ID)
	require.NoError(t, err, "person survives")

	_, err = cr.Create(ctx, p.ID, &models.Credential{UserID: "0xb", Platform: models.PlatformTwitter})
	require.NoError(t, err, "person can be claimed again")
}

func TestList_OutOfRangeOffset(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	p, _ := m.People(m.DB()).Create(ctx, person(models.PlatformTwitter, "1"))
	_, err := m.Credentials(m.DB()).Create(ctx, p.ID, &models.Credential{UserID: "0xa", Platform: models.PlatformTwitter})
	require.NoError(t, err)

	for _, offset := range []int{-3074457345618258601, -1, 1, 50} {
		creds, err := m.Credentials(m.DB()).List(ctx, models.CredentialFilter{Offset: offset, Limit: 5})
		require.NoError(t, err)
		assert.Empty(t, creds, "offset %d", offset)

		people, err := m.People(m.DB()).List(ctx, offset, 5)
		require.NoError(t, err)
		assert.Empty(t, people, "offset %d", offset)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	boom := errors.New("boom")

	err := m.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		p, err := m.People(tx).Create(ctx, person(models.PlatformTwitter, "1"))
		if err != nil {
			return err
		}
		if _, err := m.Credentials(tx).Create(ctx, p.ID, &models.Credential{UserID: "0xa", Platform: models.PlatformTwitter}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = m.People(m.DB()).FindByPlatformAccount(ctx, models.PlatformTwitter, "1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = m.Credentials(m.DB()).FindByUserAndPlatform(ctx, "0xa", models.PlatformTwitter)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestWithTx_Commits(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	err := m.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := m.People(tx).Create(ctx, person(models.PlatformTwitter, "1"))
		return err
	})
	require.NoError(t, err)

	_, err = m.People(m.DB()).FindByPlatformAccount(ctx, models.PlatformTwitter, "1")
	assert.NoError(t, err)
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	assert.Panics(t, func() {
		_ = m.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			_, _ = m.People(tx).Create(ctx, person(models.PlatformTwitter, "1"))
			panic("kaboom")
		})
	})

	_, err := m.People(m.DB()).FindByPlatformAccount(ctx, models.PlatformTwitter, "1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestConcurrentCreates_OneWinner(t *testing.T) {
	ctx := context.Background()
	m := NewManager()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		exists int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.People(m.DB()).Create(ctx, person(models.PlatformTwitter, "same"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, common.ErrorAlreadyExists):
				exists++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 19, exists)
}
