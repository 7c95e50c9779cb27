package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/server/models"
)

type credentialsRepo struct {
	m    *Manager
	inTx bool
}

func (r *credentialsRepo) Create(ctx context.Context, peopleID string, credential *models.Credential) (*models.Credential, error) {
	defer r.m.lock(r.inTx)()
	d := r.m.data

	if _, ok := d.people[peopleID]; !ok {
		return nil, common.ErrorNotFound
	}
	byPerson := credKey{peopleID, credential.Platform}
	byUser := credKey{credential.UserID, credential.Platform}
	if _, ok := d.credByPerson[byPerson]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if _, ok := d.credByUser[byUser]; ok {
		return nil, common.ErrorAlreadyExists
	}

	now := r.m.now()
	credential.ID = r.m.newID()
	credential.PeopleID = peopleID
	credential.CreatedAt, credential.UpdatedAt = now, now

	d.creds[credential.ID] = *credential
	d.credByPerson[byPerson] = credential.ID
	d.credByUser[byUser] = credential.ID
	return credential, nil
}

func (r *credentialsRepo) FindByID(ctx context.Context, id string) (*models.Credential, error) {
	defer r.m.lock(r.inTx)()

	c, ok := r.m.data.creds[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (r *credentialsRepo) FindByUserAndPlatform(ctx context.Context, userID string, platform models.Platform) (*models.Credential, error) {
	defer r.m.lock(r.inTx)()
	return r.byIndex(r.m.data.credByUser, credKey{userID, platform})
}

func (r *credentialsRepo) FindByPersonAndPlatform(ctx context.Context, peopleID string, platform models.Platform) (*models.Credential, error) {
	defer r.m.lock(r.inTx)()
	return r.byIndex(r.m.data.credByPerson, credKey{peopleID, platform})
}

func (r *credentialsRepo) byIndex(idx map[credKey]string, key credKey) (*models.Credential, error) {
	id, ok := idx[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := r.m.data.creds[id]
	return &c, nil
}

func (r *credentialsRepo) MarkVerified(ctx context.Context, id string) (*models.Credential, error) {
	defer r.m.lock(r.inTx)()
	d := r.m.data

	c, ok := d.creds[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c.IsVerified = true
	c.UpdatedAt = r.m.now()
	d.creds[id] = c
	return &c, nil
}

func (r *credentialsRepo) Delete(ctx context.Context, id string) error {
	defer r.m.lock(r.inTx)()
	d := r.m.data

	c, ok := d.creds[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(d.creds, id)
	delete(d.credByPerson, credKey{c.PeopleID, c.Platform})
	delete(d.credByUser, credKey{c.UserID, c.Platform})
	return nil
}

func (r *credentialsRepo) List(ctx context.Context, filter models.CredentialFilter) ([]*models.Credential, error) {
	defer r.m.lock(r.inTx)()

	var all []*models.Credential
	for _, c := range r.m.data.creds {
		if filter.UserID != "" && c.UserID != filter.UserID {
			continue
		}
		if filter.Platform != "" && c.Platform != filter.Platform {
			continue
		}
		c := c
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return window(all, filter.Offset, filter.Limit), nil
}
