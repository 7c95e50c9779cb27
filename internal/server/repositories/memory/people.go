package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/server/models"
)

type peopleRepo struct {
	m    *Manager
	inTx bool
}

func (r *peopleRepo) Create(ctx context.Context, person *models.Person) (*models.Person, error) {
	defer r.m.lock(r.inTx)()
	d := r.m.data

	key := personKey{person.Platform, person.PlatformAccountID}
	if _, ok := d.personByAcct[key]; ok {
		return nil, common.ErrorAlreadyExists
	}

	now := r.m.now()
	person.ID = r.m.newID()
	person.CreatedAt, person.UpdatedAt = now, now

	d.people[person.ID] = *person
	d.personByAcct[key] = person.ID
	return person, nil
}

func (r *peopleRepo) FindByID(ctx context.Context, id string) (*models.Person, error) {
	defer r.m.lock(r.inTx)()

	p, ok := r.m.data.people[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (r *peopleRepo) FindByPlatformAccount(ctx context.Context, platform models.Platform, platformAccountID string) (*models.Person, error) {
	defer r.m.lock(r.inTx)()
	d := r.m.data

	id, ok := d.personByAcct[personKey{platform, platformAccountID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	p := d.people[id]
	return &p, nil
}

func (r *peopleRepo) List(ctx context.Context, offset, limit int) ([]*models.Person, error) {
	defer r.m.lock(r.inTx)()

	all := make([]*models.Person, 0, len(r.m.data.people))
	for _, p := range r.m.data.people {
		p := p
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return window(all, offset, limit), nil
}

func (r *peopleRepo) UpdateProfile(ctx context.Context, person *models.Person) error {
	defer r.m.lock(r.inTx)()
	d := r.m.data

	p, ok := d.people[person.ID]
	if !ok {
		return common.ErrorNotFound
	}
	p.Name = person.Name
	p.Username = person.Username
	p.ProfileImageURL = person.ProfileImageURL
	p.UpdatedAt = r.m.now()
	d.people[p.ID] = p
	return nil
}

func window[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
