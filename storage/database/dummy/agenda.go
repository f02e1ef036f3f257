package dummydb

import (
	"context"
	"sort"

	"github.com/academia-app/academia/core"
	"github.com/academia-app/academia/core/agenda"
)

type agendaRepository struct {
	db *eventTable
}

var _ agenda.Repository = (*agendaRepository)(nil) // interface compliance check

func NewAgendaRepository(db *DB) agenda.Repository {
	return &agendaRepository{db: db.event}
}

func (repo *agendaRepository) CreateEvent(ctx context.Context, evt agenda.Event, exec ...core.DBExecutor) (agenda.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	evt.ID = repo.db.seq
	repo.db.table[evt.ID] = &evt
	return evt, nil
}

func (repo *agendaRepository) GetEventByID(ctx context.Context, id int, exec ...core.DBExecutor) (agenda.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if evt, ok := repo.db.table[id]; ok {
		return *evt, nil
	}
	return agenda.Event{}, agenda.ErrEventNotFound
}

func (repo *agendaRepository) QueryEvents(ctx context.Context, studentID int, filter agenda.QueryFilter, exec ...core.DBExecutor) ([]agenda.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]agenda.Event, 0)
	for _, evt := range repo.db.table {
		if evt.StudentID != studentID {
			continue
		}
		if !(evt.StartAt.Before(filter.To) && evt.EndAt.After(filter.From)) {
			continue
		}
		if filter.Completed != nil && evt.IsCompleted != *filter.Completed {
			continue
		}
		if filter.CourseID != nil && (!evt.CourseID.Valid || evt.CourseID.Int != *filter.CourseID) {
			continue
		}
		events = append(events, *evt)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartAt.Before(events[j].StartAt) })
	return events, nil
}

func (repo *agendaRepository) UpdateEvent(ctx context.Context, evt agenda.Event, exec ...core.DBExecutor) (agenda.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[evt.ID]; !ok {
		return agenda.Event{}, agenda.ErrEventNotFound
	}
	repo.db.table[evt.ID] = &evt
	return evt, nil
}

func (repo *agendaRepository) DeleteEvent(ctx context.Context, id int, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return agenda.ErrEventNotFound
	}
	delete(repo.db.table, id)
	return nil
}
