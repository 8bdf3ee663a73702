package service

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/Shivanand-hulikatti/berletkezelo/internal/model"
	"github.com/Shivanand-hulikatti/berletkezelo/internal/repository"
)

var errBoom = errors.New("boom")

// memStore is an in-memory repository.Store. InTx snapshots every table
// and restores the snapshot when fn fails, so rollback behaves like the
// database. fail makes the named method return its error.
type memStore struct {
	nextID int64

	users    map[int64]model.User
	events   map[int64]model.Event
	passes   map[int64]model.Pass
	usages   map[int64]model.PassUsage
	requests map[int64]model.PassRequest
	regs     map[int64]model.EventRegistration
	waitlist map[int64]model.WaitlistEntry

	fail map[string]error
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]model.User{},
		events:   map[int64]model.Event{},
		passes:   map[int64]model.Pass{},
		usages:   map[int64]model.PassUsage{},
		requests: map[int64]model.PassRequest{},
		regs:     map[int64]model.EventRegistration{},
		waitlist: map[int64]model.WaitlistEntry{},
		fail:     map[string]error{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) failed(method string) error {
	return m.fail[method]
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneReg(r model.EventRegistration) model.EventRegistration {
	if r.Pass != nil {
		l := model.PassLink{PassID: clonePtr(r.Pass.PassID), UsageID: clonePtr(r.Pass.UsageID)}
		r.Pass = &l
	}
	r.CancelledAt = clonePtr(r.CancelledAt)
	return r
}

func cloneEntry(w model.WaitlistEntry) model.WaitlistEntry {
	w.PassID = clonePtr(w.PassID)
	return w
}

func cloneMap[V any](src map[int64]V, f func(V) V) map[int64]V {
	out := make(map[int64]V, len(src))
	for k, v := range src {
		if f != nil {
			v = f(v)
		}
		out[k] = v
	}
	return out
}

func sortedIDs[V any](src map[int64]V) []int64 {
	return slices.Sorted(maps.Keys(src))
}

func (m *memStore) InTx(ctx context.Context, fn func(q repository.Queries) error) error {
	if err := m.failed("InTx"); err != nil {
		return err
	}
	snap := &memStore{
		nextID:   m.nextID,
		users:    cloneMap(m.users, nil),
		events:   cloneMap(m.events, nil),
		passes:   cloneMap(m.passes, nil),
		usages:   cloneMap(m.usages, nil),
		requests: cloneMap(m.requests, func(pr model.PassRequest) model.PassRequest { pr.DecidedAt = clonePtr(pr.DecidedAt); return pr }),
		regs:     cloneMap(m.regs, cloneReg),
		waitlist: cloneMap(m.waitlist, cloneEntry),
	}
	if err := fn(m); err != nil {
		m.nextID = snap.nextID
		m.users, m.events, m.passes, m.usages = snap.users, snap.events, snap.passes, snap.usages
		m.requests, m.regs, m.waitlist = snap.requests, snap.regs, snap.waitlist
		return err
	}
	return nil
}

// users

func (m *memStore) CreateUser(_ context.Context, u *model.User) error {
	for _, o := range m.users {
		if o.Username == u.Username || o.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now()
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) GetUser(_ context.Context, id int64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) ListUsers(context.Context) ([]model.User, error) {
	var out []model.User
	for _, id := range sortedIDs(m.users) {
		out = append(out, m.users[id])
	}
	return out, nil
}

func (m *memStore) DeleteUser(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	for pid, p := range m.passes {
		if p.UserID == id {
			_ = m.DeletePass(ctx, pid)
		}
	}
	for rid, pr := range m.requests {
		if pr.UserID == id {
			delete(m.requests, rid)
		}
	}
	for rid, r := range m.regs {
		if r.UserID == id {
			delete(m.regs, rid)
		}
	}
	for wid, w := range m.waitlist {
		if w.UserID == id {
			delete(m.waitlist, wid)
		}
	}
	delete(m.users, id)
	return nil
}

// events

func (m *memStore) withCount(e model.Event) *model.Event {
	e.ActiveCount = 0
	for _, r := range m.regs {
		if r.EventID == e.ID && r.IsActive() {
			e.ActiveCount++
		}
	}
	return &e
}

func (m *memStore) CreateEvent(_ context.Context, e *model.Event) error {
	e.ID = m.id()
	m.events[e.ID] = *e
	return nil
}

func (m *memStore) GetEvent(_ context.Context, id int64) (*model.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.withCount(e), nil
}

func (m *memStore) LockEvent(ctx context.Context, id int64) (*model.Event, error) {
	return m.GetEvent(ctx, id)
}

func (m *memStore) ListEvents(_ context.Context, from, to time.Time) ([]model.Event, error) {
	var out []model.Event
	for _, id := range sortedIDs(m.events) {
		e := m.events[id]
		if !e.StartTime.Before(from) && e.StartTime.Before(to) {
			out = append(out, *m.withCount(e))
		}
	}
	return out, nil
}

func (m *memStore) DeleteEvent(_ context.Context, id int64) error {
	if _, ok := m.events[id]; !ok {
		return repository.ErrNotFound
	}
	for rid, r := range m.regs {
		if r.EventID == id {
			delete(m.regs, rid)
		}
	}
	for wid, w := range m.waitlist {
		if w.EventID == id {
			delete(m.waitlist, wid)
		}
	}
	delete(m.events, id)
	return nil
}

// passes

func (m *memStore) CreatePass(_ context.Context, p *model.Pass) error {
	p.ID = m.id()
	m.passes[p.ID] = *p
	return nil
}

func (m *memStore) GetPass(_ context.Context, id int64) (*model.Pass, error) {
	p, ok := m.passes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) LockPass(ctx context.Context, id int64) (*model.Pass, error) {
	return m.GetPass(ctx, id)
}

// ListAvailablePasses returns candidates in id order; ordering by expiry is
// left to the caller.
func (m *memStore) ListAvailablePasses(_ context.Context, userID int64, day time.Time) ([]model.Pass, error) {
	var out []model.Pass
	for _, id := range sortedIDs(m.passes) {
		p := m.passes[id]
		if p.UserID == userID && p.Available(day) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) ListPassesByUser(_ context.Context, userID int64) ([]model.Pass, error) {
	var out []model.Pass
	for _, id := range sortedIDs(m.passes) {
		if p := m.passes[id]; p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) SetPassUsedCount(_ context.Context, passID int64, usedCount int) error {
	p, ok := m.passes[passID]
	if !ok {
		return repository.ErrNotFound
	}
	if usedCount < 0 || usedCount > p.TotalUses {
		return errors.New("passes_used_range violated")
	}
	p.UsedCount = usedCount
	m.passes[passID] = p
	return nil
}

func (m *memStore) DeletePass(_ context.Context, id int64) error {
	if _, ok := m.passes[id]; !ok {
		return repository.ErrNotFound
	}
	for uid, u := range m.usages {
		if u.PassID == id {
			delete(m.usages, uid)
		}
	}
	for rid, r := range m.regs {
		if r.PassID() == id {
			r.Pass.PassID = nil
			m.regs[rid] = r
		}
	}
	for wid, w := range m.waitlist {
		if w.PreferredPassID() == id {
			w.PassID = nil
			m.waitlist[wid] = w
		}
	}
	delete(m.passes, id)
	return nil
}

func (m *memStore) InsertPassUsage(_ context.Context, passID int64, usedOn time.Time) (int64, error) {
	if err := m.failed("InsertPassUsage"); err != nil {
		return 0, err
	}
	u := model.PassUsage{ID: m.id(), PassID: passID, UsedOn: usedOn}
	m.usages[u.ID] = u
	return u.ID, nil
}

func (m *memStore) DeletePassUsage(_ context.Context, usageID int64) error {
	delete(m.usages, usageID)
	return nil
}

func (m *memStore) CreatePassRequest(_ context.Context, pr *model.PassRequest) error {
	pr.ID = m.id()
	pr.CreatedAt = time.Now()
	m.requests[pr.ID] = *pr
	return nil
}

func (m *memStore) LockPassRequest(_ context.Context, id int64) (*model.PassRequest, error) {
	pr, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &pr, nil
}

func (m *memStore) ListPendingPassRequests(context.Context) ([]model.PassRequest, error) {
	var out []model.PassRequest
	for _, id := range sortedIDs(m.requests) {
		if pr := m.requests[id]; pr.Status == model.PassRequestPending {
			out = append(out, pr)
		}
	}
	return out, nil
}

func (m *memStore) UpdatePassRequest(_ context.Context, pr *model.PassRequest) error {
	if _, ok := m.requests[pr.ID]; !ok {
		return repository.ErrNotFound
	}
	m.requests[pr.ID] = *pr
	return nil
}

// registrations

func (m *memStore) InsertRegistration(_ context.Context, r *model.EventRegistration) error {
	if err := m.failed("InsertRegistration"); err != nil {
		return err
	}
	for _, o := range m.regs {
		if o.EventID == r.EventID && o.UserID == r.UserID && o.IsActive() && r.IsActive() {
			return repository.ErrAlreadyRegistered
		}
	}
	r.ID = m.id()
	m.regs[r.ID] = cloneReg(*r)
	return nil
}

func (m *memStore) GetRegistration(_ context.Context, id int64) (*model.EventRegistration, error) {
	r, ok := m.regs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r = cloneReg(r)
	return &r, nil
}

func (m *memStore) GetActiveRegistration(_ context.Context, eventID, userID int64) (*model.EventRegistration, error) {
	for _, id := range sortedIDs(m.regs) {
		r := m.regs[id]
		if r.EventID == eventID && r.UserID == userID && r.IsActive() {
			r = cloneReg(r)
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) UpdateRegistration(_ context.Context, r *model.EventRegistration) error {
	if err := m.failed("UpdateRegistration"); err != nil {
		return err
	}
	cur, ok := m.regs[r.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Status = r.Status
	cur.CancelledAt = clonePtr(r.CancelledAt)
	cur.IsLateCancel = r.IsLateCancel
	if cur.Pass != nil && r.Pass != nil {
		cur.Pass.UsageID = clonePtr(r.Pass.UsageID)
	}
	m.regs[r.ID] = cur
	return nil
}

func (m *memStore) listRegs(keep func(model.EventRegistration) bool) []model.EventRegistration {
	var out []model.EventRegistration
	for _, id := range sortedIDs(m.regs) {
		if r := m.regs[id]; keep(r) {
			out = append(out, cloneReg(r))
		}
	}
	return out
}

func (m *memStore) ListActiveRegistrations(_ context.Context, eventID int64) ([]model.EventRegistration, error) {
	return m.listRegs(func(r model.EventRegistration) bool { return r.EventID == eventID && r.IsActive() }), nil
}

func (m *memStore) ListRegistrationsByUser(_ context.Context, userID int64) ([]model.EventRegistration, error) {
	return m.listRegs(func(r model.EventRegistration) bool { return r.UserID == userID }), nil
}

func (m *memStore) ListActiveUpcomingByUser(_ context.Context, userID int64, now time.Time) ([]model.EventRegistration, error) {
	return m.listRegs(func(r model.EventRegistration) bool {
		return r.UserID == userID && r.IsActive() && m.events[r.EventID].StartTime.After(now)
	}), nil
}

// waitlist

func (m *memStore) InsertWaitlistEntry(_ context.Context, w *model.WaitlistEntry) error {
	for _, o := range m.waitlist {
		if o.EventID == w.EventID && o.UserID == w.UserID {
			return repository.ErrAlreadyWaitlisted
		}
	}
	w.ID = m.id()
	m.waitlist[w.ID] = cloneEntry(*w)
	return nil
}

func (m *memStore) GetWaitlistEntry(_ context.Context, id int64) (*model.WaitlistEntry, error) {
	w, ok := m.waitlist[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	w = cloneEntry(w)
	return &w, nil
}

func (m *memStore) FindWaitlistEntry(_ context.Context, eventID, userID int64) (*model.WaitlistEntry, error) {
	for _, w := range m.waitlist {
		if w.EventID == eventID && w.UserID == userID {
			w = cloneEntry(w)
			return &w, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) ListWaitlist(_ context.Context, eventID int64) ([]model.WaitlistEntry, error) {
	var out []model.WaitlistEntry
	for _, w := range m.waitlist {
		if w.EventID == eventID {
			out = append(out, cloneEntry(w))
		}
	}
	slices.SortFunc(out, func(a, b model.WaitlistEntry) int {
		if a.Before(&b) {
			return -1
		}
		if b.Before(&a) {
			return 1
		}
		return 0
	})
	return out, nil
}

func (m *memStore) NextWaitlistEntry(ctx context.Context, eventID int64) (*model.WaitlistEntry, error) {
	list, _ := m.ListWaitlist(ctx, eventID)
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	return &list[0], nil
}

func (m *memStore) DeleteWaitlistEntry(_ context.Context, id int64) error {
	if _, ok := m.waitlist[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.waitlist, id)
	return nil
}

// notifications

func (m *memStore) attendance(keep func(model.EventRegistration, model.Event) bool) []model.Attendance {
	var out []model.Attendance
	for _, id := range sortedIDs(m.regs) {
		r := m.regs[id]
		e := m.events[r.EventID]
		if !keep(r, e) {
			continue
		}
		a := model.Attendance{Registration: cloneReg(r), Event: e, User: m.users[r.UserID]}
		if p, ok := m.passes[r.PassID()]; ok {
			a.Pass = &p
		}
		out = append(out, a)
	}
	return out
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func (m *memStore) ListReminderDue(_ context.Context, from, to time.Time) ([]model.Attendance, error) {
	return m.attendance(func(r model.EventRegistration, e model.Event) bool {
		return r.IsActive() && !r.ReminderSent && e.StartTime.After(from) && !e.StartTime.After(to)
	}), nil
}

func (m *memStore) ListPassDeductionDue(_ context.Context, from, to time.Time) ([]model.Attendance, error) {
	return m.attendance(func(r model.EventRegistration, e model.Event) bool {
		return r.HoldsUsage() && r.Status != model.StatusCancelled && !r.PassDeductionNotified && within(e.EndTime, from, to)
	}), nil
}

func (m *memStore) ListThankYouDue(_ context.Context, from, to time.Time) ([]model.Attendance, error) {
	return m.attendance(func(r model.EventRegistration, e model.Event) bool {
		return r.IsActive() && !r.HoldsUsage() && !r.ThankYouSent && within(e.EndTime, from, to)
	}), nil
}

func (m *memStore) mark(id int64, flag func(*model.EventRegistration) *bool) (bool, error) {
	r, ok := m.regs[id]
	if !ok {
		return false, nil
	}
	f := flag(&r)
	if *f {
		return false, nil
	}
	*f = true
	m.regs[id] = r
	return true, nil
}

func (m *memStore) MarkReminderSent(_ context.Context, id int64) (bool, error) {
	return m.mark(id, func(r *model.EventRegistration) *bool { return &r.ReminderSent })
}

func (m *memStore) MarkPassDeductionNotified(_ context.Context, id int64) (bool, error) {
	return m.mark(id, func(r *model.EventRegistration) *bool { return &r.PassDeductionNotified })
}

func (m *memStore) MarkThankYouSent(_ context.Context, id int64) (bool, error) {
	return m.mark(id, func(r *model.EventRegistration) *bool { return &r.ThankYouSent })
}
