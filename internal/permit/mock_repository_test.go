package permit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/frahmantamala/permit-to-work/internal/auth"
)

// mockRepository keeps permits in memory and honours the same guards as the
// SQL repository.
type mockRepository struct {
	mu      sync.Mutex
	permits map[int64]*Permit
	nextID  int64

	failNext      error
	failResetFor  map[int64]error
	deletedPermit []int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		permits:      make(map[int64]*Permit),
		nextID:       1,
		failResetFor: make(map[int64]error),
	}
}

func (m *mockRepository) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *mockRepository) takeError() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func clonePermit(p *Permit) *Permit {
	cp := *p
	cp.Approvals = make(map[auth.Role]string, len(p.Approvals))
	for k, v := range p.Approvals {
		cp.Approvals[k] = v
	}
	cp.History = append([]HistoryEntry(nil), p.History...)
	return &cp
}

// seed stores p as-is and returns its id.
func (m *mockRepository) seed(p *Permit) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.nextID
	}
	if p.ID >= m.nextID {
		m.nextID = p.ID + 1
	}
	if p.Approvals == nil {
		p.Approvals = map[auth.Role]string{}
	}
	m.permits[p.ID] = clonePermit(p)
	return p.ID
}

func (m *mockRepository) get(id int64) *Permit {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.permits[id]
	if !ok {
		return nil
	}
	return clonePermit(p)
}

func (m *mockRepository) Create(_ context.Context, p *Permit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeError(); err != nil {
		return err
	}
	p.ID = m.nextID
	m.nextID++
	m.permits[p.ID] = clonePermit(p)
	return nil
}

func (m *mockRepository) GetByID(_ context.Context, id int64) (*Permit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeError(); err != nil {
		return nil, err
	}
	p, ok := m.permits[id]
	if !ok {
		return nil, ErrPermitNotFound
	}
	return clonePermit(p), nil
}

func (m *mockRepository) list(match func(*Permit) bool) []*Permit {
	out := make([]*Permit, 0)
	for _, p := range m.permits {
		if match(p) {
			out = append(out, clonePermit(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *mockRepository) ListAll(_ context.Context) ([]*Permit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeError(); err != nil {
		return nil, err
	}
	return m.list(func(*Permit) bool { return true }), nil
}

func (m *mockRepository) ListByFirm(_ context.Context, firm string) ([]*Permit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeError(); err != nil {
		return nil, err
	}
	return m.list(func(p *Permit) bool { return p.EntreprenorFirma == firm }), nil
}

func (m *mockRepository) UpdateFields(_ context.Context, id int64, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeError(); err != nil {
		return err
	}
	p, ok := m.permits[id]
	if !ok {
		return ErrPermitNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			p.Status = Status(v.(string))
		case "status_dag":
			p.StatusDag = DayStatus(v.(string))
		case "ikon":
			p.Ikon = Icon(v.(string))
		case "sluttid":
			switch t := v.(type) {
			case time.Time:
				p.Sluttid = &t
			case *time.Time:
				p.Sluttid = t
			default:
				p.Sluttid = nil
			}
		}
	}
	return nil
}

func (m *mockRepository) DeleteCascade(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeError(); err != nil {
		return err
	}
	if _, ok := m.permits[id]; !ok {
		return ErrPermitNotFound
	}
	delete(m.permits, id)
	m.deletedPermit = append(m.deletedPermit, id)
	return nil
}

func (m *mockRepository) RecordApproval(_ context.Context, req ApprovalRequest) (ApprovalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeError(); err != nil {
		return ApprovalRecord{}, err
	}
	p, ok := m.permits[req.PermitID]
	if !ok {
		return ApprovalRecord{}, ErrPermitNotFound
	}
	if p.Approvals[req.Role] == req.Day {
		return ApprovalRecord{}, nil
	}
	p.Approvals[req.Role] = req.Day
	p.History = append(p.History, HistoryEntry{Timestamp: req.At, UserID: req.UserID, Role: req.Role})
	return ApprovalRecord{Recorded: true, ApprovedCount: p.ApprovedCountOn(req.Day)}, nil
}

func (m *mockRepository) ListStaleWorking(_ context.Context, day string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeError(); err != nil {
		return nil, err
	}
	ids := make([]int64, 0)
	for id, p := range m.permits {
		if p.NeedsReset(day) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *mockRepository) ResetDayStatus(_ context.Context, id int64, day string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failResetFor[id]; ok {
		return false, err
	}
	p, ok := m.permits[id]
	if !ok || !p.NeedsReset(day) {
		return false, nil
	}
	p.StatusDag = DayStatusAwaitingApproval
	p.Ikon = IconDefault
	p.Sluttid = nil
	return true, nil
}

func (m *mockRepository) SetDayStatus(_ context.Context, change DayStatusChange) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeError(); err != nil {
		return false, err
	}
	p, ok := m.permits[change.PermitID]
	if !ok || p.Status != StatusActive || !p.FullyApprovedOn(change.Day) {
		return false, nil
	}
	p.StatusDag = change.StatusDag
	p.Ikon = change.Ikon
	p.Sluttid = change.Sluttid
	return true, nil
}

type mockMarkers struct {
	mu      sync.Mutex
	markers map[string]string
	saves   int
}

func newMockMarkers() *mockMarkers {
	return &mockMarkers{markers: make(map[string]string)}
}

func (m *mockMarkers) GetMarker(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markers[name], nil
}

func (m *mockMarkers) SaveMarker(_ context.Context, name, day string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers[name] = day
	m.saves++
	return nil
}
