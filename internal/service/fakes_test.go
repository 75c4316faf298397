package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-io/ticket-service/internal/access"
	"github.com/helpdesk-io/ticket-service/internal/domain"
	"github.com/helpdesk-io/ticket-service/internal/events"
	"github.com/helpdesk-io/ticket-service/internal/repository"
	"github.com/helpdesk-io/ticket-service/internal/ticketcode"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type memTickets struct {
	mu        sync.Mutex
	nextID    int64
	rows      map[int64]domain.Ticket
	createErr error
	// taken simulates codes inserted by a concurrent writer.
	taken map[string]bool
}

func newMemTickets() *memTickets {
	return &memTickets{rows: map[int64]domain.Ticket{}, taken: map[string]bool{}}
}

func (m *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if m.taken[ticket.Code] {
		return repository.ErrDuplicateCode
	}
	for _, row := range m.rows {
		if row.Code == ticket.Code {
			return repository.ErrDuplicateCode
		}
	}
	m.nextID++
	ticket.ID = m.nextID
	m.rows[ticket.ID] = *ticket
	return nil
}

func (m *memTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.rows[ticket.ID] = *ticket
	return nil
}

func (m *memTickets) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

func (m *memTickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (m *memTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Ticket
	for _, row := range m.rows {
		if matches(row, filter) {
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j], filter.Order) })
	return page(result, filter.Limit, filter.Offset), nil
}

func (m *memTickets) Count(ctx context.Context, filter repository.TicketFilter) (int64, error) {
	rows, err := m.List(ctx, filter)
	return int64(len(rows)), err
}

func (m *memTickets) LatestCodeBetween(_ context.Context, prefix string, from, to time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := ""
	for _, row := range m.rows {
		if !strings.HasPrefix(row.Code, prefix) || row.CreatedAt.Before(from) || row.CreatedAt.After(to) {
			continue
		}
		if _, err := ticketcode.ParseSequence(row.Code); err != nil {
			continue
		}
		if len(row.Code) > len(latest) || (len(row.Code) == len(latest) && row.Code > latest) {
			latest = row.Code
		}
	}
	return latest, nil
}

func matches(t domain.Ticket, f repository.TicketFilter) bool {
	if f.RequesterID != nil && t.RequesterID != *f.RequesterID {
		return false
	}
	if f.AssigneeID != nil && !t.AssignedTo(*f.AssigneeID) {
		return false
	}
	if f.DepartmentID != nil && t.DepartmentID != *f.DepartmentID {
		return false
	}
	if f.Scope != nil {
		inDept := f.Scope.DepartmentID != nil && t.DepartmentID == *f.Scope.DepartmentID
		requested := f.Scope.IncludeRequested && t.RequesterID == f.Scope.AssigneeID
		if !inDept && !requested && !t.AssignedTo(f.Scope.AssigneeID) {
			return false
		}
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if t.StatusID == s {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.DueBefore != nil && t.DueAt.After(*f.DueBefore) {
		return false
	}
	if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && t.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	return true
}

// page mirrors LIMIT/OFFSET; a non-positive limit is unbounded.
func page(rows []domain.Ticket, limit, offset int) []domain.Ticket {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// less mirrors the ORDER BY clauses; priority ids equal levels in fixtures.
func less(a, b domain.Ticket, order repository.TicketOrder) bool {
	switch order {
	case repository.OrderUrgency:
		if a.PriorityID != b.PriorityID {
			return a.PriorityID < b.PriorityID
		}
		if !a.DueAt.Equal(b.DueAt) {
			return a.DueAt.Before(b.DueAt)
		}
		return a.ID < b.ID
	case repository.OrderPriorityCreated:
		if a.PriorityID != b.PriorityID {
			return a.PriorityID < b.PriorityID
		}
		return a.CreatedAt.Before(b.CreatedAt) || (a.CreatedAt.Equal(b.CreatedAt) && a.ID < b.ID)
	default:
		return a.CreatedAt.After(b.CreatedAt) || (a.CreatedAt.Equal(b.CreatedAt) && a.ID > b.ID)
	}
}

type memDepartments struct {
	rows map[int64]domain.Department
	err  error
}

func (m *memDepartments) Create(_ context.Context, dept *domain.Department) error {
	for _, row := range m.rows {
		if strings.EqualFold(row.Name, dept.Name) {
			return repository.ErrDuplicate
		}
	}
	for id := range m.rows {
		if id >= dept.ID {
			dept.ID = id + 1
		}
	}
	m.rows[dept.ID] = *dept
	return nil
}

func (m *memDepartments) Update(_ context.Context, dept *domain.Department) error {
	if _, ok := m.rows[dept.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.rows[dept.ID] = *dept
	return nil
}

func (m *memDepartments) GetByID(_ context.Context, id int64) (*domain.Department, error) {
	if m.err != nil {
		return nil, m.err
	}
	row, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (m *memDepartments) List(_ context.Context, includeInactive bool) ([]domain.Department, error) {
	var result []domain.Department
	for _, row := range m.rows {
		if row.IsActive || includeInactive {
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type memPriorities struct {
	rows map[int64]domain.Priority
}

func (m *memPriorities) GetByID(_ context.Context, id int64) (*domain.Priority, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (m *memPriorities) List(context.Context) ([]domain.Priority, error) {
	var result []domain.Priority
	for _, row := range m.rows {
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Level < result[j].Level })
	return result, nil
}

type memStatuses struct{}

func (memStatuses) List(context.Context) ([]domain.Status, error) {
	var result []domain.Status
	for id := domain.StatusNew; id <= domain.StatusClosed; id++ {
		result = append(result, domain.Status{ID: id, Name: id.String()})
	}
	return result, nil
}

type memUsers struct {
	rows   map[int64]domain.User
	err    error
	nextID int64
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.nextID++
	user.ID = 1000 + m.nextID
	m.rows[user.ID] = *user
	return nil
}

func (m *memUsers) Update(_ context.Context, user *domain.User) error {
	m.rows[user.ID] = *user
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	row, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *memUsers) GetByRUT(_ context.Context, rut string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.RUT != nil && *u.RUT == rut })
}

func (m *memUsers) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []domain.User
	for _, row := range m.rows {
		if filter.Role != nil && row.Role != *filter.Role {
			continue
		}
		if filter.DepartmentID != nil && (row.DepartmentID == nil || *row.DepartmentID != *filter.DepartmentID) {
			continue
		}
		if filter.ActiveOnly && !row.Active {
			continue
		}
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memUsers) find(pred func(domain.User) bool) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, row := range m.rows {
		if pred(row) {
			return &row, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memHistory struct {
	rows []domain.TicketHistory
	err  error
}

func (m *memHistory) Create(_ context.Context, entry *domain.TicketHistory) error {
	if m.err != nil {
		return m.err
	}
	entry.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *entry)
	return nil
}

func (m *memHistory) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	var result []domain.TicketHistory
	for _, row := range m.rows {
		if row.TicketID == ticketID {
			result = append(result, row)
		}
	}
	return result, nil
}

// snapshotTx rolls the ticket and history fakes back when fn fails.
type snapshotTx struct {
	tickets *memTickets
	history *memHistory
	calls   int
}

func (s *snapshotTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	s.tickets.mu.Lock()
	rows := make(map[int64]domain.Ticket, len(s.tickets.rows))
	for id, row := range s.tickets.rows {
		rows[id] = row
	}
	nextID := s.tickets.nextID
	s.tickets.mu.Unlock()
	entries := append([]domain.TicketHistory(nil), s.history.rows...)

	if err := fn(ctx); err != nil {
		s.tickets.mu.Lock()
		s.tickets.rows, s.tickets.nextID = rows, nextID
		s.tickets.mu.Unlock()
		s.history.rows = entries
		return err
	}
	return nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	var out []events.EventType
	for _, e := range d.published {
		out = append(out, e.Type)
	}
	return out
}

var errStoreDown = errors.New("store unavailable")

// Fixture ids.
const (
	deptSupport    int64 = 3
	deptNetworking int64 = 4
	deptArchived   int64 = 9

	clientAlice int64 = 42
	clientBob   int64 = 7
	agentAna    int64 = 100
	agentBeto   int64 = 101
	agentOther  int64 = 102
	adminRoot   int64 = 1
)

type fixture struct {
	clock       *fakeClock
	tickets     *memTickets
	departments *memDepartments
	priorities  *memPriorities
	users       *memUsers
	history     *memHistory
	tx          *snapshotTx
	dispatcher  *recordingDispatcher
}

func newFixture() *fixture {
	support, networking := deptSupport, deptNetworking
	f := &fixture{
		clock:   &fakeClock{now: time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)},
		tickets: newMemTickets(),
		departments: &memDepartments{rows: map[int64]domain.Department{
			deptSupport:    {ID: deptSupport, Name: "Support", IsActive: true},
			deptNetworking: {ID: deptNetworking, Name: "Networking", IsActive: true},
			deptArchived:   {ID: deptArchived, Name: "Archived", IsActive: false},
		}},
		priorities: &memPriorities{rows: map[int64]domain.Priority{
			1: {ID: 1, Name: "High", Level: domain.PriorityLevelHigh},
			2: {ID: 2, Name: "Medium", Level: domain.PriorityLevelMedium},
			3: {ID: 3, Name: "Low", Level: domain.PriorityLevelLow},
			8: {ID: 8, Name: "Someday", Level: 8},
		}},
		users: &memUsers{rows: map[int64]domain.User{
			adminRoot:   {ID: adminRoot, Name: "Root", Email: "root@helpdesk.test", Role: domain.RoleAdministrator, Active: true},
			clientAlice: {ID: clientAlice, Name: "Alice", Email: "alice@example.com", Role: domain.RoleClient, Active: true},
			clientBob:   {ID: clientBob, Name: "Bob", Email: "bob@example.com", Role: domain.RoleClient, Active: true},
			agentAna:    {ID: agentAna, Name: "Ana", Email: "ana@helpdesk.test", Role: domain.RoleResponsible, DepartmentID: &support, Active: true},
			agentBeto:   {ID: agentBeto, Name: "Beto", Email: "beto@helpdesk.test", Role: domain.RoleResponsible, DepartmentID: &support, Active: true},
			agentOther:  {ID: agentOther, Name: "Olga", Email: "olga@helpdesk.test", Role: domain.RoleResponsible, DepartmentID: &networking, Active: true},
		}},
		history:    &memHistory{},
		dispatcher: &recordingDispatcher{},
	}
	f.tx = &snapshotTx{tickets: f.tickets, history: f.history}
	return f
}

func (f *fixture) ticketService() *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo:     f.tickets,
		DepartmentRepo: f.departments,
		PriorityRepo:   f.priorities,
		UserRepo:       f.users,
		HistoryRepo:    f.history,
		Transactor:     f.tx,
		Dispatcher:     f.dispatcher,
		Clock:          f.clock.Now,
	})
}

func (f *fixture) principal(id int64) *access.Principal {
	user := f.users.rows[id]
	return access.FromUser(&user)
}
