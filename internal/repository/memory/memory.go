// Package memory is an in-process repository.Store used by tests and local runs. It enforces
// the same constraints the Postgres schema does and applies transactions atomically by
// swapping in a modified snapshot.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rotadesk/backend/internal/domain"
	"github.com/rotadesk/backend/internal/overlap"
	"github.com/rotadesk/backend/internal/repository"
)

type Store struct {
	*view

	mu       sync.Mutex
	data     *state
	failures map[string]error
	now      func() time.Time
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	s := &Store{
		data:     newState(),
		failures: map[string]error{},
		now:      time.Now,
	}
	s.view = &view{store: s}
	return s
}

// FailOn makes every later call of the named Querier method fail with err. A nil err clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// SetClock replaces the source of created_at timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// WithTx serialises against every other caller. fn sees a private snapshot that replaces the
// shared one only when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(q repository.Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.NewStoreError("begin transaction", err)
	}

	tx := &view{store: s, tx: s.data.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}

	s.data = tx.tx
	return nil
}

type view struct {
	store *Store
	tx    *state
	inTx  bool
}

// begin returns the state to operate on and the function releasing it.
func (v *view) begin(op string) (*state, func(), error) {
	release := func() {}
	data := v.tx
	if !v.inTx {
		v.store.mu.Lock()
		release = v.store.mu.Unlock
		data = v.store.data
	}

	if err, ok := v.store.failures[op]; ok {
		release()
		return nil, nil, domain.NewStoreError(op, err)
	}

	return data, release, nil
}

func (v *view) GetAccountByID(_ context.Context, id int64) (*domain.Account, error) {
	st, release, err := v.begin("GetAccountByID")
	if err != nil {
		return nil, err
	}
	defer release()

	a, ok := st.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (v *view) GetAccountByEmail(_ context.Context, email string) (*domain.Account, error) {
	st, release, err := v.begin("GetAccountByEmail")
	if err != nil {
		return nil, err
	}
	defer release()

	for _, a := range st.accounts {
		if a.Email == email {
			c := *a
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (v *view) InsertAccount(_ context.Context, account *domain.Account) error {
	st, release, err := v.begin("InsertAccount")
	if err != nil {
		return err
	}
	defer release()

	for _, a := range st.accounts {
		if a.Email == account.Email {
			updated := *a
			updated.FullName = account.FullName
			st.accounts[a.ID] = &updated
			account.ID, account.CreatedAt = a.ID, a.CreatedAt
			return nil
		}
	}

	account.ID = st.id()
	account.CreatedAt = v.store.now()
	c := *account
	st.accounts[account.ID] = &c
	return nil
}

func (v *view) InsertTenant(_ context.Context, tenant *domain.Tenant) error {
	st, release, err := v.begin("InsertTenant")
	if err != nil {
		return err
	}
	defer release()

	tenant.ID = st.id()
	tenant.CreatedAt = v.store.now()
	c := *tenant
	st.tenants[tenant.ID] = &c
	return nil
}

func (v *view) GetMembership(_ context.Context, tenantID, accountID int64) (*domain.Membership, error) {
	st, release, err := v.begin("GetMembership")
	if err != nil {
		return nil, err
	}
	defer release()

	m, ok := st.memberships[membershipKey{tenantID, accountID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (v *view) UpsertMembership(_ context.Context, membership *domain.Membership) error {
	st, release, err := v.begin("UpsertMembership")
	if err != nil {
		return err
	}
	defer release()

	if _, ok := st.tenants[membership.TenantID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := st.accounts[membership.AccountID]; !ok {
		return domain.ErrNotFound
	}

	c := *membership
	st.memberships[membershipKey{membership.TenantID, membership.AccountID}] = &c
	return nil
}

func (v *view) GetStaff(_ context.Context, tenantID, id int64) (*domain.Staff, error) {
	st, release, err := v.begin("GetStaff")
	if err != nil {
		return nil, err
	}
	defer release()

	s, ok := st.staff[id]
	if !ok || s.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return copyStaff(s), nil
}

func (v *view) GetStaffByLinkedUser(_ context.Context, tenantID, accountID int64) (*domain.Staff, error) {
	st, release, err := v.begin("GetStaffByLinkedUser")
	if err != nil {
		return nil, err
	}
	defer release()

	for _, s := range st.staff {
		if s.TenantID == tenantID && s.LinkedUserID != nil && *s.LinkedUserID == accountID {
			return copyStaff(s), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (v *view) ListStaff(_ context.Context, tenantID int64) ([]*domain.Staff, error) {
	st, release, err := v.begin("ListStaff")
	if err != nil {
		return nil, err
	}
	defer release()

	staff := []*domain.Staff{}
	for _, s := range st.staff {
		if s.TenantID == tenantID {
			staff = append(staff, copyStaff(s))
		}
	}
	sort.Slice(staff, func(i, j int) bool {
		if staff[i].Name != staff[j].Name {
			return staff[i].Name < staff[j].Name
		}
		return staff[i].ID < staff[j].ID
	})
	return staff, nil
}

func (v *view) InsertStaff(_ context.Context, staff *domain.Staff) error {
	st, release, err := v.begin("InsertStaff")
	if err != nil {
		return err
	}
	defer release()

	if _, ok := st.tenants[staff.TenantID]; !ok {
		return domain.ErrNotFound
	}
	if staff.LinkedUserID != nil {
		if _, ok := st.accounts[*staff.LinkedUserID]; !ok {
			return domain.ErrNotFound
		}
	}

	staff.ID = st.id()
	staff.CreatedAt = v.store.now()
	st.staff[staff.ID] = copyStaff(staff)
	return nil
}

// DeleteStaff cascades to the member's shifts, holidays and requests like the schema does.
func (v *view) DeleteStaff(_ context.Context, tenantID, id int64) error {
	st, release, err := v.begin("DeleteStaff")
	if err != nil {
		return err
	}
	defer release()

	s, ok := st.staff[id]
	if !ok || s.TenantID != tenantID {
		return domain.ErrNotFound
	}
	delete(st.staff, id)

	for shiftID, shift := range st.shifts {
		if shift.HeldBy(id) {
			deleteShift(st, shiftID)
		}
	}
	for hid, h := range st.holidays {
		if h.StaffID == id {
			delete(st.holidays, hid)
		}
	}
	for rid, r := range st.holidayRequests {
		if r.StaffID == id {
			delete(st.holidayRequests, rid)
		}
	}
	for rid, r := range st.swapRequests {
		switch {
		case r.RequestedBy == id:
			delete(st.swapRequests, rid)
		case r.RequestedWith != nil && *r.RequestedWith == id:
			c := copySwapRequest(r)
			c.RequestedWith = nil
			st.swapRequests[rid] = c
		}
	}
	return nil
}

func deleteShift(st *state, id int64) {
	delete(st.shifts, id)
	for rid, r := range st.swapRequests {
		if r.ShiftID == id {
			delete(st.swapRequests, rid)
		}
	}
}

func (v *view) GetShift(_ context.Context, tenantID, id int64) (*domain.Shift, error) {
	st, release, err := v.begin("GetShift")
	if err != nil {
		return nil, err
	}
	defer release()

	s, ok := st.shifts[id]
	if !ok || s.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return copyShift(s), nil
}

func (v *view) ListShifts(_ context.Context, tenantID int64, filter repository.ShiftFilter) ([]*domain.Shift, error) {
	st, release, err := v.begin("ListShifts")
	if err != nil {
		return nil, err
	}
	defer release()

	shifts := []*domain.Shift{}
	for _, s := range st.shifts {
		if s.TenantID != tenantID {
			continue
		}
		if filter.IDs != nil && !slices.Contains(filter.IDs, s.ID) {
			continue
		}
		if filter.StaffID != nil && !s.HeldBy(*filter.StaffID) {
			continue
		}
		if !filter.From.IsZero() && s.StartTime.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !s.StartTime.Before(filter.To) {
			continue
		}
		shifts = append(shifts, copyShift(s))
	}
	sort.Slice(shifts, func(i, j int) bool {
		if !shifts[i].StartTime.Equal(shifts[j].StartTime) {
			return shifts[i].StartTime.Before(shifts[j].StartTime)
		}
		return shifts[i].ID < shifts[j].ID
	})
	return shifts, nil
}

func (v *view) checkShift(st *state, shift *domain.Shift) error {
	if !shift.EndTime.After(shift.StartTime) {
		return domain.ErrInvalidRange
	}
	if shift.StaffID != nil {
		s, ok := st.staff[*shift.StaffID]
		if !ok || s.TenantID != shift.TenantID {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (v *view) InsertShift(_ context.Context, shift *domain.Shift) error {
	st, release, err := v.begin("InsertShift")
	if err != nil {
		return err
	}
	defer release()

	if err := v.checkShift(st, shift); err != nil {
		return err
	}

	shift.ID = st.id()
	shift.CreatedAt = v.store.now()
	st.shifts[shift.ID] = copyShift(shift)
	return nil
}

func (v *view) UpdateShift(_ context.Context, shift *domain.Shift) error {
	st, release, err := v.begin("UpdateShift")
	if err != nil {
		return err
	}
	defer release()

	existing, ok := st.shifts[shift.ID]
	if !ok || existing.TenantID != shift.TenantID {
		return domain.ErrNotFound
	}
	if err := v.checkShift(st, shift); err != nil {
		return err
	}

	c := copyShift(shift)
	c.CreatedAt = existing.CreatedAt
	st.shifts[shift.ID] = c
	return nil
}

func (v *view) DeleteShift(_ context.Context, tenantID, id int64) error {
	st, release, err := v.begin("DeleteShift")
	if err != nil {
		return err
	}
	defer release()

	s, ok := st.shifts[id]
	if !ok || s.TenantID != tenantID {
		return domain.ErrNotFound
	}
	deleteShift(st, id)
	return nil
}

func (v *view) DeleteShifts(_ context.Context, tenantID int64, ids []int64) error {
	st, release, err := v.begin("DeleteShifts")
	if err != nil {
		return err
	}
	defer release()

	for _, id := range ids {
		if s, ok := st.shifts[id]; ok && s.TenantID == tenantID {
			deleteShift(st, id)
		}
	}
	return nil
}

func (v *view) ListHolidays(_ context.Context, tenantID int64, filter repository.HolidayFilter) ([]*domain.Holiday, error) {
	st, release, err := v.begin("ListHolidays")
	if err != nil {
		return nil, err
	}
	defer release()

	holidays := []*domain.Holiday{}
	for _, h := range st.holidays {
		if h.TenantID != tenantID {
			continue
		}
		if filter.StaffID != nil && h.StaffID != *filter.StaffID {
			continue
		}
		if !filter.To.IsZero() && h.StartDate.After(filter.To) {
			continue
		}
		if !filter.From.IsZero() && h.EndDate.Before(filter.From) {
			continue
		}
		holidays = append(holidays, copyHoliday(h))
	}
	sort.Slice(holidays, func(i, j int) bool {
		if !holidays[i].StartDate.Equal(holidays[j].StartDate) {
			return holidays[i].StartDate.Before(holidays[j].StartDate)
		}
		return holidays[i].ID < holidays[j].ID
	})
	return holidays, nil
}

func (v *view) InsertHoliday(_ context.Context, holiday *domain.Holiday) error {
	st, release, err := v.begin("InsertHoliday")
	if err != nil {
		return err
	}
	defer release()

	if !holiday.Range().Valid() {
		return domain.ErrInvalidRange
	}
	s, ok := st.staff[holiday.StaffID]
	if !ok || s.TenantID != holiday.TenantID {
		return domain.ErrNotFound
	}
	for _, h := range st.holidays {
		if h.StaffID == holiday.StaffID && holiday.Range().Overlaps(h.Range()) {
			return domain.ErrOverlapsApprovedHoliday
		}
	}

	holiday.ID = st.id()
	holiday.CreatedAt = v.store.now()
	st.holidays[holiday.ID] = copyHoliday(holiday)
	return nil
}

func (v *view) GetHolidayRequest(_ context.Context, tenantID, id int64) (*domain.HolidayRequest, error) {
	st, release, err := v.begin("GetHolidayRequest")
	if err != nil {
		return nil, err
	}
	defer release()

	r, ok := st.holidayRequests[id]
	if !ok || r.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return copyHolidayRequest(r), nil
}

func (v *view) ListHolidayRequests(_ context.Context, tenantID int64, filter repository.HolidayRequestFilter) ([]*domain.HolidayRequest, error) {
	st, release, err := v.begin("ListHolidayRequests")
	if err != nil {
		return nil, err
	}
	defer release()

	window := overlap.NewDateRange(filter.From, filter.To)
	requests := []*domain.HolidayRequest{}
	for _, r := range st.holidayRequests {
		if r.TenantID != tenantID {
			continue
		}
		if filter.StaffID != nil && r.StaffID != *filter.StaffID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if !window.End.IsZero() && r.StartDate.After(window.End) {
			continue
		}
		if !window.Start.IsZero() && r.EndDate.Before(window.Start) {
			continue
		}
		requests = append(requests, copyHolidayRequest(r))
	}
	sort.Slice(requests, func(i, j int) bool {
		if !requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].CreatedAt.After(requests[j].CreatedAt)
		}
		return requests[i].ID > requests[j].ID
	})
	return requests, nil
}

func (v *view) InsertHolidayRequest(_ context.Context, request *domain.HolidayRequest) error {
	st, release, err := v.begin("InsertHolidayRequest")
	if err != nil {
		return err
	}
	defer release()

	if !request.Range().Valid() {
		return domain.ErrInvalidRange
	}
	s, ok := st.staff[request.StaffID]
	if !ok || s.TenantID != request.TenantID {
		return domain.ErrNotFound
	}

	request.ID = st.id()
	request.CreatedAt = v.store.now()
	st.holidayRequests[request.ID] = copyHolidayRequest(request)
	return nil
}

func (v *view) UpdateHolidayRequest(_ context.Context, request *domain.HolidayRequest) error {
	st, release, err := v.begin("UpdateHolidayRequest")
	if err != nil {
		return err
	}
	defer release()

	existing, ok := st.holidayRequests[request.ID]
	if !ok || existing.TenantID != request.TenantID {
		return domain.ErrNotFound
	}

	c := copyHolidayRequest(existing)
	c.Status = request.Status
	c.ReviewedAt = request.ReviewedAt
	c.ReviewedBy = cloneInt64(request.ReviewedBy)
	st.holidayRequests[request.ID] = c
	return nil
}

func (v *view) GetSwapRequest(_ context.Context, tenantID, id int64) (*domain.SwapRequest, error) {
	st, release, err := v.begin("GetSwapRequest")
	if err != nil {
		return nil, err
	}
	defer release()

	r, ok := st.swapRequests[id]
	if !ok || r.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return copySwapRequest(r), nil
}

func (v *view) ListSwapRequests(_ context.Context, tenantID int64, filter repository.SwapRequestFilter) ([]*domain.SwapRequest, error) {
	st, release, err := v.begin("ListSwapRequests")
	if err != nil {
		return nil, err
	}
	defer release()

	requests := []*domain.SwapRequest{}
	for _, r := range st.swapRequests {
		if r.TenantID != tenantID {
			continue
		}
		if filter.ShiftID != nil && r.ShiftID != *filter.ShiftID {
			continue
		}
		if filter.RequestedBy != nil && r.RequestedBy != *filter.RequestedBy {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		requests = append(requests, copySwapRequest(r))
	}
	sort.Slice(requests, func(i, j int) bool {
		if !requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].CreatedAt.After(requests[j].CreatedAt)
		}
		return requests[i].ID > requests[j].ID
	})
	return requests, nil
}

func (v *view) InsertSwapRequest(_ context.Context, request *domain.SwapRequest) error {
	st, release, err := v.begin("InsertSwapRequest")
	if err != nil {
		return err
	}
	defer release()

	shift, ok := st.shifts[request.ShiftID]
	if !ok || shift.TenantID != request.TenantID {
		return domain.ErrNotFound
	}
	if _, ok := st.staff[request.RequestedBy]; !ok {
		return domain.ErrNotFound
	}
	if request.RequestedWith != nil {
		if _, ok := st.staff[*request.RequestedWith]; !ok {
			return domain.ErrNotFound
		}
	}
	if request.Status == domain.StatusPending {
		for _, r := range st.swapRequests {
			if r.ShiftID == request.ShiftID && r.Status == domain.StatusPending {
				return domain.ErrDuplicatePending
			}
		}
	}

	request.ID = st.id()
	request.CreatedAt = v.store.now()
	st.swapRequests[request.ID] = copySwapRequest(request)
	return nil
}

func (v *view) UpdateSwapRequest(_ context.Context, request *domain.SwapRequest) error {
	st, release, err := v.begin("UpdateSwapRequest")
	if err != nil {
		return err
	}
	defer release()

	existing, ok := st.swapRequests[request.ID]
	if !ok || existing.TenantID != request.TenantID {
		return domain.ErrNotFound
	}

	c := copySwapRequest(existing)
	c.RequestedWith = cloneInt64(request.RequestedWith)
	c.Status = request.Status
	c.ReviewedAt = request.ReviewedAt
	c.ReviewedBy = cloneInt64(request.ReviewedBy)
	st.swapRequests[request.ID] = c
	return nil
}
