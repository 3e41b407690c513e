package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"clubqueue/backend/internal/apperrors"
	memdomain "clubqueue/backend/internal/membership/domain"
	orgdomain "clubqueue/backend/internal/organization/domain"
	"clubqueue/backend/internal/platform/rbac"
	queuedomain "clubqueue/backend/internal/queue/domain"
	userdomain "clubqueue/backend/internal/user/domain"
)

type fakeQueueRepo struct {
	mu     sync.Mutex
	queues map[string]*queuedomain.Queue // keyed by org ID
	// failCreates rejects the next n inserts, simulating a lost unique-index race.
	failCreates int
	// failUpdates makes Update report a lost version race n times.
	failUpdates int
	creates     int
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{queues: map[string]*queuedomain.Queue{}}
}

func (f *fakeQueueRepo) GetByOrg(_ context.Context, orgID string) (*queuedomain.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q, ok := f.queues[orgID]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeQueueRepo) List(_ context.Context) ([]*queuedomain.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*queuedomain.Queue, 0, len(f.queues))
	for _, q := range f.queues {
		cp := *q
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeQueueRepo) Create(_ context.Context, q *queuedomain.Queue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failCreates > 0 {
		f.failCreates--
		// Pretend another request won the insert race.
		winner := *q
		winner.ID = "winner-" + q.OrgID
		f.queues[q.OrgID] = &winner
		return errors.New("duplicate key value violates unique constraint")
	}
	if _, ok := f.queues[q.OrgID]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}
	cp := *q
	f.queues[q.OrgID] = &cp
	return nil
}

func (f *fakeQueueRepo) Update(_ context.Context, q *queuedomain.Queue) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdates > 0 {
		f.failUpdates--
		return false, nil
	}
	cur, ok := f.queues[q.OrgID]
	if !ok || cur.Version != q.Version {
		return false, nil
	}
	cp := *q
	cp.Version++
	f.queues[q.OrgID] = &cp
	q.Version = cp.Version
	return true, nil
}

type fakeOrgRepo struct {
	orgs map[string]*orgdomain.Org
}

func (f *fakeOrgRepo) GetByID(_ context.Context, id string) (*orgdomain.Org, error) {
	if o, ok := f.orgs[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

type fakeUserRepo struct {
	users map[string]*userdomain.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*userdomain.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

type fakeMembershipRepo struct {
	memberships map[string]*memdomain.Membership // keyed by userID+"/"+orgID
	// getErr makes every lookup fail, simulating a storage fault.
	getErr error
}

func (f *fakeMembershipRepo) GetByUserAndOrg(_ context.Context, userID, orgID string) (*memdomain.Membership, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if m, ok := f.memberships[userID+"/"+orgID]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func newTestQueueService() (*QueueService, *fakeQueueRepo, *fakeMembershipRepo) {
	queues := newFakeQueueRepo()
	orgs := &fakeOrgRepo{orgs: map[string]*orgdomain.Org{
		"org-1": {ID: "org-1", Name: "Chess Club", SuperuserID: "creator", KeyHash: "x", Version: 1},
	}}
	users := &fakeUserRepo{users: map[string]*userdomain.User{
		"creator":  {ID: "creator", Email: "creator@example.com", Username: "creator", PasswordHash: "x", Role: userdomain.RoleSuperuser, OrgID: "org-1"},
		"officer":  {ID: "officer", Email: "officer@example.com", Username: "officer", PasswordHash: "x", Role: userdomain.RoleOfficer, OrgID: "org-1"},
		"member":   {ID: "member", Email: "member@example.com", Username: "member", PasswordHash: "x", Role: userdomain.RoleUser, OrgID: "org-1"},
		"outsider": {ID: "outsider", Email: "outsider@example.com", Username: "outsider", PasswordHash: "x", Role: userdomain.RoleUser},
	}}
	memberships := &fakeMembershipRepo{memberships: map[string]*memdomain.Membership{
		"officer/org-1": {ID: "m-1", UserID: "officer", OrgID: "org-1", Role: memdomain.RoleOfficer},
		"member/org-1":  {ID: "m-2", UserID: "member", OrgID: "org-1", Role: memdomain.RoleMember},
	}}
	svc := NewQueueService(queues, orgs, users, memberships, rbac.NewGate(nil), nil)
	return svc, queues, memberships
}

func TestGetOrCreateDefaults(t *testing.T) {
	svc, queues, _ := newTestQueueService()

	// A plain member holds queue.read rights.
	q, err := svc.GetOrCreate(context.Background(), "org-1", "member")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if q.Status != queuedomain.StatusClosed {
		t.Errorf("status = %q, want closed", q.Status)
	}
	if q.OpenToOutside {
		t.Error("new queue must not be open to outside users")
	}
	if q.Version != 1 {
		t.Errorf("version = %d, want 1", q.Version)
	}

	// Second call returns the same row without another insert.
	again, err := svc.GetOrCreate(context.Background(), "org-1", "member")
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if again.ID != q.ID {
		t.Errorf("id = %q, want %q", again.ID, q.ID)
	}
	if queues.creates != 1 {
		t.Errorf("creates = %d, want 1", queues.creates)
	}
}

func TestGetOrCreateUnknownOrg(t *testing.T) {
	svc, _, _ := newTestQueueService()

	if _, err := svc.GetOrCreate(context.Background(), "no-such-org", "creator"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetOrCreateForbiddenForOutsider(t *testing.T) {
	svc, _, _ := newTestQueueService()

	if _, err := svc.GetOrCreate(context.Background(), "org-1", "outsider"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestGetOrCreateLosesInsertRace(t *testing.T) {
	svc, queues, _ := newTestQueueService()
	queues.failCreates = 1

	q, err := svc.GetOrCreate(context.Background(), "org-1", "member")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	// The loser must return the winner's row, not fail.
	if q.ID != "winner-org-1" {
		t.Errorf("id = %q, want the winning row", q.ID)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, _, _ := newTestQueueService()

	q, err := svc.UpdateStatus(context.Background(), "org-1", "officer", queuedomain.StatusActive)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if q.Status != queuedomain.StatusActive {
		t.Errorf("status = %q, want active", q.Status)
	}
	if q.Version != 2 {
		t.Errorf("version = %d, want 2 after one update", q.Version)
	}
}

func TestUpdateStatusInvalid(t *testing.T) {
	svc, _, _ := newTestQueueService()

	_, err := svc.UpdateStatus(context.Background(), "org-1", "creator", queuedomain.Status("open"))
	if !errors.Is(err, apperrors.ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestUpdateStatusForbiddenForMember(t *testing.T) {
	svc, _, _ := newTestQueueService()

	_, err := svc.UpdateStatus(context.Background(), "org-1", "member", queuedomain.StatusActive)
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestUpdateStatusStorageFault(t *testing.T) {
	svc, _, memberships := newTestQueueService()
	memberships.getErr = errors.New("connection reset by peer")

	// An infrastructure fault must surface as an error, not as a denial.
	_, err := svc.UpdateStatus(context.Background(), "org-1", "officer", queuedomain.StatusActive)
	if err == nil {
		t.Fatal("expected error when the membership lookup fails")
	}
	if errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("err = %v, must not be ErrForbidden", err)
	}
}

func TestListRequiresElevatedCaller(t *testing.T) {
	svc, _, _ := newTestQueueService()
	if _, err := svc.GetOrCreate(context.Background(), "org-1", "member"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	all, err := svc.List(context.Background(), "creator")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("len = %d, want 1", len(all))
	}
	if _, err := svc.List(context.Background(), "member"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
	if _, err := svc.List(context.Background(), "ghost"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("unknown caller: err = %v, want ErrNotFound", err)
	}
}

func TestSetOpenToOutside(t *testing.T) {
	svc, _, _ := newTestQueueService()

	q, err := svc.SetOpenToOutside(context.Background(), "org-1", "creator", true)
	if err != nil {
		t.Fatalf("SetOpenToOutside: %v", err)
	}
	if !q.OpenToOutside {
		t.Error("flag should be set")
	}

	q, err = svc.SetOpenToOutside(context.Background(), "org-1", "creator", false)
	if err != nil {
		t.Fatalf("SetOpenToOutside off: %v", err)
	}
	if q.OpenToOutside {
		t.Error("flag should be cleared")
	}
}

func TestMutateConflict(t *testing.T) {
	svc, queues, _ := newTestQueueService()
	if _, err := svc.GetOrCreate(context.Background(), "org-1", "member"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	queues.failUpdates = conflictRetries

	_, err := svc.UpdateStatus(context.Background(), "org-1", "creator", queuedomain.StatusActive)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestMutateRetriesThroughConflict(t *testing.T) {
	svc, queues, _ := newTestQueueService()
	if _, err := svc.GetOrCreate(context.Background(), "org-1", "member"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	queues.failUpdates = conflictRetries - 1

	q, err := svc.UpdateStatus(context.Background(), "org-1", "creator", queuedomain.StatusPaused)
	if err != nil {
		t.Errorf("a transient version race should be retried, got %v", err)
	}
	if q.Status != queuedomain.StatusPaused {
		t.Errorf("status = %q, want paused", q.Status)
	}
}
