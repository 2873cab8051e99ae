package invitation_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/google/uuid"
	"github.com/lop-gin/janus/internal"
	"github.com/lop-gin/janus/internal/authstore"
	invitationDatamodel "github.com/lop-gin/janus/internal/core/datamodel/invitation"
	roleDatamodel "github.com/lop-gin/janus/internal/core/datamodel/role"
	tenantuserDatamodel "github.com/lop-gin/janus/internal/core/datamodel/tenantuser"
	"github.com/lop-gin/janus/internal/invitation"
)

// Mock invitation repository; the mutex makes MarkAccepted an atomic
// compare-and-set so concurrent accepts behave like the SQL conditional
// update.
type mockInvitationRepository struct {
	mu          sync.Mutex
	invitations map[int64]*invitationDatamodel.Invitation
	nextID      int64
	createError error
	markError   error
	// onLookup runs against the stored row after a successful
	// GetByEmailAndCode, letting a test change state between a
	// caller's validity check and its next step.
	onLookup func(stored *invitationDatamodel.Invitation)
}

func newMockInvitationRepository() *mockInvitationRepository {
	return &mockInvitationRepository{
		invitations: make(map[int64]*invitationDatamodel.Invitation),
		nextID:      1,
	}
}

func (m *mockInvitationRepository) Create(_ context.Context, inv *invitationDatamodel.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	inv.ID = m.nextID
	m.nextID++
	clone := *inv
	m.invitations[inv.ID] = &clone
	return nil
}

func (m *mockInvitationRepository) CodeExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invitations {
		if inv.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockInvitationRepository) GetByEmailAndCode(_ context.Context, email, code string) (*invitationDatamodel.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invitations {
		if inv.Email == email && inv.Code == code {
			clone := *inv
			if m.onLookup != nil {
				m.onLookup(inv)
			}
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockInvitationRepository) MarkAccepted(_ context.Context, invitationID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markError != nil {
		return false, m.markError
	}
	inv, ok := m.invitations[invitationID]
	if !ok || inv.IsAccepted {
		return false, nil
	}
	inv.IsAccepted = true
	return true, nil
}

type mockUserRepository struct {
	mu           sync.Mutex
	users        map[int64]*tenantuserDatamodel.TenantUser
	assignments  map[int64][]int64
	nextID       int64
	createError  error
	deleteCalls  int
	removedRoles int
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:       make(map[int64]*tenantuserDatamodel.TenantUser),
		assignments: make(map[int64][]int64),
		nextID:      1,
	}
}

func (m *mockUserRepository) GetByEmailInCompany(_ context.Context, companyID int64, email string) (*tenantuserDatamodel.TenantUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.CompanyID == companyID && u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) Create(_ context.Context, user *tenantuserDatamodel.TenantUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	user.ID = m.nextID
	m.nextID++
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepository) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	delete(m.users, userID)
	return nil
}

func (m *mockUserRepository) AssignRole(_ context.Context, userID, roleID int64, _ *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[userID] = append(m.assignments[userID], roleID)
	return nil
}

func (m *mockUserRepository) RemoveRole(_ context.Context, userID, roleID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removedRoles++
	kept := m.assignments[userID][:0]
	for _, id := range m.assignments[userID] {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	m.assignments[userID] = kept
	return nil
}

func (m *mockUserRepository) userCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

type mockRoleRepository struct {
	roles map[int64]*roleDatamodel.Role
}

func newMockRoleRepository() *mockRoleRepository {
	return &mockRoleRepository{roles: make(map[int64]*roleDatamodel.Role)}
}

func (m *mockRoleRepository) GetByID(_ context.Context, companyID, roleID int64) (*roleDatamodel.Role, error) {
	role, ok := m.roles[roleID]
	if !ok || role.CompanyID != companyID {
		return nil, nil
	}
	return role, nil
}

// Mock identity store; emails are unique the way the real auth store
// enforces them, so a second create for the same address fails with
// ErrEmailExists until the first identity is deleted.
type mockIdentityStore struct {
	mu           sync.Mutex
	created      []uuid.UUID
	deleted      []uuid.UUID
	emailByID    map[uuid.UUID]string
	createError  error
	signInError  error
	accessToken  string
	refreshToken string
}

func newMockIdentityStore() *mockIdentityStore {
	return &mockIdentityStore{
		emailByID:    make(map[uuid.UUID]string),
		accessToken:  "access",
		refreshToken: "refresh",
	}
}

func (m *mockIdentityStore) AdminCreateUser(_ context.Context, email, _ string, _ bool, _ map[string]any) (*authstore.ExternalIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return nil, m.createError
	}
	for _, existing := range m.emailByID {
		if existing == email {
			return nil, authstore.ErrEmailExists
		}
	}
	id := uuid.New()
	m.created = append(m.created, id)
	m.emailByID[id] = email
	return &authstore.ExternalIdentity{ID: id, Email: email}, nil
}

func (m *mockIdentityStore) AdminDeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	delete(m.emailByID, id)
	return nil
}

func (m *mockIdentityStore) seedIdentity(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emailByID[uuid.New()] = email
}

func (m *mockIdentityStore) SignInWithPassword(_ context.Context, email, _ string) (*authstore.Session, error) {
	if m.signInError != nil {
		return nil, m.signInError
	}
	return &authstore.Session{
		AccessToken:  m.accessToken,
		RefreshToken: m.refreshToken,
		User:         authstore.ExternalIdentity{Email: email},
	}, nil
}

func (m *mockIdentityStore) deletedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.deleted)
}

func (m *mockIdentityStore) liveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created) - len(m.deleted)
}

type mockRecorder struct {
	mu      sync.Mutex
	entries []string
}

func (m *mockRecorder) Record(_ context.Context, _, _ int64, kind, _, _ string, _ int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, kind)
}

var _ = Describe("InvitationService", func() {
	var (
		service  *invitation.Service
		repo     *mockInvitationRepository
		users    *mockUserRepository
		roles    *mockRoleRepository
		store    *mockIdentityStore
		recorder *mockRecorder
		ctx      context.Context
	)

	const (
		companyID = int64(7)
		creatorID = int64(1)
	)

	BeforeEach(func() {
		repo = newMockInvitationRepository()
		users = newMockUserRepository()
		roles = newMockRoleRepository()
		store = newMockIdentityStore()
		recorder = &mockRecorder{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = invitation.NewService(repo, users, roles, store, recorder, logger)
		ctx = context.Background()
	})

	seedInvitation := func(expiresAt time.Time, roleID *int64) *invitationDatamodel.Invitation {
		inv := &invitationDatamodel.Invitation{
			CompanyID: companyID,
			Email:     "new@company.test",
			FullName:  "New Person",
			Code:      "ABCD1234",
			RoleID:    roleID,
			ExpiresAt: expiresAt,
		}
		Expect(repo.Create(ctx, inv)).To(Succeed())
		return inv
	}

	Describe("Create", func() {
		It("should issue a code with a seven-day expiry", func() {
			before := time.Now()
			resp, err := service.Create(ctx, companyID, creatorID, invitation.CreateDTO{
				Email:    "new@company.test",
				FullName: "New Person",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Code).To(HaveLen(8))
			Expect(resp.Code).To(MatchRegexp(`^[A-Z0-9]+$`))
			Expect(resp.ExpiresAt).To(BeTemporally("~", before.Add(7*24*time.Hour), time.Minute))
		})

		It("should refuse to invite an email that already has a user", func() {
			Expect(users.Create(ctx, &tenantuserDatamodel.TenantUser{
				CompanyID: companyID,
				Email:     "new@company.test",
			})).To(Succeed())

			_, err := service.Create(ctx, companyID, creatorID, invitation.CreateDTO{
				Email:    "new@company.test",
				FullName: "New Person",
			})

			Expect(err).To(MatchError(internal.ErrDuplicateUser))
		})

		It("should reject a role from another company", func() {
			otherCompanyRole := int64(55)
			roles.roles[otherCompanyRole] = &roleDatamodel.Role{ID: otherCompanyRole, CompanyID: companyID + 1}

			_, err := service.Create(ctx, companyID, creatorID, invitation.CreateDTO{
				Email:    "new@company.test",
				FullName: "New Person",
				RoleID:   &otherCompanyRole,
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeRoleInvalid))
		})

		It("should record the invitation in the activity log", func() {
			_, err := service.Create(ctx, companyID, creatorID, invitation.CreateDTO{
				Email:    "new@company.test",
				FullName: "New Person",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(recorder.entries).To(ContainElement("user_invited"))
		})
	})

	Describe("Verify", func() {
		It("should return the invitation details for a valid pair", func() {
			seedInvitation(time.Now().Add(time.Hour), nil)

			resp, err := service.Verify(ctx, invitation.VerifyDTO{Email: "new@company.test", Code: "ABCD1234"})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.CompanyID).To(Equal(companyID))
			Expect(resp.FullName).To(Equal("New Person"))
		})

		It("should reject a wrong code", func() {
			seedInvitation(time.Now().Add(time.Hour), nil)

			_, err := service.Verify(ctx, invitation.VerifyDTO{Email: "new@company.test", Code: "WRONG999"})

			Expect(err).To(MatchError(internal.ErrInvalidInvitation))
		})

		It("should reject the right code with a wrong email", func() {
			seedInvitation(time.Now().Add(time.Hour), nil)

			_, err := service.Verify(ctx, invitation.VerifyDTO{Email: "other@company.test", Code: "ABCD1234"})

			Expect(err).To(MatchError(internal.ErrInvalidInvitation))
		})

		It("should reject an expired invitation", func() {
			seedInvitation(time.Now().Add(-time.Minute), nil)

			_, err := service.Verify(ctx, invitation.VerifyDTO{Email: "new@company.test", Code: "ABCD1234"})

			Expect(err).To(MatchError(internal.ErrInvitationExpired))
		})
	})

	Describe("Accept", func() {
		acceptDTO := invitation.AcceptDTO{
			Email:    "new@company.test",
			Code:     "ABCD1234",
			Password: "s3cret-password",
		}

		It("should create the identity, user, and assignment, and consume the code", func() {
			roleID := int64(3)
			roles.roles[roleID] = &roleDatamodel.Role{ID: roleID, CompanyID: companyID}
			inv := seedInvitation(time.Now().Add(time.Hour), &roleID)

			resp, err := service.Accept(ctx, acceptDTO)

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.CompanyID).To(Equal(companyID))
			Expect(resp.AccessToken).To(Equal("access"))
			Expect(users.userCount()).To(Equal(1))
			Expect(users.assignments[resp.UserID]).To(ConsistOf(roleID))
			Expect(repo.invitations[inv.ID].IsAccepted).To(BeTrue())
			Expect(recorder.entries).To(ContainElement("invitation_accepted"))
		})

		It("should reject a second accept of the same code", func() {
			seedInvitation(time.Now().Add(time.Hour), nil)

			_, err := service.Accept(ctx, acceptDTO)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Accept(ctx, acceptDTO)
			Expect(err).To(MatchError(internal.ErrInvitationAccepted))
		})

		It("should surface the accepted state when the identity insert loses a concurrent accept", func() {
			inv := seedInvitation(time.Now().Add(time.Hour), nil)
			store.seedIdentity("new@company.test")
			flipped := false
			repo.onLookup = func(stored *invitationDatamodel.Invitation) {
				// The other accept finishes between this caller's
				// validity check and its identity insert.
				if !flipped {
					flipped = true
					stored.IsAccepted = true
				}
			}

			_, err := service.Accept(ctx, acceptDTO)

			Expect(err).To(MatchError(internal.ErrInvitationAccepted))
			Expect(users.userCount()).To(BeZero())
			Expect(repo.invitations[inv.ID].IsAccepted).To(BeTrue())
		})

		It("should report a duplicate email when the invitation is still open", func() {
			seedInvitation(time.Now().Add(time.Hour), nil)
			store.seedIdentity("new@company.test")

			_, err := service.Accept(ctx, acceptDTO)

			Expect(err).To(MatchError(internal.ErrDuplicateUser))
			Expect(users.userCount()).To(BeZero())
		})

		It("should delete the identity when the user insert fails", func() {
			seedInvitation(time.Now().Add(time.Hour), nil)
			users.createError = errors.New("insert failed")

			_, err := service.Accept(ctx, acceptDTO)

			Expect(err).To(HaveOccurred())
			Expect(store.deletedCount()).To(Equal(1))
			Expect(users.userCount()).To(BeZero())
		})

		It("should unwind user and identity when the accept flip fails", func() {
			seedInvitation(time.Now().Add(time.Hour), nil)
			repo.markError = errors.New("update failed")

			_, err := service.Accept(ctx, acceptDTO)

			Expect(err).To(HaveOccurred())
			Expect(users.deleteCalls).To(Equal(1))
			Expect(store.deletedCount()).To(Equal(1))
		})

		It("should still succeed when the post-accept sign-in fails", func() {
			seedInvitation(time.Now().Add(time.Hour), nil)
			store.signInError = errors.New("store down")

			resp, err := service.Accept(ctx, acceptDTO)

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.AccessToken).To(BeEmpty())
			Expect(users.userCount()).To(Equal(1))
		})

		It("should let exactly one of many concurrent accepts win", func() {
			seedInvitation(time.Now().Add(time.Hour), nil)

			const workers = 8
			var wg sync.WaitGroup
			results := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					_, err := service.Accept(ctx, acceptDTO)
					results <- err
				}()
			}
			wg.Wait()
			close(results)

			var wins, losses int
			for err := range results {
				if err == nil {
					wins++
				} else {
					// Losers that re-check before the winner's flip
					// lands see the duplicate email instead.
					Expect(err).To(SatisfyAny(
						MatchError(internal.ErrInvitationAccepted),
						MatchError(internal.ErrDuplicateUser)))
					losses++
				}
			}

			Expect(wins).To(Equal(1))
			Expect(losses).To(Equal(workers - 1))
			Expect(users.userCount()).To(Equal(1))
			// Every loser tore its identity back down; only the
			// winner's survives.
			Expect(store.liveCount()).To(Equal(1))
		})
	})
})
