package invitation

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/lop-gin/janus/internal"
	"github.com/lop-gin/janus/internal/authstore"
	invitationDatamodel "github.com/lop-gin/janus/internal/core/datamodel/invitation"
	tenantuserDatamodel "github.com/lop-gin/janus/internal/core/datamodel/tenantuser"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// IdentityStoreAPI is the slice of the auth store the accept saga
// needs: create the identity, tear it down on rollback, and sign the
// new user in.
type IdentityStoreAPI interface {
	AdminCreateUser(ctx context.Context, email, password string, confirmEmail bool, metadata map[string]any) (*authstore.ExternalIdentity, error)
	AdminDeleteUser(ctx context.Context, id uuid.UUID) error
	SignInWithPassword(ctx context.Context, email, password string) (*authstore.Session, error)
}

type Service struct {
	repo     RepositoryAPI
	users    UserRepositoryAPI
	roles    RoleRepositoryAPI
	store    IdentityStoreAPI
	recorder ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo RepositoryAPI, users UserRepositoryAPI, roles RoleRepositoryAPI, store IdentityStoreAPI, recorder ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		roles:    roles,
		store:    store,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Create issues an invitation for an email that has no user in the
// company yet. The code is random, collision-checked, and valid for
// seven days.
func (s *Service) Create(ctx context.Context, companyID, createdBy int64, dto CreateDTO) (*InvitationResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmailInCompany(ctx, companyID, dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to check existing user", err)
	}
	if existing != nil {
		return nil, internal.ErrDuplicateUser
	}

	if dto.RoleID != nil {
		role, err := s.roles.GetByID(ctx, companyID, *dto.RoleID)
		if err != nil {
			return nil, internal.NewInternalError("failed to load role", err)
		}
		if role == nil {
			return nil, internal.NewValidationError("role does not exist in your company", internal.ErrCodeRoleInvalid)
		}
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	inv := &invitationDatamodel.Invitation{
		CompanyID: companyID,
		Email:     dto.Email,
		FullName:  dto.FullName,
		Code:      code,
		RoleID:    dto.RoleID,
		ExpiresAt: s.now().Add(codeTTL),
		CreatedBy: &createdBy,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, internal.NewInternalError("failed to create invitation", err)
	}

	s.recorder.Record(ctx, companyID, createdBy, "user_invited",
		fmt.Sprintf("invited %s", dto.Email), "invitation", inv.ID)

	return &InvitationResponse{
		ID:        inv.ID,
		Email:     inv.Email,
		FullName:  inv.FullName,
		Code:      inv.Code,
		RoleID:    inv.RoleID,
		ExpiresAt: inv.ExpiresAt,
	}, nil
}

// Verify checks an email+code pair without consuming it.
func (s *Service) Verify(ctx context.Context, dto VerifyDTO) (*VerifiedResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	inv, err := s.lookup(ctx, dto.Email, dto.Code)
	if err != nil {
		return nil, err
	}
	return &VerifiedResponse{
		Email:     inv.Email,
		FullName:  inv.FullName,
		CompanyID: inv.CompanyID,
		ExpiresAt: inv.ExpiresAt,
	}, nil
}

// Accept consumes an invitation: it creates the external identity,
// the tenant user, and the role assignment, then flips is_accepted
// with a conditional update. Losing that flip, or any earlier failure,
// unwinds everything created so far.
func (s *Service) Accept(ctx context.Context, dto AcceptDTO) (*AcceptResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.lookup(ctx, dto.Email, dto.Code)
	if err != nil {
		return nil, err
	}

	identity, err := s.store.AdminCreateUser(ctx, inv.Email, dto.Password, true, map[string]any{
		"user_full_name": inv.FullName,
	})
	if err != nil {
		if errors.Is(err, authstore.ErrEmailExists) {
			// A concurrent accept can create the identity between our
			// lookup and this call. Re-read the invitation so that
			// race surfaces the code's state, not a bare duplicate.
			if _, lookupErr := s.lookup(ctx, dto.Email, dto.Code); lookupErr != nil {
				return nil, lookupErr
			}
			return nil, internal.ErrDuplicateUser
		}
		return nil, internal.NewExternalError("failed to create identity", err)
	}

	user := &tenantuserDatamodel.TenantUser{
		CompanyID:  inv.CompanyID,
		AuthUserID: identity.ID.String(),
		Name:       inv.FullName,
		Email:      inv.Email,
		IsActive:   true,
		CreatedBy:  inv.CreatedBy,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.compensateIdentity(ctx, identity.ID)
		return nil, internal.NewExternalError("failed to create user", err)
	}

	if inv.RoleID != nil {
		if err := s.users.AssignRole(ctx, user.ID, *inv.RoleID, inv.CreatedBy); err != nil {
			s.compensateUser(ctx, user.ID)
			s.compensateIdentity(ctx, identity.ID)
			return nil, internal.NewExternalError("failed to assign role", err)
		}
	}

	won, err := s.repo.MarkAccepted(ctx, inv.ID)
	if err != nil {
		s.compensateAssignment(ctx, user.ID, inv.RoleID)
		s.compensateUser(ctx, user.ID)
		s.compensateIdentity(ctx, identity.ID)
		return nil, internal.NewExternalError("failed to mark invitation accepted", err)
	}
	if !won {
		// A concurrent accept got there first; this one never
		// happened.
		s.compensateAssignment(ctx, user.ID, inv.RoleID)
		s.compensateUser(ctx, user.ID)
		s.compensateIdentity(ctx, identity.ID)
		return nil, internal.ErrInvitationAccepted
	}

	s.recorder.Record(ctx, inv.CompanyID, user.ID, "invitation_accepted",
		fmt.Sprintf("%s joined via invitation", inv.Email), "user", user.ID)

	resp := &AcceptResponse{
		UserID:    user.ID,
		CompanyID: inv.CompanyID,
		Email:     inv.Email,
	}
	if session, err := s.store.SignInWithPassword(ctx, inv.Email, dto.Password); err == nil {
		resp.AccessToken = session.AccessToken
		resp.RefreshToken = session.RefreshToken
	} else {
		s.logger.Warn("sign-in after invitation accept failed",
			"email", inv.Email, "error", err)
	}
	return resp, nil
}

func (s *Service) lookup(ctx context.Context, email, code string) (*invitationDatamodel.Invitation, error) {
	inv, err := s.repo.GetByEmailAndCode(ctx, email, code)
	if err != nil {
		return nil, internal.NewInternalError("failed to load invitation", err)
	}
	if inv == nil {
		return nil, internal.ErrInvalidInvitation
	}
	if inv.IsAccepted {
		return nil, internal.ErrInvitationAccepted
	}
	if !inv.ExpiresAt.After(s.now()) {
		return nil, internal.ErrInvitationExpired
	}
	return inv, nil
}

func (s *Service) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode(codeLength)
		if err != nil {
			return "", internal.NewInternalError("failed to generate invite code", err)
		}
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", internal.NewInternalError("failed to check invite code", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", internal.NewInternalError("could not generate a unique invite code", nil)
}

func (s *Service) compensateIdentity(ctx context.Context, id uuid.UUID) {
	if err := s.store.AdminDeleteUser(ctx, id); err != nil {
		s.logger.Error("compensation failed: orphan identity left in auth store",
			"auth_user_id", id, "error", err)
	}
}

func (s *Service) compensateUser(ctx context.Context, userID int64) {
	if err := s.users.Delete(ctx, userID); err != nil {
		s.logger.Error("compensation failed: orphan user row left behind",
			"user_id", userID, "error", err)
	}
}

func (s *Service) compensateAssignment(ctx context.Context, userID int64, roleID *int64) {
	if roleID == nil {
		return
	}
	if err := s.users.RemoveRole(ctx, userID, *roleID); err != nil {
		s.logger.Error("compensation failed: orphan role assignment left behind",
			"user_id", userID, "role_id", *roleID, "error", err)
	}
}

func randomCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
