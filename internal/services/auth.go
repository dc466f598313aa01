package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/neocare-api/internal/apperr"
	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/store"
	"github.com/harentsoaR/neocare-api/internal/utils"
)

const (
	minPasswordLength = 8

	hospitalCodeDigits   = 3
	hospitalCodeAttempts = 20

	invalidCredentials = "Invalid email or password"
)

// AuthService covers identity resolution, credential storage, registration, login and
// the password lifecycle.
type AuthService struct {
	store       *store.Store
	affiliation *AffiliationService
	tokens      *utils.TokenIssuer
	notify      *NotificationService
	resetTTL    time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

func NewAuthService(
	s *store.Store,
	affiliation *AffiliationService,
	tokens *utils.TokenIssuer,
	notify *NotificationService,
	resetTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		store:       s,
		affiliation: affiliation,
		tokens:      tokens,
		notify:      notify,
		resetTTL:    resetTTL,
		log:         log.With().Str("component", "auth").Logger(),
		now:         time.Now,
	}
}

// validate is the same validator gin uses for binding tags.
var validate = validator.New()

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Validation("email is required", "email")
	}
	if validate.Var(email, "email") != nil {
		return apperr.Validation("email is not a valid address", "email")
	}
	return nil
}

// FindUserByEmail searches the role collections in models.ResolutionOrder and returns
// the first match, or nil when no collection has the email.
func (s *AuthService) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	for _, role := range models.ResolutionOrder {
		u, err := s.findInRole(ctx, role, email)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(err, "failed to resolve user")
		}
		return u, nil
	}
	return nil, nil
}

func (s *AuthService) findInRole(ctx context.Context, role models.Role, email string) (*models.User, error) {
	switch role {
	case models.RoleParent:
		p, err := s.store.Parents.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return p.User(), nil
	case models.RoleDoctor:
		d, err := s.store.Doctors.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return d.User(), nil
	case models.RoleAdmin:
		h, err := s.store.Hospitals.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return h.User(), nil
	case models.RoleSuperadmin:
		sa, err := s.store.Superadmins.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return sa.User(), nil
	}
	return nil, store.ErrNotFound
}

func (s *AuthService) userByID(ctx context.Context, role models.Role, id string) (*models.User, error) {
	switch role {
	case models.RoleParent:
		p, err := s.store.Parents.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return p.User(), nil
	case models.RoleDoctor:
		d, err := s.store.Doctors.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return d.User(), nil
	case models.RoleAdmin:
		h, err := s.store.Hospitals.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return h.User(), nil
	case models.RoleSuperadmin:
		sa, err := s.store.Superadmins.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return sa.User(), nil
	}
	return nil, store.ErrNotFound
}

func (s *AuthService) updatePassword(ctx context.Context, role models.Role, id, hash string) error {
	switch role {
	case models.RoleParent:
		return s.store.Parents.UpdatePassword(ctx, id, hash)
	case models.RoleDoctor:
		return s.store.Doctors.UpdatePassword(ctx, id, hash)
	case models.RoleAdmin:
		return s.store.Hospitals.UpdatePassword(ctx, id, hash)
	case models.RoleSuperadmin:
		return s.store.Superadmins.UpdatePassword(ctx, id, hash)
	}
	return store.ErrNotFound
}

// NewUser carries every field any role may register with.
type NewUser struct {
	Role     models.Role `json:"-"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`

	BabyName string `json:"babyName"`
	BabyDob  string `json:"babyDob"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`

	Specialty string `json:"specialty"`
	Bio       string `json:"bio"`

	OwnerName    string `json:"ownerName"`
	HospitalName string `json:"hospitalName"`
	Mobile       string `json:"mobile"`

	HospitalCode string      `json:"hospitalCode"`
	RegisteredBy models.Role `json:"-"`
	ReferrerID   string      `json:"-"`
	HospitalID   string      `json:"-"`
	DoctorID     string      `json:"-"`
}

func (n *NewUser) field(name string) string {
	switch name {
	case "name":
		return n.Name
	case "email":
		return n.Email
	case "password":
		return n.Password
	case "ownerName":
		return n.OwnerName
	case "hospitalName":
		return n.HospitalName
	}
	return ""
}

func (n *NewUser) trim() {
	n.Name = strings.TrimSpace(n.Name)
	n.Email = normalizeEmail(n.Email)
	n.BabyName = strings.TrimSpace(n.BabyName)
	n.BabyDob = strings.TrimSpace(n.BabyDob)
	n.Phone = strings.TrimSpace(n.Phone)
	n.Address = strings.TrimSpace(n.Address)
	n.Specialty = strings.TrimSpace(n.Specialty)
	n.OwnerName = strings.TrimSpace(n.OwnerName)
	n.HospitalName = strings.TrimSpace(n.HospitalName)
	n.Mobile = strings.TrimSpace(n.Mobile)
	n.HospitalCode = strings.TrimSpace(n.HospitalCode)
}

func validatePassword(password string) error {
	if password == "" {
		return apperr.Validation("password is required", "password")
	}
	if len(password) < minPasswordLength {
		return apperr.Validation("password must be at least 8 characters", "password")
	}
	return nil
}

// CreateUser hashes the password and stores the record in the role's collection with
// that role's defaults. The returned user never carries the hash.
func (s *AuthService) CreateUser(ctx context.Context, in *NewUser) (*models.User, error) {
	if !in.Role.Valid() {
		return nil, apperr.Validation("unknown role", "role")
	}
	if in.Password == "" {
		return nil, apperr.Validation("password is required", "password")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to hash password")
	}

	now := s.now()
	id := utils.NewID(in.Role.Spec().IDPrefix)
	var user *models.User

	switch in.Role {
	case models.RoleParent:
		p := &models.Parent{
			ID:         id,
			Name:       in.Name,
			BabyName:   in.BabyName,
			BabyDob:    in.BabyDob,
			Email:      in.Email,
			Password:   hash,
			Phone:      in.Phone,
			Address:    in.Address,
			HospitalID: in.HospitalID,
			DoctorID:   in.DoctorID,
			Status:     models.ParentActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		err = s.store.Parents.Create(ctx, p)
		user = p.User()
	case models.RoleDoctor:
		d := &models.Doctor{
			ID:            id,
			Name:          in.Name,
			Email:         in.Email,
			Password:      hash,
			Specialty:     in.Specialty,
			Phone:         in.Phone,
			Bio:           in.Bio,
			HospitalID:    in.HospitalID,
			Status:        models.DoctorActive,
			ProfileStatus: models.ProfileIncomplete,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err = s.store.Doctors.Create(ctx, d)
		user = d.User()
	case models.RoleAdmin:
		h := &models.Hospital{
			ID:           id,
			OwnerName:    in.OwnerName,
			HospitalName: in.HospitalName,
			Email:        in.Email,
			Password:     hash,
			Address:      in.Address,
			Mobile:       in.Mobile,
			Status:       models.HospitalPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err = s.createHospital(ctx, h); err != nil {
			return nil, err
		}
		user = h.User()
	case models.RoleSuperadmin:
		sa := &models.Superadmin{
			ID:        id,
			Name:      in.Name,
			Email:     in.Email,
			Password:  hash,
			Status:    models.SuperadminActive,
			CreatedAt: now,
		}
		err = s.store.Superadmins.Create(ctx, sa)
		user = sa.User()
	}

	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("an account with this email already exists")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "failed to create user")
	}
	user.PasswordHash = ""
	return user, nil
}

// createHospital assigns a fresh hospital code and inserts h, retrying when another
// hospital already holds the candidate code.
func (s *AuthService) createHospital(ctx context.Context, h *models.Hospital) error {
	digits := hospitalCodeDigits
	for attempt := 0; attempt < hospitalCodeAttempts; attempt++ {
		if attempt > 0 && attempt%5 == 0 {
			digits++
		}
		h.HospitalCode = utils.HospitalCodeCandidate(h.HospitalName, digits)

		_, err := s.store.Hospitals.GetByCode(ctx, h.HospitalCode)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return apperr.Wrap(err, "failed to check hospital code")
		}

		err = s.store.Hospitals.Create(ctx, h)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return apperr.Wrap(err, "failed to create hospital")
		}
		// The unique index fired: either the email or a code inserted concurrently.
		if _, lookupErr := s.store.Hospitals.GetByEmail(ctx, h.Email); lookupErr == nil {
			return apperr.Conflict("an account with this email already exists")
		}
		if _, lookupErr := s.store.Hospitals.GetByID(ctx, h.ID); lookupErr == nil {
			return apperr.Conflict("generated id collided with an existing hospital")
		}
	}
	return apperr.Wrap(errors.New("hospital code space exhausted"), "failed to generate a unique hospital code")
}

// Register validates a registration and creates the account. The order is fixed:
// hospital code, independent-parent fields, doctor referral, duplicate email, create.
func (s *AuthService) Register(ctx context.Context, in *NewUser) (*models.User, error) {
	in.trim()
	if !in.Role.Valid() {
		return nil, apperr.Validation("unknown role", "role")
	}
	var missing []string
	for _, f := range in.Role.Spec().Required {
		if in.field(f) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("missing required fields: "+strings.Join(missing, ", "), missing...)
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Role == models.RoleAdmin {
		in.HospitalCode, in.HospitalID = "", ""
	}

	var hospital *models.Hospital
	if in.HospitalCode != "" {
		h, err := s.affiliation.verifiedHospitalByCode(ctx, in.HospitalCode)
		if err != nil {
			return nil, err
		}
		hospital = h
		in.HospitalID = h.ID
	}

	referred := in.Role == models.RoleParent && in.RegisteredBy == models.RoleDoctor
	if in.Role == models.RoleParent && in.HospitalCode == "" && in.HospitalID == "" && !referred {
		var absent []string
		if in.Phone == "" {
			absent = append(absent, "phone")
		}
		if in.Address == "" {
			absent = append(absent, "address")
		}
		if len(absent) > 0 {
			return nil, apperr.Validation("independent registration requires: "+strings.Join(absent, ", "), absent...)
		}
	}

	if referred {
		h, err := s.affiliation.GetHospitalByDoctorID(ctx, in.ReferrerID)
		if err != nil {
			return nil, err
		}
		if h == nil {
			return nil, apperr.Validation("referring doctor is not affiliated with a hospital")
		}
		if h.Status != models.HospitalVerified {
			return nil, apperr.Validation("hospital is not accepting registrations")
		}
		hospital = h
		in.HospitalCode = h.HospitalCode
		in.HospitalID = h.ID
		in.DoctorID = in.ReferrerID
	}

	existing, err := s.FindUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("an account with this email already exists")
	}

	user, err := s.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Str("hospital_id", user.HospitalID).Msg("account registered")

	switch user.Role {
	case models.RoleAdmin:
		if h, err := s.store.Hospitals.GetByID(ctx, user.ID); err == nil {
			s.notify.SendHospitalWelcome(h)
		}
	case models.RoleParent:
		name := ""
		if hospital != nil {
			name = hospital.HospitalName
			user.HospitalName = name
		} else if in.HospitalID != "" {
			if h, err := s.store.Hospitals.GetByID(ctx, in.HospitalID); err == nil {
				name = h.HospitalName
			}
		}
		s.notify.SendParentWelcome(&models.Parent{Name: user.Name, Email: user.Email}, name)
	}
	return user, nil
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// Login authenticates email and password, then requires the account to hold role.
// An unknown email and a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string, role models.Role) (*LoginResult, error) {
	if normalizeEmail(email) == "" || password == "" {
		return nil, apperr.Validation("email and password are required", "email", "password")
	}
	if !role.Valid() {
		return nil, apperr.Validation("role must be Parent, Doctor, Admin or Superadmin", "role")
	}

	u, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !utils.CheckPasswordHash(password, u.PasswordHash) {
		return nil, apperr.Auth(invalidCredentials)
	}
	if u.Role != role {
		return nil, apperr.Forbidden("this account is not registered as " + string(role))
	}

	if u.Role == models.RoleDoctor || u.Role == models.RoleParent {
		if u.HospitalID != "" {
			if h, err := s.store.Hospitals.GetByID(ctx, u.HospitalID); err == nil {
				u.HospitalName = h.HospitalName
			}
		}
	}

	token, exp, err := s.tokens.GenerateJWT(u)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to issue token")
	}
	u.PasswordHash = ""
	s.log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("login")
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// Me returns the account behind a verified token.
func (s *AuthService) Me(ctx context.Context, role models.Role, id string) (*models.User, error) {
	u, err := s.userByID(ctx, role, id)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	u.PasswordHash = ""
	return u, nil
}

// ChangePassword re-verifies current before storing next.
func (s *AuthService) ChangePassword(ctx context.Context, role models.Role, id, current, next string) error {
	u, err := s.userByID(ctx, role, id)
	if err != nil {
		return lookupErr(err, "user")
	}
	if !utils.CheckPasswordHash(current, u.PasswordHash) {
		return apperr.Auth("current password is incorrect")
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return apperr.Wrap(err, "failed to hash password")
	}
	if err := s.updatePassword(ctx, role, id, hash); err != nil {
		return lookupErr(err, "user")
	}
	return nil
}

// ForgotPassword mails a reset link when the email resolves. It reports nothing to
// the caller either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) {
	u, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		s.log.Error().Err(err).Msg("forgot password: user lookup failed")
		return
	}
	if u == nil {
		return
	}

	token, err := utils.NewResetToken()
	if err != nil {
		s.log.Error().Err(err).Msg("forgot password: token generation failed")
		return
	}
	now := s.now()
	reset := &models.PasswordReset{
		TokenHash: utils.HashToken(token),
		UserID:    u.ID,
		Role:      u.Role,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.store.Resets.Create(ctx, reset); err != nil {
		s.log.Error().Err(err).Str("user_id", u.ID).Msg("forgot password: storing reset failed")
		return
	}
	s.notify.SendPasswordReset(u, token, s.resetTTL)
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if strings.TrimSpace(token) == "" {
		return apperr.Validation("token is required", "token")
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	reset, err := s.store.Resets.Consume(ctx, utils.HashToken(token), s.now())
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Validation("reset token is invalid or has expired", "token")
	}
	if err != nil {
		return apperr.Wrap(err, "failed to load reset token")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return apperr.Wrap(err, "failed to hash password")
	}
	if err := s.updatePassword(ctx, reset.Role, reset.UserID, hash); err != nil {
		return lookupErr(err, "user")
	}
	s.log.Info().Str("user_id", reset.UserID).Msg("password reset")
	return nil
}

// SeedSuperadmin creates the platform superadmin unless one with email exists.
func (s *AuthService) SeedSuperadmin(ctx context.Context, name, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return false, err
	}
	if err := validatePassword(password); err != nil {
		return false, err
	}
	_, err := s.store.Superadmins.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, apperr.Wrap(err, "failed to look up superadmin")
	}
	if _, err := s.CreateUser(ctx, &NewUser{Role: models.RoleSuperadmin, Name: name, Email: email, Password: password}); err != nil {
		return false, err
	}
	return true, nil
}
