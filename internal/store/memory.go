package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/harentsoaR/neocare-api/internal/models"
)

// NewMemoryStore returns a Store kept in process memory. It honours the same
// uniqueness and tenant rules as the Mongo store and is used for tests and local runs.
func NewMemoryStore() *Store {
	m := &memory{
		parents:     make(map[string]models.Parent),
		doctors:     make(map[string]models.Doctor),
		hospitals:   make(map[string]models.Hospital),
		superadmins: make(map[string]models.Superadmin),
		teams:       make(map[string]models.Team),
		timelines:   make(map[string]models.Timeline),
		messages:    make(map[string]models.Message),
		resets:      make(map[string]models.PasswordReset),
	}
	return &Store{
		Parents:     memParents{m},
		Doctors:     memDoctors{m},
		Hospitals:   memHospitals{m},
		Superadmins: memSuperadmins{m},
		Teams:       memTeams{m},
		Timelines:   memTimelines{m},
		Messages:    memMessages{m},
		Resets:      memResets{m},
	}
}

type memory struct {
	mu          sync.RWMutex
	parents     map[string]models.Parent
	doctors     map[string]models.Doctor
	hospitals   map[string]models.Hospital
	superadmins map[string]models.Superadmin
	teams       map[string]models.Team
	timelines   map[string]models.Timeline
	messages    map[string]models.Message
	resets      map[string]models.PasswordReset
}

func sortByCreated[T any](items []*T, created func(*T) time.Time) []*T {
	sort.SliceStable(items, func(i, j int) bool { return created(items[i]).Before(created(items[j])) })
	return items
}

func copyTeam(t models.Team) *models.Team {
	t.Members = append([]models.TeamMember{}, t.Members...)
	return &t
}

// --- parents ---

type memParents struct{ m *memory }

func (r memParents) Create(_ context.Context, p *models.Parent) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.parents[p.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range r.m.parents {
		if existing.Email == p.Email {
			return ErrDuplicate
		}
	}
	r.m.parents[p.ID] = *p
	return nil
}

func (r memParents) find(match func(models.Parent) bool) (*models.Parent, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, p := range r.m.parents {
		if match(p) {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r memParents) list(match func(models.Parent) bool) []*models.Parent {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*models.Parent, 0)
	for _, p := range r.m.parents {
		if match(p) {
			p := p
			out = append(out, &p)
		}
	}
	return sortByCreated(out, func(p *models.Parent) time.Time { return p.CreatedAt })
}

// update applies fn to the parent with id, optionally scoped to hospitalID.
func (r memParents) update(hospitalID, id string, fn func(*models.Parent)) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.parents[id]
	if !ok || (hospitalID != "" && p.HospitalID != hospitalID) {
		return ErrNotFound
	}
	fn(&p)
	p.UpdatedAt = time.Now()
	r.m.parents[id] = p
	return nil
}

func (r memParents) GetByID(_ context.Context, id string) (*models.Parent, error) {
	return r.find(func(p models.Parent) bool { return p.ID == id })
}

func (r memParents) GetByEmail(_ context.Context, email string) (*models.Parent, error) {
	return r.find(func(p models.Parent) bool { return p.Email == email })
}

func (r memParents) GetInHospital(_ context.Context, hospitalID, id string) (*models.Parent, error) {
	return r.find(func(p models.Parent) bool { return p.ID == id && p.HospitalID == hospitalID })
}

func (r memParents) ListByHospital(_ context.Context, hospitalID string) ([]*models.Parent, error) {
	return r.list(func(p models.Parent) bool { return p.HospitalID == hospitalID }), nil
}

func (r memParents) ListInCare(_ context.Context, doctorID string, teamIDs []string) ([]*models.Parent, error) {
	teams := make(map[string]bool, len(teamIDs))
	for _, id := range teamIDs {
		teams[id] = true
	}
	return r.list(func(p models.Parent) bool {
		if p.TeamID != "" {
			return teams[p.TeamID]
		}
		return p.DoctorID == doctorID
	}), nil
}

func (r memParents) UpdateProfile(_ context.Context, p *models.Parent) error {
	return r.update("", p.ID, func(stored *models.Parent) {
		stored.Name = p.Name
		stored.BabyName = p.BabyName
		stored.BabyDob = p.BabyDob
		stored.Phone = p.Phone
		stored.Address = p.Address
	})
}

func (r memParents) UpdatePassword(_ context.Context, id, hash string) error {
	return r.update("", id, func(p *models.Parent) { p.Password = hash })
}

func (r memParents) SetHospital(_ context.Context, id, hospitalID string) error {
	return r.update("", id, func(p *models.Parent) { p.HospitalID = hospitalID })
}

func (r memParents) SetTeam(_ context.Context, hospitalID, id, teamID string) error {
	return r.update(hospitalID, id, func(p *models.Parent) { p.TeamID = teamID })
}

func (r memParents) SetDoctor(_ context.Context, hospitalID, id, doctorID string) error {
	return r.update(hospitalID, id, func(p *models.Parent) { p.DoctorID = doctorID })
}

func (r memParents) clear(match func(models.Parent) bool, fn func(*models.Parent)) int64 {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, p := range r.m.parents {
		if match(p) {
			fn(&p)
			p.UpdatedAt = time.Now()
			r.m.parents[id] = p
			n++
		}
	}
	return n
}

func (r memParents) ClearTeam(_ context.Context, hospitalID, teamID string) (int64, error) {
	return r.clear(
		func(p models.Parent) bool { return p.HospitalID == hospitalID && p.TeamID == teamID },
		func(p *models.Parent) { p.TeamID = "" },
	), nil
}

func (r memParents) ClearDoctor(_ context.Context, hospitalID, doctorID string) (int64, error) {
	return r.clear(
		func(p models.Parent) bool { return p.HospitalID == hospitalID && p.DoctorID == doctorID },
		func(p *models.Parent) { p.DoctorID = "" },
	), nil
}

func (r memParents) Delete(_ context.Context, hospitalID, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.parents[id]
	if !ok || p.HospitalID != hospitalID {
		return ErrNotFound
	}
	delete(r.m.parents, id)
	return nil
}

// --- doctors ---

type memDoctors struct{ m *memory }

func (r memDoctors) Create(_ context.Context, d *models.Doctor) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.doctors[d.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range r.m.doctors {
		if existing.Email == d.Email {
			return ErrDuplicate
		}
	}
	r.m.doctors[d.ID] = *d
	return nil
}

func (r memDoctors) find(match func(models.Doctor) bool) (*models.Doctor, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, d := range r.m.doctors {
		if match(d) {
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (r memDoctors) update(hospitalID, id string, fn func(*models.Doctor)) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	d, ok := r.m.doctors[id]
	if !ok || (hospitalID != "" && d.HospitalID != hospitalID) {
		return ErrNotFound
	}
	fn(&d)
	d.UpdatedAt = time.Now()
	r.m.doctors[id] = d
	return nil
}

func (r memDoctors) GetByID(_ context.Context, id string) (*models.Doctor, error) {
	return r.find(func(d models.Doctor) bool { return d.ID == id })
}

func (r memDoctors) GetByEmail(_ context.Context, email string) (*models.Doctor, error) {
	return r.find(func(d models.Doctor) bool { return d.Email == email })
}

func (r memDoctors) GetInHospital(_ context.Context, hospitalID, id string) (*models.Doctor, error) {
	return r.find(func(d models.Doctor) bool { return d.ID == id && d.HospitalID == hospitalID })
}

func (r memDoctors) ListByHospital(_ context.Context, hospitalID string) ([]*models.Doctor, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*models.Doctor, 0)
	for _, d := range r.m.doctors {
		if d.HospitalID == hospitalID {
			d := d
			out = append(out, &d)
		}
	}
	return sortByCreated(out, func(d *models.Doctor) time.Time { return d.CreatedAt }), nil
}

func (r memDoctors) UpdateProfile(_ context.Context, d *models.Doctor) error {
	return r.update("", d.ID, func(stored *models.Doctor) {
		stored.Name = d.Name
		stored.Specialty = d.Specialty
		stored.Phone = d.Phone
		stored.Bio = d.Bio
		stored.ProfileStatus = d.ProfileStatus
	})
}

func (r memDoctors) UpdatePassword(_ context.Context, id, hash string) error {
	return r.update("", id, func(d *models.Doctor) { d.Password = hash })
}

func (r memDoctors) SetStatus(_ context.Context, hospitalID, id, status string) error {
	return r.update(hospitalID, id, func(d *models.Doctor) { d.Status = status })
}

func (r memDoctors) SetProfileStatus(_ context.Context, hospitalID, id, profileStatus string) error {
	return r.update(hospitalID, id, func(d *models.Doctor) { d.ProfileStatus = profileStatus })
}

func (r memDoctors) Delete(_ context.Context, hospitalID, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	d, ok := r.m.doctors[id]
	if !ok || d.HospitalID != hospitalID {
		return ErrNotFound
	}
	delete(r.m.doctors, id)
	return nil
}

// --- hospitals ---

type memHospitals struct{ m *memory }

func (r memHospitals) Create(_ context.Context, h *models.Hospital) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.hospitals[h.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range r.m.hospitals {
		if existing.Email == h.Email || existing.HospitalCode == h.HospitalCode {
			return ErrDuplicate
		}
	}
	r.m.hospitals[h.ID] = *h
	return nil
}

func (r memHospitals) find(match func(models.Hospital) bool) (*models.Hospital, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, h := range r.m.hospitals {
		if match(h) {
			return &h, nil
		}
	}
	return nil, ErrNotFound
}

func (r memHospitals) GetByID(_ context.Context, id string) (*models.Hospital, error) {
	return r.find(func(h models.Hospital) bool { return h.ID == id })
}

func (r memHospitals) GetByEmail(_ context.Context, email string) (*models.Hospital, error) {
	return r.find(func(h models.Hospital) bool { return h.Email == email })
}

func (r memHospitals) GetByCode(_ context.Context, code string) (*models.Hospital, error) {
	return r.find(func(h models.Hospital) bool { return h.HospitalCode == code })
}

func (r memHospitals) List(_ context.Context, status models.HospitalStatus) ([]*models.Hospital, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*models.Hospital, 0)
	for _, h := range r.m.hospitals {
		if status == "" || h.Status == status {
			h := h
			out = append(out, &h)
		}
	}
	return sortByCreated(out, func(h *models.Hospital) time.Time { return h.CreatedAt }), nil
}

func (r memHospitals) UpdateProfile(_ context.Context, h *models.Hospital) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.hospitals[h.ID]
	if !ok {
		return ErrNotFound
	}
	stored.OwnerName = h.OwnerName
	stored.HospitalName = h.HospitalName
	stored.Address = h.Address
	stored.Mobile = h.Mobile
	stored.UpdatedAt = h.UpdatedAt
	r.m.hospitals[h.ID] = stored
	return nil
}

func (r memHospitals) UpdatePassword(_ context.Context, id, hash string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	h, ok := r.m.hospitals[id]
	if !ok {
		return ErrNotFound
	}
	h.Password = hash
	h.UpdatedAt = time.Now()
	r.m.hospitals[id] = h
	return nil
}

func (r memHospitals) SetStatus(_ context.Context, id string, from, to models.HospitalStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	h, ok := r.m.hospitals[id]
	if !ok || h.Status != from {
		return ErrNotFound
	}
	h.Status = to
	h.UpdatedAt = time.Now()
	r.m.hospitals[id] = h
	return nil
}

// --- superadmins ---

type memSuperadmins struct{ m *memory }

func (r memSuperadmins) Create(_ context.Context, s *models.Superadmin) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.superadmins[s.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range r.m.superadmins {
		if existing.Email == s.Email {
			return ErrDuplicate
		}
	}
	r.m.superadmins[s.ID] = *s
	return nil
}

func (r memSuperadmins) GetByID(_ context.Context, id string) (*models.Superadmin, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	s, ok := r.m.superadmins[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r memSuperadmins) GetByEmail(_ context.Context, email string) (*models.Superadmin, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, s := range r.m.superadmins {
		if s.Email == email {
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

func (r memSuperadmins) UpdatePassword(_ context.Context, id, hash string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.superadmins[id]
	if !ok {
		return ErrNotFound
	}
	s.Password = hash
	r.m.superadmins[id] = s
	return nil
}

// --- teams ---

type memTeams struct{ m *memory }

func (r memTeams) Create(_ context.Context, t *models.Team) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.teams[t.ID]; ok {
		return ErrDuplicate
	}
	if t.Members == nil {
		t.Members = []models.TeamMember{}
	}
	r.m.teams[t.ID] = *copyTeam(*t)
	return nil
}

func (r memTeams) GetInHospital(_ context.Context, hospitalID, id string) (*models.Team, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	t, ok := r.m.teams[id]
	if !ok || t.HospitalID != hospitalID {
		return nil, ErrNotFound
	}
	return copyTeam(t), nil
}

func (r memTeams) list(match func(models.Team) bool) []*models.Team {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*models.Team, 0)
	for _, t := range r.m.teams {
		if match(t) {
			out = append(out, copyTeam(t))
		}
	}
	return sortByCreated(out, func(t *models.Team) time.Time { return t.CreatedAt })
}

func (r memTeams) ListByHospital(_ context.Context, hospitalID string) ([]*models.Team, error) {
	return r.list(func(t models.Team) bool { return t.HospitalID == hospitalID }), nil
}

func (r memTeams) ListByMember(_ context.Context, doctorID string) ([]*models.Team, error) {
	return r.list(func(t models.Team) bool { return t.HasMember(doctorID) }), nil
}

func (r memTeams) AddMember(_ context.Context, hospitalID, id string, m models.TeamMember) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.teams[id]
	if !ok || t.HospitalID != hospitalID {
		return ErrNotFound
	}
	if t.HasMember(m.DoctorID) {
		return ErrDuplicate
	}
	t.Members = append(append([]models.TeamMember{}, t.Members...), m)
	t.UpdatedAt = time.Now()
	r.m.teams[id] = t
	return nil
}

func withoutMember(members []models.TeamMember, doctorID string) []models.TeamMember {
	out := make([]models.TeamMember, 0, len(members))
	for _, m := range members {
		if m.DoctorID != doctorID {
			out = append(out, m)
		}
	}
	return out
}

func (r memTeams) RemoveMember(_ context.Context, hospitalID, id, doctorID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.teams[id]
	if !ok || t.HospitalID != hospitalID || !t.HasMember(doctorID) {
		return ErrNotFound
	}
	t.Members = withoutMember(t.Members, doctorID)
	t.UpdatedAt = time.Now()
	r.m.teams[id] = t
	return nil
}

func (r memTeams) RemoveDoctor(_ context.Context, hospitalID, doctorID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, t := range r.m.teams {
		if t.HospitalID == hospitalID && t.HasMember(doctorID) {
			t.Members = withoutMember(t.Members, doctorID)
			t.UpdatedAt = time.Now()
			r.m.teams[id] = t
		}
	}
	return nil
}

func (r memTeams) Delete(_ context.Context, hospitalID, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.teams[id]
	if !ok || t.HospitalID != hospitalID {
		return ErrNotFound
	}
	delete(r.m.teams, id)
	return nil
}

// --- timelines ---

type memTimelines struct{ m *memory }

func (r memTimelines) Get(_ context.Context, parentID string) (*models.Timeline, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	t, ok := r.m.timelines[parentID]
	if !ok {
		return nil, ErrNotFound
	}
	t.Tasks = append([]models.TimelineTask{}, t.Tasks...)
	return &t, nil
}

func (r memTimelines) Upsert(_ context.Context, t *models.Timeline) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored := *t
	stored.Tasks = append([]models.TimelineTask{}, t.Tasks...)
	r.m.timelines[t.ParentID] = stored
	return nil
}

func (r memTimelines) SetTaskCompleted(_ context.Context, parentID, taskID string, completed bool, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.timelines[parentID]
	if !ok {
		return ErrNotFound
	}
	tasks := append([]models.TimelineTask{}, t.Tasks...)
	for i := range tasks {
		if tasks[i].ID == taskID {
			tasks[i].Completed = completed
			t.Tasks = tasks
			t.UpdatedAt = at
			r.m.timelines[parentID] = t
			return nil
		}
	}
	return ErrNotFound
}

func (r memTimelines) Delete(_ context.Context, parentID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.timelines, parentID)
	return nil
}

// --- messages ---

type memMessages struct{ m *memory }

func (r memMessages) Create(_ context.Context, msg *models.Message) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.messages[msg.ID]; ok {
		return ErrDuplicate
	}
	r.m.messages[msg.ID] = *msg
	return nil
}

func (r memMessages) ListConversation(_ context.Context, conversationID string) ([]*models.Message, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*models.Message, 0)
	for _, msg := range r.m.messages {
		if msg.ConversationID == conversationID {
			msg := msg
			out = append(out, &msg)
		}
	}
	return sortByCreated(out, func(m *models.Message) time.Time { return m.CreatedAt }), nil
}

func (r memMessages) MarkRead(_ context.Context, conversationID, receiverID string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, msg := range r.m.messages {
		if msg.ConversationID == conversationID && msg.ReceiverID == receiverID && !msg.Read {
			msg.Read = true
			r.m.messages[id] = msg
			n++
		}
	}
	return n, nil
}

func (r memMessages) CountUnread(_ context.Context, receiverID string) (int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var n int64
	for _, msg := range r.m.messages {
		if msg.ReceiverID == receiverID && !msg.Read {
			n++
		}
	}
	return n, nil
}

// --- password resets ---

type memResets struct{ m *memory }

func (r memResets) Create(_ context.Context, reset *models.PasswordReset) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.resets[reset.TokenHash]; ok {
		return ErrDuplicate
	}
	r.m.resets[reset.TokenHash] = *reset
	return nil
}

func (r memResets) Consume(_ context.Context, tokenHash string, now time.Time) (*models.PasswordReset, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	reset, ok := r.m.resets[tokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.m.resets, tokenHash)
	if !reset.ExpiresAt.After(now) {
		return nil, ErrNotFound
	}
	return &reset, nil
}

func (r memResets) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for hash, reset := range r.m.resets {
		if !reset.ExpiresAt.After(now) {
			delete(r.m.resets, hash)
			n++
		}
	}
	return n, nil
}
