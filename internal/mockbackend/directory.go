package mockbackend

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"edu-task-portal/internal/model"
)

// Account statuses as the platform stores them.
const (
	StatusActive   = "ACTIVE"
	StatusPending  = "PENDING"
	StatusRejected = "REJECTED"
)

type account struct {
	user         model.User
	passwordHash []byte
	createdAt    time.Time
}

type group struct {
	model.Group
	createdAt time.Time
}

// directory is the in-memory user and group store of the fake backend.
type directory struct {
	cost int

	mu         sync.RWMutex
	nextUserID int64
	nextGroup  int64
	byID       map[int64]*account
	byName     map[string]*account
	groups     map[int64]*group
	now        func() time.Time
}

func newDirectory(cost int) *directory {
	return &directory{
		cost:       cost,
		nextUserID: 1,
		nextGroup:  1,
		byID:       map[int64]*account{},
		byName:     map[string]*account{},
		groups:     map[int64]*group{},
		now:        time.Now,
	}
}

func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// create stores a new account. Role is in wire form (ADMIN/TEACHER/STUDENT).
func (d *directory) create(u model.User, password string) (model.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" || password == "" {
		return model.User{}, model.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return model.User{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := usernameKey(u.Username)
	if _, exists := d.byName[key]; exists {
		return model.User{}, model.ErrUserAlreadyExists
	}

	u.ID = d.nextUserID
	d.nextUserID++

	acc := &account{user: u, passwordHash: hash, createdAt: d.now().UTC()}
	d.byID[u.ID] = acc
	d.byName[key] = acc

	return u, nil
}

// authenticate mirrors the platform rule: username, password and role must
// all match and the account must be ACTIVE.
func (d *directory) authenticate(username string, password string, role string) (model.User, error) {
	d.mu.RLock()
	acc, exists := d.byName[usernameKey(username)]
	d.mu.RUnlock()

	if !exists {
		return model.User{}, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return model.User{}, model.ErrInvalidCredentials
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if !strings.EqualFold(string(acc.user.Role), role) || acc.user.Status != StatusActive {
		return model.User{}, model.ErrInvalidCredentials
	}
	return acc.user, nil
}

func (d *directory) get(id int64) (model.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	acc, ok := d.byID[id]
	if !ok {
		return model.User{}, false
	}
	return acc.user, true
}

// update applies fn to the stored user with id. The id, role and username
// cannot be changed through it.
func (d *directory) update(id int64, fn func(u *model.User)) (model.User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.byID[id]
	if !ok {
		return model.User{}, false
	}

	u := acc.user
	fn(&u)
	u.ID, u.Role, u.Username = acc.user.ID, acc.user.Role, acc.user.Username
	acc.user = u
	return u, true
}

func (d *directory) remove(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.byID[id]
	if !ok {
		return false
	}
	delete(d.byID, id)
	delete(d.byName, usernameKey(acc.user.Username))

	for _, g := range d.groups {
		g.Members = withoutMember(g.Members, id)
	}
	return true
}

// list returns users with the wire role and (optionally) status, filtered by
// a case-insensitive substring of the name or username, ordered by id.
func (d *directory) list(role string, status string, name string) []model.User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(name))
	out := []model.User{}
	for _, acc := range d.byID {
		u := acc.user
		if !strings.EqualFold(string(u.Role), role) {
			continue
		}
		if status != "" && u.Status != status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Name), needle) &&
			!strings.Contains(strings.ToLower(u.Username), needle) {
			continue
		}
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// registrationsByDay counts accounts per creation day, oldest first.
func (d *directory) registrationsByDay() []model.TrendPoint {
	d.mu.RLock()
	defer d.mu.RUnlock()

	counts := map[string]int64{}
	for _, acc := range d.byID {
		counts[acc.createdAt.Format(time.DateOnly)]++
	}

	out := make([]model.TrendPoint, 0, len(counts))
	for day, n := range counts {
		out = append(out, model.TrendPoint{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// recent lists the newest accounts as activity entries.
func (d *directory) recent(limit int) []model.Activity {
	d.mu.RLock()
	accounts := make([]*account, 0, len(d.byID))
	for _, acc := range d.byID {
		accounts = append(accounts, acc)
	}
	d.mu.RUnlock()

	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].createdAt.Equal(accounts[j].createdAt) {
			return accounts[i].user.ID > accounts[j].user.ID
		}
		return accounts[i].createdAt.After(accounts[j].createdAt)
	})
	if limit > 0 && len(accounts) > limit {
		accounts = accounts[:limit]
	}

	out := make([]model.Activity, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, model.Activity{
			"type":     "registration",
			"userId":   acc.user.ID,
			"username": acc.user.Username,
			"role":     acc.user.Role,
			"time":     acc.createdAt.Format(time.RFC3339),
		})
	}
	return out
}

func (d *directory) createGroup(g model.Group) model.Group {
	d.mu.Lock()
	defer d.mu.Unlock()

	g.ID = d.nextGroup
	d.nextGroup++
	g.Members = append([]int64(nil), g.Members...)
	d.groups[g.ID] = &group{Group: g, createdAt: d.now().UTC()}
	return g
}

// groupsWhere returns copies of the groups matching keep, ordered by id.
func (d *directory) groupsWhere(keep func(g model.Group) bool) []model.Group {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []model.Group{}
	for _, g := range d.groups {
		cp := g.Group
		cp.Members = append([]int64(nil), g.Members...)
		if keep == nil || keep(cp) {
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *directory) setMembership(groupID int64, userID int64, member bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.groups[groupID]
	if !ok {
		return false
	}

	g.Members = withoutMember(g.Members, userID)
	if member {
		g.Members = append(g.Members, userID)
	}
	return true
}

func (d *directory) members(groupID int64) ([]model.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	g, ok := d.groups[groupID]
	if !ok {
		return nil, false
	}

	out := make([]model.User, 0, len(g.Members))
	for _, id := range g.Members {
		if acc, exists := d.byID[id]; exists {
			out = append(out, acc.user)
		}
	}
	return out, true
}

func withoutMember(members []int64, id int64) []int64 {
	out := members[:0]
	for _, m := range members {
		if m != id {
			out = append(out, m)
		}
	}
	return out
}

func paginate[T any](items []T, page int, pageSize int) model.Page[T] {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	start := (page - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	return model.Page[T]{
		Total:    int64(len(items)),
		Rows:     items[start:end],
		Page:     page,
		PageSize: pageSize,
	}
}
