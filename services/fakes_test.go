package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/Dosada05/tournament-registration/models"
	"github.com/Dosada05/tournament-registration/repositories"
	"github.com/Dosada05/tournament-registration/storage"
)

// fakeStore - in-memory состояние БД. Транзакция фейка делает снимок и
// восстанавливает его при ошибке.
type fakeStore struct {
	mu sync.Mutex

	users       map[int]*models.User
	tournaments map[int]*models.Tournament
	contents    map[int]*models.TournamentContent
	ratings     map[int]int

	entries     []*models.Entry
	teams       []*models.Team
	teamMembers []*models.TeamMember
	nextID      int

	failMemberAt int
	memberCalls  int
	entryErr     error
	locks        int
}

type storeState struct {
	entries     []*models.Entry
	teams       []*models.Team
	teamMembers []*models.TeamMember
	nextID      int
}

func newStore() *fakeStore {
	return &fakeStore{
		users:       make(map[int]*models.User),
		tournaments: map[int]*models.Tournament{10: {ID: 10, Name: "Cup"}},
		contents:    make(map[int]*models.TournamentContent),
		ratings:     make(map[int]int),
		nextID:      100,
	}
}

func (s *fakeStore) addUser(id int, email string, gender *models.Gender) *fakeStore {
	s.users[id] = &models.User{ID: id, FirstName: "User", LastName: email, Email: email, Gender: gender}
	return s
}

func (s *fakeStore) addContent(id int, kind models.ContentType, req models.GenderRequirement, max *int) *fakeStore {
	s.contents[id] = &models.TournamentContent{ID: id, TournamentID: 10, Name: "content", ContentType: kind, GenderRequirement: req, MaxEntries: max}
	return s
}

// putOnTeam creates the team if needed and adds the user to it.
func (s *fakeStore) putOnTeam(teamID, userID int, role models.TeamRole) *fakeStore {
	found := false
	for _, t := range s.teams {
		if t.ID == teamID {
			found = true
		}
	}
	if !found {
		s.teams = append(s.teams, &models.Team{ID: teamID, TournamentID: 10, Name: "team"})
	}
	s.teamMembers = append(s.teamMembers, &models.TeamMember{ID: s.id(), TeamID: teamID, TournamentID: 10, UserID: userID, Role: role})
	return s
}

// register persists an entry directly, bypassing the services.
func (s *fakeStore) register(contentID int, userIDs ...int) {
	e := &models.Entry{ID: s.id(), ContentID: contentID, TournamentID: 10, Status: models.EntryStatusApproved}
	for i, u := range userIDs {
		e.Members = append(e.Members, models.EntryMember{ID: s.id(), EntryID: e.ID, ContentID: contentID, UserID: u, Position: i + 1, Rating: 1000})
	}
	s.entries = append(s.entries, e)
}

func (s *fakeStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) entriesOf(contentID int) []*models.Entry {
	var out []*models.Entry
	for _, e := range s.entries {
		if e.ContentID == contentID {
			out = append(out, e)
		}
	}
	return out
}

func (s *fakeStore) snapshot() storeState {
	st := storeState{nextID: s.nextID}
	for _, e := range s.entries {
		cp := *e
		cp.Members = append([]models.EntryMember(nil), e.Members...)
		st.entries = append(st.entries, &cp)
	}
	for _, t := range s.teams {
		cp := *t
		st.teams = append(st.teams, &cp)
	}
	for _, m := range s.teamMembers {
		cp := *m
		st.teamMembers = append(st.teamMembers, &cp)
	}
	return st
}

func (s *fakeStore) restore(st storeState) {
	s.entries, s.teams, s.teamMembers, s.nextID = st.entries, st.teams, st.teamMembers, st.nextID
}

type fakeTx struct{ store *fakeStore }

func (f fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.store.mu.Lock()
	st := f.store.snapshot()
	f.store.mu.Unlock()

	if err := fn(nil); err != nil {
		f.store.mu.Lock()
		f.store.restore(st)
		f.store.mu.Unlock()
		return err
	}
	return nil
}

type fakeTournamentRepo struct{ store *fakeStore }

func (r fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return t, nil
}

func (r fakeTournamentRepo) GetContentByID(_ context.Context, _ repositories.SQLExecutor, contentID int) (*models.TournamentContent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.contents[contentID]
	if !ok {
		return nil, repositories.ErrContentNotFound
	}
	cp := *c
	return &cp, nil
}

func (r fakeTournamentRepo) LockContent(context.Context, repositories.SQLExecutor, int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.locks++
	return nil
}

func (r fakeTournamentRepo) LockTournamentTeams(context.Context, repositories.SQLExecutor, int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.locks++
	return nil
}

type fakeEntryRepo struct{ store *fakeStore }

func (r fakeEntryRepo) ListByContent(_ context.Context, _ repositories.SQLExecutor, contentID int) ([]*models.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.entriesOf(contentID), nil
}

func (r fakeEntryRepo) Create(_ context.Context, _ repositories.SQLExecutor, entry *models.Entry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.entryErr != nil {
		return r.store.entryErr
	}
	if entry.PairKey != nil {
		for _, e := range r.store.entriesOf(entry.ContentID) {
			if e.PairKey != nil && *e.PairKey == *entry.PairKey {
				return repositories.ErrEntryConflict
			}
		}
	}
	entry.ID = r.store.id()
	cp := *entry
	r.store.entries = append(r.store.entries, &cp)
	return nil
}

func (r fakeEntryRepo) CreateMember(_ context.Context, _ repositories.SQLExecutor, member *models.EntryMember) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.memberCalls++
	if r.store.failMemberAt > 0 && r.store.memberCalls == r.store.failMemberAt {
		return errors.New("insert entry_members: connection reset by peer")
	}
	for _, e := range r.store.entriesOf(member.ContentID) {
		for _, m := range e.Members {
			if m.UserID == member.UserID {
				return repositories.ErrEntryConflict
			}
		}
	}
	member.ID = r.store.id()
	for _, e := range r.store.entries {
		if e.ID == member.EntryID {
			e.Members = append(e.Members, *member)
			return nil
		}
	}
	return repositories.ErrEntryContentInvalid
}

type fakeTeamRepo struct{ store *fakeStore }

func (r fakeTeamRepo) FindTeamIDByUser(_ context.Context, userID, tournamentID int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range r.store.teamMembers {
		if m.UserID == userID && m.TournamentID == tournamentID {
			return m.TeamID, nil
		}
	}
	return 0, repositories.ErrTeamNotFound
}

func (r fakeTeamRepo) ListNamesByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var names []string
	for _, t := range r.store.teams {
		if t.TournamentID == tournamentID {
			names = append(names, t.Name)
		}
	}
	return names, nil
}

func (r fakeTeamRepo) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.teams {
		if t.TournamentID == team.TournamentID && strings.EqualFold(t.Name, team.Name) {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = r.store.id()
	cp := *team
	r.store.teams = append(r.store.teams, &cp)
	return nil
}

func (r fakeTeamRepo) CreateMembers(_ context.Context, _ repositories.SQLExecutor, members []*models.TeamMember) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range members {
		for _, existing := range r.store.teamMembers {
			if existing.TournamentID == m.TournamentID && existing.UserID == m.UserID {
				return repositories.ErrTeamMemberConflict
			}
		}
		m.ID = r.store.id()
		cp := *m
		r.store.teamMembers = append(r.store.teamMembers, &cp)
	}
	return nil
}

type fakeUserRepo struct{ store *fakeStore }

func (r fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return u, nil
}

func (r fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeScoreRepo struct{ store *fakeStore }

func (r fakeScoreRepo) ListRatings(_ context.Context, userIDs []int) (map[int]int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make(map[int]int)
	for _, id := range userIDs {
		if v, ok := r.store.ratings[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type fakeUploader struct {
	keys []string
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	if _, err := io.ReadAll(reader); err != nil {
		return nil, err
	}
	u.keys = append(u.keys, key)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

type event struct {
	tournamentID int
	name         string
	payload      interface{}
}

type fakeNotifier struct {
	events []event
}

func (n *fakeNotifier) NotifyTournament(tournamentID int, name string, payload interface{}) {
	n.events = append(n.events, event{tournamentID: tournamentID, name: name, payload: payload})
}

type harness struct {
	store    *fakeStore
	uploader *fakeUploader
	notifier *fakeNotifier
	imports  *ImportService
	teams    *TeamImportService
}

func newHarness(store *fakeStore) *harness {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{store: store, uploader: &fakeUploader{}, notifier: &fakeNotifier{}}
	resolvers := NewResolvers(fakeUserRepo{store}, fakeTeamRepo{store})

	h.imports = NewImportService(ImportServiceDeps{
		Tournaments: fakeTournamentRepo{store},
		Entries:     fakeEntryRepo{store},
		Tx:          fakeTx{store},
		Resolvers:   resolvers,
		Ratings:     NewRatingResolver(fakeScoreRepo{store}),
		Uploader:    h.uploader,
		Notifier:    h.notifier,
		Logger:      logger,
	})
	h.teams = NewTeamImportService(TeamImportServiceDeps{
		Tournaments: fakeTournamentRepo{store},
		Teams:       fakeTeamRepo{store},
		Users:       fakeUserRepo{store},
		Tx:          fakeTx{store},
		Resolvers:   resolvers,
		Uploader:    h.uploader,
		Notifier:    h.notifier,
		Logger:      logger,
	})
	return h
}

func sheet(rows ...[]string) []models.RawRow {
	out := make([]models.RawRow, 0, len(rows))
	for i, cells := range rows {
		out = append(out, models.RawRow{Number: i + 1, Cells: cells})
	}
	return out
}

func gender(g models.Gender) *models.Gender { return &g }

func intPtr(v int) *int { return &v }
