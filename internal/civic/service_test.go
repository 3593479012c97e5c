package civic

import (
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/database"
	"github.com/ZyrusXD/BMA-Voice/internal/events"
	"github.com/ZyrusXD/BMA-Voice/internal/geo"
	"github.com/ZyrusXD/BMA-Voice/internal/ledger"
	"github.com/ZyrusXD/BMA-Voice/internal/mission"
	"github.com/ZyrusXD/BMA-Voice/internal/model"
	"github.com/ZyrusXD/BMA-Voice/internal/sentiment"
	"github.com/ZyrusXD/BMA-Voice/internal/store"
)

type resolverFunc func(lat, lon float64) string

func (f resolverFunc) Resolve(lat, lon float64) string { return f(lat, lon) }

type fixture struct {
	svc      *Service
	users    *store.UserStore
	posts    *store.PostStore
	comments *store.CommentStore
	polls    *store.PollStore
	missions *store.MissionStore
	entries  *store.LedgerStore
	resolver events.DistrictResolver
	scorer   sentiment.Scorer
	today    string
}

type option func(*fixture)

func withResolver(r events.DistrictResolver) option {
	return func(f *fixture) { f.resolver = r }
}

func withScorer(s sentiment.Scorer) option {
	return func(f *fixture) { f.scorer = s }
}

func setupService(t *testing.T, opts ...option) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		users:    store.NewUserStore(db),
		posts:    store.NewPostStore(db),
		comments: store.NewCommentStore(db),
		polls:    store.NewPollStore(db),
		missions: store.NewMissionStore(db),
		entries:  store.NewLedgerStore(db),
		resolver: resolverFunc(func(float64, float64) string { return "ปทุมวัน" }),
		scorer:   sentiment.DefaultLexicon(),
		today:    time.Now().UTC().Format(time.DateOnly),
	}
	for _, opt := range opts {
		opt(f)
	}

	l := ledger.New(f.entries, ledger.DefaultConfig(), slog.Default())
	engine := mission.NewEngine(f.missions, f.users, l, slog.Default())
	d := events.NewDispatcher(l, engine, f.resolver, f.posts, f.comments, f.scorer, slog.Default())
	f.svc = NewService(f.users, f.posts, f.comments, f.polls, store.NewReactionStore(db), d, slog.Default())
	return f
}

func (f *fixture) user(t *testing.T, name string, privileged bool) *model.User {
	t.Helper()
	u, err := f.users.Create(name, privileged)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) points(t *testing.T, id int64) int {
	t.Helper()
	u, err := f.users.GetByID(id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	return u.Points
}

func (f *fixture) assign(t *testing.T, userID int64, action string, goal int) int64 {
	t.Helper()
	m, err := f.missions.CreateTemplate(action+" mission", "", action, goal, 10)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	if _, err := f.missions.Assign(userID, m.ID, f.today); err != nil {
		t.Fatalf("assign: %v", err)
	}
	return m.ID
}

func (f *fixture) progress(t *testing.T, userID, missionID int64) model.UserMission {
	t.Helper()
	list, err := f.missions.ListByUserDate(userID, f.today)
	if err != nil {
		t.Fatalf("list assignments: %v", err)
	}
	for _, um := range list {
		if um.MissionID == missionID {
			return um
		}
	}
	t.Fatalf("assignment for mission %d not found", missionID)
	return model.UserMission{}
}

func ptr(v float64) *float64 { return &v }

func TestCreatePost(t *testing.T) {
	f := setupService(t)
	u := f.user(t, "somchai", false)
	postMission := f.assign(t, u.ID, model.ActionCreatePost, 2)
	tagMission := f.assign(t, u.ID, model.ActionCreatePostHashtag, 2)
	locMission := f.assign(t, u.ID, model.ActionCreatePostLocation, 2)
	commentMission := f.assign(t, u.ID, model.ActionCreateComment, 2)

	p, err := f.svc.CreatePost(NewPost{
		OwnerID:   u.ID,
		Title:     "ทางเท้าพัง",
		Content:   "ทางเท้าหน้าสยามเป็นหลุม #ทางเท้า #Siam",
		Latitude:  ptr(13.7456),
		Longitude: ptr(100.5340),
		Tags:      []string{"siam"},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	stored, err := f.posts.GetByID(p.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if stored.District != "ปทุมวัน" {
		t.Errorf("district = %q, want ปทุมวัน", stored.District)
	}
	if !slices.Equal(stored.Tags, []string{"siam", "ทางเท้า"}) {
		t.Errorf("tags = %v, want [siam ทางเท้า]", stored.Tags)
	}
	if stored.PolicyAspect != sentiment.PolicyTravel {
		t.Errorf("policy aspect = %q, want %q", stored.PolicyAspect, sentiment.PolicyTravel)
	}
	if stored.SentimentScore != -1 {
		t.Errorf("sentiment = %d, want -1", stored.SentimentScore)
	}

	if got := f.points(t, u.ID); got != 30 {
		t.Errorf("points = %d, want 30", got)
	}
	for name, id := range map[string]int64{"post": postMission, "hashtag": tagMission, "location": locMission} {
		if got := f.progress(t, u.ID, id).CurrentProgress; got != 1 {
			t.Errorf("%s mission progress = %d, want 1", name, got)
		}
	}
	if got := f.progress(t, u.ID, commentMission).CurrentProgress; got != 0 {
		t.Errorf("comment mission progress = %d, want 0", got)
	}
}

func TestCreatePostWithoutExtras(t *testing.T) {
	f := setupService(t)
	u := f.user(t, "somchai", false)
	tagMission := f.assign(t, u.ID, model.ActionCreatePostHashtag, 1)
	locMission := f.assign(t, u.ID, model.ActionCreatePostLocation, 1)

	p, err := f.svc.CreatePost(NewPost{OwnerID: u.ID, Title: "สอบถาม", Content: "รถเมล์สาย 8 มากี่โมง", PolicyAspect: sentiment.PolicyManagement})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	stored, err := f.posts.GetByID(p.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if stored.District != "" {
		t.Errorf("district = %q, want empty", stored.District)
	}
	if stored.PolicyAspect != sentiment.PolicyManagement {
		t.Errorf("policy aspect = %q, want the chosen one", stored.PolicyAspect)
	}
	if f.progress(t, u.ID, tagMission).CurrentProgress != 0 || f.progress(t, u.ID, locMission).CurrentProgress != 0 {
		t.Error("hashtag and location missions should not move")
	}
}

func TestCreatePostResolverPanics(t *testing.T) {
	f := setupService(t, withResolver(resolverFunc(func(float64, float64) string { panic("bad polygon") })))
	u := f.user(t, "somchai", false)

	p, err := f.svc.CreatePost(NewPost{OwnerID: u.ID, Title: "ไฟดับ", Latitude: ptr(13.7), Longitude: ptr(100.5)})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	stored, err := f.posts.GetByID(p.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if stored.District != geo.Undetermined {
		t.Errorf("district = %q, want %q", stored.District, geo.Undetermined)
	}
	if got := f.points(t, u.ID); got != 30 {
		t.Errorf("points = %d, want 30", got)
	}
}

func TestCreatePostScorerFails(t *testing.T) {
	failing := sentiment.ScorerFunc(func(string) (int, error) { return 0, errors.New("scorer offline") })
	f := setupService(t, withScorer(failing))
	u := f.user(t, "somchai", false)

	p, err := f.svc.CreatePost(NewPost{OwnerID: u.ID, Title: "ขยะล้นถัง"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	stored, err := f.posts.GetByID(p.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if stored.SentimentScore != 0 {
		t.Errorf("sentiment = %d, want 0", stored.SentimentScore)
	}
	if stored.PolicyAspect != sentiment.PolicyEnvironment {
		t.Errorf("policy aspect = %q, want %q", stored.PolicyAspect, sentiment.PolicyEnvironment)
	}
	if got := f.points(t, u.ID); got != 30 {
		t.Errorf("points = %d, want 30", got)
	}
}

func TestCreatePostValidation(t *testing.T) {
	f := setupService(t)
	u := f.user(t, "somchai", false)

	tests := []struct {
		name string
		in   NewPost
		want error
	}{
		{"empty title", NewPost{OwnerID: u.ID, Title: "  "}, ErrInvalidInput},
		{"half coordinates", NewPost{OwnerID: u.ID, Title: "x", Latitude: ptr(13.7)}, ErrInvalidInput},
		{"unknown policy", NewPost{OwnerID: u.ID, Title: "x", PolicyAspect: "อื่นๆ"}, ErrInvalidPolicy},
		{"unknown owner", NewPost{OwnerID: 999, Title: "x"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.CreatePost(tt.in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDeletePost(t *testing.T) {
	f := setupService(t)
	owner := f.user(t, "somchai", false)
	other := f.user(t, "somying", false)
	staff := f.user(t, "officer", true)
	postMission := f.assign(t, owner.ID, model.ActionCreatePost, 3)

	p1, err := f.svc.CreatePost(NewPost{OwnerID: owner.ID, Title: "one"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	p2, err := f.svc.CreatePost(NewPost{OwnerID: owner.ID, Title: "two"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if _, err := f.svc.CreateComment(other.ID, &p1.ID, nil, "รับทราบ"); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if _, err := f.svc.CreateComment(other.ID, &p1.ID, nil, "ติดตามอยู่"); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if got := f.points(t, other.ID); got != 10 {
		t.Fatalf("commenter points = %d, want 10", got)
	}

	if err := f.svc.DeletePost(other.ID, p1.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("delete by other = %v, want ErrForbidden", err)
	}
	if err := f.svc.DeletePost(owner.ID, p1.ID); err != nil {
		t.Fatalf("delete by owner: %v", err)
	}
	// Cascaded comments cost their author what they earned.
	if got := f.points(t, other.ID); got != 0 {
		t.Errorf("commenter points after post delete = %d, want 0", got)
	}
	if comments, _ := f.comments.ListByPost(p1.ID); len(comments) != 0 {
		t.Errorf("comments after post delete = %d, want 0", len(comments))
	}
	if err := f.svc.DeletePost(staff.ID, p2.ID); err != nil {
		t.Fatalf("delete by staff: %v", err)
	}
	if err := f.svc.DeletePost(owner.ID, p1.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete again = %v, want ErrNotFound", err)
	}

	if got := f.points(t, owner.ID); got != 0 {
		t.Errorf("points = %d, want 0", got)
	}
	if got := f.progress(t, owner.ID, postMission).CurrentProgress; got != 2 {
		t.Errorf("mission progress = %d, want 2 after deletes", got)
	}
	total, err := f.entries.SumByUser(owner.ID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if total != 0 {
		t.Errorf("log total = %d, want 0", total)
	}
}

func TestComments(t *testing.T) {
	f := setupService(t)
	author := f.user(t, "somchai", false)
	other := f.user(t, "somying", false)
	commentMission := f.assign(t, author.ID, model.ActionCreateComment, 2)

	p, err := f.svc.CreatePost(NewPost{OwnerID: other.ID, Title: "ไฟดับ"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	c1, err := f.svc.CreateComment(author.ID, &p.ID, nil, "ขอบคุณที่แจ้ง")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if _, err := f.svc.CreateComment(author.ID, &p.ID, nil, "แย่มาก"); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	stored, err := f.comments.GetByID(c1.ID)
	if err != nil {
		t.Fatalf("get comment: %v", err)
	}
	if stored.SentimentScore != 1 {
		t.Errorf("sentiment = %d, want 1", stored.SentimentScore)
	}

	um := f.progress(t, author.ID, commentMission)
	if !um.IsCompleted {
		t.Errorf("comment mission = %+v, want completed", um)
	}
	// 2 comments at 5 each plus the 10 point bonus.
	if got := f.points(t, author.ID); got != 20 {
		t.Errorf("points = %d, want 20", got)
	}

	if err := f.svc.DeleteComment(other.ID, c1.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("delete by other = %v, want ErrForbidden", err)
	}
	if err := f.svc.DeleteComment(author.ID, c1.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if got := f.points(t, author.ID); got != 15 {
		t.Errorf("points after delete = %d, want 15", got)
	}

	if _, err := f.svc.CreateComment(author.ID, nil, nil, "x"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("no target = %v, want ErrInvalidInput", err)
	}
	missing := int64(999)
	if _, err := f.svc.CreateComment(author.ID, &missing, nil, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing post = %v, want ErrNotFound", err)
	}
}

func TestThread(t *testing.T) {
	f := setupService(t)
	owner := f.user(t, "somchai", false)
	fan := f.user(t, "somying", false)

	p, err := f.svc.CreatePost(NewPost{OwnerID: owner.ID, Title: "ทางเท้าชำรุด"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := f.svc.CreateComment(fan.ID, &p.ID, nil, "เห็นด้วย"); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if _, err := f.svc.React(fan.ID, p.ID, model.ReactionWow); err != nil {
		t.Fatalf("react: %v", err)
	}

	th, err := f.svc.Thread(p.ID)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if th.Post.ID != p.ID || len(th.Comments) != 1 || th.Reactions[model.ReactionWow] != 1 {
		t.Errorf("thread = %+v, want post %d with one comment and wow=1", th, p.ID)
	}

	if _, err := f.svc.Thread(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing post = %v, want ErrNotFound", err)
	}
}

func TestCastVote(t *testing.T) {
	f := setupService(t)
	bot := f.user(t, "BMA-Bot", true)
	voter := f.user(t, "somchai", false)
	voteMission := f.assign(t, voter.ID, model.ActionPollVote, 1)

	poll, err := f.polls.Create(bot.ID, "ทางเท้า?", time.Now().Add(24*time.Hour), []string{"เห็นด้วย", "ไม่เห็นด้วย"})
	if err != nil {
		t.Fatalf("create poll: %v", err)
	}
	other, err := f.polls.Create(bot.ID, "other", time.Now().Add(24*time.Hour), []string{"a"})
	if err != nil {
		t.Fatalf("create poll: %v", err)
	}

	if _, err := f.svc.CastVote(voter.ID, poll.ID, other.Choices[0].ID); !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("foreign choice = %v, want ErrInvalidChoice", err)
	}

	v, err := f.svc.CastVote(voter.ID, poll.ID, poll.Choices[0].ID)
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if v.ChoiceID != poll.Choices[0].ID {
		t.Errorf("choice = %d, want %d", v.ChoiceID, poll.Choices[0].ID)
	}

	if _, err := f.svc.CastVote(voter.ID, poll.ID, poll.Choices[1].ID); !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("second vote = %v, want ErrAlreadyVoted", err)
	}

	// 15 for the vote, 10 for the mission.
	if got := f.points(t, voter.ID); got != 25 {
		t.Errorf("points = %d, want 25", got)
	}
	if !f.progress(t, voter.ID, voteMission).IsCompleted {
		t.Error("vote mission should be completed")
	}

	got, err := f.polls.GetByID(poll.ID)
	if err != nil {
		t.Fatalf("get poll: %v", err)
	}
	if got.Choices[0].Votes != 1 || got.Choices[1].Votes != 0 {
		t.Errorf("votes = %+v, want first choice only", got.Choices)
	}
}

func TestCastVoteClosedPoll(t *testing.T) {
	f := setupService(t)
	bot := f.user(t, "BMA-Bot", true)
	voter := f.user(t, "somchai", false)

	poll, err := f.polls.Create(bot.ID, "old", time.Now().Add(-time.Hour), []string{"a"})
	if err != nil {
		t.Fatalf("create poll: %v", err)
	}
	if _, err := f.svc.CastVote(voter.ID, poll.ID, poll.Choices[0].ID); !errors.Is(err, ErrPollClosed) {
		t.Errorf("err = %v, want ErrPollClosed", err)
	}
	if _, err := f.svc.CastVote(voter.ID, 999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReact(t *testing.T) {
	f := setupService(t)
	owner := f.user(t, "somying", false)
	u := f.user(t, "somchai", false)
	likeMission := f.assign(t, u.ID, model.ActionCreateReactionLike, 5)

	p, err := f.svc.CreatePost(NewPost{OwnerID: owner.ID, Title: "สวนสวย"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	steps := []struct {
		reaction string
		action   string
		points   int
		progress int
	}{
		{model.ReactionLike, ReactionCreated, 1, 1},
		{model.ReactionLove, ReactionChanged, 3, 1},
		{model.ReactionLove, ReactionRemoved, 0, 1},
		{model.ReactionAngry, ReactionCreated, 0, 1},
		// angry to like is worth 3 even though angry was floored at 0.
		{model.ReactionLike, ReactionChanged, 3, 1},
		{model.ReactionLike, ReactionRemoved, 2, 1},
		{model.ReactionLike, ReactionCreated, 3, 2},
	}
	for i, s := range steps {
		res, err := f.svc.React(u.ID, p.ID, s.reaction)
		if err != nil {
			t.Fatalf("step %d react: %v", i, err)
		}
		if res.Action != s.action {
			t.Errorf("step %d action = %q, want %q", i, res.Action, s.action)
		}
		if got := f.points(t, u.ID); got != s.points {
			t.Errorf("step %d points = %d, want %d", i, got, s.points)
		}
		if got := f.progress(t, u.ID, likeMission).CurrentProgress; got != s.progress {
			t.Errorf("step %d like progress = %d, want %d", i, got, s.progress)
		}
	}

	res, err := f.svc.React(owner.ID, p.ID, model.ReactionWow)
	if err != nil {
		t.Fatalf("owner react: %v", err)
	}
	if res.Counts[model.ReactionLike] != 1 || res.Counts[model.ReactionWow] != 1 {
		t.Errorf("counts = %v, want one like and one wow", res.Counts)
	}

	entries, err := f.entries.ListByUser(u.ID, 10)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("reaction entries = %d, want 0", len(entries))
	}

	if _, err := f.svc.React(u.ID, p.ID, "laugh"); !errors.Is(err, ErrInvalidReaction) {
		t.Errorf("invalid reaction = %v, want ErrInvalidReaction", err)
	}
	if _, err := f.svc.React(u.ID, 999, model.ReactionLike); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing post = %v, want ErrNotFound", err)
	}
}

func TestChangeStatus(t *testing.T) {
	f := setupService(t)
	owner := f.user(t, "somchai", false)
	staff := f.user(t, "officer", true)

	p, err := f.svc.CreatePost(NewPost{OwnerID: owner.ID, Title: "ไฟดับ"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if err := f.svc.ChangeStatus(owner.ID, p.ID, model.PostStatusResolved); !errors.Is(err, ErrForbidden) {
		t.Errorf("owner change = %v, want ErrForbidden", err)
	}
	if err := f.svc.ChangeStatus(staff.ID, p.ID, "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bad status = %v, want ErrInvalidStatus", err)
	}
	if err := f.svc.ChangeStatus(staff.ID, p.ID, model.PostStatusProgress); err != nil {
		t.Fatalf("change status: %v", err)
	}

	stored, err := f.posts.GetByID(p.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if stored.Status != model.PostStatusProgress {
		t.Errorf("status = %q, want %q", stored.Status, model.PostStatusProgress)
	}
}

func TestPrivilegedActivityEarnsNothing(t *testing.T) {
	f := setupService(t)
	staff := f.user(t, "officer", true)

	p, err := f.svc.CreatePost(NewPost{OwnerID: staff.ID, Title: "ประกาศ"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := f.svc.CreateComment(staff.ID, &p.ID, nil, "รับเรื่องแล้ว"); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if _, err := f.svc.React(staff.ID, p.ID, model.ReactionLove); err != nil {
		t.Fatalf("react: %v", err)
	}
	if got := f.points(t, staff.ID); got != 0 {
		t.Errorf("points = %d, want 0", got)
	}
}
