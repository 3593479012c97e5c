package store

import (
	"testing"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/model"
)

const sentimentAspect = "สิ่งแวดล้อม"

func TestPostCreateWithTags(t *testing.T) {
	db := setupTestDB(t)
	u, err := NewUserStore(db).Create("somchai", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	ps := NewPostStore(db)

	lat, lon := 13.74, 100.53
	p, err := ps.Create(u.ID, "ถนนพัง", "หลุมใหญ่", "", &lat, &lon, "", []string{"ถนน", " ", "ถนน", "ซอย"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if p.PolicyAspect != model.PolicyUnspecified {
		t.Errorf("policy aspect = %q, want unspecified", p.PolicyAspect)
	}
	if p.Status != model.PostStatusOpen {
		t.Errorf("status = %q, want open", p.Status)
	}
	if !p.HasCoordinates() || *p.Latitude != lat {
		t.Errorf("coordinates = %v,%v, want %v,%v", p.Latitude, p.Longitude, lat, lon)
	}
	if len(p.Tags) != 2 {
		t.Errorf("tags = %v, want 2 distinct", p.Tags)
	}

	missing, err := ps.GetByID(p.ID + 100)
	if err != nil || missing != nil {
		t.Errorf("GetByID missing = %v, %v; want nil, nil", missing, err)
	}
}

func TestPostAnalysisAndDistricts(t *testing.T) {
	db := setupTestDB(t)
	u, err := NewUserStore(db).Create("somchai", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	ps := NewPostStore(db)

	mk := func(title, district string, score int) *model.Post {
		p, err := ps.Create(u.ID, title, "", "", nil, nil, district, nil)
		if err != nil {
			t.Fatalf("create post: %v", err)
		}
		if score != 0 {
			if err := ps.SetAnalysis(p.ID, score, sentimentAspect); err != nil {
				t.Fatalf("set analysis: %v", err)
			}
		}
		return p
	}
	mk("a", "บางรัก", 2)
	mk("b", "บางรัก", 0)
	mk("c", "ปทุมวัน", -1)
	pending := mk("d", "", 0)

	ranking, err := ps.DistrictRanking()
	if err != nil {
		t.Fatalf("district ranking: %v", err)
	}
	if len(ranking) != 2 || ranking[0].District != "บางรัก" || ranking[0].PostCount != 2 || ranking[0].AvgSentiment != 1 {
		t.Errorf("ranking = %+v, want บางรัก first with avg 1 over 2 posts", ranking)
	}

	list, err := ps.ListByDistrict("บางรัก")
	if err != nil {
		t.Fatalf("list by district: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("บางรัก posts = %d, want 2", len(list))
	}

	unanalyzed, err := ps.ListUnanalyzed(10)
	if err != nil {
		t.Fatalf("list unanalyzed: %v", err)
	}
	if len(unanalyzed) != 2 || unanalyzed[1].ID != pending.ID {
		t.Errorf("unanalyzed = %d posts, want the two never scored", len(unanalyzed))
	}

	if err := ps.SetDistrict(pending.ID, "ปทุมวัน"); err != nil {
		t.Fatalf("set district: %v", err)
	}
	if err := ps.SetStatus(pending.ID, model.PostStatusResolved); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, err := ps.GetByID(pending.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.District != "ปทุมวัน" || got.Status != model.PostStatusResolved {
		t.Errorf("post = %s/%s, want ปทุมวัน/resolved", got.District, got.Status)
	}
}

func TestTopTagSince(t *testing.T) {
	db := setupTestDB(t)
	u, err := NewUserStore(db).Create("somchai", false)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	ps := NewPostStore(db)

	none, err := ps.TopTagSince(time.Now().Add(-time.Hour))
	if err != nil || none != nil {
		t.Fatalf("TopTagSince empty = %v, %v; want nil, nil", none, err)
	}

	for _, tags := range [][]string{{"น้ำท่วม", "ถนน"}, {"น้ำท่วม"}, {"ขยะ"}} {
		if _, err := ps.Create(u.ID, "post", "", "", nil, nil, "", tags); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}
	// An old post carrying a different tag falls outside the window.
	old, err := ps.Create(u.ID, "old", "", "", nil, nil, "", []string{"ขยะ", "ขยะเก่า"})
	if err != nil {
		t.Fatalf("create old post: %v", err)
	}
	if _, err := db.Exec(`UPDATE posts SET created_at = ? WHERE id = ?`, time.Now().UTC().AddDate(0, 0, -30), old.ID); err != nil {
		t.Fatalf("age post: %v", err)
	}

	top, err := ps.TopTagSince(time.Now().AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("top tag: %v", err)
	}
	if top == nil || top.Name != "น้ำท่วม" || top.Posts != 2 {
		t.Errorf("top = %+v, want น้ำท่วม with 2 posts", top)
	}

	if err := ps.Delete(old.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if p, _ := ps.GetByID(old.ID); p != nil {
		t.Error("deleted post still readable")
	}
}
