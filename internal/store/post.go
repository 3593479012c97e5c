package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/model"
)

type PostStore struct {
	db *sql.DB
}

func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

func scanPost(scanner interface{ Scan(...any) error }) (*model.Post, error) {
	var p model.Post
	var lat, lon sql.NullFloat64
	var district sql.NullString

	err := scanner.Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Content, &lat, &lon, &district,
		&p.Status, &p.PolicyAspect, &p.SentimentScore, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lat.Valid {
		p.Latitude = &lat.Float64
	}
	if lon.Valid {
		p.Longitude = &lon.Float64
	}
	p.District = district.String
	return &p, nil
}

const postCols = `id, owner_id, title, content, latitude, longitude, district, status, policy_aspect, sentiment_score, created_at`

// Create inserts the post and links its tags, creating missing tags. An empty
// policy aspect is stored as unspecified.
func (s *PostStore) Create(ownerID int64, title, content, policyAspect string, lat, lon *float64, district string, tags []string) (*model.Post, error) {
	if policyAspect == "" {
		policyAspect = model.PolicyUnspecified
	}
	var la, lo sql.NullFloat64
	if lat != nil {
		la = sql.NullFloat64{Float64: *lat, Valid: true}
	}
	if lon != nil {
		lo = sql.NullFloat64{Float64: *lon, Valid: true}
	}
	var d sql.NullString
	if district != "" {
		d = sql.NullString{String: district, Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO posts (owner_id, title, content, latitude, longitude, district, policy_aspect, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ownerID, title, content, la, lo, d, policyAspect, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for _, name := range tags {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO tags (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return nil, fmt.Errorf("insert tag: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO post_tags (post_id, tag_id) SELECT ?, id FROM tags WHERE name = ?
			 ON CONFLICT (post_id, tag_id) DO NOTHING`,
			id, name,
		); err != nil {
			return nil, fmt.Errorf("link tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit post: %w", err)
	}
	return s.GetByID(id)
}

func (s *PostStore) GetByID(id int64) (*model.Post, error) {
	row := s.db.QueryRow(`SELECT `+postCols+` FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	tags, err := s.tagsForPost(id)
	if err != nil {
		return nil, err
	}
	p.Tags = tags
	return p, nil
}

func (s *PostStore) tagsForPost(postID int64) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT t.name FROM tags t JOIN post_tags pt ON pt.tag_id = t.id WHERE pt.post_id = ? ORDER BY t.name ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("list post tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListByDistrict returns a district's posts, newest first.
func (s *PostStore) ListByDistrict(district string) ([]model.Post, error) {
	rows, err := s.db.Query(
		`SELECT `+postCols+` FROM posts WHERE district = ? ORDER BY created_at DESC`,
		district,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts by district: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// ListUnanalyzed returns posts that still carry a zero sentiment score or
// no policy aspect, oldest first.
func (s *PostStore) ListUnanalyzed(limit int) ([]model.Post, error) {
	rows, err := s.db.Query(
		`SELECT `+postCols+` FROM posts
		 WHERE sentiment_score = 0 OR policy_aspect = ? OR policy_aspect = ''
		 ORDER BY id ASC LIMIT ?`,
		model.PolicyUnspecified, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unanalyzed posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (s *PostStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

func (s *PostStore) SetDistrict(id int64, district string) error {
	_, err := s.db.Exec(`UPDATE posts SET district = ? WHERE id = ?`, district, id)
	if err != nil {
		return fmt.Errorf("set district: %w", err)
	}
	return nil
}

func (s *PostStore) SetAnalysis(id int64, sentiment int, policyAspect string) error {
	_, err := s.db.Exec(
		`UPDATE posts SET sentiment_score = ?, policy_aspect = ? WHERE id = ?`,
		sentiment, policyAspect, id,
	)
	if err != nil {
		return fmt.Errorf("set analysis: %w", err)
	}
	return nil
}

func (s *PostStore) SetStatus(id int64, status string) error {
	_, err := s.db.Exec(`UPDATE posts SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// TopTagSince returns the tag carried by the most posts created at or after
// since. Ties go to the alphabetically first name.
func (s *PostStore) TopTagSince(since time.Time) (*model.TagCount, error) {
	var tc model.TagCount
	err := s.db.QueryRow(
		`SELECT t.id, t.name, COUNT(*) AS n
		 FROM tags t
		 JOIN post_tags pt ON pt.tag_id = t.id
		 JOIN posts p ON p.id = pt.post_id
		 WHERE p.created_at >= ?
		 GROUP BY t.id, t.name
		 ORDER BY n DESC, t.name ASC
		 LIMIT 1`,
		since.UTC(),
	).Scan(&tc.ID, &tc.Name, &tc.Posts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("top tag: %w", err)
	}
	return &tc, nil
}

// DistrictRanking returns districts ordered by average sentiment, happiest first.
func (s *PostStore) DistrictRanking() ([]model.DistrictRanking, error) {
	rows, err := s.db.Query(
		`SELECT district, AVG(sentiment_score), COUNT(*)
		 FROM posts
		 WHERE district IS NOT NULL AND district != ''
		 GROUP BY district
		 ORDER BY AVG(sentiment_score) DESC, district ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("district ranking: %w", err)
	}
	defer rows.Close()

	var out []model.DistrictRanking
	for rows.Next() {
		var r model.DistrictRanking
		if err := rows.Scan(&r.District, &r.AvgSentiment, &r.PostCount); err != nil {
			return nil, fmt.Errorf("scan district ranking: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
