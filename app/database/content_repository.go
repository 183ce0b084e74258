package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDuplicateURL is returned when an insert violates the URL+owner
// uniqueness constraint. The unique index backs the dedup check against the
// race window between check and insert.
var ErrDuplicateURL = errors.New("url already saved for this user")

// SQLContentRepository handles database operations for saved content.
type SQLContentRepository struct {
	db *DB
}

var _ ContentRepository = (*SQLContentRepository)(nil)

func NewContentRepository(db *DB) *SQLContentRepository {
	return &SQLContentRepository{db: db}
}

const contentColumns = `id, url, platform, title, caption, image_url, category, summary, tags, user_phone, collection, created_at`

// Insert stores a new record and returns its identifier. The creation
// timestamp is assigned here and is immutable afterwards.
func (r *SQLContentRepository) Insert(content SavedContent) (int64, error) {
	createdAt := content.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := r.db.Exec(`
		INSERT INTO saved_content (url, platform, title, caption, image_url, category, summary, tags, user_phone, collection, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, content.URL, content.Platform, content.Title, content.Caption, content.ImageURL,
		content.Category, content.Summary, joinTags(content.Tags), content.UserPhone,
		content.Collection, createdAt.Unix())

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrDuplicateURL
		}
		return 0, fmt.Errorf("failed to insert content: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

func (r *SQLContentRepository) GetByID(id int64) (*SavedContent, error) {
	row := r.db.QueryRow(`SELECT `+contentColumns+` FROM saved_content WHERE id = ?`, id)
	return scanContent(row)
}

// GetByURLAndUser checks for an existing record by exact URL match scoped to
// the owner. Returns nil without error when no record matches.
func (r *SQLContentRepository) GetByURLAndUser(url, userPhone string) (*SavedContent, error) {
	row := r.db.QueryRow(`
		SELECT `+contentColumns+` FROM saved_content
		WHERE url = ? AND user_phone = ?
	`, url, userPhone)
	return scanContent(row)
}

func (r *SQLContentRepository) List(opts ListOptions) ([]SavedContent, error) {
	query := `SELECT ` + contentColumns + ` FROM saved_content WHERE 1=1`
	var args []interface{}

	if opts.UserPhone != "" {
		query += ` AND user_phone = ?`
		args = append(args, opts.UserPhone)
	}
	if opts.Platform != "" {
		query += ` AND platform = ?`
		args = append(args, opts.Platform)
	}
	if opts.Category != "" {
		query += ` AND category = ?`
		args = append(args, opts.Category)
	}
	if opts.Collection != "" {
		query += ` AND collection = ?`
		args = append(args, opts.Collection)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	return r.queryContent(query, args...)
}

// Search returns records matching ANY of the tokens via substring match on
// title, caption, summary, or tags, newest first. Relevance ranking happens
// at the caller.
func (r *SQLContentRepository) Search(userPhone string, tokens []string, limit int) ([]SavedContent, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var clauses []string
	var args []interface{}
	args = append(args, userPhone)
	for _, token := range tokens {
		pattern := "%" + token + "%"
		clauses = append(clauses, `(title LIKE ? OR caption LIKE ? OR summary LIKE ? OR tags LIKE ?)`)
		args = append(args, pattern, pattern, pattern, pattern)
	}
	args = append(args, limit)

	query := `
		SELECT ` + contentColumns + ` FROM saved_content
		WHERE user_phone = ? AND (` + strings.Join(clauses, " OR ") + `)
		ORDER BY created_at DESC LIMIT ?`

	return r.queryContent(query, args...)
}

func (r *SQLContentRepository) Update(id int64, fields UpdateFields) (bool, error) {
	var updates []string
	var args []interface{}

	if fields.Title != nil {
		updates = append(updates, "title = ?")
		args = append(args, *fields.Title)
	}
	if fields.Caption != nil {
		updates = append(updates, "caption = ?")
		args = append(args, *fields.Caption)
	}
	if fields.ImageURL != nil {
		updates = append(updates, "image_url = ?")
		args = append(args, *fields.ImageURL)
	}
	if fields.Category != nil {
		updates = append(updates, "category = ?")
		args = append(args, *fields.Category)
	}
	if fields.Summary != nil {
		updates = append(updates, "summary = ?")
		args = append(args, *fields.Summary)
	}
	if fields.Tags != nil {
		updates = append(updates, "tags = ?")
		args = append(args, joinTags(fields.Tags))
	}
	if fields.Collection != nil {
		updates = append(updates, "collection = ?")
		args = append(args, *fields.Collection)
	}

	if len(updates) == 0 {
		return false, nil
	}

	args = append(args, id)
	result, err := r.db.Exec(`UPDATE saved_content SET `+strings.Join(updates, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update content: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *SQLContentRepository) Delete(id int64) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM saved_content WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete content: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// GetRelated picks other saves in the same category for the reply's
// "related" suggestions. Random order keeps repeat replies fresh.
func (r *SQLContentRepository) GetRelated(userPhone, category string, excludeID int64, limit int) ([]SavedContent, error) {
	return r.queryContent(`
		SELECT `+contentColumns+` FROM saved_content
		WHERE user_phone = ? AND category = ? AND id != ?
		ORDER BY RANDOM() LIMIT ?
	`, userPhone, category, excludeID, limit)
}

func (r *SQLContentRepository) GetRandom(userPhone string, categories []string, limit int) ([]SavedContent, error) {
	if limit <= 0 {
		limit = 1
	}

	if len(categories) == 0 {
		return r.queryContent(`
			SELECT `+contentColumns+` FROM saved_content
			WHERE user_phone = ? ORDER BY RANDOM() LIMIT ?
		`, userPhone, limit)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(categories)), ",")
	args := make([]interface{}, 0, len(categories)+2)
	args = append(args, userPhone)
	for _, cat := range categories {
		args = append(args, cat)
	}
	args = append(args, limit)

	return r.queryContent(`
		SELECT `+contentColumns+` FROM saved_content
		WHERE user_phone = ? AND category IN (`+placeholders+`)
		ORDER BY RANDOM() LIMIT ?
	`, args...)
}

// SaveDates returns every save timestamp for the owner, newest first.
func (r *SQLContentRepository) SaveDates(userPhone string) ([]time.Time, error) {
	rows, err := r.db.Query(`
		SELECT created_at FROM saved_content
		WHERE user_phone = ? ORDER BY created_at DESC
	`, userPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to get save dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var unix int64
		if err := rows.Scan(&unix); err != nil {
			return nil, fmt.Errorf("failed to scan save date: %w", err)
		}
		dates = append(dates, time.Unix(unix, 0).UTC())
	}
	return dates, rows.Err()
}

func (r *SQLContentRepository) CountSince(userPhone string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM saved_content
		WHERE user_phone = ? AND created_at >= ?
	`, userPhone, since.Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent saves: %w", err)
	}
	return count, nil
}

func (r *SQLContentRepository) CategoryCountsSince(userPhone string, since time.Time) (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT category, COUNT(*) FROM saved_content
		WHERE user_phone = ? AND created_at >= ? AND category != ''
		GROUP BY category ORDER BY COUNT(*) DESC
	`, userPhone, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to get category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

func (r *SQLContentRepository) DistinctUsers() ([]string, error) {
	return r.queryStrings(`
		SELECT DISTINCT user_phone FROM saved_content
		WHERE user_phone != '' ORDER BY user_phone
	`)
}

func (r *SQLContentRepository) DistinctCategories() ([]string, error) {
	return r.queryStrings(`
		SELECT DISTINCT category FROM saved_content
		WHERE category != '' ORDER BY category
	`)
}

func (r *SQLContentRepository) DistinctPlatforms() ([]string, error) {
	return r.queryStrings(`
		SELECT DISTINCT platform FROM saved_content
		WHERE platform != '' ORDER BY platform
	`)
}

func (r *SQLContentRepository) GetStats() (*Stats, error) {
	stats := &Stats{
		ByPlatform: make(map[string]int),
		ByCategory: make(map[string]int),
	}

	if err := r.db.QueryRow(`SELECT COUNT(*) FROM saved_content`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	weekAgo := time.Now().UTC().AddDate(0, 0, -7).Unix()
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM saved_content WHERE created_at >= ?`, weekAgo).Scan(&stats.RecentWeek); err != nil {
		return nil, fmt.Errorf("failed to get recent count: %w", err)
	}

	if err := r.db.QueryRow(`
		SELECT COUNT(DISTINCT user_phone) FROM saved_content WHERE user_phone != ''
	`).Scan(&stats.UniqueUsers); err != nil {
		return nil, fmt.Errorf("failed to get user count: %w", err)
	}

	rows, err := r.db.Query(`SELECT platform, COUNT(*) FROM saved_content GROUP BY platform`)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var platform string
		var count int
		if err := rows.Scan(&platform, &count); err != nil {
			return nil, fmt.Errorf("failed to scan platform count: %w", err)
		}
		stats.ByPlatform[platform] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	catRows, err := r.db.Query(`
		SELECT category, COUNT(*) FROM saved_content WHERE category != '' GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get category counts: %w", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var category string
		var count int
		if err := catRows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.ByCategory[category] = count
	}

	return stats, catRows.Err()
}

// DailySaveCounts returns per-day save counts for the trailing window,
// keyed by ISO date, for the dashboard heatmap.
func (r *SQLContentRepository) DailySaveCounts(days int) (map[string]int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Unix()
	rows, err := r.db.Query(`
		SELECT created_at FROM saved_content WHERE created_at >= ?
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var unix int64
		if err := rows.Scan(&unix); err != nil {
			return nil, fmt.Errorf("failed to scan timestamp: %w", err)
		}
		counts[time.Unix(unix, 0).UTC().Format("2006-01-02")]++
	}
	return counts, rows.Err()
}

func (r *SQLContentRepository) queryContent(query string, args ...interface{}) ([]SavedContent, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	defer rows.Close()

	var items []SavedContent
	for rows.Next() {
		item, err := scanContentRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *SQLContentRepository) queryStrings(query string) ([]string, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContent(row *sql.Row) (*SavedContent, error) {
	item, err := scanContentRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

func scanContentRow(row rowScanner) (*SavedContent, error) {
	var item SavedContent
	var tags string
	var createdAt int64

	err := row.Scan(&item.ID, &item.URL, &item.Platform, &item.Title, &item.Caption,
		&item.ImageURL, &item.Category, &item.Summary, &tags, &item.UserPhone,
		&item.Collection, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan content row: %w", err)
	}

	item.Tags = splitTags(tags)
	item.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &item, nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
