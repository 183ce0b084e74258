package database

import (
	"fmt"
	"strings"
	"time"
)

// SQLCollectionRepository handles database operations for collections.
type SQLCollectionRepository struct {
	db *DB
}

var _ CollectionRepository = (*SQLCollectionRepository)(nil)

func NewCollectionRepository(db *DB) *SQLCollectionRepository {
	return &SQLCollectionRepository{db: db}
}

func (r *SQLCollectionRepository) List() ([]Collection, error) {
	rows, err := r.db.Query(`SELECT id, name, created_at FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var collections []Collection
	for rows.Next() {
		var c Collection
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0).UTC()
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// Create adds a collection. Creating a collection that already exists is not
// an error; the existing one is returned.
func (r *SQLCollectionRepository) Create(name string) (*Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("collection name is empty")
	}

	createdAt := time.Now().UTC()
	result, err := r.db.Exec(`INSERT INTO collections (name, created_at) VALUES (?, ?)`, name, createdAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return r.getByName(name)
		}
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get insert id: %w", err)
	}

	return &Collection{ID: id, Name: name, CreatedAt: createdAt}, nil
}

// Delete removes a collection and clears the assignment on its content.
func (r *SQLCollectionRepository) Delete(name string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete collection: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := r.db.Exec(`UPDATE saved_content SET collection = '' WHERE collection = ?`, name); err != nil {
		return false, fmt.Errorf("failed to clear collection assignments: %w", err)
	}
	return true, nil
}

// Assign puts a content record into a collection, creating the collection
// when it does not exist yet. An empty name removes the assignment.
func (r *SQLCollectionRepository) Assign(contentID int64, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name != "" {
		if _, err := r.Create(name); err != nil {
			return false, err
		}
	}

	result, err := r.db.Exec(`UPDATE saved_content SET collection = ? WHERE id = ?`, name, contentID)
	if err != nil {
		return false, fmt.Errorf("failed to assign collection: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *SQLCollectionRepository) getByName(name string) (*Collection, error) {
	var c Collection
	var createdAt int64
	err := r.db.QueryRow(`SELECT id, name, created_at FROM collections WHERE name = ?`, name).
		Scan(&c.ID, &c.Name, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &c, nil
}
