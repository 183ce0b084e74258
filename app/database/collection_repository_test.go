package database

import "testing"

func TestCollectionRepositoryCreateAndList(t *testing.T) {
	repo := NewCollectionRepository(setupTestDB(t))

	created, err := repo.Create("Recipes")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Error("Create() returned zero id")
	}

	// Creating a duplicate returns the existing collection.
	again, err := repo.Create("Recipes")
	if err != nil {
		t.Fatalf("Create() duplicate error = %v", err)
	}
	if again.ID != created.ID {
		t.Errorf("duplicate Create() id = %d, want %d", again.ID, created.ID)
	}

	if _, err := repo.Create(" "); err == nil {
		t.Error("Create() with blank name should fail")
	}

	collections, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(collections) != 1 || collections[0].Name != "Recipes" {
		t.Errorf("List() = %v, want single Recipes collection", collections)
	}
}

func TestCollectionRepositoryAssign(t *testing.T) {
	db := setupTestDB(t)
	contentRepo := NewContentRepository(db)
	repo := NewCollectionRepository(db)

	id, err := contentRepo.Insert(testContent("https://example.com/c", "+1111"))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	assigned, err := repo.Assign(id, "Inspiration")
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if !assigned {
		t.Error("Assign() = false, want true")
	}

	item, err := contentRepo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if item.Collection != "Inspiration" {
		t.Errorf("Collection = %q, want Inspiration", item.Collection)
	}

	// Assigning implicitly creates the collection.
	collections, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(collections) != 1 {
		t.Errorf("List() = %v, want implicitly created collection", collections)
	}

	// Clearing the assignment.
	if _, err := repo.Assign(id, ""); err != nil {
		t.Fatalf("Assign(clear) error = %v", err)
	}
	item, _ = contentRepo.GetByID(id)
	if item.Collection != "" {
		t.Errorf("Collection = %q, want empty after clearing", item.Collection)
	}

	assigned, err = repo.Assign(999, "Anything")
	if err != nil {
		t.Fatalf("Assign(missing) error = %v", err)
	}
	if assigned {
		t.Error("Assign() to missing content should report false")
	}
}

func TestCollectionRepositoryDelete(t *testing.T) {
	db := setupTestDB(t)
	contentRepo := NewContentRepository(db)
	repo := NewCollectionRepository(db)

	id, err := contentRepo.Insert(testContent("https://example.com/cd", "+1111"))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := repo.Assign(id, "Temp"); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	deleted, err := repo.Delete("Temp")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Error("Delete() = false, want true")
	}

	item, _ := contentRepo.GetByID(id)
	if item.Collection != "" {
		t.Errorf("Collection = %q, assignment should be cleared on delete", item.Collection)
	}

	deleted, err = repo.Delete("Temp")
	if err != nil {
		t.Fatalf("Delete() second call error = %v", err)
	}
	if deleted {
		t.Error("Delete() of missing collection should report false")
	}
}
