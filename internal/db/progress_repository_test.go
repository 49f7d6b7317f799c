package db

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/ad/go-telegram-onboarding/internal/models"
	_ "modernc.org/sqlite"
	"pgregory.net/rapid"
)

func setupTestDB(t *testing.T) (*DBQueue, func()) {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// Every pooled connection would otherwise get its own empty database.
	sqlDB.SetMaxOpenConns(1)

	if err := InitSchema(sqlDB); err != nil {
		t.Fatal(err)
	}

	queue := NewDBQueueForTest(sqlDB)
	return queue, func() {
		queue.Close()
		sqlDB.Close()
	}
}

func TestProgressRepository_LoadMissing(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProgressRepository(queue)
	if _, err := repo.Load("root:1"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("Load of a missing key = %v, want sql.ErrNoRows", err)
	}
}

func TestProgressRepository_SaveLoad_Property(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProgressRepository(queue)

	rapid.Check(t, func(t *rapid.T) {
		key := rapid.StringMatching(`root:[0-9]{1,6}`).Draw(t, "key")
		state := models.NewProgressState()
		state.CurrentStep = rapid.IntRange(1, models.TotalSteps()).Draw(t, "currentStep")
		for _, id := range models.Funnel {
			state.Completion[id] = rapid.Bool().Draw(t, string(id))
		}

		if err := repo.Save(key, state); err != nil {
			t.Fatalf("Save: %v", err)
		}
		data, err := repo.Load(key)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		loaded, err := models.DecodeProgressState(data)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !loaded.Equal(state) {
			t.Fatalf("loaded %+v, want %+v", loaded, state)
		}
	})
}

func TestProgressRepository_Overwrite(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProgressRepository(queue)
	first := models.NewProgressState()
	second := models.NewProgressState()
	second.CurrentStep = 4
	second.Completion[models.StepKyc] = true

	if err := repo.Save("root:1", first); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save("root:1", second); err != nil {
		t.Fatal(err)
	}

	data, err := repo.Load("root:1")
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := models.DecodeProgressState(data)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Equal(second) {
		t.Errorf("loaded %+v, want %+v", loaded, second)
	}
}

func TestProgressRepository_RawBlobIsReturnedAsIs(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProgressRepository(queue)
	if err := repo.SaveRaw("root:2", []byte(`{"currentStep":1}`)); err != nil {
		t.Fatal(err)
	}
	data, err := repo.Load("root:2")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"currentStep":1}` {
		t.Errorf("Load returned %q", data)
	}
	if _, err := models.DecodeProgressState(data); !errors.Is(err, models.ErrCorruptState) {
		t.Errorf("decoding a partial blob = %v, want ErrCorruptState", err)
	}
}
