package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"dialog-backend/internal/database"
	"dialog-backend/internal/models"
)

func seed(t *testing.T, store StatementStore) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	statements := []*models.Statement{
		{Text: "Hello", SearchText: "hello", Conversation: models.TrainingConversation, CreatedAt: base},
		{Text: "Hi", SearchText: "hi", InResponseTo: "Hello", SearchInResponseTo: "hello", Conversation: models.TrainingConversation, CreatedAt: base.Add(time.Second)},
		{Text: "How are you?", SearchText: "VBP:be PRP:you", Conversation: "c1", CreatedAt: base.Add(2 * time.Second)},
		{Text: "I am well", SearchText: "PRP:be VBP:well", InResponseTo: "How are you?", Conversation: "c1", Persona: "bot:Test", CreatedAt: base.Add(3 * time.Second)},
		{Text: "Good", SearchText: "good", InResponseTo: "I am well", Conversation: "c1", CreatedAt: base.Add(4 * time.Second)},
		{Text: "Glad to hear", SearchText: "VB:hear", InResponseTo: "Good", Conversation: "c1", Persona: "bot:Test", CreatedAt: base.Add(5 * time.Second)},
	}
	if err := store.CreateMany(context.Background(), statements); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}
	for _, s := range statements {
		if s.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Fatal("Expected CreateMany to assign ids")
		}
	}
}

func texts(statements []*models.Statement) []string {
	out := make([]string, len(statements))
	for i, s := range statements {
		out[i] = s.Text
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// runStoreTests exercises the behaviour every StatementStore shares.
func runStoreTests(t *testing.T, newStore func(t *testing.T) StatementStore) {
	ctx := context.Background()

	filters := []struct {
		name     string
		query    Query
		expected []string
	}{
		{"all", Query{}, []string{"Hello", "Hi", "How are you?", "I am well", "Good", "Glad to hear"}},
		{"by text", Query{Text: "Hi"}, []string{"Hi"}},
		{"by search in response to", Query{SearchInResponseTo: "hello"}, []string{"Hi"}},
		{"by in response to", Query{InResponseTo: "Good"}, []string{"Glad to hear"}},
		{"search text contains any word", Query{SearchTextContains: "hello PRP:you"}, []string{"Hello", "How are you?"}},
		{"exclude bots", Query{Conversation: "c1", PersonaNotPrefix: models.BotPersonaPrefix}, []string{"How are you?", "Good"}},
		{"exclude text", Query{Conversation: "c1", ExcludeText: []string{"Good", "I am well"}}, []string{"How are you?", "Glad to hear"}},
		{"newest first with limit", Query{Conversation: "c1", NewestFirst: true, Limit: 2}, []string{"Glad to hear", "Good"}},
	}

	for _, tc := range filters {
		t.Run("Filter/"+tc.name, func(t *testing.T) {
			store := newStore(t)
			seed(t, store)

			got, err := store.Filter(ctx, tc.query)
			if err != nil {
				t.Fatalf("Filter failed: %v", err)
			}
			if !equal(texts(got), tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, texts(got))
			}
		})
	}

	t.Run("Count", func(t *testing.T) {
		store := newStore(t)
		seed(t, store)

		n, err := store.Count(ctx, Query{Conversation: models.TrainingConversation})
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != 2 {
			t.Errorf("Expected 2 training statements, got %d", n)
		}
	})

	t.Run("LatestResponse", func(t *testing.T) {
		store := newStore(t)
		seed(t, store)

		latest, err := store.LatestResponse(ctx, "c1")
		if err != nil {
			t.Fatalf("LatestResponse failed: %v", err)
		}
		if latest.Text != "Glad to hear" {
			t.Errorf("Expected 'Glad to hear', got %q", latest.Text)
		}

		if _, err := store.LatestResponse(ctx, "missing"); !IsNotFound(err) {
			t.Errorf("Expected not found error, got %v", err)
		}
	})

	t.Run("Create and Drop", func(t *testing.T) {
		store := newStore(t)

		s := &models.Statement{Text: "one", SearchText: "one", Tags: []string{"greetings"}}
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if s.CreatedAt.IsZero() {
			t.Error("Expected Create to set created_at")
		}

		got, err := store.Filter(ctx, Query{Text: "one"})
		if err != nil || len(got) != 1 {
			t.Fatalf("Expected one statement, got %d (err %v)", len(got), err)
		}
		if len(got[0].Tags) != 1 || got[0].Tags[0] != "greetings" {
			t.Errorf("Expected tags to survive storage, got %v", got[0].Tags)
		}

		if err := store.Drop(ctx); err != nil {
			t.Fatalf("Drop failed: %v", err)
		}
		n, err := store.Count(ctx, Query{})
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != 0 {
			t.Errorf("Expected empty store after drop, got %d", n)
		}
	})
}

func TestMemoryStatementRepo(t *testing.T) {
	runStoreTests(t, func(t *testing.T) StatementStore {
		return NewMemoryStatementRepo()
	})
}

func TestMemoryStatementRepo_ReturnsCopies(t *testing.T) {
	store := NewMemoryStatementRepo()
	ctx := context.Background()
	if err := store.Create(ctx, &models.Statement{Text: "original"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, _ := store.Filter(ctx, Query{})
	got[0].Text = "mutated"

	again, _ := store.Filter(ctx, Query{})
	if again[0].Text != "original" {
		t.Errorf("Expected stored statement to be unchanged, got %q", again[0].Text)
	}
}

func TestRedisStatementRepo(t *testing.T) {
	runStoreTests(t, func(t *testing.T) StatementStore {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		store := NewRedisStatementRepo(client, "test")
		t.Cleanup(store.Close)
		return store
	})
}

func TestStatementRepo_Postgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	runStoreTests(t, func(t *testing.T) StatementStore {
		pool, err := database.NewPostgresPool(url)
		if err != nil {
			t.Fatalf("Failed to connect: %v", err)
		}
		t.Cleanup(pool.Close)

		if err := database.RunMigrations(context.Background(), pool, database.Migrations(), zapNop()); err != nil {
			t.Fatalf("Failed to migrate: %v", err)
		}
		store := NewStatementRepo(pool)
		if err := store.Drop(context.Background()); err != nil {
			t.Fatalf("Failed to reset table: %v", err)
		}
		return store
	})
}

func TestBuildWhere(t *testing.T) {
	where, args := buildWhere(Query{
		Text:               "Hi",
		PersonaNotPrefix:   "bot:",
		SearchTextContains: "a_b a_b c",
	})

	expected := " WHERE text = $1 AND persona NOT LIKE $2 AND search_text LIKE ANY($3)"
	if where != expected {
		t.Errorf("Expected %q, got %q", expected, where)
	}
	if len(args) != 3 {
		t.Fatalf("Expected 3 args, got %d", len(args))
	}
	if args[1] != "bot:%" {
		t.Errorf("Expected persona pattern 'bot:%%', got %v", args[1])
	}
	patterns := args[2].([]string)
	if len(patterns) != 2 || patterns[0] != `%a\_b%` || patterns[1] != "%c%" {
		t.Errorf("Unexpected search patterns %v", patterns)
	}

	if where, args := buildWhere(Query{}); where != "" || len(args) != 0 {
		t.Errorf("Expected empty clause, got %q %v", where, args)
	}
}
