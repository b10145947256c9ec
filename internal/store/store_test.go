package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-authgate/fedlink/internal/config"
	"github.com/go-authgate/fedlink/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// getTestConfig returns a minimal config for testing
func getTestConfig() *config.Config {
	return &config.Config{}
}

// TestStoreWithSQLite tests store operations with SQLite
func TestStoreWithSQLite(t *testing.T) {
	testBasicOperations(t, "sqlite", nil)
}

// TestStoreWithPostgres tests store operations with PostgreSQL
func TestStoreWithPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}

	// Recover from panic if Docker is not available
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Skipping PostgreSQL test: Docker not available (panic: %v)", r)
		}
	}()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: Docker not available (%v)", err)
		return
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	testBasicOperations(t, "postgres", pgContainer)
}

// createFreshStore creates a new store instance for test isolation.
// For SQLite each call opens a fresh :memory: database; for PostgreSQL each
// call creates a uniquely-named database in the container.
func createFreshStore(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) *Store {
	t.Helper()

	var dsn string
	switch driver {
	case "sqlite":
		dsn = ":memory:"
	case "postgres":
		dbName := "test_" + uuid.New().String()[:8]
		ctx := context.Background()

		createDBCmd := fmt.Sprintf("CREATE DATABASE %s", dbName)
		_, _, err := pgContainer.Exec(
			ctx,
			[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", createDBCmd},
		)
		require.NoError(t, err)

		host, err := pgContainer.Host(ctx)
		require.NoError(t, err)
		port, err := pgContainer.MappedPort(ctx, "5432")
		require.NoError(t, err)
		dsn = fmt.Sprintf(
			"host=%s port=%s user=testuser password=testpass dbname=%s sslmode=disable",
			host, port.Port(), dbName,
		)

		t.Cleanup(func() {
			dropDBCmd := fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", dbName)
			_, _, _ = pgContainer.Exec(
				context.Background(),
				[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", dropDBCmd},
			)
		})
	default:
		t.Fatalf("unsupported driver: %s", driver)
	}

	store, err := New(context.Background(), driver, dsn, getTestConfig())
	require.NoError(t, err)
	require.NotNil(t, store)

	return store
}

func newTestUser(email string) *models.User {
	return &models.User{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        email,
		PasswordHash: "hash",
		State:        models.UserStateEnabled,
	}
}

func newTestLink(provider, profileID string) *models.ServiceLink {
	return &models.ServiceLink{
		Provider:     provider,
		ProfileID:    profileID,
		IsConfigured: true,
		Username:     provider + "-user",
		AvatarURL:    "https://avatars.example.com/" + provider,
		AccessToken:  provider + "-access",
		RefreshToken: provider + "-refresh",
	}
}

// testBasicOperations runs the store contract against one driver.
// Each subtest creates a fresh store instance for isolation.
func testBasicOperations(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) {
	ctx := context.Background()

	t.Run("CreateAndGetUser", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		user := newTestUser("ada@x.com")
		require.NoError(t, store.CreateUser(ctx, user))
		require.NotEmpty(t, user.ID)

		byID, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada@x.com", byID.Email)
		assert.Empty(t, byID.Services)

		byEmail, err := store.GetUserByEmail(ctx, "ada@x.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		_, err = store.GetUserByEmail(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		require.NoError(t, store.CreateUser(ctx, newTestUser("dup@x.com")))
		err := store.CreateUser(ctx, newTestUser("dup@x.com"))
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("CreateUserWithService", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		user := newTestUser("gh@x.com")
		require.NoError(t, store.CreateUserWithService(ctx, user, newTestLink("github", "42")))
		require.Len(t, user.Services, 1)

		found, err := store.GetUserByServiceProfile(ctx, "github", "42")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		require.Len(t, found.Services, 1)
		assert.Equal(t, "github-access", found.Services[0].AccessToken)

		_, err = store.GetUserByServiceProfile(ctx, "google", "42")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("CreateUserWithService_RollsBackOnLinkConflict", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		require.NoError(t, store.CreateUserWithService(ctx, newTestUser("first@x.com"), newTestLink("github", "42")))

		err := store.CreateUserWithService(ctx, newTestUser("second@x.com"), newTestLink("github", "42"))
		assert.ErrorIs(t, err, ErrDuplicate)

		// The user row of the failed transaction must not exist
		_, err = store.GetUserByEmail(ctx, "second@x.com")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("SaveUserWithService_PreservesOtherLinks", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		user := newTestUser("multi@x.com")
		require.NoError(t, store.CreateUserWithService(ctx, user, newTestLink("github", "42")))

		before, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		githubBefore := *before.Service("github")

		before.Website = "https://ada.dev"
		require.NoError(t, store.SaveUserWithService(ctx, before, newTestLink("google", "g-1")))

		after, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, after.Services, 2)
		assert.Equal(t, "https://ada.dev", after.Website)

		githubAfter := after.Service("github")
		require.NotNil(t, githubAfter)
		assert.Equal(t, githubBefore.ID, githubAfter.ID)
		assert.Equal(t, githubBefore.AccessToken, githubAfter.AccessToken)
		assert.Equal(t, githubBefore.RefreshToken, githubAfter.RefreshToken)
		assert.True(t, githubBefore.UpdatedAt.Equal(githubAfter.UpdatedAt))
	})

	t.Run("SaveUserWithService_ReplacesSameProviderSlot", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		user := newTestUser("relink@x.com")
		require.NoError(t, store.CreateUserWithService(ctx, user, newTestLink("twitter", "t-1")))
		originalID := user.Services[0].ID

		replacement := newTestLink("twitter", "t-1")
		replacement.AccessToken = "rotated"
		require.NoError(t, store.SaveUserWithService(ctx, user, replacement))

		after, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, after.Services, 1)
		assert.Equal(t, originalID, after.Services[0].ID)
		assert.Equal(t, "rotated", after.Services[0].AccessToken)
	})

	t.Run("SaveUserWithService_ProfileLinkedElsewhere", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		require.NoError(t, store.CreateUserWithService(ctx, newTestUser("owner@x.com"), newTestLink("facebook", "fb-1")))

		other := newTestUser("other@x.com")
		require.NoError(t, store.CreateUser(ctx, other))
		other.Website = "https://changed.example.com"

		err := store.SaveUserWithService(ctx, other, newTestLink("facebook", "fb-1"))
		assert.ErrorIs(t, err, ErrDuplicate)

		reloaded, err := store.GetUserByID(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, reloaded.Website)
		assert.Empty(t, reloaded.Services)
	})

	t.Run("Counts", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		require.NoError(t, store.CreateUserWithService(ctx, newTestUser("a@x.com"), newTestLink("github", "1")))
		require.NoError(t, store.CreateUserWithService(ctx, newTestUser("b@x.com"), newTestLink("github", "2")))
		require.NoError(t, store.CreateUser(ctx, newTestUser("c@x.com")))

		users, err := store.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), users)

		github, err := store.CountServiceLinks(ctx, "github")
		require.NoError(t, err)
		assert.Equal(t, int64(2), github)

		google, err := store.CountServiceLinks(ctx, "google")
		require.NoError(t, err)
		assert.Zero(t, google)
	})

	t.Run("Health", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		assert.NoError(t, store.Health(ctx))
	})
}

func TestSeedDefaultAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("configured password", func(t *testing.T) {
		store, err := New(ctx, "sqlite", ":memory:", &config.Config{
			DefaultAdminEmail:    "admin@localhost",
			DefaultAdminPassword: "s3cret",
		})
		require.NoError(t, err)

		admin, err := store.GetUserByEmail(ctx, "admin@localhost")
		require.NoError(t, err)
		assert.True(t, admin.IsAdmin)
		assert.True(t, admin.IsVerified)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("s3cret")))
	})

	t.Run("mixed-case email is stored lowercase", func(t *testing.T) {
		store, err := New(ctx, "sqlite", ":memory:", &config.Config{
			DefaultAdminEmail:    " Admin@Example.COM ",
			DefaultAdminPassword: "s3cret",
		})
		require.NoError(t, err)

		admin, err := store.GetUserByEmail(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, "admin@example.com", admin.Email)
		assert.True(t, admin.IsAdmin)
	})

	t.Run("no admin email", func(t *testing.T) {
		store, err := New(ctx, "sqlite", ":memory:", getTestConfig())
		require.NoError(t, err)

		var count int64
		require.NoError(t, store.DB().Model(&models.User{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}

// TestDriverFactory tests the driver factory pattern
func TestDriverFactory(t *testing.T) {
	tests := []struct {
		name        string
		driver      string
		dsn         string
		expectError bool
	}{
		{name: "SQLite valid", driver: "sqlite", dsn: ":memory:"},
		{name: "Unsupported driver", driver: "mysql", dsn: "user:pass@tcp(localhost:3306)/dbname", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialector, err := GetDialector(tt.driver, tt.dsn)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, dialector)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, dialector)
			}
		})
	}
}

// TestRegisterDriver tests registering custom drivers
func TestRegisterDriver(t *testing.T) {
	customDriverCalled := false
	RegisterDriver("custom", func(dsn string) gorm.Dialector {
		customDriverCalled = true
		return nil
	})

	dialector, err := GetDialector("custom", "test-dsn")
	assert.NoError(t, err)
	assert.True(t, customDriverCalled)
	assert.Nil(t, dialector)
}

// BenchmarkGetUserByServiceProfile measures the callback lookup path
func BenchmarkGetUserByServiceProfile(b *testing.B) {
	ctx := context.Background()
	store, err := New(ctx, "sqlite", ":memory:", getTestConfig())
	require.NoError(b, err)

	require.NoError(b, store.CreateUserWithService(ctx, newTestUser("bench@x.com"), newTestLink("github", "1")))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.GetUserByServiceProfile(ctx, "github", "1")
	}
}
