package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/apperror"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
)

// repoFactory builds an empty repository whose clock is now.
type repoFactory func(t *testing.T, now func() time.Time) UserRepository

var baseTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func frozenClock() func() time.Time {
	return func() time.Time { return baseTime }
}

func seedUser(t *testing.T, repo UserRepository, name string) *models.User {
	t.Helper()
	user := models.NewUser(name, name+"@example.com", "hash-"+name, baseTime)
	require.NoError(t, repo.Create(context.Background(), user))
	require.NotEmpty(t, user.ID)
	return user
}

func movie(id string) models.WatchlistEntry {
	return models.WatchlistEntry{
		ContentID:   models.ContentID(id),
		Title:       "Title " + id,
		PosterPath:  "/p" + id + ".jpg",
		ContentType: models.ContentMovie,
		AddedAt:     baseTime,
	}
}

func contentIDs(list []models.WatchlistEntry) []models.ContentID {
	ids := make([]models.ContentID, 0, len(list))
	for _, e := range list {
		ids = append(ids, e.ContentID)
	}
	return ids
}

func runUserRepositoryContract(t *testing.T, newRepo repoFactory) {
	t.Run("CreateAndGet", func(t *testing.T) {
		repo := newRepo(t, frozenClock())
		ctx := context.Background()
		user := seedUser(t, repo, "trinity")

		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "trinity", byID.Username)
		assert.Equal(t, "trinity@example.com", byID.Email)
		assert.Equal(t, "hash-trinity", byID.Password)
		assert.Equal(t, models.PlanFree, byID.SubscriptionPlan)
		assert.Equal(t, models.DefaultNotificationSettings(), byID.NotificationSettings)
		assert.NotNil(t, byID.Watchlist)
		assert.Empty(t, byID.Watchlist)
		assert.True(t, byID.CreatedAt.Equal(baseTime))

		byName, err := repo.GetByUsername(ctx, "trinity")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)

		byEmail, err := repo.GetByEmail(ctx, "trinity@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		_, err = repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
		_, err = repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
	})

	t.Run("CreateRejectsDuplicates", func(t *testing.T) {
		repo := newRepo(t, frozenClock())
		ctx := context.Background()
		seedUser(t, repo, "morpheus")

		err := repo.Create(ctx, models.NewUser("morpheus", "other@example.com", "h", baseTime))
		assert.ErrorIs(t, err, apperror.ErrUsernameTaken)

		err = repo.Create(ctx, models.NewUser("someone", "morpheus@example.com", "h", baseTime))
		assert.ErrorIs(t, err, apperror.ErrEmailTaken)
	})

	t.Run("UpdateIsPartialAndMonotonic", func(t *testing.T) {
		repo := newRepo(t, frozenClock())
		ctx := context.Background()
		user := seedUser(t, repo, "niobe")

		first, last := "Niobe", "Captain"
		updated, err := repo.Update(ctx, user.ID, models.UserUpdate{FirstName: &first, LastName: &last})
		require.NoError(t, err)
		assert.Equal(t, "Niobe", updated.FirstName)
		assert.Equal(t, "Captain", updated.LastName)
		assert.Equal(t, "niobe@example.com", updated.Email)
		assert.True(t, updated.UpdatedAt.After(user.UpdatedAt), "updatedAt must increase even with a frozen clock")

		off := false
		plan := models.PlanPremium
		again, err := repo.Update(ctx, user.ID, models.UserUpdate{EmailNotifications: &off, SubscriptionPlan: &plan})
		require.NoError(t, err)
		assert.Equal(t, "Niobe", again.FirstName)
		assert.False(t, again.NotificationSettings.EmailNotifications)
		assert.True(t, again.NotificationSettings.NewReleases)
		assert.False(t, again.NotificationSettings.Promotions)
		assert.Equal(t, models.PlanPremium, again.SubscriptionPlan)
		assert.True(t, again.UpdatedAt.After(updated.UpdatedAt))

		_, err = repo.Update(ctx, "missing", models.UserUpdate{FirstName: &first})
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
	})

	t.Run("UpdateEmailConflict", func(t *testing.T) {
		repo := newRepo(t, frozenClock())
		ctx := context.Background()
		seedUser(t, repo, "tank")
		dozer := seedUser(t, repo, "dozer")

		taken := "tank@example.com"
		_, err := repo.Update(ctx, dozer.ID, models.UserUpdate{Email: &taken})
		assert.ErrorIs(t, err, apperror.ErrEmailTaken)

		stored, err := repo.GetByID(ctx, dozer.ID)
		require.NoError(t, err)
		assert.Equal(t, "dozer@example.com", stored.Email)

		fresh := "dozer@zion.example"
		updated, err := repo.Update(ctx, dozer.ID, models.UserUpdate{Email: &fresh})
		require.NoError(t, err)
		assert.Equal(t, fresh, updated.Email)
	})

	t.Run("WatchlistScenario", func(t *testing.T) {
		repo := newRepo(t, frozenClock())
		ctx := context.Background()
		user := seedUser(t, repo, "neo")

		list, err := repo.AddToWatchlist(ctx, user.ID, models.WatchlistEntry{
			ContentID: "42", Title: "X", PosterPath: "/p.jpg", ContentType: models.ContentMovie, AddedAt: baseTime,
		})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, models.ContentID("42"), list[0].ContentID)
		assert.Equal(t, "X", list[0].Title)
		assert.Equal(t, "/p.jpg", list[0].PosterPath)
		assert.Equal(t, models.ContentMovie, list[0].ContentType)
		assert.True(t, list[0].AddedAt.Equal(baseTime))

		_, err = repo.AddToWatchlist(ctx, user.ID, movie("42"))
		assert.ErrorIs(t, err, apperror.ErrAlreadyInWatchlist)
		list, err = repo.GetWatchlist(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		list, err = repo.RemoveFromWatchlist(ctx, user.ID, "42")
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.NotNil(t, list)

		list, err = repo.RemoveFromWatchlist(ctx, user.ID, "42")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("WatchlistPreservesInsertionOrder", func(t *testing.T) {
		repo := newRepo(t, frozenClock())
		ctx := context.Background()
		user := seedUser(t, repo, "switch")

		for _, id := range []string{"30", "10", "20"} {
			_, err := repo.AddToWatchlist(ctx, user.ID, movie(id))
			require.NoError(t, err)
		}
		list, err := repo.RemoveFromWatchlist(ctx, user.ID, "10")
		require.NoError(t, err)
		assert.Equal(t, []models.ContentID{"30", "20"}, contentIDs(list))

		fetched, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []models.ContentID{"30", "20"}, contentIDs(fetched.Watchlist))
	})

	t.Run("WatchlistIsScopedToOneUser", func(t *testing.T) {
		repo := newRepo(t, frozenClock())
		ctx := context.Background()
		apoc := seedUser(t, repo, "apoc")
		mouse := seedUser(t, repo, "mouse")

		_, err := repo.AddToWatchlist(ctx, apoc.ID, movie("603"))
		require.NoError(t, err)
		_, err = repo.AddToWatchlist(ctx, mouse.ID, movie("603"))
		require.NoError(t, err)

		_, err = repo.RemoveFromWatchlist(ctx, apoc.ID, "603")
		require.NoError(t, err)
		list, err := repo.GetWatchlist(ctx, mouse.ID)
		require.NoError(t, err)
		assert.Equal(t, []models.ContentID{"603"}, contentIDs(list))
	})

	t.Run("WatchlistMutationsBumpUpdatedAt", func(t *testing.T) {
		repo := newRepo(t, frozenClock())
		ctx := context.Background()
		user := seedUser(t, repo, "cypher")

		_, err := repo.AddToWatchlist(ctx, user.ID, movie("1"))
		require.NoError(t, err)
		afterAdd, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, afterAdd.UpdatedAt.After(user.UpdatedAt))

		_, err = repo.RemoveFromWatchlist(ctx, user.ID, "does-not-exist")
		require.NoError(t, err)
		afterRemove, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, afterRemove.UpdatedAt.After(afterAdd.UpdatedAt))
	})

	t.Run("WatchlistUnknownUser", func(t *testing.T) {
		repo := newRepo(t, frozenClock())
		ctx := context.Background()

		_, err := repo.AddToWatchlist(ctx, "ghost", movie("1"))
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
		_, err = repo.RemoveFromWatchlist(ctx, "ghost", "1")
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
		_, err = repo.GetWatchlist(ctx, "ghost")
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
	})

	t.Run("ConcurrentAddsOfSameContentStoreOneEntry", func(t *testing.T) {
		repo := newRepo(t, time.Now)
		ctx := context.Background()
		user := seedUser(t, repo, "oracle")

		const callers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
			others    []error
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.AddToWatchlist(ctx, user.ID, movie("777"))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, apperror.ErrAlreadyInWatchlist):
					conflicts++
				default:
					others = append(others, err)
				}
			}()
		}
		wg.Wait()

		require.Empty(t, others)
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, callers-1, conflicts)
		list, err := repo.GetWatchlist(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("DeleteIsPermanent", func(t *testing.T) {
		repo := newRepo(t, frozenClock())
		ctx := context.Background()
		user := seedUser(t, repo, "smith")
		_, err := repo.AddToWatchlist(ctx, user.ID, movie("5"))
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, user.ID))
		_, err = repo.GetByID(ctx, user.ID)
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
		_, err = repo.GetWatchlist(ctx, user.ID)
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, user.ID), apperror.ErrUserNotFound)

		// the username and email are free again
		again := models.NewUser("smith", "smith@example.com", "h", baseTime)
		require.NoError(t, repo.Create(ctx, again))
		list, err := repo.GetWatchlist(ctx, again.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestMockUserRepository(t *testing.T) {
	runUserRepositoryContract(t, func(t *testing.T, now func() time.Time) UserRepository {
		repo := NewMockUserRepository()
		repo.now = now
		return repo
	})
}

func TestMockUserRepositoryReturnsCopies(t *testing.T) {
	repo := NewMockUserRepository()
	user := seedUser(t, repo, "link")
	ctx := context.Background()

	fetched, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	fetched.FirstName = "mutated"
	fetched.Watchlist = append(fetched.Watchlist, movie("9"))

	again, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, again.FirstName)
	assert.Empty(t, again.Watchlist)
}

func TestGORMUserRepositorySQLite(t *testing.T) {
	runUserRepositoryContract(t, func(t *testing.T, now func() time.Time) UserRepository {
		db, err := OpenGORM("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
		require.NoError(t, err)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		t.Cleanup(func() { sqlDB.Close() })
		require.NoError(t, Migrate(db))

		repo := NewGORMUserRepository(db)
		repo.now = now
		return repo
	})
}

func TestOpenGORMRejectsUnknownDriver(t *testing.T) {
	_, err := OpenGORM("oracle", "")
	assert.ErrorContains(t, err, "unsupported gorm driver")
}
