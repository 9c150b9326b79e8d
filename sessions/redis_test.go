package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/fulldump/biff"
	"github.com/redis/go-redis/v9"
)

func newRedisFixture(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	m, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return m, NewRedisStore(client, "")
}

func TestRedisStoreRoundTrip(t *testing.T) {

	_, store := newRedisFixture(t)
	ctx := context.Background()

	err := store.Save(ctx, "abc", map[string]any{"user": "ada"}, 0)
	AssertNil(err)

	values, err := store.Find(ctx, "abc")
	AssertNil(err)
	AssertEqual(values, map[string]any{"user": "ada"})

	err = store.Delete(ctx, "abc")
	AssertNil(err)

	_, err = store.Find(ctx, "abc")
	AssertEqual(err, ErrNotFound)
}

func TestRedisStoreUnknownID(t *testing.T) {

	_, store := newRedisFixture(t)

	_, err := store.Find(context.Background(), "never-saved")

	AssertEqual(err, ErrNotFound)
}

func TestRedisStoreTTL(t *testing.T) {

	m, store := newRedisFixture(t)
	ctx := context.Background()

	err := store.Save(ctx, "abc", map[string]any{"user": "ada"}, time.Minute)
	AssertNil(err)

	_, err = store.Find(ctx, "abc")
	AssertNil(err)

	m.FastForward(2 * time.Minute)

	_, err = store.Find(ctx, "abc")
	AssertEqual(err, ErrNotFound)
}

func TestRedisStoreKeyPrefix(t *testing.T) {

	m, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})

	store := NewRedisStore(client, "")
	err = store.Save(context.Background(), "abc", map[string]any{"user": "ada"}, 0)
	AssertNil(err)
	AssertTrue(m.Exists("session:abc"))

	custom := NewRedisStore(client, "guestbook:")
	err = custom.Save(context.Background(), "abc", map[string]any{"user": "ada"}, 0)
	AssertNil(err)
	AssertTrue(m.Exists("guestbook:abc"))
}

func TestSessionLifecycleOverRedis(t *testing.T) {

	_, store := newRedisFixture(t)
	ctx := context.Background()

	s, err := Open(ctx, store, "")
	AssertNil(err)

	s.Set("user", "ada")
	err = s.Commit(ctx, store, time.Hour)
	AssertNil(err)

	again, err := Open(ctx, store, s.ID())
	AssertNil(err)
	AssertEqual(again.GetString("user"), "ada")

	again.Destroy()
	err = again.Commit(ctx, store, time.Hour)
	AssertNil(err)

	_, err = store.Find(ctx, s.ID())
	AssertEqual(err, ErrNotFound)
}
