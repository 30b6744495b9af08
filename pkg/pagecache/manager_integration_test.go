//go:build integration

package pagecache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestManager_Integration_PutAndGet(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	m := NewManager(redisClient, time.Minute)

	url := "https://ekinobilet.fond-kino.ru/films/detail/777"
	body := []byte("<html><h1>Тестовый фильм</h1></html>")

	if err := m.Put(ctx, url, body); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	entry, err := m.Get(ctx, url)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(entry.Body) != string(body) {
		t.Errorf("Body = %q, want %q", entry.Body, body)
	}
	if entry.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", entry.StatusCode)
	}
	if entry.Age() > time.Minute {
		t.Errorf("Age() = %v, want fresh entry", entry.Age())
	}
}

func TestManager_Integration_MissAndDelete(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	m := NewManager(redisClient, time.Minute)

	if _, err := m.Get(ctx, "https://example.test/never-cached"); err != ErrCacheMiss {
		t.Errorf("Get() on empty cache = %v, want ErrCacheMiss", err)
	}

	url := "https://example.test/to-delete"
	if err := m.Put(ctx, url, []byte("body")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := m.Delete(ctx, url); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := m.Get(ctx, url); err != ErrCacheMiss {
		t.Errorf("Get() after delete = %v, want ErrCacheMiss", err)
	}
}

func TestManager_Integration_TTLExpiry(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	m := NewManager(redisClient, time.Second)

	url := "https://example.test/expiring"
	if err := m.Put(ctx, url, []byte("body")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := m.Get(ctx, url); err != ErrCacheMiss {
		t.Errorf("Get() after TTL = %v, want ErrCacheMiss", err)
	}
}
