package redisdb

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang/glog"
	"golang.org/x/net/context"
)

type Client struct {
	rdb *redis.Client
}

const (
	orderLockKeyTempl = "librapay:order:lock:%s"

	// Long enough to cover a full reconcile round-trip against the
	// platform collaborators; leaked locks expire on their own.
	orderLockTTL = 30 * time.Second
)

var (
	redisClient *Client
	ctx         = context.Background()

	// ErrNotInitialized is returned when locking is requested before Init.
	ErrNotInitialized = errors.New("redisdb not initialized")
)

func Init() error {
	redisDbNumberStr := os.Getenv("REDIS_DB_NUMBER")

	redisDbNumber, errAtoi := strconv.Atoi(redisDbNumberStr)
	if errAtoi != nil {
		glog.Errorf("Error converting REDIS_DB_NUMBER to int: %v", errAtoi)
		return errAtoi
	}

	redisClient = &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:     os.Getenv("REDIS_ADDRESS"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDbNumber,
		}),
	}

	_, err := redisClient.rdb.Ping(ctx).Result()
	if err != nil {
		glog.Errorf("Redis connection error: %s", err.Error())
		return err
	}

	return nil
}

// AcquireOrderLock takes a short lease on an order id so that concurrently
// arriving sync and async callbacks for the same order reconcile one at a
// time. Returns a release func and whether the lock was obtained.
func AcquireOrderLock(orderID string) (func(), bool, error) {
	if redisClient == nil {
		return nil, false, ErrNotInitialized
	}

	key := fmt.Sprintf(orderLockKeyTempl, orderID)
	ok, err := redisClient.rdb.SetNX(ctx, key, time.Now().UnixNano(), orderLockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		if err := redisClient.rdb.Del(ctx, key).Err(); err != nil {
			glog.Warningf("release order lock %s err:%s", key, err.Error())
		}
	}
	return release, true, nil
}
