package utils

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestOpenRedis_Pings(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	rdb, err := OpenRedis(context.Background(), RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = rdb.Close()
}
