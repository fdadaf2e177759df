// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// Client 封装了 go-redis 的通用客户端 (单机 / 集群) 以及已加载的 Lua 脚本。
type Client struct {
	rdb     goredis.UniversalClient
	scripts map[string]*goredis.Script
	mu      sync.RWMutex
}

// NewClient 根据逗号分隔的地址创建客户端。多个地址时自动使用集群模式。
func NewClient(addrs string) (*Client, error) {
	var list []string
	for _, a := range strings.Split(addrs, ",") {
		if a = strings.TrimSpace(a); a != "" {
			list = append(list, a)
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("redis: no address configured")
	}

	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{Addrs: list})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %v: %w", list, err)
	}

	return &Client{rdb: rdb, scripts: make(map[string]*goredis.Script)}, nil
}

// LoadScriptFromContent 注册一段 Lua 脚本。
// 执行时走 EVALSHA，服务端缓存丢失时 go-redis 会自动回退到 EVAL。
func (c *Client) LoadScriptFromContent(name, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("redis: script %q is empty", name)
	}
	script := goredis.NewScript(content)
	if err := script.Load(context.Background(), c.rdb).Err(); err != nil {
		return fmt.Errorf("redis: load script %q: %w", name, err)
	}

	c.mu.Lock()
	c.scripts[name] = script
	c.mu.Unlock()
	return nil
}

// RunScript 执行已注册的脚本
func (c *Client) RunScript(ctx context.Context, name string, keys []string, args ...interface{}) (interface{}, error) {
	c.mu.RLock()
	script, ok := c.scripts[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("redis: script %q not loaded", name)
	}
	return script.Run(ctx, c.rdb, keys, args...).Result()
}

// GetClient 暴露底层客户端，供简单命令 (ZADD / ZREM) 直接使用。
func (c *Client) GetClient() goredis.UniversalClient {
	return c.rdb
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
