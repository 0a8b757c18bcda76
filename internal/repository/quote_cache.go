package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carrent/internal/model"

	"github.com/redis/go-redis/v9"
)

// quoteCache 基于Redis的报价缓存
type quoteCache struct {
	client *redis.Client
}

// NewQuoteCache 创建报价缓存
func NewQuoteCache(client *redis.Client) QuoteCache {
	return &quoteCache{client: client}
}

func quoteKey(quoteID string) string {
	return "quote:" + quoteID
}

// Save 序列化报价并写入Redis，过期后报价自动失效
func (c *quoteCache) Save(ctx context.Context, quote *model.Quote, ttl time.Duration) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("序列化报价失败: %w", err)
	}
	if err := c.client.Set(ctx, quoteKey(quote.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("写入报价缓存失败: %w", err)
	}
	return nil
}

// Get 读取报价，不存在或已过期时返回nil
func (c *quoteCache) Get(ctx context.Context, quoteID string) (*model.Quote, error) {
	data, err := c.client.Get(ctx, quoteKey(quoteID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取报价缓存失败: %w", err)
	}
	var quote model.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("解析报价失败: %w", err)
	}
	return &quote, nil
}

// Consume 原子地取出并删除报价。GETDEL保证同一报价在并发下单时
// 只有一个调用方能取到，其余调用方得到nil。
func (c *quoteCache) Consume(ctx context.Context, quoteID string) (*model.Quote, error) {
	data, err := c.client.GetDel(ctx, quoteKey(quoteID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("消费报价缓存失败: %w", err)
	}
	var quote model.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("解析报价失败: %w", err)
	}
	return &quote, nil
}
