package event

import (
	"context"

	"github.com/blues/ims/internal/cache"
	"github.com/blues/ims/internal/logger"
	"github.com/blues/ims/internal/model"
)

// AuditProcessor 审计处理器：把每个事件写入结构化日志
type AuditProcessor struct{}

// NewAuditProcessor 创建审计处理器
func NewAuditProcessor() *AuditProcessor {
	return &AuditProcessor{}
}

// Name 处理器名称
func (p *AuditProcessor) Name() string {
	return "audit"
}

// Process 处理事件
func (p *AuditProcessor) Process(evt *model.FundingEvent) error {
	logger.Info("Funding event %s campaign=%d type=%s payload=%s",
		evt.EventID, evt.CampaignID, evt.EventType, evt.Payload)
	return nil
}

// CacheProcessor 缓存处理器：背书相关事件发生时失效对应的计数缓存
type CacheProcessor struct {
	cache *cache.Client
}

// NewCacheProcessor 创建缓存处理器，cache可为nil
func NewCacheProcessor(cacheClient *cache.Client) *CacheProcessor {
	return &CacheProcessor{cache: cacheClient}
}

// Name 处理器名称
func (p *CacheProcessor) Name() string {
	return "cache"
}

// Process 处理事件
func (p *CacheProcessor) Process(evt *model.FundingEvent) error {
	switch evt.EventType {
	case TypeValidationAdded, TypeValidationRemoved, TypeCampaignCancelled:
		p.cache.Delete(context.Background(), cache.ValidationCountKey(evt.CampaignID))
	}
	return nil
}
