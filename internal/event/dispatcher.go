package event

import (
	"encoding/json"

	"github.com/blues/ims/internal/logger"
	"github.com/blues/ims/internal/model"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// 资金生命周期事件类型
const (
	TypeCampaignCreated   = "campaign.created"
	TypeCampaignCancelled = "campaign.cancelled"
	TypeBidSubmitted      = "bid.submitted"
	TypeBidAccepted       = "bid.accepted"
	TypeBidRejected       = "bid.rejected"
	TypeBidWithdrawn      = "bid.withdrawn"
	TypeConsortiumFormed  = "consortium.formed"
	TypeConsortiumActive  = "consortium.activated"
	TypeConsortiumClosed  = "consortium.dissolved"
	TypeMilestoneStarted  = "milestone.started"
	TypeMilestoneProof    = "milestone.proof_submitted"
	TypeMilestoneReleased = "milestone.payment_released"
	TypeValidationAdded   = "validation.added"
	TypeValidationRemoved = "validation.removed"
)

// Processor 事件处理器
type Processor interface {
	Name() string
	Process(evt *model.FundingEvent) error
}

// Dispatcher 事件分发器：落库后交给协程池内的处理器异步消费
type Dispatcher struct {
	db         *gorm.DB
	pool       *ants.Pool
	processors []Processor
}

// NewDispatcher 创建事件分发器
func NewDispatcher(db *gorm.DB, poolSize int, processors ...Processor) (*Dispatcher, error) {
	if poolSize <= 0 {
		poolSize = 8
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		db:         db,
		pool:       pool,
		processors: processors,
	}, nil
}

// Publish 记录并分发事件，尽力而为：事件失败不影响主流程
func (d *Dispatcher) Publish(campaignID uint, eventType string, payload map[string]interface{}) {
	if d == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal event payload for %s: %v", eventType, err)
		body = []byte("{}")
	}

	evt := &model.FundingEvent{
		EventID:    uuid.NewString(),
		CampaignID: campaignID,
		EventType:  eventType,
		Payload:    string(body),
	}
	if err := d.db.Create(evt).Error; err != nil {
		logger.Error("Failed to persist event %s: %v", eventType, err)
		return
	}

	if err := d.pool.Submit(func() {
		d.process(evt)
	}); err != nil {
		logger.Error("Failed to submit event %s to pool: %v", evt.EventID, err)
	}
}

// process 依次调用全部处理器
func (d *Dispatcher) process(evt *model.FundingEvent) {
	for _, p := range d.processors {
		if err := p.Process(evt); err != nil {
			logger.Error("Processor %s failed on event %s (%s): %v",
				p.Name(), evt.EventID, evt.EventType, err)
		}
	}
}

// Stop 关闭协程池
func (d *Dispatcher) Stop() {
	if d == nil {
		return
	}
	d.pool.Release()
	logger.Info("Event dispatcher stopped")
}
