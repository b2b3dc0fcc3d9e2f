package logic

import (
	"errors"
	"sort"

	"github.com/blues/ims/internal/apperr"
	"github.com/blues/ims/internal/model"
	"gorm.io/gorm"
)

// ConsortiumLogic 投资联合体业务逻辑
type ConsortiumLogic struct {
	db *gorm.DB
}

// NewConsortiumLogic 创建联合体业务逻辑
func NewConsortiumLogic(db *gorm.DB) *ConsortiumLogic {
	return &ConsortiumLogic{db: db}
}

// FormConsortium 由一组已接受的出价组建联合体
// 初始投票权重按出价金额比例分配为整数百分比（最大余额法，合计恰好100），可在组建期手动调整
func (l *ConsortiumLogic) FormConsortium(name string, bidIDs []uint) (*model.Consortium, error) {
	if name == "" {
		return nil, apperr.Invariantf("联合体名称不能为空")
	}
	if len(bidIDs) == 0 {
		return nil, apperr.Invariantf("联合体至少需要一个成员出价")
	}

	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var bids []model.Bid
	if err := tx.Where("id IN ?", bidIDs).Find(&bids).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transient(err)
	}
	if len(bids) != len(bidIDs) {
		tx.Rollback()
		return nil, apperr.NotFoundf("部分出价不存在")
	}

	campaignID := bids[0].CampaignID
	for _, bid := range bids {
		if bid.Status != model.BidStatusAccepted {
			tx.Rollback()
			return nil, apperr.Invariantf("出价 %d 未被接受，无法加入联合体", bid.ID)
		}
		if bid.CampaignID != campaignID {
			tx.Rollback()
			return nil, apperr.Invariantf("联合体成员必须来自同一个融资项目")
		}
	}

	// 任何出价不得同时属于多个未解散的联合体
	var occupied int64
	if err := tx.Model(&model.ConsortiumMember{}).
		Joins("JOIN consortiums ON consortiums.id = consortium_members.consortium_id").
		Where("consortium_members.bid_id IN ? AND consortiums.status IN ?", bidIDs,
			[]model.ConsortiumStatus{model.ConsortiumStatusForming, model.ConsortiumStatusActive}).
		Count(&occupied).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transient(err)
	}
	if occupied > 0 {
		tx.Rollback()
		return nil, apperr.Invariantf("存在已属于其他联合体的出价")
	}

	consortium := &model.Consortium{
		CampaignID: campaignID,
		Name:       name,
		Status:     model.ConsortiumStatusForming,
	}
	if err := tx.Create(consortium).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transient(err)
	}

	amounts := make([]float64, len(bids))
	for i, bid := range bids {
		amounts[i] = bid.Amount
	}
	powers := apportionVotingPower(amounts)

	for i, bid := range bids {
		member := &model.ConsortiumMember{
			ConsortiumID:       consortium.ID,
			BidID:              bid.ID,
			VotingPowerPercent: powers[i],
		}
		if err := tx.Create(member).Error; err != nil {
			tx.Rollback()
			return nil, apperr.Transient(err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transient(err)
	}

	return l.GetConsortium(consortium.ID)
}

// GetConsortium 获取联合体详情（含成员与出价）
func (l *ConsortiumLogic) GetConsortium(id uint) (*model.Consortium, error) {
	var consortium model.Consortium
	err := l.db.Preload("Members.Bid").First(&consortium, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("联合体不存在")
		}
		return nil, apperr.Transient(err)
	}
	return &consortium, nil
}

// SetVotingPower 调整成员投票权重，仅限组建期
func (l *ConsortiumLogic) SetVotingPower(consortiumID, bidID uint, newPercent int) (*model.Consortium, error) {
	if newPercent < 0 || newPercent > 100 {
		return nil, apperr.Invariantf("投票权重必须在0-100之间")
	}

	consortium, err := l.GetConsortium(consortiumID)
	if err != nil {
		return nil, err
	}
	if consortium.Status != model.ConsortiumStatusForming {
		return nil, apperr.Invariantf("联合体当前状态为 %s，仅组建期可调整投票权重", consortium.Status)
	}

	res := l.db.Model(&model.ConsortiumMember{}).
		Where("consortium_id = ? AND bid_id = ?", consortiumID, bidID).
		Update("voting_power_percent", newPercent)
	if res.Error != nil {
		return nil, apperr.Transient(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFoundf("联合体成员不存在")
	}

	return l.GetConsortium(consortiumID)
}

// RemoveMember 移除成员，仅限组建期；出价退回为独立已接受状态
func (l *ConsortiumLogic) RemoveMember(consortiumID, bidID uint) (*model.Consortium, error) {
	consortium, err := l.GetConsortium(consortiumID)
	if err != nil {
		return nil, err
	}
	if consortium.Status != model.ConsortiumStatusForming {
		return nil, apperr.Invariantf("联合体当前状态为 %s，仅组建期可移除成员", consortium.Status)
	}

	res := l.db.Where("consortium_id = ? AND bid_id = ?", consortiumID, bidID).
		Delete(&model.ConsortiumMember{})
	if res.Error != nil {
		return nil, apperr.Transient(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFoundf("联合体成员不存在")
	}

	return l.GetConsortium(consortiumID)
}

// Activate 激活联合体：成员非空且投票权重合计恰好等于100
func (l *ConsortiumLogic) Activate(consortiumID uint) (*model.Consortium, error) {
	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var consortium model.Consortium
	if err := lockForUpdate(tx).Preload("Members").First(&consortium, consortiumID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("联合体不存在")
		}
		return nil, apperr.Transient(err)
	}

	if consortium.Status != model.ConsortiumStatusForming {
		tx.Rollback()
		return nil, apperr.Invariantf("联合体当前状态为 %s，无法激活", consortium.Status)
	}
	if len(consortium.Members) == 0 {
		tx.Rollback()
		return nil, apperr.Invariantf("联合体没有成员，无法激活")
	}

	sum := 0
	for _, member := range consortium.Members {
		sum += member.VotingPowerPercent
	}
	if sum != 100 {
		tx.Rollback()
		return nil, apperr.Invariantf("投票权重合计为 %d%%，必须恰好等于100%%", sum)
	}

	if err := tx.Model(&consortium).Update("status", model.ConsortiumStatusActive).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transient(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transient(err)
	}

	return l.GetConsortium(consortiumID)
}

// Dissolve 解散联合体，成员出价退回为独立已接受状态
func (l *ConsortiumLogic) Dissolve(consortiumID uint) (*model.Consortium, error) {
	consortium, err := l.GetConsortium(consortiumID)
	if err != nil {
		return nil, err
	}
	if consortium.Status != model.ConsortiumStatusActive {
		return nil, apperr.Invariantf("联合体当前状态为 %s，仅已激活的联合体可以解散", consortium.Status)
	}

	if err := l.db.Model(&model.Consortium{}).
		Where("id = ?", consortiumID).
		Update("status", model.ConsortiumStatusDissolved).Error; err != nil {
		return nil, apperr.Transient(err)
	}

	return l.GetConsortium(consortiumID)
}

// apportionVotingPower 最大余额法整数分配，保证合计恰好100
func apportionVotingPower(amounts []float64) []int {
	var total float64
	for _, a := range amounts {
		total += a
	}

	powers := make([]int, len(amounts))
	if total <= 0 {
		return powers
	}

	type remainder struct {
		index    int
		fraction float64
	}
	remainders := make([]remainder, len(amounts))

	assigned := 0
	for i, a := range amounts {
		exact := a / total * 100
		powers[i] = int(exact)
		assigned += powers[i]
		remainders[i] = remainder{index: i, fraction: exact - float64(powers[i])}
	}

	// 剩余的百分点按小数部分从大到小依次补齐，小数相同时按原顺序保证确定性
	sort.SliceStable(remainders, func(i, j int) bool {
		return remainders[i].fraction > remainders[j].fraction
	})
	for i := 0; i < 100-assigned && i < len(remainders); i++ {
		powers[remainders[i].index]++
	}

	return powers
}
