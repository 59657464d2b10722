package model

import "time"

// DeploymentRecord 一次合约部署的记录
type DeploymentRecord struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	RunID     string    `json:"run_id" gorm:"index;type:text"`
	Network   string    `json:"network" gorm:"index:idx_deployments_network;type:text"`
	Contract  string    `json:"contract" gorm:"type:text"`
	Address   string    `json:"address" gorm:"type:text"`
	ClassHash string    `json:"class_hash" gorm:"type:text"`
	TxHash    string    `json:"tx_hash" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_deployments_network"`
}

func (DeploymentRecord) TableName() string {
	return "deployments"
}
