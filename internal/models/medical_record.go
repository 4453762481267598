package models

import (
	"time"

	"gorm.io/datatypes"
)

type MedicalRecord struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	PatientID   uint    `json:"patient_id" gorm:"not null;index"`
	FileName    string  `json:"file_name" gorm:"not null;size:255"`
	StorageKey  string  `json:"-" gorm:"not null;size:500"`
	ContentType string  `json:"content_type" gorm:"size:100"`
	FileSize    int64   `json:"file_size"`
	Description *string `json:"description" gorm:"type:text"`

	// Uploader supplied tags, e.g. {"category": "lab"}
	Tags datatypes.JSONMap `json:"tags" gorm:"type:jsonb"`

	UploadedAt time.Time `json:"uploaded_at" gorm:"not null"`
}

func (MedicalRecord) TableName() string {
	return "medical_records"
}

type HealthData struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	PatientID  uint      `json:"patient_id" gorm:"not null;index"`
	DataType   string    `json:"data_type" gorm:"not null;size:50;index"`
	Value      string    `json:"value" gorm:"not null;size:100"`
	Unit       *string   `json:"unit" gorm:"size:20"`
	Notes      *string   `json:"notes" gorm:"type:text"`
	RecordedAt time.Time `json:"recorded_at" gorm:"not null;index"`

	// Device readings and similar free-form context
	Metadata datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
}

func (HealthData) TableName() string {
	return "health_data"
}
