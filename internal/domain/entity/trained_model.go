package entity

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ModelKind is the estimator behind a trained text classifier.
type ModelKind string

const (
	ModelKindNBSVM  ModelKind = "nbsvm"
	ModelKindLogReg ModelKind = "logreg"
)

// TrainedModel is a fitted text classifier kept in the model registry.
// Artifact holds the serialized pipeline and is never sent to clients.
type TrainedModel struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name         string    `json:"name" gorm:"type:varchar(100);not null"`
	Kind         ModelKind `json:"kind" gorm:"type:varchar(20);not null"`
	Language     string    `json:"language" gorm:"type:varchar(16)"`
	LabelNames   []string  `json:"label_names" gorm:"serializer:json"`
	NumDocuments int       `json:"num_documents" gorm:"default:0"`
	NumFeatures  int       `json:"num_features" gorm:"default:0"`
	Converged    bool      `json:"converged" gorm:"default:false"`
	Accuracy     float64   `json:"accuracy" gorm:"default:0"`
	Evaluated    bool      `json:"evaluated" gorm:"default:false"`
	Artifact     []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (TrainedModel) TableName() string {
	return "trained_models"
}

// NewTrainedModel creates a registry entry with a fresh ID.
func NewTrainedModel(name string, kind ModelKind, labelNames []string) *TrainedModel {
	return &TrainedModel{
		ID:         uuid.New(),
		Name:       name,
		Kind:       kind,
		LabelNames: labelNames,
	}
}

// NumClasses returns the number of known classes.
func (m *TrainedModel) NumClasses() int {
	return len(m.LabelNames)
}

// LabelName returns the class name for label k, or its decimal form when
// the model has no name for it.
func (m *TrainedModel) LabelName(k int) string {
	if k >= 0 && k < len(m.LabelNames) {
		return m.LabelNames[k]
	}
	return strconv.Itoa(k)
}

// LabelIndex returns the label for a class name.
func (m *TrainedModel) LabelIndex(name string) (int, bool) {
	for i, n := range m.LabelNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// RecordEvaluation stores a held-out accuracy.
func (m *TrainedModel) RecordEvaluation(accuracy float64) {
	m.Accuracy = accuracy
	m.Evaluated = true
}
