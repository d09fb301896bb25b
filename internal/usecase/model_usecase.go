package usecase

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/egmaziero/ktrain/internal/domain/entity"
	"github.com/egmaziero/ktrain/internal/domain/repository"
	"github.com/egmaziero/ktrain/internal/infrastructure/metrics"
	"github.com/egmaziero/ktrain/internal/ml/dataset"
	"github.com/egmaziero/ktrain/internal/ml/lang"
	"github.com/egmaziero/ktrain/internal/ml/textclf"
)

// CSVSource names a CSV training file.
type CSVSource struct {
	Path        string `json:"path" binding:"required"`
	TextColumn  string `json:"text_column"`
	LabelColumn string `json:"label_column"`
	Sep         string `json:"sep" binding:"omitempty,len=1"`
	Encoding    string `json:"encoding"`
}

// FolderSource names a folder-per-class training tree.
type FolderSource struct {
	Path       string   `json:"path" binding:"required"`
	Subfolders []string `json:"subfolders"`
	Include    string   `json:"include"`
	Encoding   string   `json:"encoding"`
	Seed       *uint64  `json:"seed"`
}

// TrainModelInput represents the input for training a model. Exactly one of
// inline texts, CSV or Folder must be given.
type TrainModelInput struct {
	Name   string        `json:"name" binding:"required,max=100"`
	Kind   string        `json:"kind"`
	Texts  []string      `json:"texts"`
	Labels []string      `json:"labels"`
	CSV    *CSVSource    `json:"csv"`
	Folder *FolderSource `json:"folder"`
	ValPct float64       `json:"val_pct" binding:"omitempty,gt=0,lt=1"`
}

// ModelOutput represents a model registry entry.
type ModelOutput struct {
	ModelID      uuid.UUID `json:"model_id"`
	Name         string    `json:"name"`
	Kind         string    `json:"kind"`
	Language     string    `json:"language"`
	LabelNames   []string  `json:"label_names"`
	NumDocuments int       `json:"num_documents"`
	NumFeatures  int       `json:"num_features"`
	Converged    bool      `json:"converged"`
	Accuracy     *float64  `json:"accuracy,omitempty"`
	CreatedAt    string    `json:"created_at"`
}

// ModelListOutput represents a paginated model list.
type ModelListOutput struct {
	Models  []*ModelOutput `json:"models"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	HasMore bool           `json:"has_more"`
}

// PredictInput represents texts to classify.
type PredictInput struct {
	Texts         []string `json:"texts" binding:"required,min=1"`
	Probabilities bool     `json:"probabilities"`
}

// Prediction is the label of one text.
type Prediction struct {
	Label         int                `json:"label"`
	LabelName     string             `json:"label_name"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
}

// PredictOutput represents classification results in input order.
type PredictOutput struct {
	ModelID     uuid.UUID     `json:"model_id"`
	Predictions []*Prediction `json:"predictions"`
}

// EvaluateInput represents labeled texts for evaluation. Labels are class names.
type EvaluateInput struct {
	Texts  []string `json:"texts" binding:"required,min=1"`
	Labels []string `json:"labels" binding:"required,min=1"`
}

// EvaluateOutput represents an evaluation result.
type EvaluateOutput struct {
	ModelID      uuid.UUID `json:"model_id"`
	Accuracy     float64   `json:"accuracy"`
	NumDocuments int       `json:"num_documents"`
}

// ModelUsecase defines the interface for model training and inference.
type ModelUsecase interface {
	Train(ctx context.Context, input *TrainModelInput) (*ModelOutput, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ModelOutput, error)
	List(ctx context.Context, limit, offset int) (*ModelListOutput, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Predict(ctx context.Context, id uuid.UUID, input *PredictInput) (*PredictOutput, error)
	Evaluate(ctx context.Context, id uuid.UUID, input *EvaluateInput) (*EvaluateOutput, error)
}

type modelUsecase struct {
	modelRepo repository.ModelRepository
	seg       lang.Segmenter
	fits      *semaphore.Weighted
	dataDir   string
	logger    *zap.Logger
}

// NewModelUsecase creates a new model usecase. CSV and folder sources are
// resolved inside dataDir; an empty dataDir disables file sources. At most
// maxFits trainings run at once.
func NewModelUsecase(modelRepo repository.ModelRepository, dataDir string, maxFits int, logger *zap.Logger) ModelUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxFits < 1 {
		maxFits = 1
	}
	return &modelUsecase{
		modelRepo: modelRepo,
		seg:       lang.NewGSESegmenter(logger.Named("gse")),
		fits:      semaphore.NewWeighted(int64(maxFits)),
		dataDir:   dataDir,
		logger:    logger,
	}
}

func (u *modelUsecase) Train(ctx context.Context, input *TrainModelInput) (*ModelOutput, error) {
	kind, err := textclf.ParseKind(input.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, input.Kind)
	}

	ds, err := u.loadDataset(input)
	if err != nil {
		return nil, err
	}

	train, test := ds, (*dataset.Dataset)(nil)
	if input.ValPct > 0 {
		train, test, err = dataset.Split(ds, input.ValPct)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	if err := u.fits.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	clf := u.newClassifier()
	start := time.Now()
	err = clf.Fit(train.Texts, train.Labels, kind)
	u.fits.Release(1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	metrics.ObserveFit(string(kind), time.Since(start))

	model := entity.NewTrainedModel(input.Name, entity.ModelKind(kind), ds.LabelNames)
	model.Language = clf.Language()
	model.NumDocuments = train.Len()
	model.NumFeatures = clf.NumFeatures()
	model.Converged = clf.Converged()

	if test != nil {
		acc, err := clf.Evaluate(test.Texts, test.Labels)
		if err != nil {
			return nil, err
		}
		model.RecordEvaluation(acc)
	}

	var buf bytes.Buffer
	if err := clf.Save(&buf); err != nil {
		return nil, err
	}
	model.Artifact = buf.Bytes()

	if err := u.modelRepo.Create(ctx, model); err != nil {
		return nil, err
	}

	u.logger.Info("Model trained",
		zap.String("model_id", model.ID.String()),
		zap.String("name", model.Name),
		zap.String("kind", string(kind)),
		zap.Int("documents", model.NumDocuments),
		zap.Bool("evaluated", model.Evaluated),
	)
	return toModelOutput(model), nil
}

func (u *modelUsecase) GetByID(ctx context.Context, id uuid.UUID) (*ModelOutput, error) {
	model, err := u.getModel(ctx, id)
	if err != nil {
		return nil, err
	}
	return toModelOutput(model), nil
}

func (u *modelUsecase) List(ctx context.Context, limit, offset int) (*ModelListOutput, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	models, total, err := u.modelRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	outputs := make([]*ModelOutput, len(models))
	for i, m := range models {
		outputs[i] = toModelOutput(m)
	}

	return &ModelListOutput{
		Models:  outputs,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	}, nil
}

func (u *modelUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := u.getModel(ctx, id); err != nil {
		return err
	}
	return u.modelRepo.Delete(ctx, id)
}

func (u *modelUsecase) Predict(ctx context.Context, id uuid.UUID, input *PredictInput) (*PredictOutput, error) {
	if len(input.Texts) == 0 {
		return nil, fmt.Errorf("%w: texts must not be empty", ErrInvalidRequest)
	}
	model, clf, err := u.loadClassifier(ctx, id)
	if err != nil {
		return nil, err
	}

	labels, err := clf.Predict(input.Texts)
	if err != nil {
		return nil, err
	}
	var proba [][]float64
	if input.Probabilities {
		if proba, err = clf.PredictProba(input.Texts); err != nil {
			return nil, err
		}
	}
	metrics.ObservePredictions(string(model.Kind), len(input.Texts))

	classes := clf.Classes()
	out := &PredictOutput{ModelID: model.ID, Predictions: make([]*Prediction, len(labels))}
	for i, label := range labels {
		p := &Prediction{Label: label, LabelName: model.LabelName(label)}
		if proba != nil {
			p.Probabilities = make(map[string]float64, len(classes))
			for j, class := range classes {
				p.Probabilities[model.LabelName(class)] = proba[i][j]
			}
		}
		out.Predictions[i] = p
	}
	return out, nil
}

func (u *modelUsecase) Evaluate(ctx context.Context, id uuid.UUID, input *EvaluateInput) (*EvaluateOutput, error) {
	if len(input.Texts) != len(input.Labels) {
		return nil, fmt.Errorf("%w: %d texts, %d labels", ErrInvalidRequest, len(input.Texts), len(input.Labels))
	}
	model, clf, err := u.loadClassifier(ctx, id)
	if err != nil {
		return nil, err
	}

	truth := make([]int, len(input.Labels))
	for i, name := range input.Labels {
		k, ok := model.LabelIndex(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown label %q", ErrInvalidRequest, name)
		}
		truth[i] = k
	}

	acc, err := clf.Evaluate(input.Texts, truth)
	if err != nil {
		return nil, err
	}
	metrics.ObservePredictions(string(model.Kind), len(input.Texts))

	if err := u.modelRepo.UpdateEvaluation(ctx, id, acc); err != nil {
		return nil, err
	}

	return &EvaluateOutput{ModelID: id, Accuracy: acc, NumDocuments: len(input.Texts)}, nil
}

func (u *modelUsecase) newClassifier() *textclf.Classifier {
	return textclf.New(
		textclf.WithLogger(u.logger.Named("textclf")),
		textclf.WithSegmenter(u.seg),
	)
}

func (u *modelUsecase) getModel(ctx context.Context, id uuid.UUID) (*entity.TrainedModel, error) {
	model, err := u.modelRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, ErrModelNotFound
	}
	return model, nil
}

// loadClassifier deserializes a private classifier for one request.
func (u *modelUsecase) loadClassifier(ctx context.Context, id uuid.UUID) (*entity.TrainedModel, *textclf.Classifier, error) {
	model, err := u.getModel(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	clf := u.newClassifier()
	if err := clf.Load(bytes.NewReader(model.Artifact)); err != nil {
		return nil, nil, fmt.Errorf("failed to load model %s: %w", id, err)
	}
	return model, clf, nil
}

func (u *modelUsecase) loadDataset(input *TrainModelInput) (*dataset.Dataset, error) {
	sources := 0
	if len(input.Texts) > 0 || len(input.Labels) > 0 {
		sources++
	}
	if input.CSV != nil {
		sources++
	}
	if input.Folder != nil {
		sources++
	}
	if sources != 1 {
		return nil, fmt.Errorf("%w: exactly one of texts, csv or folder is required", ErrInvalidRequest)
	}

	logger := u.logger.Named("dataset")
	switch {
	case input.CSV != nil:
		path, err := u.resolvePath(input.CSV.Path)
		if err != nil {
			return nil, err
		}
		opts := dataset.DefaultCSVOptions()
		if input.CSV.TextColumn != "" {
			opts.TextColumn = input.CSV.TextColumn
		}
		if input.CSV.LabelColumn != "" {
			opts.LabelColumn = input.CSV.LabelColumn
		}
		if input.CSV.Sep != "" {
			opts.Sep = []rune(input.CSV.Sep)[0]
		}
		opts.Encoding = input.CSV.Encoding
		opts.Logger = logger
		ds, err := dataset.TextsFromCSV(path, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return ds, nil

	case input.Folder != nil:
		path, err := u.resolvePath(input.Folder.Path)
		if err != nil {
			return nil, err
		}
		opts := dataset.DefaultFolderOptions()
		opts.Subfolders = input.Folder.Subfolders
		if input.Folder.Include != "" {
			opts.Include = input.Folder.Include
		}
		if input.Folder.Seed != nil {
			opts.Seed = *input.Folder.Seed
		}
		opts.Encoding = input.Folder.Encoding
		opts.Logger = logger
		ds, err := dataset.TextsFromFolder(path, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return ds, nil

	default:
		if len(input.Texts) != len(input.Labels) {
			return nil, fmt.Errorf("%w: %d texts, %d labels", ErrInvalidRequest, len(input.Texts), len(input.Labels))
		}
		labels, names := dataset.EncodeLabels(input.Labels)
		return &dataset.Dataset{Texts: input.Texts, Labels: labels, LabelNames: names}, nil
	}
}

// resolvePath maps a source path into the data directory and rejects
// paths that leave it.
func (u *modelUsecase) resolvePath(p string) (string, error) {
	if u.dataDir == "" {
		return "", fmt.Errorf("%w: file sources are disabled", ErrInvalidRequest)
	}
	root, err := filepath.Abs(u.dataDir)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, filepath.Clean("/"+p))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path %q is outside the data directory", ErrInvalidRequest, p)
	}
	return full, nil
}

func toModelOutput(m *entity.TrainedModel) *ModelOutput {
	out := &ModelOutput{
		ModelID:      m.ID,
		Name:         m.Name,
		Kind:         string(m.Kind),
		Language:     m.Language,
		LabelNames:   m.LabelNames,
		NumDocuments: m.NumDocuments,
		NumFeatures:  m.NumFeatures,
		Converged:    m.Converged,
		CreatedAt:    m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if m.Evaluated {
		acc := m.Accuracy
		out.Accuracy = &acc
	}
	return out
}
