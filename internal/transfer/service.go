package transfer

import (
	"context"
	"fmt"
	"log"

	"github.com/dvkit/transfer/internal/excel"
	"github.com/dvkit/transfer/internal/odata"
	"github.com/dvkit/transfer/internal/repository"
	"github.com/dvkit/transfer/internal/transform"
)

// Service exposes config management and transfer previews over the
// stored configs.
type Service struct {
	repo         repository.TransferConfigRepository
	simplePlural bool
}

func NewService(repo repository.TransferConfigRepository, simplePlural bool) *Service {
	return &Service{repo: repo, simplePlural: simplePlural}
}

func (s *Service) SaveConfig(ctx context.Context, cfg transform.TransferConfig) (repository.StoredTransferConfig, error) {
	return s.repo.Save(ctx, cfg)
}

func (s *Service) GetConfig(ctx context.Context, name string) (repository.StoredTransferConfig, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *Service) ListConfigs(ctx context.Context) ([]repository.StoredTransferConfig, error) {
	return s.repo.List(ctx)
}

func (s *Service) DeleteConfig(ctx context.Context, name string) error {
	return s.repo.Delete(ctx, name)
}

// ImportMapping parses an xlsx mapping workbook and stores it as a
// config under the given name.
func (s *Service) ImportMapping(ctx context.Context, name, sourceEnv, targetEnv string, payload []byte) (repository.StoredTransferConfig, error) {
	mappings, err := excel.ReadMapping(payload)
	if err != nil {
		return repository.StoredTransferConfig{}, fmt.Errorf("import mapping %q: %w", name, err)
	}
	cfg := transform.TransferConfig{
		Name:           name,
		SourceEnv:      sourceEnv,
		TargetEnv:      targetEnv,
		EntityMappings: mappings,
	}
	stored, err := s.repo.Save(ctx, cfg)
	if err != nil {
		return repository.StoredTransferConfig{}, err
	}
	log.Printf("Imported mapping %q with %d entity mappings", name, len(mappings))
	return stored, nil
}

// ExportMapping renders a stored config back to xlsx.
func (s *Service) ExportMapping(ctx context.Context, name string) ([]byte, error) {
	stored, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	payload, err := excel.WriteMappingBytes(stored.Config.EntityMappings)
	if err != nil {
		return nil, fmt.Errorf("export mapping %q: %w", name, err)
	}
	return payload, nil
}

// PreviewRequest carries the datasets a preview runs against. Config is
// either referenced by name or supplied inline.
type PreviewRequest struct {
	ConfigName  string                      `json:"configName,omitempty"`
	Config      *transform.TransferConfig   `json:"config,omitempty"`
	Source      map[string][]map[string]any `json:"source"`
	Target      map[string][]map[string]any `json:"target"`
	PrimaryKeys map[string]string           `json:"primaryKeys,omitempty"`
}

// Preview runs the whole engine over in-memory datasets and returns the
// planned actions without touching any environment.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (transform.ResolvedTransfer, error) {
	var cfg transform.TransferConfig
	switch {
	case req.Config != nil:
		cfg = *req.Config
	case req.ConfigName != "":
		stored, err := s.repo.GetByName(ctx, req.ConfigName)
		if err != nil {
			return transform.ResolvedTransfer{}, err
		}
		cfg = stored.Config
	default:
		return transform.ResolvedTransfer{}, fmt.Errorf("preview requires a config or configName")
	}

	resolverCtx := transform.BuildResolverContext(cfg.Resolvers, req.Target, req.PrimaryKeys)
	engine := transform.NewEngine(transform.NewApplier(resolverCtx.Funcs()))
	resolved, err := engine.TransformAll(cfg, req.Source, req.Target, req.PrimaryKeys)
	if err != nil {
		return transform.ResolvedTransfer{}, err
	}
	return resolved, nil
}

// EntityQuery pairs an entity mapping with the OData query that fetches
// its source records.
type EntityQuery struct {
	SourceEntity string      `json:"sourceEntity"`
	TargetEntity string      `json:"targetEntity"`
	Query        odata.Query `json:"query"`
	Request      string      `json:"request"`
}

// Queries derives the source fetch queries for every entity mapping of
// a stored config.
func (s *Service) Queries(ctx context.Context, name string) ([]EntityQuery, error) {
	stored, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	queries := make([]EntityQuery, 0, len(stored.Config.EntityMappings))
	for _, mapping := range stored.Config.EntityMappingsByPriority() {
		query := odata.BuildQuery(mapping, s.simplePlural)
		queries = append(queries, EntityQuery{
			SourceEntity: mapping.SourceEntity,
			TargetEntity: mapping.TargetEntity,
			Query:        query,
			Request:      query.String(),
		})
	}
	return queries, nil
}
