package cli

import (
	"fmt"

	"github.com/taskpilot/taskpilot/internal/infrastructure/config"
	"github.com/taskpilot/taskpilot/pkg/ai"
	"github.com/taskpilot/taskpilot/pkg/application"
	domainai "github.com/taskpilot/taskpilot/pkg/domain/ai"
	"github.com/taskpilot/taskpilot/pkg/storage"
)

// appServices bundles the wired dependencies a command needs.
type appServices struct {
	Repo     *storage.FilesystemRepository
	Config   *config.Config
	Provider domainai.Provider
}

func loadServices() (*appServices, error) {
	repo, err := storage.NewHomeRepository()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(repo)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &appServices{Repo: repo, Config: cfg}, nil
}

// withProvider additionally constructs the AI provider from configuration,
// honoring --provider / --model overrides.
func (s *appServices) withProvider(providerOverride, modelOverride string) error {
	providerName := s.Config.Provider
	if providerOverride != "" {
		providerName = providerOverride
	}
	model := s.Config.Model
	if modelOverride != "" {
		model = modelOverride
	}
	provider, err := ai.NewResilientProviderFor(providerName, model)
	if err != nil {
		return err
	}
	s.Provider = provider
	return nil
}

func (s *appServices) newInterview(maxQuestions int) *application.InterviewService {
	if maxQuestions <= 0 {
		maxQuestions = s.Config.MaxQuestions
	}
	return application.NewInterviewService(s.Provider, s.Repo, s.Repo, maxQuestions, s.Config.MaxTokens)
}
