package webuiService

import (
	"time"

	webuiRepository "CutoutDemo/internal/api/webui/repository"
	"CutoutDemo/internal/entity"
	"CutoutDemo/pkg/httpclient"
	"CutoutDemo/pkg/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IWebUIService interface {
	// Submit sends image to the gateway and records the returned URL as the
	// newest history entry. A raw PNG reply is stored locally first.
	Submit(ctx context.Context, image []byte, params entity.PromptParams) (entity.HistoryEntry, error)
	History(ctx context.Context) ([]entity.HistoryEntry, error)
	ClearHistory(ctx context.Context) error
}

type Config struct {
	GatewayURL string
	Timeout    time.Duration
}

type webuiService struct {
	log     *logrus.Logger
	client  httpclient.IClient
	repo    webuiRepository.Repository
	results webuiRepository.ResultStore
	utils   utils.IUtils
	cfg     Config
}

func New(
	log *logrus.Logger,
	client httpclient.IClient,
	repo webuiRepository.Repository,
	results webuiRepository.ResultStore,
	utils utils.IUtils,
	cfg Config,
) IWebUIService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}

	return &webuiService{
		log:     log,
		client:  client,
		repo:    repo,
		results: results,
		utils:   utils,
		cfg:     cfg,
	}
}
