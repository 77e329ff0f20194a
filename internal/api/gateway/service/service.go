package gatewayService

import (
	"CutoutDemo/internal/api/gateway"
	"CutoutDemo/pkg/httpclient"
	"CutoutDemo/pkg/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IGatewayService interface {
	Forward(ctx context.Context, req gateway.SegmentRequest) (*httpclient.RawResponse, error)
}

type gatewayService struct {
	log          *logrus.Logger
	client       httpclient.IClient
	utils        utils.IUtils
	inferenceURL string
}

func New(log *logrus.Logger, client httpclient.IClient, utils utils.IUtils, inferenceURL string) IGatewayService {
	return &gatewayService{
		log:          log,
		client:       client,
		utils:        utils,
		inferenceURL: inferenceURL,
	}
}
