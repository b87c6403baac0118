package history

import (
	"google.golang.org/grpc"

	"github.com/oggyb/run-together/internal/api"
	"github.com/oggyb/run-together/internal/app"
)

// Registrar ties the History service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the History service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the History service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	service := NewHistoryService(r.appCtx)
	api.RegisterHistoryServiceServer(s, service)
}
