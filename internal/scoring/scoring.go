package scoring

import (
	"context"
	"fmt"
	"time"

	"stress-backend/internal/scoring/remote"
	"stress-backend/internal/shared/storage/object"
	"stress-backend/internal/stress"
)

// Provider kinds accepted by New.
const (
	KindModel  = "model"
	KindRemote = "remote"
	KindNone   = "none"
)

// Options selects and configures a score provider.
type Options struct {
	Kind          string
	Store         object.Store
	ModelKey      string
	RemoteURL     string
	RemoteTimeout time.Duration
}

// New builds the provider named by opts.Kind. An empty kind is treated as none.
func New(ctx context.Context, opts Options) (stress.Provider, error) {
	switch opts.Kind {
	case KindModel:
		return LoadModel(ctx, opts.Store, opts.ModelKey)
	case KindRemote:
		return remote.NewClient(opts.RemoteURL, opts.RemoteTimeout)
	case KindNone, "":
		return Unconfigured{}, nil
	default:
		return nil, fmt.Errorf("unknown score provider %q", opts.Kind)
	}
}

// Describe names a provider for health and log output.
func Describe(p stress.Provider) string {
	switch v := p.(type) {
	case *Model:
		if v.Version() != "" {
			return KindModel + ":" + v.Version()
		}
		return KindModel
	case *remote.Client:
		return KindRemote
	case Unconfigured:
		return KindNone
	default:
		return "custom"
	}
}
