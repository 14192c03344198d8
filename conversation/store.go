package conversation

import "context"

type Store interface {
	Load(ctx context.Context) (Log, error)
	Save(ctx context.Context, log Log) error
	Clear(ctx context.Context) error
}
