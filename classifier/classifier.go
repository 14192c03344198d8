package classifier

import "context"

type Classifier interface {
	Classify(ctx context.Context, imageRef string) (Result, error)
}
