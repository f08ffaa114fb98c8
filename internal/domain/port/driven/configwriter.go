package driven

import "context"

// ConfigGenerator defines the driven port for writing the static deployment
// templates. Write failures are wrapped with ErrIO.
type ConfigGenerator interface {
	Generate(ctx context.Context) error
}
