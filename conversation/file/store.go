package file

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/w-h-a/idc-assistant/conversation"
)

type fileStore struct {
	options conversation.Options
}

func (s *fileStore) Load(ctx context.Context) (conversation.Log, error) {
	bs, err := os.ReadFile(s.options.Location)
	if errors.Is(err, fs.ErrNotExist) {
		return conversation.Log{}, nil
	}
	if err != nil {
		return nil, err
	}

	return conversation.Unmarshal(bs)
}

func (s *fileStore) Save(ctx context.Context, log conversation.Log) error {
	bs, err := conversation.Marshal(log)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.options.Location); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return os.WriteFile(s.options.Location, bs, 0o644)
}

func (s *fileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.options.Location); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if len(s.options.Uploads) == 0 {
		return nil
	}

	entries, err := os.ReadDir(s.options.Uploads)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.options.Uploads, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.WarnContext(ctx, "failed to delete uploaded artifact", "path", path, "error", err)
		}
	}

	return nil
}

func NewStore(opts ...conversation.Option) conversation.Store {
	options := conversation.NewOptions(opts...)

	if len(options.Location) == 0 {
		panic("conversation file location is required")
	}

	return &fileStore{
		options: options,
	}
}
