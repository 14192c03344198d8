package memory

import (
	"context"
	"sync"

	"github.com/w-h-a/idc-assistant/conversation"
)

type memoryStore struct {
	options conversation.Options
	log     conversation.Log
	mtx     sync.RWMutex
}

func (s *memoryStore) Load(ctx context.Context) (conversation.Log, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	cpy := make(conversation.Log, len(s.log))
	copy(cpy, s.log)

	return cpy, nil
}

func (s *memoryStore) Save(ctx context.Context, log conversation.Log) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	cpy := make(conversation.Log, len(log))
	copy(cpy, log)

	s.log = cpy

	return nil
}

func (s *memoryStore) Clear(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.log = conversation.Log{}

	return nil
}

func NewStore(opts ...conversation.Option) conversation.Store {
	options := conversation.NewOptions(opts...)

	return &memoryStore{
		options: options,
		log:     conversation.Log{},
		mtx:     sync.RWMutex{},
	}
}
