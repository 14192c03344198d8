package http

import (
	"context"
	"net/http"

	"github.com/w-h-a/idc-assistant/server"
)

type middlewareKey struct{}

func WithMiddleware(ms ...func(h http.Handler) http.Handler) server.Option {
	return func(o *server.Options) {
		o.Context = context.WithValue(o.Context, middlewareKey{}, ms)
	}
}

func MiddlewareFrom(ctx context.Context) ([]func(h http.Handler) http.Handler, bool) {
	ms, ok := ctx.Value(middlewareKey{}).([]func(h http.Handler) http.Handler)
	return ms, ok
}

type uploadsKey struct{}

func WithUploadsDir(dir string) server.Option {
	return func(o *server.Options) {
		o.Context = context.WithValue(o.Context, uploadsKey{}, dir)
	}
}

func UploadsDirFrom(ctx context.Context) (string, bool) {
	dir, ok := ctx.Value(uploadsKey{}).(string)
	return dir, ok
}
